// Package tabular reads and writes the flat CSV files every pipeline stage
// consumes and produces. Decoding maps header names to struct fields via
// csv tags, so column order in source files does not matter.
package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/jszwec/csvutil"
)

// ReadAll loads and decodes an entire CSV file. The file handle is scoped to
// this call: the whole file is read before decoding begins and nothing is
// held open afterwards, even when decoding fails partway.
func ReadAll[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tabular file: %w", err)
	}

	var rows []T
	if err := csvutil.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return rows, nil
}

// ReadAllRequiring is ReadAll with a header precondition: each named column
// must be present in the file's header row. A missing column is a fatal
// configuration error (the two probe regional sources have different native
// schemas; this guards the common subset both must carry).
func ReadAllRequiring[T any](path string, columns ...string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tabular file: %w", err)
	}

	header, err := csv.NewReader(bytes.NewReader(data)).Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	for _, col := range columns {
		if !present[col] {
			return nil, fmt.Errorf("%s: missing required column %q", path, col)
		}
	}

	var rows []T
	if err := csvutil.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return rows, nil
}

// WriteAll encodes rows and writes them as a CSV file, replacing any
// existing file at path.
func WriteAll[T any](path string, rows []T) error {
	data, err := csvutil.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode rows: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write tabular file: %w", err)
	}
	return nil
}
