// Package catalog indexes the on-disk probe and detector dataset trees into
// a queryable structure. Filenames in both trees are inconsistently named;
// classification is by substring matching against configured tags, which is
// deliberately permissive (see DataFiles).
package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// File roles within a dataset year.
const (
	roleData = "data"
	roleMeta = "meta"
)

// Corridor names one detector corridor: its directory under the detector
// subtree and the ordered pair of directions its files are labelled with.
type Corridor struct {
	Name       string
	Dir        string
	Directions [2]string
}

// Config describes the directory layout and filename tags of both dataset
// subtrees. It is immutable once a Catalog is built; tests supply alternate
// corridor sets and tags.
type Config struct {
	// Probe subtree: one year-named folder per year, each holding a data
	// file and a TMC identification (metadata) file.
	ProbeDir           string
	ProbeYearDirPrefix string
	ProbeDataTag       string
	ProbeMetaTag       string

	// Detector subtree: one folder per corridor plus a metadata folder with
	// fixed-name reference files.
	DetectorDir string
	MetaDir     string
	MetaFiles   map[string]string
	Corridors   []Corridor
}

// DefaultConfig mirrors the production data drop layout.
func DefaultConfig() Config {
	return Config{
		ProbeDir:           "CADES_INRIX",
		ProbeYearDirPrefix: "INRIX_CADES_",
		ProbeDataTag:       "INRIX_CADES",
		ProbeMetaTag:       "TMC_Identification",
		DetectorDir:        "CADES_PORTAL",
		MetaDir:            "metadata",
		MetaFiles: map[string]string{
			"detectors": "detectors.csv",
			"highways":  "highways.csv",
			"stations":  "stations.csv",
		},
		Corridors: []Corridor{
			{Name: "I5", Dir: "I-5 Corridor", Directions: [2]string{"NB", "SB"}},
			{Name: "I205", Dir: "I-205 Corridor", Directions: [2]string{"NB", "SB"}},
			{Name: "SR14", Dir: "SR-14 Corridor", Directions: [2]string{"EB", "WB"}},
		},
	}
}

// YearRange is inclusive-exclusive: {2019, 2025} covers 2019 through 2024.
type YearRange struct {
	Start int
	End   int
}

// Years returns the covered years as the 4-digit strings matched against
// filenames.
func (r YearRange) Years() []string {
	var years []string
	for y := r.Start; y < r.End; y++ {
		years = append(years, strconv.Itoa(y))
	}
	return years
}

// LookupError reports a catalog request for a key the catalog does not
// carry: unknown corridor, out-of-range year, unknown metadata name, or a
// direction a corridor is not labelled with.
type LookupError struct {
	Kind string
	Key  string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("catalog lookup: unknown %s %q", e.Kind, e.Key)
}

// Catalog is the immutable index built by Build. All accessors distinguish
// "known key, no files" (empty result) from "unknown key" (LookupError).
type Catalog struct {
	cfg   Config
	years YearRange

	// probe dataset: year -> role -> path
	probe map[string]map[string]string
	// detector dataset: corridor -> year -> direction -> paths
	detector map[string]map[string]map[string][]string
	// detector metadata: name -> path
	meta map[string]string
}

// Build scans root and classifies every file it finds. Missing
// subdirectories degrade to empty buckets for their keys; only filesystem
// errors other than absence fail the scan.
func Build(root string, years YearRange, cfg Config) (*Catalog, error) {
	c := &Catalog{
		cfg:      cfg,
		years:    years,
		probe:    make(map[string]map[string]string),
		detector: make(map[string]map[string]map[string][]string),
		meta:     make(map[string]string),
	}

	if err := c.scanProbe(root); err != nil {
		return nil, fmt.Errorf("scan probe tree: %w", err)
	}
	if err := c.scanDetector(root); err != nil {
		return nil, fmt.Errorf("scan detector tree: %w", err)
	}

	for name, file := range cfg.MetaFiles {
		c.meta[name] = filepath.Join(root, cfg.DetectorDir, cfg.MetaDir, file)
	}
	return c, nil
}

func (c *Catalog) scanProbe(root string) error {
	for _, year := range c.years.Years() {
		c.probe[year] = make(map[string]string)

		dir := filepath.Join(root, c.cfg.ProbeDir, c.cfg.ProbeYearDirPrefix+year)
		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return err
		}

		for _, entry := range entries {
			if entry.IsDir() || filepath.Ext(entry.Name()) != ".csv" {
				continue
			}
			// Last match wins when several files carry the same tag.
			switch {
			case strings.Contains(entry.Name(), c.cfg.ProbeMetaTag):
				c.probe[year][roleMeta] = filepath.Join(dir, entry.Name())
			case strings.Contains(entry.Name(), c.cfg.ProbeDataTag):
				c.probe[year][roleData] = filepath.Join(dir, entry.Name())
			}
		}
	}
	return nil
}

func (c *Catalog) scanDetector(root string) error {
	years := c.years.Years()
	for _, corridor := range c.cfg.Corridors {
		buckets := make(map[string]map[string][]string, len(years))
		for _, year := range years {
			buckets[year] = map[string][]string{
				corridor.Directions[0]: {},
				corridor.Directions[1]: {},
			}
		}
		c.detector[corridor.Name] = buckets

		dir := filepath.Join(root, c.cfg.DetectorDir, corridor.Dir)
		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return err
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			for _, year := range years {
				if !strings.Contains(entry.Name(), year) {
					continue
				}
				for _, d := range corridor.Directions {
					if strings.Contains(entry.Name(), d) {
						buckets[year][d] = append(buckets[year][d], filepath.Join(dir, entry.Name()))
					}
				}
			}
		}
	}
	return nil
}

// MetaPath returns the path of a fixed-name detector metadata reference file
// ("detectors", "highways", "stations" in the default config).
func (c *Catalog) MetaPath(name string) (string, error) {
	path, ok := c.meta[name]
	if !ok {
		return "", &LookupError{Kind: "metadata name", Key: name}
	}
	return path, nil
}

// DataFiles returns every detector data file bucketed under (corridor, year,
// direction). The result may be empty and may list a file that other
// buckets also list: filename substring matching is ambiguous by
// construction, and a name containing several year or direction substrings
// lands in every bucket it matches. Consumers must tolerate both.
func (c *Catalog) DataFiles(corridor string, year int, dir string) ([]string, error) {
	buckets, ok := c.detector[corridor]
	if !ok {
		return nil, &LookupError{Kind: "corridor", Key: corridor}
	}
	byDir, ok := buckets[strconv.Itoa(year)]
	if !ok {
		return nil, &LookupError{Kind: "year", Key: strconv.Itoa(year)}
	}
	files, ok := byDir[dir]
	if !ok {
		return nil, &LookupError{Kind: "direction", Key: dir}
	}
	return files, nil
}

// ProbeDataPath returns the probe dataset primary data file for a year.
func (c *Catalog) ProbeDataPath(year int) (string, error) {
	return c.probePath(year, roleData)
}

// ProbeMetaPath returns the probe TMC identification file for a year.
func (c *Catalog) ProbeMetaPath(year int) (string, error) {
	return c.probePath(year, roleMeta)
}

func (c *Catalog) probePath(year int, role string) (string, error) {
	key := strconv.Itoa(year)
	files, ok := c.probe[key]
	if !ok {
		return "", &LookupError{Kind: "year", Key: key}
	}
	path, ok := files[role]
	if !ok {
		return "", &LookupError{Kind: "probe " + role + " file for year", Key: key}
	}
	return path, nil
}

// Summary logs the indexed file counts per key, the startup sanity check the
// operator eyeballs before a run.
func (c *Catalog) Summary(logger *slog.Logger) {
	for _, year := range c.years.Years() {
		files := c.probe[year]
		logger.Info("probe files",
			"year", year,
			"data", orMissing(files[roleData]),
			"meta", orMissing(files[roleMeta]),
		)
	}
	for _, corridor := range c.cfg.Corridors {
		for _, year := range c.years.Years() {
			for _, d := range corridor.Directions {
				files := c.detector[corridor.Name][year][d]
				if len(files) == 0 {
					continue
				}
				logger.Info("detector files",
					"corridor", corridor.Name, "year", year, "direction", d,
					"count", len(files),
				)
			}
		}
	}
}

func orMissing(path string) string {
	if path == "" {
		return "MISSING"
	}
	return path
}
