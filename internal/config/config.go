package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all run settings, populated from environment variables.
// Dataset-layout specifics (corridor set, filename tags, direction
// vocabulary) live in their packages' own config structures; this covers the
// process-level knobs.
type Config struct {
	DataRoot  string
	OutputDir string
	YearStart int // inclusive
	YearEnd   int // exclusive
	Timezone  string
	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	yearStart, err := envInt("YEAR_START", 2019)
	if err != nil {
		return nil, err
	}
	yearEnd, err := envInt("YEAR_END", 2025)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataRoot:  os.Getenv("DATA_ROOT"),
		OutputDir: envOrDefault("OUTPUT_DIR", "data"),
		YearStart: yearStart,
		YearEnd:   yearEnd,
		Timezone:  envOrDefault("TIMEZONE", "America/Los_Angeles"),
		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "text"),
	}

	if cfg.DataRoot == "" {
		return nil, errors.New("DATA_ROOT is required")
	}
	if cfg.YearStart >= cfg.YearEnd {
		return nil, fmt.Errorf("year range [%d, %d) is empty", cfg.YearStart, cfg.YearEnd)
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	return cfg, nil
}

// Location resolves the configured reference time zone. Load has already
// validated it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		panic(err)
	}
	return loc
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
