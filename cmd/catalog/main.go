// Command catalog scans the data root and prints what the index found:
// probe data and identification files per year, detector file counts per
// corridor, year, and direction. Run it after a data drop to eyeball that
// every expected file was classified before building the crosswalk.
//
// Usage:
//
//	DATA_ROOT=/data/cades go run ./cmd/catalog
package main

import (
	"log/slog"
	"os"

	"github.com/cascadiamobility/traveltime-etl/internal/catalog"
	"github.com/cascadiamobility/traveltime-etl/internal/config"
	"github.com/cascadiamobility/traveltime-etl/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)

	cat, err := catalog.Build(cfg.DataRoot,
		catalog.YearRange{Start: cfg.YearStart, End: cfg.YearEnd},
		catalog.DefaultConfig())
	if err != nil {
		logger.Error("catalog scan failed", "error", err)
		os.Exit(1)
	}

	cat.Summary(logger)
}
