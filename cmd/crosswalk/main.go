// Command crosswalk builds the station-segment crosswalk from the station
// and highway metadata, the probe geometry regions, and the per-year TMC
// identification tables, and persists it under the output directory.
//
// Probe regions are passed as repeatable flags, shapefiles in lon/lat and
// CSV exports in either system:
//
//	DATA_ROOT=/data/cades go run ./cmd/crosswalk \
//	  -shp oregon=/data/shp/oregon_tmc.shp \
//	  -shp washington=/data/shp/washington_tmc.shp
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/cascadiamobility/traveltime-etl/internal/adapter/shapefile"
	"github.com/cascadiamobility/traveltime-etl/internal/catalog"
	"github.com/cascadiamobility/traveltime-etl/internal/config"
	"github.com/cascadiamobility/traveltime-etl/internal/crosswalk"
	"github.com/cascadiamobility/traveltime-etl/internal/merge"
	"github.com/cascadiamobility/traveltime-etl/internal/observability"
	"github.com/cascadiamobility/traveltime-etl/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		slog.Error("crosswalk build failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	var sources []crosswalk.Source
	flag.Func("shp", "probe region shapefile as name=path (WGS84, repeatable)", func(v string) error {
		name, path, err := splitRegion(v)
		if err != nil {
			return err
		}
		sources = append(sources, shapefile.Source{Name: name, Path: path, CRS: crosswalk.WGS84, Logger: logger})
		return nil
	})
	flag.Func("csv", "probe region CSV with hex-WKB geometry as name=path (WGS84, repeatable)", func(v string) error {
		name, path, err := splitRegion(v)
		if err != nil {
			return err
		}
		sources = append(sources, crosswalk.CSVSource{Name: name, Path: path, CRS: crosswalk.WGS84, Logger: logger, Metrics: metrics})
		return nil
	})
	flag.Parse()

	if len(sources) == 0 {
		flag.Usage()
		return fmt.Errorf("at least one -shp or -csv probe region is required")
	}

	years := catalog.YearRange{Start: cfg.YearStart, End: cfg.YearEnd}
	cat, err := catalog.Build(cfg.DataRoot, years, catalog.DefaultConfig())
	if err != nil {
		return err
	}
	cat.Summary(logger)

	engine := merge.NewEngine(cfg.Location(), logger, metrics)
	runner := pipeline.NewRunner(cat, cfg.OutputDir, engine, logger, metrics, clockwork.NewRealClock())

	identYears := make([]int, 0, cfg.YearEnd-cfg.YearStart)
	for y := cfg.YearStart; y < cfg.YearEnd; y++ {
		identYears = append(identYears, y)
	}
	if err := runner.BuildCrosswalk(sources, identYears); err != nil {
		return err
	}

	metrics.LogSummary(logger)
	return nil
}

func splitRegion(v string) (name, path string, err error) {
	name, path, ok := strings.Cut(v, "=")
	if !ok || name == "" || path == "" {
		return "", "", fmt.Errorf("expected name=path, got %q", v)
	}
	return name, path, nil
}
