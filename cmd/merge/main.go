// Command merge joins one corridor-year's detector and probe travel-time
// series against the persisted crosswalk and writes the merged artifact.
// Both of the corridor's directions are merged together; the window is
// inclusive of both dates in the reference time zone.
//
// Usage:
//
//	DATA_ROOT=/data/cades go run ./cmd/merge \
//	  -route I205 -year 2023 -start 2023-10-01 -end 2023-10-31
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/cascadiamobility/traveltime-etl/internal/catalog"
	"github.com/cascadiamobility/traveltime-etl/internal/config"
	"github.com/cascadiamobility/traveltime-etl/internal/merge"
	"github.com/cascadiamobility/traveltime-etl/internal/observability"
	"github.com/cascadiamobility/traveltime-etl/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		slog.Error("merge failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	route := flag.String("route", "", "corridor name as cataloged, e.g. I205")
	year := flag.Int("year", 0, "dataset year")
	start := flag.String("start", "", "window start date, YYYY-MM-DD (inclusive)")
	end := flag.String("end", "", "window end date, YYYY-MM-DD (inclusive)")
	flag.Parse()

	if *route == "" || *year == 0 || *start == "" || *end == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -route, -year, -start, -end")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	catCfg := catalog.DefaultConfig()
	corridor, err := findCorridor(catCfg, *route)
	if err != nil {
		return err
	}

	loc := cfg.Location()
	startAt, err := time.ParseInLocation("2006-01-02", *start, loc)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}
	endAt, err := time.ParseInLocation("2006-01-02", *end, loc)
	if err != nil {
		return fmt.Errorf("invalid -end: %w", err)
	}
	endAt = endAt.AddDate(0, 0, 1).Add(-time.Second)

	cat, err := catalog.Build(cfg.DataRoot,
		catalog.YearRange{Start: cfg.YearStart, End: cfg.YearEnd}, catCfg)
	if err != nil {
		return err
	}

	engine := merge.NewEngine(loc, logger, metrics)
	runner := pipeline.NewRunner(cat, cfg.OutputDir, engine, logger, metrics, clockwork.NewRealClock())

	req := merge.Request{
		Route:  corridor.Name,
		Year:   *year,
		Bound1: corridor.Directions[0],
		Bound2: corridor.Directions[1],
		Start:  startAt,
		End:    endAt,
	}
	if err := runner.RunMerge(req); err != nil {
		return err
	}

	metrics.LogSummary(logger)
	return nil
}

func findCorridor(cfg catalog.Config, route string) (catalog.Corridor, error) {
	for _, c := range cfg.Corridors {
		if c.Name == route {
			return c, nil
		}
	}
	return catalog.Corridor{}, fmt.Errorf("unknown route %q", route)
}
