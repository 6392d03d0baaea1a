// Package pipeline orchestrates the batch runs: building and persisting the
// station-segment crosswalk, and merging one corridor's detector and probe
// series against it. Each run is one-shot and sequential; stages either
// complete or fail with the stage name attached.
package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jonboulle/clockwork"

	"github.com/cascadiamobility/traveltime-etl/internal/adapter/tabular"
	"github.com/cascadiamobility/traveltime-etl/internal/catalog"
	"github.com/cascadiamobility/traveltime-etl/internal/crosswalk"
	"github.com/cascadiamobility/traveltime-etl/internal/direction"
	"github.com/cascadiamobility/traveltime-etl/internal/merge"
	"github.com/cascadiamobility/traveltime-etl/internal/observability"
)

// CrosswalkArtifact is the file name of the persisted crosswalk under the
// output directory. It is the only coupling between the two run kinds.
const CrosswalkArtifact = "station_segment_crosswalk.csv"

// Runner executes pipeline runs against one cataloged data root.
type Runner struct {
	catalog   *catalog.Catalog
	outputDir string
	engine    *merge.Engine
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
}

// NewRunner creates a Runner writing artifacts under outputDir.
func NewRunner(cat *catalog.Catalog, outputDir string, engine *merge.Engine, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Runner {
	return &Runner{
		catalog:   cat,
		outputDir: outputDir,
		engine:    engine,
		logger:    logger,
		metrics:   metrics,
		clock:     clock,
	}
}

// BuildCrosswalk loads the station and highway metadata, the probe geometry
// sources, and the TMC identification tables, builds the spatial crosswalk,
// and persists it. years selects which identification tables contribute to
// the TMC allow-list; years with no probe drop are skipped.
func (r *Runner) BuildCrosswalk(sources []crosswalk.Source, years []int) error {
	start := r.clock.Now()

	stationsPath, err := r.catalog.MetaPath("stations")
	if err != nil {
		return fmt.Errorf("crosswalk: %w", err)
	}
	stations, err := tabular.ReadAll[crosswalk.StationRow](stationsPath)
	if err != nil {
		return fmt.Errorf("crosswalk: load stations: %w", err)
	}

	highwaysPath, err := r.catalog.MetaPath("highways")
	if err != nil {
		return fmt.Errorf("crosswalk: %w", err)
	}
	highways, err := tabular.ReadAll[crosswalk.HighwayRow](highwaysPath)
	if err != nil {
		return fmt.Errorf("crosswalk: load highways: %w", err)
	}

	ident, err := r.loadTMCIdent(years)
	if err != nil {
		return err
	}

	regions := make([]crosswalk.Region, 0, len(sources))
	for _, src := range sources {
		region, err := src.Load()
		if err != nil {
			return fmt.Errorf("crosswalk: load probe region: %w", err)
		}
		regions = append(regions, region)
	}

	builder := crosswalk.NewBuilder(direction.DefaultTable(), r.logger, r.metrics)
	entries, err := builder.Build(crosswalk.Inputs{
		Stations: stations,
		Highways: highways,
		Regions:  regions,
		TMCIdent: ident,
	})
	if err != nil {
		return fmt.Errorf("crosswalk: %w", err)
	}

	path := filepath.Join(r.outputDir, CrosswalkArtifact)
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return fmt.Errorf("crosswalk: %w", err)
	}
	if err := tabular.WriteAll(path, entries); err != nil {
		return fmt.Errorf("crosswalk: %w", err)
	}

	r.logger.Info("crosswalk persisted",
		"path", path,
		"entries", len(entries),
		"duration", r.clock.Since(start),
	)
	return nil
}

// loadTMCIdent unions the TMC identification tables across the requested
// years. A year whose probe drop is absent contributes nothing; an empty
// union is fatal because the crosswalk join would be empty by construction.
func (r *Runner) loadTMCIdent(years []int) ([]crosswalk.TMCIdentRow, error) {
	seen := make(map[string]bool)
	var ident []crosswalk.TMCIdentRow
	for _, year := range years {
		path, err := r.catalog.ProbeMetaPath(year)
		if err != nil {
			r.logger.Warn("no TMC identification file", "year", year)
			continue
		}
		rows, err := tabular.ReadAll[crosswalk.TMCIdentRow](path)
		if err != nil {
			return nil, fmt.Errorf("crosswalk: load TMC identification: %w", err)
		}
		for _, row := range rows {
			if seen[row.TMC] {
				continue
			}
			seen[row.TMC] = true
			ident = append(ident, row)
		}
	}
	if len(ident) == 0 {
		return nil, fmt.Errorf("crosswalk: no TMC identification rows for years %v", years)
	}
	return ident, nil
}

// RunMerge reads the persisted crosswalk and the request's detector and
// probe files, merges them, and writes the named artifact. Catalog misses
// are fatal to the request; an empty-but-known bucket just contributes no
// rows.
func (r *Runner) RunMerge(req merge.Request) error {
	start := r.clock.Now()

	links, err := tabular.ReadAll[crosswalk.Entry](filepath.Join(r.outputDir, CrosswalkArtifact))
	if err != nil {
		return fmt.Errorf("merge: load crosswalk: %w", err)
	}

	detectors, err := r.loadDetectors(req)
	if err != nil {
		return err
	}

	probePath, err := r.catalog.ProbeDataPath(req.Year)
	if err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	probes, err := tabular.ReadAll[merge.ProbeRow](probePath)
	if err != nil {
		return fmt.Errorf("merge: load probe data: %w", err)
	}

	merged := r.engine.Merge(req, links, detectors, probes)

	path := filepath.Join(r.outputDir, merge.ArtifactName(req))
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	if err := tabular.WriteAll(path, merged); err != nil {
		return fmt.Errorf("merge: %w", err)
	}

	r.logger.Info("merge persisted",
		"path", path,
		"rows", len(merged),
		"duration", r.clock.Since(start),
	)
	return nil
}

// loadDetectors concatenates every detector file cataloged for the request's
// corridor, year, and both directions. The same file can appear under both
// direction buckets; it is read once.
func (r *Runner) loadDetectors(req merge.Request) ([]merge.DetectorRow, error) {
	var paths []string
	seen := make(map[string]bool)
	for _, bound := range []string{req.Bound1, req.Bound2} {
		files, err := r.catalog.DataFiles(req.Route, req.Year, bound)
		if err != nil {
			return nil, fmt.Errorf("merge: %w", err)
		}
		for _, f := range files {
			if seen[f] {
				continue
			}
			seen[f] = true
			paths = append(paths, f)
		}
	}

	var detectors []merge.DetectorRow
	for _, path := range paths {
		rows, err := tabular.ReadAll[merge.DetectorRow](path)
		if err != nil {
			return nil, fmt.Errorf("merge: load detector data: %w", err)
		}
		detectors = append(detectors, rows...)
	}
	return detectors, nil
}
