package crosswalk

import (
	"fmt"
	"log/slog"

	"github.com/cascadiamobility/traveltime-etl/internal/adapter/tabular"
	"github.com/cascadiamobility/traveltime-etl/internal/geometry"
	"github.com/cascadiamobility/traveltime-etl/internal/observability"
)

// probeCSVColumns is the common attribute subset every tabular probe source
// must carry. Regional sources differ in their full schemas; anything beyond
// this subset is ignored.
var probeCSVColumns = []string{"tmc", "direction", "geom"}

// probeCSVRow is the tabular form of a probe segment, geometry as hex WKB.
type probeCSVRow struct {
	TMC        string  `csv:"tmc"`
	Direction  string  `csv:"direction"`
	RoadNumber string  `csv:"road_number"`
	Miles      float64 `csv:"miles"`
	StartLat   float64 `csv:"start_lat"`
	StartLon   float64 `csv:"start_lon"`
	EndLat     float64 `csv:"end_lat"`
	EndLon     float64 `csv:"end_lon"`
	Geom       string  `csv:"geom"`
}

// CSVSource loads a probe region from a CSV file with hex-WKB geometry.
// Used for fixture trees and for regions exported out of a spatial database
// rather than shipped as shapefiles.
type CSVSource struct {
	Name    string
	Path    string
	CRS     CRS
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Load reads and decodes the region. A missing required column is fatal;
// an undecodable geometry value degrades that row to a null geometry.
func (s CSVSource) Load() (Region, error) {
	rows, err := tabular.ReadAllRequiring[probeCSVRow](s.Path, probeCSVColumns...)
	if err != nil {
		return Region{}, fmt.Errorf("probe region %s: %w", s.Name, err)
	}

	segments := make([]ProbeSegment, 0, len(rows))
	for _, row := range rows {
		geom, ok := geometry.DecodeLenient(row.Geom, s.Logger)
		if !ok {
			s.Metrics.GeometryDecodeErrors.Inc()
		}
		segments = append(segments, ProbeSegment{
			TMC:        row.TMC,
			Direction:  row.Direction,
			RoadNumber: row.RoadNumber,
			Miles:      row.Miles,
			StartLat:   row.StartLat,
			StartLon:   row.StartLon,
			EndLat:     row.EndLat,
			EndLon:     row.EndLon,
			Geometry:   geom,
		})
	}
	return Region{Name: s.Name, CRS: s.CRS, Segments: segments}, nil
}
