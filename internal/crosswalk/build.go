package crosswalk

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
	"github.com/tidwall/rtree"

	"github.com/cascadiamobility/traveltime-etl/internal/direction"
	"github.com/cascadiamobility/traveltime-etl/internal/geometry"
	"github.com/cascadiamobility/traveltime-etl/internal/observability"
)

// Inputs are the already-loaded source relations the builder joins.
type Inputs struct {
	Stations []StationRow
	Highways []HighwayRow
	Regions  []Region
	TMCIdent []TMCIdentRow
}

// Builder computes the spatial crosswalk. It is a batch operation over the
// full inputs; the result is persisted once and read-only afterwards.
type Builder struct {
	directions direction.Table
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewBuilder creates a Builder using the given direction vocabulary.
func NewBuilder(directions direction.Table, logger *slog.Logger, metrics *observability.Metrics) *Builder {
	return &Builder{
		directions: directions,
		logger:     logger,
		metrics:    metrics,
	}
}

// station is a StationRow joined with its highway and decoded geometry.
type station struct {
	row          StationRow
	highway      HighwayRow
	stdDirection direction.Direction
	segment      orb.Geometry // line covering the station's stretch, nil when undecodable
	point        orb.Geometry // station location, nil when undecodable
}

// Build runs the full crosswalk pass: decode, enrich, reproject, restrict,
// and spatially join. Rows with null geometries are skipped, never fatal;
// only malformed inputs (a region missing required attributes) abort.
func (b *Builder) Build(in Inputs) ([]Entry, error) {
	stations := b.prepareStations(in.Stations, in.Highways)

	probes, err := b.unionRegions(in.Regions)
	if err != nil {
		return nil, err
	}
	probes = b.restrictToKnownTMCs(probes, in.TMCIdent)

	entries := b.join(probes, stations)

	b.logger.Info("crosswalk built",
		"stations", len(stations),
		"probe_segments", len(probes),
		"pairs", len(entries),
	)
	return entries, nil
}

// prepareStations decodes both geometry roles, backfills direction, bound,
// and highway name from the highway relation, normalizes the direction, and
// reprojects the segment geometry from Web Mercator into lon/lat.
func (b *Builder) prepareStations(rows []StationRow, highways []HighwayRow) []station {
	byHighway := make(map[string]HighwayRow, len(highways))
	for _, h := range highways {
		byHighway[h.HighwayID] = h
	}

	stations := make([]station, 0, len(rows))
	for _, row := range rows {
		b.metrics.RowsRead.WithLabelValues("stations").Inc()

		segment, ok := geometry.DecodeLenient(row.SegmentGeom, b.logger)
		if !ok {
			b.metrics.GeometryDecodeErrors.Inc()
		}
		point, ok := geometry.DecodeLenient(row.StationGeom, b.logger)
		if !ok {
			b.metrics.GeometryDecodeErrors.Inc()
		}

		highway := byHighway[row.HighwayID] // zero value when absent: left-join semantics

		if segment != nil {
			segment = project.Geometry(segment, project.Mercator.ToWGS84)
		}
		if point != nil {
			point = project.Geometry(point, project.Mercator.ToWGS84)
		}

		stations = append(stations, station{
			row:          row,
			highway:      highway,
			stdDirection: b.directions.Normalize(highway.Direction, highway.Bound),
			segment:      segment,
			point:        point,
		})
	}
	return stations
}

// unionRegions brings every regional probe source into the shared working
// projection (Web Mercator), concatenates them, and reprojects the union
// into lon/lat for the overlap test.
func (b *Builder) unionRegions(regions []Region) ([]ProbeSegment, error) {
	var union []ProbeSegment
	for _, region := range regions {
		if region.Name == "" {
			return nil, fmt.Errorf("probe region with no name")
		}
		for _, seg := range region.Segments {
			b.metrics.RowsRead.WithLabelValues("probe_segments").Inc()
			if seg.Geometry != nil && region.CRS == WGS84 {
				seg.Geometry = project.Geometry(seg.Geometry, project.WGS84.ToMercator)
			}
			union = append(union, seg)
		}
		b.logger.Info("probe region loaded", "region", region.Name, "segments", len(region.Segments))
	}

	for i := range union {
		if union[i].Geometry != nil {
			union[i].Geometry = project.Geometry(union[i].Geometry, project.Mercator.ToWGS84)
		}
	}
	return union, nil
}

// restrictToKnownTMCs drops probe segments whose TMC code is absent from the
// identification table. This bounds the join to the segments of interest
// and is load-bearing: skipping it changes the result, not just the cost.
func (b *Builder) restrictToKnownTMCs(probes []ProbeSegment, ident []TMCIdentRow) []ProbeSegment {
	known := make(map[string]bool, len(ident))
	for _, row := range ident {
		known[row.TMC] = true
	}

	kept := probes[:0]
	for _, seg := range probes {
		if known[seg.TMC] {
			kept = append(kept, seg)
		}
	}
	return kept
}

// join computes the intersects inner join between probe segments and
// station segments: pairs with no overlap are dropped, a probe touching n
// stations yields n entries. Candidate pairs come from an rtree over
// station bounds; the exact predicate decides.
func (b *Builder) join(probes []ProbeSegment, stations []station) []Entry {
	var index rtree.RTree
	for i, st := range stations {
		if st.segment == nil {
			b.metrics.SegmentsSkipped.Inc()
			continue
		}
		bound := st.segment.Bound()
		index.Insert([2]float64{bound.Min[0], bound.Min[1]}, [2]float64{bound.Max[0], bound.Max[1]}, i)
	}

	entries := make([]Entry, 0, len(probes))
	for _, seg := range probes {
		if seg.Geometry == nil {
			b.metrics.SegmentsSkipped.Inc()
			continue
		}

		// Collect and order candidates so output is deterministic
		// regardless of tree traversal order.
		bound := seg.Geometry.Bound()
		var candidates []int
		index.Search(
			[2]float64{bound.Min[0], bound.Min[1]},
			[2]float64{bound.Max[0], bound.Max[1]},
			func(_, _ [2]float64, value interface{}) bool {
				candidates = append(candidates, value.(int))
				return true
			},
		)
		sort.Ints(candidates)

		for _, i := range candidates {
			st := stations[i]
			if !Intersects(seg.Geometry, st.segment) {
				continue
			}
			entries = append(entries, b.entry(seg, st))
			b.metrics.CrosswalkPairs.Inc()
		}
	}
	return entries
}

func (b *Builder) entry(seg ProbeSegment, st station) Entry {
	return Entry{
		TMC:               seg.TMC,
		ProbeDirection:    seg.Direction,
		ProbeStdDirection: b.directions.Normalize(seg.Direction, ""),
		RoadNumber:        seg.RoadNumber,
		Miles:             seg.Miles,
		StartLat:          seg.StartLat,
		StartLon:          seg.StartLon,
		EndLat:            seg.EndLat,
		EndLon:            seg.EndLon,

		StationID:            st.row.StationID,
		HighwayID:            st.row.HighwayID,
		DetectorDirection:    st.highway.Direction,
		Bound:                st.highway.Bound,
		DetectorStdDirection: st.stdDirection,
		Milepost:             st.row.Milepost,
		Lon:                  st.row.Lon,
		Lat:                  st.row.Lat,
		HighwayName:          st.highway.HighwayName,
		StartDate:            st.row.StartDate,
		EndDate:              st.row.EndDate,
	}
}
