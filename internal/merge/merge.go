// Package merge aligns the detector and probe travel-time series onto the
// stations they share (per the crosswalk) and the instants they share, and
// computes the discrepancy between the two measurements.
package merge

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cascadiamobility/traveltime-etl/internal/crosswalk"
	"github.com/cascadiamobility/traveltime-etl/internal/observability"
)

// routeIDRe rewrites corridor names into the probe dataset's road-number
// convention: "I205" becomes "I-205", "SR14" becomes "SR-14".
var routeIDRe = regexp.MustCompile(`^([A-Za-z]+)(\d+)$`)

// Request selects the slice of both datasets to merge: one corridor, one
// year, both of the corridor's directions, and an inclusive time window in
// the reference zone.
type Request struct {
	Route  string // corridor name as cataloged, e.g. "I205"
	Year   int
	Bound1 string // e.g. "NB"
	Bound2 string
	Start  time.Time
	End    time.Time
}

// DetectorRow is one observation from a detector-dataset file. Travel time
// is in minutes at the source and converted to seconds on ingest.
type DetectorRow struct {
	StationID string  `csv:"stationid"`
	StartTime string  `csv:"starttime"`
	TravelMin float64 `csv:"stationtt"`
}

// ProbeRow is one observation from the probe-dataset primary file. Travel
// time is already in seconds.
type ProbeRow struct {
	TMC       string  `csv:"tmc_code"`
	Timestamp string  `csv:"measurement_tstamp"`
	Seconds   float64 `csv:"travel_time_seconds"`
}

// MergedRow pairs a detector observation with a probe observation taken at
// the same station and the same instant. Difference is detector minus probe,
// in seconds.
type MergedRow struct {
	StationID       string  `csv:"stationid"`
	DetectorTime    string  `csv:"starttime"`
	DetectorSeconds float64 `csv:"stationtt"`
	TMC             string  `csv:"tmc_code"`
	ProbeTime       string  `csv:"measurement_tstamp"`
	ProbeSeconds    float64 `csv:"travel_time_seconds"`
	Difference      float64 `csv:"tt_diff"`
}

// Engine merges the two series for one request at a time. It holds no state
// between calls beyond the reference zone and instrumentation.
type Engine struct {
	location *time.Location
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewEngine creates an Engine aligning both series into loc.
func NewEngine(loc *time.Location, logger *slog.Logger, metrics *observability.Metrics) *Engine {
	return &Engine{location: loc, logger: logger, metrics: metrics}
}

// FormatRouteID rewrites a cataloged corridor name into the probe dataset's
// hyphenated road-number form.
func FormatRouteID(route string) string {
	return routeIDRe.ReplaceAllString(route, "$1-$2")
}

// ArtifactName is the terminal output's file name for a request:
// route, both bounds, and the date range.
func ArtifactName(req Request) string {
	return fmt.Sprintf("%s_%s_%s__%s-%s_merged.csv",
		req.Route, req.Bound1, req.Bound2,
		req.Start.Format("20060102"), req.End.Format("20060102"))
}

// detectorObs is a parsed, filtered detector observation.
type detectorObs struct {
	stationID string
	ts        time.Time
	seconds   float64
}

// probeObs is a parsed probe observation enriched with the station its TMC
// maps to. A TMC mapping to n stations yields n enriched observations.
type probeObs struct {
	tmc       string
	stationID string
	ts        time.Time
	seconds   float64
}

// Merge runs the full join for one request. links is the persisted crosswalk
// read back in full; detectors and probes are the raw rows of the cataloged
// files for the request's corridor, year, and directions.
func (e *Engine) Merge(req Request, links []crosswalk.Entry, detectors []DetectorRow, probes []ProbeRow) []MergedRow {
	routeID := FormatRouteID(req.Route)
	active := filterLinks(links, routeID, req.Year)

	stationSet := make(map[string]bool, len(active))
	tmcSet := make(map[string]bool, len(active))
	for _, l := range active {
		stationSet[l.StationID] = true
		tmcSet[l.TMC] = true
	}

	det := e.prepareDetectors(detectors, stationSet, req)
	prb := e.prepareProbes(probes, tmcSet, links, req)

	// Inner join on (station, instant). Multiple detector rows at the same
	// key cross with multiple probe rows at that key.
	byKey := make(map[string][]detectorObs, len(det))
	for _, d := range det {
		k := joinKey(d.stationID, d.ts)
		byKey[k] = append(byKey[k], d)
	}

	var merged []MergedRow
	for _, p := range prb {
		for _, d := range byKey[joinKey(p.stationID, p.ts)] {
			merged = append(merged, MergedRow{
				StationID:       d.stationID,
				DetectorTime:    d.ts.Format(Canonical),
				DetectorSeconds: d.seconds,
				TMC:             p.tmc,
				ProbeTime:       p.ts.Format(Canonical),
				ProbeSeconds:    p.seconds,
				Difference:      d.seconds - p.seconds,
			})
			e.metrics.MergedRows.Inc()
		}
	}

	sort.Slice(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if a.StationID != b.StationID {
			return a.StationID < b.StationID
		}
		if a.DetectorTime != b.DetectorTime {
			return a.DetectorTime < b.DetectorTime
		}
		return a.TMC < b.TMC
	})

	e.logger.Info("series merged",
		"route", routeID,
		"year", req.Year,
		"detector_rows", len(det),
		"probe_rows", len(prb),
		"merged_rows", len(merged),
	)
	return merged
}

// filterLinks keeps crosswalk rows for the requested road that were active
// during the requested year. A missing or unparseable end date counts as
// still active; a missing start date excludes the row.
func filterLinks(links []crosswalk.Entry, routeID string, year int) []crosswalk.Entry {
	var kept []crosswalk.Entry
	for _, l := range links {
		if l.RoadNumber != routeID {
			continue
		}
		startYear, ok := yearOf(l.StartDate)
		if !ok || startYear > year {
			continue
		}
		if endYear, ok := yearOf(l.EndDate); ok && endYear < year {
			continue
		}
		kept = append(kept, l)
	}
	return kept
}

// yearOf extracts the year from a station active-date value, which leads
// with YYYY in every format the metadata uses.
func yearOf(date string) (int, bool) {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return 0, false
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0, false
	}
	return y, true
}

func (e *Engine) prepareDetectors(rows []DetectorRow, stations map[string]bool, req Request) []detectorObs {
	out := make([]detectorObs, 0, len(rows))
	for _, row := range rows {
		e.metrics.RowsRead.WithLabelValues("detector").Inc()
		ts, ok := ParseZoned(row.StartTime, e.location)
		if !ok {
			// Coerced to null, which the window filter below drops.
			e.metrics.TimestampCoercions.Inc()
			continue
		}
		if !stations[row.StationID] || !within(ts, req) {
			continue
		}
		out = append(out, detectorObs{
			stationID: row.StationID,
			ts:        ts,
			seconds:   row.TravelMin * 60,
		})
	}
	return out
}

// prepareProbes parses, filters, and enriches probe rows with station IDs.
// Enrichment joins against the full crosswalk, not the year-filtered one:
// the interest-set filter has already bounded the TMCs, and the mapping
// itself is not year-scoped.
func (e *Engine) prepareProbes(rows []ProbeRow, tmcs map[string]bool, links []crosswalk.Entry, req Request) []probeObs {
	stationsByTMC := make(map[string][]string)
	for _, l := range links {
		stationsByTMC[l.TMC] = append(stationsByTMC[l.TMC], l.StationID)
	}

	out := make([]probeObs, 0, len(rows))
	for _, row := range rows {
		e.metrics.RowsRead.WithLabelValues("probe").Inc()
		ts, ok := ParseLocalized(row.Timestamp, e.location)
		if !ok {
			e.metrics.TimestampCoercions.Inc()
			continue
		}
		if !tmcs[row.TMC] || !within(ts, req) {
			continue
		}
		for _, stationID := range stationsByTMC[row.TMC] {
			out = append(out, probeObs{
				tmc:       row.TMC,
				stationID: stationID,
				ts:        ts,
				seconds:   row.Seconds,
			})
		}
	}
	return out
}

// within tests the inclusive request window.
func within(t time.Time, req Request) bool {
	return !t.Before(req.Start) && !t.After(req.End)
}

// joinKey identifies one (station, instant) pair. Instants are compared
// absolutely, so the same moment expressed in different offsets matches.
func joinKey(stationID string, t time.Time) string {
	return stationID + "\x00" + strconv.FormatInt(t.UnixNano(), 10)
}
