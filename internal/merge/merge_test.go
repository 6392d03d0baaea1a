package merge

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cascadiamobility/traveltime-etl/internal/crosswalk"
	"github.com/cascadiamobility/traveltime-etl/internal/observability"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(pacific(t), slog.Default(), observability.NewMetrics())
}

func testRequest(t *testing.T) Request {
	t.Helper()
	loc := pacific(t)
	return Request{
		Route:  "I205",
		Year:   2023,
		Bound1: "NB",
		Bound2: "SB",
		Start:  time.Date(2023, 10, 1, 0, 0, 0, 0, loc),
		End:    time.Date(2023, 10, 31, 23, 59, 59, 0, loc),
	}
}

func link(tmc, station, road, start, end string) crosswalk.Entry {
	return crosswalk.Entry{TMC: tmc, StationID: station, RoadNumber: road, StartDate: start, EndDate: end}
}

func TestFormatRouteID(t *testing.T) {
	assert.Equal(t, "I-205", FormatRouteID("I205"))
	assert.Equal(t, "I-5", FormatRouteID("I5"))
	assert.Equal(t, "SR-14", FormatRouteID("SR14"))
	assert.Equal(t, "I-205", FormatRouteID("I-205")) // already hyphenated
}

func TestArtifactName(t *testing.T) {
	assert.Equal(t, "I205_NB_SB__20231001-20231031_merged.csv", ArtifactName(testRequest(t)))
}

// A 5-minute detector reading and a 250-second probe reading at the same
// station and instant merge into one row with a 50-second discrepancy.
func TestMergeEndToEnd(t *testing.T) {
	links := []crosswalk.Entry{
		link("T1", "S1", "I-205", "2011-09-15 00:00:00-07", ""),
	}
	detectors := []DetectorRow{
		{StationID: "S1", StartTime: "2023-10-01T08:00:00-08", TravelMin: 5},
	}
	probes := []ProbeRow{
		{TMC: "T1", Timestamp: "2023-10-01T08:00:00.000000-08:00", Seconds: 250},
	}

	merged := testEngine(t).Merge(testRequest(t), links, detectors, probes)
	require.Len(t, merged, 1)

	row := merged[0]
	assert.Equal(t, "S1", row.StationID)
	assert.Equal(t, "T1", row.TMC)
	assert.Equal(t, 300.0, row.DetectorSeconds)
	assert.Equal(t, 250.0, row.ProbeSeconds)
	assert.Equal(t, 50.0, row.Difference)
	assert.Equal(t, row.DetectorTime, row.ProbeTime)
}

func TestMergeDropsUnmatchedInstants(t *testing.T) {
	links := []crosswalk.Entry{
		link("T1", "S1", "I-205", "2011-09-15 00:00:00-07", ""),
	}
	detectors := []DetectorRow{
		{StationID: "S1", StartTime: "2023-10-01T08:00:00-08", TravelMin: 5},
	}
	probes := []ProbeRow{
		{TMC: "T1", Timestamp: "2023-10-01T08:05:00.000000-08:00", Seconds: 250},
	}

	merged := testEngine(t).Merge(testRequest(t), links, detectors, probes)
	assert.Empty(t, merged)
}

func TestMergeFiltersByActiveYear(t *testing.T) {
	cases := []struct {
		name  string
		start string
		end   string
		want  int
	}{
		{"open end covers year", "2011-09-15 00:00:00-07", "", 1},
		{"closed end covers year", "2011-09-15 00:00:00-07", "2024-01-01 00:00:00-08", 1},
		{"ended before year", "2011-09-15 00:00:00-07", "2022-06-30 00:00:00-07", 0},
		{"starts after year", "2024-03-01 00:00:00-08", "", 0},
		{"missing start excludes", "", "", 0},
	}

	detectors := []DetectorRow{
		{StationID: "S1", StartTime: "2023-10-01T08:00:00-08", TravelMin: 5},
	}
	probes := []ProbeRow{
		{TMC: "T1", Timestamp: "2023-10-01T08:00:00.000000-08:00", Seconds: 250},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			links := []crosswalk.Entry{link("T1", "S1", "I-205", tc.start, tc.end)}
			merged := testEngine(t).Merge(testRequest(t), links, detectors, probes)
			assert.Len(t, merged, tc.want)
		})
	}
}

func TestMergeFiltersByRoute(t *testing.T) {
	links := []crosswalk.Entry{
		link("T1", "S1", "I-5", "2011-09-15 00:00:00-07", ""),
	}
	detectors := []DetectorRow{
		{StationID: "S1", StartTime: "2023-10-01T08:00:00-08", TravelMin: 5},
	}
	probes := []ProbeRow{
		{TMC: "T1", Timestamp: "2023-10-01T08:00:00.000000-08:00", Seconds: 250},
	}

	merged := testEngine(t).Merge(testRequest(t), links, detectors, probes)
	assert.Empty(t, merged)
}

func TestMergeInclusiveWindowBoundaries(t *testing.T) {
	links := []crosswalk.Entry{
		link("T1", "S1", "I-205", "2011-09-15 00:00:00-07", ""),
	}
	detectors := []DetectorRow{
		{StationID: "S1", StartTime: "2023-10-01T00:00:00-07", TravelMin: 5},
		{StationID: "S1", StartTime: "2023-10-31T23:59:59-07", TravelMin: 6},
		{StationID: "S1", StartTime: "2023-09-30T23:59:59-07", TravelMin: 7}, // before window
	}
	probes := []ProbeRow{
		{TMC: "T1", Timestamp: "2023-10-01 00:00:00", Seconds: 100},
		{TMC: "T1", Timestamp: "2023-10-31 23:59:59", Seconds: 200},
		{TMC: "T1", Timestamp: "2023-09-30 23:59:59", Seconds: 300},
	}

	merged := testEngine(t).Merge(testRequest(t), links, detectors, probes)
	require.Len(t, merged, 2)
	assert.Equal(t, 200.0, merged[0].DetectorSeconds-merged[0].ProbeSeconds)
	assert.Equal(t, 160.0, merged[1].DetectorSeconds-merged[1].ProbeSeconds)
}

// One TMC mapped to two stations crosses with both stations' detector rows.
func TestMergeManyToMany(t *testing.T) {
	links := []crosswalk.Entry{
		link("T1", "S1", "I-205", "2011-09-15 00:00:00-07", ""),
		link("T1", "S2", "I-205", "2011-09-15 00:00:00-07", ""),
	}
	detectors := []DetectorRow{
		{StationID: "S1", StartTime: "2023-10-01T08:00:00-08", TravelMin: 5},
		{StationID: "S2", StartTime: "2023-10-01T08:00:00-08", TravelMin: 4},
	}
	probes := []ProbeRow{
		{TMC: "T1", Timestamp: "2023-10-01T08:00:00.000000-08:00", Seconds: 250},
	}

	merged := testEngine(t).Merge(testRequest(t), links, detectors, probes)
	require.Len(t, merged, 2)
	assert.Equal(t, "S1", merged[0].StationID)
	assert.Equal(t, "S2", merged[1].StationID)
}

func TestMergeCoercesBadTimestamps(t *testing.T) {
	links := []crosswalk.Entry{
		link("T1", "S1", "I-205", "2011-09-15 00:00:00-07", ""),
	}
	detectors := []DetectorRow{
		{StationID: "S1", StartTime: "garbage", TravelMin: 5},
		{StationID: "S1", StartTime: "2023-10-01T08:00:00-08", TravelMin: 5},
	}
	probes := []ProbeRow{
		{TMC: "T1", Timestamp: "", Seconds: 100},
		{TMC: "T1", Timestamp: "2023-10-01T08:00:00.000000-08:00", Seconds: 250},
	}

	merged := testEngine(t).Merge(testRequest(t), links, detectors, probes)
	require.Len(t, merged, 1)
	assert.Equal(t, 50.0, merged[0].Difference)
}

func TestMergeDeterministicOrder(t *testing.T) {
	links := []crosswalk.Entry{
		link("T1", "S1", "I-205", "2011-09-15 00:00:00-07", ""),
		link("T2", "S2", "I-205", "2011-09-15 00:00:00-07", ""),
	}
	detectors := []DetectorRow{
		{StationID: "S2", StartTime: "2023-10-01T08:00:00-08", TravelMin: 5},
		{StationID: "S1", StartTime: "2023-10-01T09:00:00-08", TravelMin: 5},
		{StationID: "S1", StartTime: "2023-10-01T08:00:00-08", TravelMin: 5},
	}
	probes := []ProbeRow{
		{TMC: "T2", Timestamp: "2023-10-01T08:00:00.000000-08:00", Seconds: 240},
		{TMC: "T1", Timestamp: "2023-10-01T09:00:00.000000-08:00", Seconds: 260},
		{TMC: "T1", Timestamp: "2023-10-01T08:00:00.000000-08:00", Seconds: 250},
	}

	a := testEngine(t).Merge(testRequest(t), links, detectors, probes)
	b := testEngine(t).Merge(testRequest(t), links, detectors, probes)
	require.Len(t, a, 3)
	assert.Equal(t, a, b)
	assert.Equal(t, "S1", a[0].StationID)
	assert.Equal(t, "S1", a[1].StationID)
	assert.Equal(t, "S2", a[2].StationID)
	assert.True(t, a[0].DetectorTime < a[1].DetectorTime)
}
