package crosswalk

import (
	"encoding/hex"
	"log/slog"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/ewkb"
	"github.com/paulmach/orb/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cascadiamobility/traveltime-etl/internal/direction"
	"github.com/cascadiamobility/traveltime-etl/internal/observability"
)

// mercatorHex encodes a lon/lat geometry as hex EWKB in Web Mercator, the
// way the station metadata stores its geometry columns.
func mercatorHex(t *testing.T, g orb.Geometry) string {
	t.Helper()
	raw, err := ewkb.Marshal(project.Geometry(g, project.WGS84.ToMercator), 3857)
	require.NoError(t, err)
	return hex.EncodeToString(raw)
}

func testBuilder() *Builder {
	return NewBuilder(direction.DefaultTable(), slog.Default(), observability.NewMetrics())
}

// Two vertical station segments a horizontal probe segment crosses.
func testInputs(t *testing.T) Inputs {
	t.Helper()
	stations := []StationRow{
		{
			StationID: "S1", HighwayID: "H1", Milepost: 12.1,
			Lon: -122.60, Lat: 45.51,
			StartDate:   "2011-09-15 00:00:00-07",
			SegmentGeom: mercatorHex(t, orb.LineString{{-122.60, 45.50}, {-122.60, 45.52}}),
			StationGeom: mercatorHex(t, orb.Point{-122.60, 45.51}),
		},
		{
			StationID: "S2", HighwayID: "H1", Milepost: 13.4,
			Lon: -122.58, Lat: 45.51,
			StartDate:   "2011-09-15 00:00:00-07",
			SegmentGeom: mercatorHex(t, orb.LineString{{-122.58, 45.50}, {-122.58, 45.52}}),
			StationGeom: mercatorHex(t, orb.Point{-122.58, 45.51}),
		},
	}
	highways := []HighwayRow{
		{HighwayID: "H1", Direction: "NORTH", Bound: "NB", HighwayName: "I-205 NB"},
	}
	probes := []ProbeSegment{
		{
			TMC: "T1", Direction: "NORTHBOUND", RoadNumber: "I-205", Miles: 0.8,
			Geometry: orb.LineString{{-122.61, 45.51}, {-122.57, 45.51}},
		},
		{
			TMC: "T2", Direction: "SOUTHBOUND", RoadNumber: "I-205",
			Geometry: orb.LineString{{-122.00, 45.00}, {-121.90, 45.00}},
		},
	}
	return Inputs{
		Stations: stations,
		Highways: highways,
		Regions:  []Region{{Name: "oregon", CRS: WGS84, Segments: probes}},
		TMCIdent: []TMCIdentRow{{TMC: "T1"}, {TMC: "T2"}},
	}
}

func TestBuildCardinality(t *testing.T) {
	entries, err := testBuilder().Build(testInputs(t))
	require.NoError(t, err)

	// T1 crosses both station segments: exactly two rows, one per station.
	// T2 overlaps nothing: zero rows.
	require.Len(t, entries, 2)
	assert.Equal(t, "T1", entries[0].TMC)
	assert.Equal(t, "T1", entries[1].TMC)
	assert.ElementsMatch(t,
		[]string{"S1", "S2"},
		[]string{entries[0].StationID, entries[1].StationID},
	)
}

func TestBuildBackfillsHighwayAttributes(t *testing.T) {
	entries, err := testBuilder().Build(testInputs(t))
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	e := entries[0]
	assert.Equal(t, "NORTH", e.DetectorDirection)
	assert.Equal(t, "NB", e.Bound)
	assert.Equal(t, "I-205 NB", e.HighwayName)
	assert.Equal(t, direction.North, e.DetectorStdDirection)
	assert.Equal(t, direction.North, e.ProbeStdDirection)
	assert.Equal(t, "I-205", e.RoadNumber)
	assert.Equal(t, "2011-09-15 00:00:00-07", e.StartDate)
	assert.Empty(t, e.EndDate)
}

func TestBuildRestrictsToKnownTMCs(t *testing.T) {
	in := testInputs(t)
	in.TMCIdent = []TMCIdentRow{{TMC: "T2"}} // T1 absent from the allow-list

	entries, err := testBuilder().Build(in)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBuildSkipsNullGeometries(t *testing.T) {
	in := testInputs(t)
	// Corrupt one station geometry and null one probe geometry: both rows
	// are skipped, the pass still succeeds.
	in.Stations[1].SegmentGeom = "not-hex"
	in.Regions[0].Segments[0].Geometry = nil

	entries, err := testBuilder().Build(in)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBuildStationWithoutHighway(t *testing.T) {
	in := testInputs(t)
	in.Highways = nil // left join: stations keep their rows, attributes empty

	entries, err := testBuilder().Build(in)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Empty(t, entries[0].HighwayName)
	assert.Equal(t, direction.Unknown, entries[0].DetectorStdDirection)
}

func TestBuildUnnamedRegionFatal(t *testing.T) {
	in := testInputs(t)
	in.Regions[0].Name = ""

	_, err := testBuilder().Build(in)
	assert.Error(t, err)
}

func TestBuildDeterministic(t *testing.T) {
	a, err := testBuilder().Build(testInputs(t))
	require.NoError(t, err)
	b, err := testBuilder().Build(testInputs(t))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
