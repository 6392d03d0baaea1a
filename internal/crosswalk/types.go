// Package crosswalk builds and models the durable many-to-many relation
// between probe-vehicle road segments (TMC-coded) and detector stations,
// asserted by spatial overlap. The persisted crosswalk CSV is the only
// coupling between the spatial join and the temporal merge.
package crosswalk

import (
	"github.com/paulmach/orb"

	"github.com/cascadiamobility/traveltime-etl/internal/direction"
)

// CRS tags the coordinate reference system a geometry set is expressed in.
// Only the two systems the datasets actually use are modelled.
type CRS int

const (
	// WGS84 is lon/lat (EPSG:4326), the reference the overlap test runs in.
	WGS84 CRS = iota
	// WebMercator is EPSG:3857, the station metadata's storage projection.
	WebMercator
)

// StationRow is one detector station from the stations metadata file. The
// two geometry columns are hex-encoded (E)WKB in Web Mercator: a line
// segment covering the station's stretch of highway and the station's point
// location.
type StationRow struct {
	StationID   string  `csv:"stationid"`
	HighwayID   string  `csv:"highwayid"`
	Milepost    float64 `csv:"milepost"`
	Lon         float64 `csv:"lon"`
	Lat         float64 `csv:"lat"`
	StartDate   string  `csv:"start_date"`
	EndDate     string  `csv:"end_date"`
	SegmentGeom string  `csv:"segment_geom"`
	StationGeom string  `csv:"station_geom"`
}

// HighwayRow is one highway from the highways metadata file; stations often
// lack direction labelling of their own and inherit it from here.
type HighwayRow struct {
	HighwayID   string `csv:"highwayid"`
	Direction   string `csv:"direction"`
	Bound       string `csv:"bound"`
	HighwayName string `csv:"highwayname"`
}

// TMCIdentRow is one row of the probe TMC identification file. Its unique
// TMC codes bound the spatial join to the segments of interest.
type TMCIdentRow struct {
	TMC string `csv:"tmc"`
}

// ProbeSegment is one probe road segment with its decoded geometry.
type ProbeSegment struct {
	TMC        string
	Direction  string // raw vocabulary, e.g. "NORTHBOUND"
	RoadNumber string // e.g. "I-205"
	Miles      float64
	StartLat   float64
	StartLon   float64
	EndLat     float64
	EndLon     float64
	Geometry   orb.Geometry // nil when the source row had none
}

// Region is one regional probe geometry source in its native reference
// system. The production data ships as two disjoint regional sets that are
// unioned before joining.
type Region struct {
	Name     string
	CRS      CRS
	Segments []ProbeSegment
}

// Source loads a probe geometry region. Implementations read shapefiles or
// tabular fixtures; a source failing to provide the required attributes is a
// fatal configuration error, not a row-level degradation.
type Source interface {
	Load() (Region, error)
}

// Entry is one row of the persisted crosswalk artifact: a probe segment and
// a detector station whose geometries overlap, with both sides' directions
// and identifying metadata. A null active-end date means the mapping is
// still active.
type Entry struct {
	TMC               string              `csv:"tmc"`
	ProbeDirection    string              `csv:"probe_direction"`
	ProbeStdDirection direction.Direction `csv:"probe_std_direction"`
	RoadNumber        string              `csv:"road_number"`
	Miles             float64             `csv:"miles"`
	StartLat          float64             `csv:"start_lat"`
	StartLon          float64             `csv:"start_lon"`
	EndLat            float64             `csv:"end_lat"`
	EndLon            float64             `csv:"end_lon"`

	StationID            string              `csv:"stationid"`
	HighwayID            string              `csv:"highwayid"`
	DetectorDirection    string              `csv:"detector_direction"`
	Bound                string              `csv:"bound"`
	DetectorStdDirection direction.Direction `csv:"detector_std_direction"`
	Milepost             float64             `csv:"milepost"`
	Lon                  float64             `csv:"lon"`
	Lat                  float64             `csv:"lat"`
	HighwayName          string              `csv:"highwayname"`
	StartDate            string              `csv:"start_date"`
	EndDate              string              `csv:"end_date"`
}
