// Package shapefile loads probe-segment geometry regions from TMC
// shapefiles. Decoded shapes are converted into orb geometries so the rest
// of the pipeline has a single geometry representation.
package shapefile

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	ctgeom "github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/paulmach/orb"

	"github.com/cascadiamobility/traveltime-etl/internal/crosswalk"
)

// Attribute names in the TMC shapefiles. The two regional files differ in
// their full schemas but both carry this subset.
const (
	fieldTMC        = "Tmc"
	fieldDirection  = "Direction"
	fieldRoadNumber = "RoadNumb_1"
	fieldMiles      = "Miles"
	fieldStartLat   = "StartLat"
	fieldStartLon   = "StartLong"
	fieldEndLat     = "EndLat"
	fieldEndLon     = "EndLong"
)

var requiredFields = []string{fieldTMC, fieldDirection}

// Source loads one regional TMC shapefile.
type Source struct {
	Name   string
	Path   string
	CRS    crosswalk.CRS
	Logger *slog.Logger
}

// Load decodes every row of the shapefile. A file missing the required
// attribute columns is a fatal configuration error; a row whose shape fails
// to convert degrades to a null geometry.
func (s Source) Load() (crosswalk.Region, error) {
	d, err := shp.NewDecoder(s.Path)
	if err != nil {
		return crosswalk.Region{}, fmt.Errorf("open shapefile %s: %w", s.Path, err)
	}
	defer d.Close()

	available := make(map[string]bool)
	var fieldNames []string
	for _, f := range d.Fields() {
		name := fieldName(f.Name)
		available[name] = true
		fieldNames = append(fieldNames, name)
	}
	for _, required := range requiredFields {
		if !available[required] {
			return crosswalk.Region{}, fmt.Errorf("shapefile %s: missing required attribute %q", s.Path, required)
		}
	}

	var segments []crosswalk.ProbeSegment
	for {
		g, fields, more := d.DecodeRowFields(fieldNames...)
		if !more {
			break
		}

		geom := toOrb(g)
		if geom == nil && g != nil {
			s.Logger.Warn("unsupported shape type, using null geometry",
				"file", s.Path, "tmc", fields[fieldTMC])
		}

		segments = append(segments, crosswalk.ProbeSegment{
			TMC:        fields[fieldTMC],
			Direction:  fields[fieldDirection],
			RoadNumber: fields[fieldRoadNumber],
			Miles:      parseFloat(fields[fieldMiles]),
			StartLat:   parseFloat(fields[fieldStartLat]),
			StartLon:   parseFloat(fields[fieldStartLon]),
			EndLat:     parseFloat(fields[fieldEndLat]),
			EndLon:     parseFloat(fields[fieldEndLon]),
			Geometry:   geom,
		})
	}
	if err := d.Error(); err != nil {
		return crosswalk.Region{}, fmt.Errorf("decode shapefile %s: %w", s.Path, err)
	}

	return crosswalk.Region{Name: s.Name, CRS: s.CRS, Segments: segments}, nil
}

// toOrb converts the shapefile decoder's geometry types into orb values.
// Shapes the TMC files never contain return nil.
func toOrb(g ctgeom.Geom) orb.Geometry {
	switch v := g.(type) {
	case ctgeom.Point:
		return orb.Point{v.X, v.Y}
	case ctgeom.LineString:
		return toOrbLine(v)
	case ctgeom.MultiLineString:
		ml := make(orb.MultiLineString, 0, len(v))
		for _, line := range v {
			ml = append(ml, toOrbLine(line))
		}
		return ml
	default:
		return nil
	}
}

func toOrbLine(line ctgeom.LineString) orb.LineString {
	out := make(orb.LineString, 0, len(line))
	for _, p := range line {
		out = append(out, orb.Point{p.X, p.Y})
	}
	return out
}

// fieldName converts a shapefile's fixed-width attribute name to a string.
func fieldName(name [11]byte) string {
	return strings.TrimRight(string(name[:]), "\x00")
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
