package crosswalk

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// collinearEps absorbs float noise when testing whether a point sits on a
// segment. Coordinates here are lon/lat degrees, so this is far below any
// meaningful distance.
const collinearEps = 1e-12

// Intersects reports whether two geometries share at least one point. It
// covers the shapes the datasets produce: points, line strings and their
// multi variants, and polygons. A nil geometry intersects nothing.
func Intersects(a, b orb.Geometry) bool {
	if a == nil || b == nil {
		return false
	}
	if !a.Bound().Intersects(b.Bound()) {
		return false
	}

	aPts, aLines, aPolys := explode(a)
	bPts, bLines, bPolys := explode(b)

	for _, la := range aLines {
		for _, lb := range bLines {
			if linesIntersect(la, lb) {
				return true
			}
		}
		for _, p := range bPts {
			if pointOnLine(p, la) {
				return true
			}
		}
		for _, poly := range bPolys {
			if lineIntersectsPolygon(la, poly) {
				return true
			}
		}
	}
	for _, pa := range aPts {
		for _, pb := range bPts {
			if pa.Equal(pb) {
				return true
			}
		}
		for _, lb := range bLines {
			if pointOnLine(pa, lb) {
				return true
			}
		}
		for _, poly := range bPolys {
			if planar.PolygonContains(poly, pa) {
				return true
			}
		}
	}
	for _, poly := range aPolys {
		for _, lb := range bLines {
			if lineIntersectsPolygon(lb, poly) {
				return true
			}
		}
		for _, pb := range bPts {
			if planar.PolygonContains(poly, pb) {
				return true
			}
		}
		for _, pb := range bPolys {
			if polygonsIntersect(poly, pb) {
				return true
			}
		}
	}
	return false
}

// explode flattens a geometry into primitive points, line strings, and
// polygons.
func explode(g orb.Geometry) ([]orb.Point, []orb.LineString, []orb.Polygon) {
	switch v := g.(type) {
	case orb.Point:
		return []orb.Point{v}, nil, nil
	case orb.MultiPoint:
		return []orb.Point(v), nil, nil
	case orb.LineString:
		return nil, []orb.LineString{v}, nil
	case orb.MultiLineString:
		return nil, []orb.LineString(v), nil
	case orb.Ring:
		return nil, []orb.LineString{orb.LineString(v)}, nil
	case orb.Polygon:
		return nil, nil, []orb.Polygon{v}
	case orb.MultiPolygon:
		return nil, nil, []orb.Polygon(v)
	case orb.Collection:
		var pts []orb.Point
		var lines []orb.LineString
		var polys []orb.Polygon
		for _, member := range v {
			p, l, po := explode(member)
			pts = append(pts, p...)
			lines = append(lines, l...)
			polys = append(polys, po...)
		}
		return pts, lines, polys
	default:
		return nil, nil, nil
	}
}

func linesIntersect(a, b orb.LineString) bool {
	for i := 0; i+1 < len(a); i++ {
		for j := 0; j+1 < len(b); j++ {
			if segmentsIntersect(a[i], a[i+1], b[j], b[j+1]) {
				return true
			}
		}
	}
	return false
}

func lineIntersectsPolygon(l orb.LineString, poly orb.Polygon) bool {
	// Any vertex inside, or any segment crossing the boundary rings.
	for _, p := range l {
		if planar.PolygonContains(poly, p) {
			return true
		}
	}
	for _, ring := range poly {
		if linesIntersect(l, orb.LineString(ring)) {
			return true
		}
	}
	return false
}

func polygonsIntersect(a, b orb.Polygon) bool {
	for _, ring := range a {
		if lineIntersectsPolygon(orb.LineString(ring), b) {
			return true
		}
	}
	// a may sit entirely inside b.
	if len(a) > 0 && len(a[0]) > 0 && planar.PolygonContains(b, a[0][0]) {
		return true
	}
	return false
}

// segmentsIntersect is the standard orientation test with collinear
// on-segment handling.
func segmentsIntersect(p1, p2, q1, q2 orb.Point) bool {
	o1 := orientation(p1, p2, q1)
	o2 := orientation(p1, p2, q2)
	o3 := orientation(q1, q2, p1)
	o4 := orientation(q1, q2, p2)

	if o1 != o2 && o3 != o4 {
		return true
	}
	return (o1 == 0 && onSegment(p1, p2, q1)) ||
		(o2 == 0 && onSegment(p1, p2, q2)) ||
		(o3 == 0 && onSegment(q1, q2, p1)) ||
		(o4 == 0 && onSegment(q1, q2, p2))
}

// orientation returns the turn direction of the triple (a, b, c):
// -1 clockwise, 0 collinear, 1 counter-clockwise.
func orientation(a, b, c orb.Point) int {
	cross := (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
	switch {
	case cross > collinearEps:
		return 1
	case cross < -collinearEps:
		return -1
	default:
		return 0
	}
}

// onSegment reports whether p, known collinear with the segment (a, b),
// lies within its bounding box.
func onSegment(a, b, p orb.Point) bool {
	return min(a[0], b[0])-collinearEps <= p[0] && p[0] <= max(a[0], b[0])+collinearEps &&
		min(a[1], b[1])-collinearEps <= p[1] && p[1] <= max(a[1], b[1])+collinearEps
}

func pointOnLine(p orb.Point, l orb.LineString) bool {
	for i := 0; i+1 < len(l); i++ {
		if orientation(l[i], l[i+1], p) == 0 && onSegment(l[i], l[i+1], p) {
			return true
		}
	}
	return false
}
