package crosswalk

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestIntersectsLines(t *testing.T) {
	vertical := orb.LineString{{0, -1}, {0, 1}}

	tests := []struct {
		name     string
		other    orb.Geometry
		expected bool
	}{
		{"crossing", orb.LineString{{-1, 0}, {1, 0}}, true},
		{"touching endpoint", orb.LineString{{0, 1}, {1, 2}}, true},
		{"collinear overlap", orb.LineString{{0, 0}, {0, 3}}, true},
		{"collinear disjoint", orb.LineString{{0, 2}, {0, 3}}, false},
		{"parallel", orb.LineString{{1, -1}, {1, 1}}, false},
		{"disjoint far", orb.LineString{{5, 5}, {6, 6}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Intersects(vertical, tt.other))
			assert.Equal(t, tt.expected, Intersects(tt.other, vertical))
		})
	}
}

func TestIntersectsPoints(t *testing.T) {
	line := orb.LineString{{0, 0}, {2, 2}}

	assert.True(t, Intersects(orb.Point{1, 1}, line))
	assert.False(t, Intersects(orb.Point{1, 1.5}, line))
	assert.True(t, Intersects(orb.Point{1, 1}, orb.Point{1, 1}))
	assert.False(t, Intersects(orb.Point{1, 1}, orb.Point{1, 2}))
}

func TestIntersectsMultiLineString(t *testing.T) {
	ml := orb.MultiLineString{
		{{0, 0}, {1, 0}},
		{{10, 10}, {11, 10}},
	}
	assert.True(t, Intersects(ml, orb.LineString{{10.5, 9}, {10.5, 11}}))
	assert.False(t, Intersects(ml, orb.LineString{{5, 5}, {6, 5}}))
}

func TestIntersectsPolygon(t *testing.T) {
	square := orb.Polygon{{{0, 0}, {2, 0}, {2, 2}, {0, 2}, {0, 0}}}

	assert.True(t, Intersects(square, orb.Point{1, 1}))
	assert.False(t, Intersects(square, orb.Point{3, 3}))
	// Line passing through the interior.
	assert.True(t, Intersects(square, orb.LineString{{-1, 1}, {3, 1}}))
	// Line fully inside.
	assert.True(t, Intersects(square, orb.LineString{{0.5, 0.5}, {1.5, 1.5}}))
	assert.False(t, Intersects(square, orb.LineString{{3, 3}, {4, 4}}))
}

func TestIntersectsNil(t *testing.T) {
	line := orb.LineString{{0, 0}, {1, 1}}
	assert.False(t, Intersects(nil, line))
	assert.False(t, Intersects(line, nil))
	assert.False(t, Intersects(nil, nil))
}
