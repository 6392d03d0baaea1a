package direction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	table := DefaultTable()

	tests := []struct {
		name     string
		raw      string
		bound    string
		expected Direction
	}{
		{"probe bound form", "NORTHBOUND", "", North},
		{"detector form", "SOUTH", "", South},
		{"truncated nort", "NORT", "", North},
		{"construction marker", "CONST", "", Unknown},
		{"construction marker with bound fallback", "CONST", "NB", North},
		{"lowercase input", "westbound", "", West},
		{"whitespace padded", "  EAST  ", "", East},
		{"empty raw with bound", "", "NB", North},
		{"empty raw with south bound", "", "sb", South},
		{"job bound code", "bogus", "JB", Unknown},
		{"zone bound code", "bogus", "ZB", Unknown},
		{"unmappable everything", "bogus", "XX", Unknown},
		{"empty everything", "", "", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, table.Normalize(tt.raw, tt.bound))
		})
	}
}

func TestNormalizeCustomTable(t *testing.T) {
	// Alternate vocabularies plug in without touching the defaults.
	table := Table{
		Vocabulary: map[string]Direction{"UP": North},
		Bounds:     map[string]Direction{"DN": South},
	}

	assert.Equal(t, North, table.Normalize("up", ""))
	assert.Equal(t, South, table.Normalize("sideways", "dn"))
	assert.Equal(t, Unknown, table.Normalize("NORTHBOUND", ""))
}
