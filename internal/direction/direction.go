// Package direction normalizes the heterogeneous direction vocabularies of
// the detector and probe datasets into a single shared enumeration.
//
// The detector dataset labels directions with full words ("NORTH", "SOUTH"),
// sometimes truncated ("NORT"), and marks construction zones with "CONST".
// The probe dataset uses "-BOUND" forms ("NORTHBOUND"). Where the primary
// label is unusable, a two-letter bound code (NB/SB/EB/WB) may stand in;
// the job and zone bound codes (JB/ZB) carry no cardinal meaning.
package direction

import "strings"

// Direction is the shared enumeration both datasets normalize into.
type Direction string

const (
	North   Direction = "NORTH"
	South   Direction = "SOUTH"
	East    Direction = "EAST"
	West    Direction = "WEST"
	Unknown Direction = "UNKNOWN"
)

// Table holds the normalization vocabulary. Both maps are keyed by
// upper-cased raw values. Entries mapping to Unknown are deliberate
// (construction markers, job/zone bound codes) and distinct from a missing
// entry only in intent; both normalize to Unknown.
type Table struct {
	Vocabulary map[string]Direction
	Bounds     map[string]Direction
}

// DefaultTable returns the production vocabulary covering both datasets'
// conventions.
func DefaultTable() Table {
	return Table{
		Vocabulary: map[string]Direction{
			// Probe dataset "-BOUND" forms.
			"NORTHBOUND": North,
			"SOUTHBOUND": South,
			"EASTBOUND":  East,
			"WESTBOUND":  West,
			// Detector dataset forms.
			"NORTH": North,
			"SOUTH": South,
			"EAST":  East,
			"WEST":  West,
			"NORT":  North,   // known truncation in the station metadata
			"CONST": Unknown, // construction marker
		},
		Bounds: map[string]Direction{
			"NB": North,
			"SB": South,
			"EB": East,
			"WB": West,
			"JB": Unknown, // job code
			"ZB": Unknown, // zone code
		},
	}
}

// Normalize maps a raw direction string, falling back to the bound code when
// the raw value is unmappable. Pass bound as the empty string when the row
// has none. Normalize is total: it never fails, unmappable input yields
// Unknown.
func (t Table) Normalize(raw, bound string) Direction {
	if d, ok := t.Vocabulary[strings.ToUpper(strings.TrimSpace(raw))]; ok && d != Unknown {
		return d
	}
	if bound == "" {
		return Unknown
	}
	if d, ok := t.Bounds[strings.ToUpper(strings.TrimSpace(bound))]; ok {
		return d
	}
	return Unknown
}
