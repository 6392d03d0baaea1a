package merge

import (
	"regexp"
	"time"
)

// The detector dataset emits offsets with only an hour component
// ("2023-10-01T08:00:00-08") and rarely carries fractional seconds; the
// probe dataset writes the full microsecond form. Both are normalized to
// the same canonical shape before parsing so the join key compares equal.
var (
	shortOffsetRe = regexp.MustCompile(`([-+]\d{2})$`)
	fullOffsetRe  = regexp.MustCompile(`([-+]\d{2}:\d{2})$`)
	fractionRe    = regexp.MustCompile(`\.\d+[-+]`)
)

// Canonical is the normalized timestamp layout both datasets converge on.
const Canonical = "2006-01-02T15:04:05.000000-07:00"

// zonedLayouts are tried in order when parsing a normalized string that
// carries an explicit offset. The space-separated variant appears in the
// station metadata's active-date columns.
var zonedLayouts = []string{
	"2006-01-02T15:04:05.000000-07:00",
	"2006-01-02 15:04:05.000000-07:00",
}

// naiveLayouts cover probe timestamps written without any offset; these are
// localized into the reference zone on parse.
var naiveLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// NormalizeTimestamp rewrites a raw timestamp string into canonical shape:
// a bare two-digit-hour offset gains ":00", and a missing fractional-seconds
// component gains ".000000" before the offset. Empty input stays empty.
func NormalizeTimestamp(raw string) string {
	if raw == "" {
		return ""
	}
	s := shortOffsetRe.ReplaceAllString(raw, "$1:00")
	if !fractionRe.MatchString(s) {
		s = fullOffsetRe.ReplaceAllString(s, ".000000$1")
	}
	return s
}

// ParseZoned normalizes and parses a timestamp carrying an explicit offset,
// converting the instant into loc. The second return is false when the value
// is empty or unparseable; callers degrade the row, they do not abort.
func ParseZoned(raw string, loc *time.Location) (time.Time, bool) {
	s := NormalizeTimestamp(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}

// ParseLocalized parses a probe timestamp. Offset-carrying values parse as
// zoned instants; naive values are localized into loc directly, which
// resolves daylight-saving fall-back ambiguity to the first occurrence.
func ParseLocalized(raw string, loc *time.Location) (time.Time, bool) {
	if t, ok := ParseZoned(raw, loc); ok {
		return t, true
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
