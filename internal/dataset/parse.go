package dataset

import (
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// dateLayouts are tried in order before falling back to cast's parser.
// Month-first slash dates come first because the Superstore export uses them.
var dateLayouts = []string{
	"1/2/2006",
	"1/2/06",
	"2006-01-02",
	"2006/1/2",
	"1-2-2006",
	"2006-01-02 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"Jan 2, 2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"20060102",
}

// ParseDate parses s with a best-effort list of layouts. The boolean is
// false when s is blank or no layout matches; callers treat that as missing.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	t, err := cast.ToTimeE(s)
	if err != nil || t.IsZero() {
		return time.Time{}, false
	}
	return t, true
}

// ParseNumber parses a numeric cell. Blank, unparseable, NaN and infinite
// values are reported as missing.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := cast.ToFloat64E(s)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
