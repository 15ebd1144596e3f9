package aggregate

import (
	"fmt"
	"strings"
	"time"
)

// timestampLayouts covers ISO-8601 with and without offsets, space or T
// separators, and bare dates. Fractional seconds are accepted after the
// seconds field by time.Parse even when the layout omits them.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses a stored timestamp. Values without an offset are
// taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", s)
}

// Duration returns the non-negative span between two stored timestamps in
// seconds, along with the parsed start.
func Duration(start, end string) (time.Time, float64, error) {
	st, err := ParseTimestamp(start)
	if err != nil {
		return time.Time{}, 0, err
	}
	et, err := ParseTimestamp(end)
	if err != nil {
		return time.Time{}, 0, err
	}
	secs := et.Sub(st).Seconds()
	if secs < 0 {
		secs = 0
	}
	return st, secs, nil
}
