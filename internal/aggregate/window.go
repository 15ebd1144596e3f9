// Package aggregate turns visit records into per-bucket durations and
// period-over-period changes.
package aggregate

import (
	"fmt"
	"time"
)

// Range selectors accepted from callers.
const (
	ThisWeek = "this_week"
	LastWeek = "last_week"
)

// DaysInWeek is the size of the daily breakdown.
const DaysInWeek = 7

// WeekdayNames labels the daily breakdown, Monday first.
var WeekdayNames = [DaysInWeek]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Window is a half-open time range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window. End is exclusive.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Previous returns the window of equal length immediately before w.
func (w Window) Previous() Window {
	return Window{Start: w.Start.Add(-w.End.Sub(w.Start)), End: w.Start}
}

// Days returns the whole number of days the window spans.
func (w Window) Days() int {
	return int(w.End.Sub(w.Start) / (24 * time.Hour))
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}

// NormalizeRange maps unknown selectors to ThisWeek.
func NormalizeRange(name string) string {
	if name == LastWeek {
		return LastWeek
	}
	return ThisWeek
}

// WeekWindow returns the Monday-based UTC week selected by name, relative to now.
func WeekWindow(name string, now time.Time) Window {
	start := StartOfWeek(now)
	if NormalizeRange(name) == LastWeek {
		start = start.AddDate(0, 0, -DaysInWeek)
	}
	return Window{Start: start, End: start.AddDate(0, 0, DaysInWeek)}
}

// StartOfWeek returns Monday 00:00:00 UTC of the week containing t.
func StartOfWeek(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7 // Monday = 0
	d := t.AddDate(0, 0, -offset)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// dayIndex counts UTC calendar days from the window start to t. It can be
// negative or beyond the week.
func dayIndex(start, t time.Time) int {
	s := start.UTC()
	u := t.UTC()
	sd := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, time.UTC)
	ud := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return int(ud.Sub(sd).Hours() / 24)
}
