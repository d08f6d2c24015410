// Package timeutil normalizes all planner date math to UTC midnight.
// Tasks are grouped by calendar day, so time of day must never leak into
// comparisons.
package timeutil

import (
	"math"
	"time"
)

// StartOfDay truncates t to UTC midnight of its calendar day.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysAgo returns UTC midnight of the day n days before t.
func DaysAgo(t time.Time, n int) time.Time {
	return StartOfDay(t).AddDate(0, 0, -n)
}

// DaysBetween returns the ceiling number of calendar days from `from` to `to`.
// Negative when `to` is in the past relative to `from`.
func DaysBetween(from, to time.Time) int {
	diff := to.UTC().Sub(StartOfDay(from))
	return int(math.Ceil(diff.Hours() / 24))
}

// DayKey renders the calendar-day grouping key for t.
func DayKey(t time.Time) string {
	return StartOfDay(t).Format("2006-01-02")
}

// SameDay reports whether a and b fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	return StartOfDay(a).Equal(StartOfDay(b))
}
