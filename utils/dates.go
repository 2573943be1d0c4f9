// utils/dates.go
package utils

import (
	"math"
	"time"
)

func BeginningOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func EndOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// DaysBetween returns the calendar-day difference end - start, ignoring
// time of day on both sides. The end time is converted into start's
// location first, so mixed-location inputs (UTC from JSON binding against
// a local clock) count the same calendar days. Negative when end is
// before start. Rounding absorbs DST-shortened or -lengthened days.
func DaysBetween(start, end time.Time) int {
	end = end.In(start.Location())
	start = BeginningOfDay(start)
	end = BeginningOfDay(end)
	return int(math.Round(end.Sub(start).Hours() / 24))
}
