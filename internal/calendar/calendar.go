// Package calendar computes day, week and month boundaries on the Cairo
// calendar for the "new members" counters and the attendance trend.
package calendar

import (
	"time"
	_ "time/tzdata"
)

// Zone is the IANA name all reporting boundaries use.
const Zone = "Africa/Cairo"

// Cairo returns the Africa/Cairo location. The embedded tzdata makes the
// lookup independent of the host; the fixed +2 fallback is unreachable in
// practice.
func Cairo() *time.Location {
	loc, err := time.LoadLocation(Zone)
	if err != nil {
		return time.FixedZone("EET", 2*60*60)
	}
	return loc
}

// DayStart is local midnight of now's day in loc, as a UTC instant.
func DayStart(now time.Time, loc *time.Location) time.Time {
	l := now.In(loc)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, loc).UTC()
}

// WeekStart is local midnight of the most recent Sunday.
func WeekStart(now time.Time, loc *time.Location) time.Time {
	l := now.In(loc)
	d := time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, loc)
	return d.AddDate(0, 0, -int(d.Weekday())).UTC()
}

// MonthStart is local midnight of the first day of now's month.
func MonthStart(now time.Time, loc *time.Location) time.Time {
	l := now.In(loc)
	return time.Date(l.Year(), l.Month(), 1, 0, 0, 0, 0, loc).UTC()
}

// Days returns the n local dates ending with today, oldest first, formatted
// YYYY-MM-DD.
func Days(now time.Time, loc *time.Location, n int) []string {
	l := now.In(loc)
	today := time.Date(l.Year(), l.Month(), l.Day(), 12, 0, 0, 0, loc)
	out := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, today.AddDate(0, 0, -i).Format(time.DateOnly))
	}
	return out
}

// LocalDate formats t as a YYYY-MM-DD date in loc.
func LocalDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(time.DateOnly)
}
