// Package core provides the domain types of the tracker.
//
// This file makes the calendar day a first-class value. Every day-boundary
// comparison in the balance and calendar code goes through Day, computed once
// in the timezone of the supplied clock, instead of being re-derived at each
// comparison site.
package core

import "time"

// Day is a calendar date without a time of day, anchored in a location.
type Day struct {
	year  int
	month time.Month
	day   int
	loc   *time.Location
}

// DayOf returns the calendar day containing t, in t's location.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day{year: y, month: m, day: d, loc: t.Location()}
}

// NewDay builds a day from explicit components.
func NewDay(year int, month time.Month, day int, loc *time.Location) Day {
	if loc == nil {
		loc = time.Local
	}
	// Normalize out-of-range components through the calendar.
	return DayOf(time.Date(year, month, day, 0, 0, 0, 0, loc))
}

// Start returns midnight at the start of the day.
func (d Day) Start() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, d.loc)
}

// End returns the last representable instant of the day.
func (d Day) End() time.Time {
	return d.Start().AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// AddDays returns the day n calendar days later (or earlier for negative n).
func (d Day) AddDays(n int) Day {
	return DayOf(d.Start().AddDate(0, 0, n))
}

func (d Day) Before(o Day) bool { return d.Start().Before(o.Start()) }
func (d Day) After(o Day) bool  { return d.Start().After(o.Start()) }

// Equal compares calendar position only, ignoring location.
func (d Day) Equal(o Day) bool {
	return d.year == o.year && d.month == o.month && d.day == o.day
}

// Contains reports whether t falls inside the day.
func (d Day) Contains(t time.Time) bool {
	return d.Equal(DayOf(t.In(d.loc)))
}

func (d Day) String() string {
	return d.Start().Format("2006-01-02")
}

// ParseDay parses a YYYY-MM-DD string into a Day in the given location.
func ParseDay(s string, loc *time.Location) (Day, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return Day{}, ErrInvalidDate
	}
	return DayOf(t), nil
}

// SameDay reports whether two instants fall on the same calendar day,
// matched by year and day-of-year with time of day ignored.
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
