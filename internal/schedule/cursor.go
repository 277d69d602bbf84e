// Package schedule implements the recurrence engine: frequency-aware date
// stepping, the per-template exception state, and the expansion of templates
// into projected future instances.
package schedule

import (
	"time"

	"hearth/internal/core"
)

// Advance moves a date forward by exactly one period of the frequency.
// Monthly and yearly steps are not fixed-duration, so callers stepping over a
// range must call this in a loop rather than multiplying.
//
// Day-of-month is preserved where valid and clamped to the last day of the
// target month otherwise (Jan 31 + 1 month = Feb 29 in a leap year).
// An unrecognized frequency advances monthly, matching the coercion policy.
func Advance(t time.Time, freq core.Frequency) time.Time {
	switch freq {
	case core.Weekly:
		return t.AddDate(0, 0, 7)
	case core.Biweekly:
		return t.AddDate(0, 0, 14)
	case core.Yearly:
		return addMonthsClamped(t, 12)
	default:
		return addMonthsClamped(t, 1)
	}
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()
	target := time.Date(y, m+time.Month(months), 1, hh, mm, ss, t.Nanosecond(), t.Location())
	if last := lastDayOfMonth(target); d > last {
		d = last
	}
	return time.Date(target.Year(), target.Month(), d, hh, mm, ss, t.Nanosecond(), t.Location())
}

func lastDayOfMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}
