package schedule

import (
	"time"

	"hearth/internal/core"
)

// IsExcluded reports whether an occurrence of the template on the given date
// is hidden from projection. Two mechanisms apply:
//
//   - SkippedDates: the occurrence's calendar day (year plus day-of-year,
//     time of day ignored) matches an explicitly skipped date;
//   - SkippedUntil: the legacy cutoff hides every occurrence strictly before
//     it. Superseded by SkippedDates for new writes but still honored for
//     previously persisted data.
func IsExcluded(item core.RecurringItem, occurrence time.Time) bool {
	for _, skipped := range item.SkippedDates {
		if core.SameDay(skipped, occurrence) {
			return true
		}
	}
	if item.SkippedUntil != nil && occurrence.Before(*item.SkippedUntil) {
		return true
	}
	return false
}

// AddSkippedDate returns a copy of the template with the date added to its
// skip set. The caller is responsible for writing the result back.
func AddSkippedDate(item core.RecurringItem, date time.Time) core.RecurringItem {
	skipped := make([]time.Time, 0, len(item.SkippedDates)+1)
	skipped = append(skipped, item.SkippedDates...)
	skipped = append(skipped, date)
	item.SkippedDates = skipped
	return item
}

// AdvanceNextDate returns a copy of the template with the cursor moved
// forward by one frequency step. Advancement is monotonic: the new NextDate
// is always strictly later than the old one. A template without a cursor is
// returned unchanged.
func AdvanceNextDate(item core.RecurringItem) core.RecurringItem {
	if item.NextDate == nil {
		return item
	}
	next := Advance(*item.NextDate, item.Frequency)
	item.NextDate = &next
	return item
}

// SetPostponed returns a copy of the template with the postponed flag set.
func SetPostponed(item core.RecurringItem, postponed bool) core.RecurringItem {
	item.IsPostponed = postponed
	return item
}

// ClearLegacySkip returns a copy of the template with the legacy cutoff removed.
func ClearLegacySkip(item core.RecurringItem) core.RecurringItem {
	item.SkippedUntil = nil
	return item
}
