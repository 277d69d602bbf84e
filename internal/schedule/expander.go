package schedule

import (
	"time"

	"hearth/internal/core"
)

// DefaultHorizonYears bounds projection when the caller has no tighter window.
const DefaultHorizonYears = 5

// Expand produces the projected instances of one template within the horizon.
//
// The cursor starts at the template's NextDate. A cursor that fell behind
// todayStart is fast-forwarded one frequency step at a time until it catches
// up; this self-heals long-untouched templates without retroactively creating
// historical instances, and the caught-up position is never persisted here.
// Excluded occurrences are hidden but still advance the cursor: an exclusion
// hides one occurrence, it does not shift the schedule.
//
// A template with no NextDate has no schedule and expands to nothing.
func Expand(item core.RecurringItem, horizonEnd, todayStart time.Time) []core.Transaction {
	if item.NextDate == nil {
		return nil
	}
	cursor := *item.NextDate
	for cursor.Before(todayStart) {
		cursor = Advance(cursor, item.Frequency)
	}

	var instances []core.Transaction
	for cursor.Before(horizonEnd) {
		if !IsExcluded(item, cursor) {
			instances = append(instances, projectedInstance(item, cursor))
		}
		cursor = Advance(cursor, item.Frequency)
	}
	return instances
}

// DropStale removes instances dated strictly before the live template's
// cursor. NextDate is authoritative: once real progress advances it past a
// date, no projection for that date may survive, even when the instances
// were expanded from a stale copy of the template.
func DropStale(instances []core.Transaction, live core.RecurringItem) []core.Transaction {
	if live.NextDate == nil {
		return instances
	}
	kept := instances[:0]
	for _, inst := range instances {
		if inst.Date != nil && inst.Date.Before(*live.NextDate) {
			continue
		}
		kept = append(kept, inst)
	}
	return kept
}

func projectedInstance(item core.RecurringItem, at time.Time) core.Transaction {
	date := at
	return core.Transaction{
		ID:              core.ProjectedID(item.ID, at),
		Description:     item.Description,
		Amount:          item.Amount,
		Date:            &date,
		Direction:       item.Direction,
		AccountID:       item.AccountID,
		Category:        item.Category,
		RecurringItemID: item.ID,
		Frequency:       item.Frequency,
		IsBill:          true, // every recurring-derived instance counts as a bill
	}
}
