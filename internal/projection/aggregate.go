// Package projection derives every displayed view from the two persisted
// collections: actual transactions and recurring templates. Nothing here
// writes; results are rebuilt from scratch on each pass so a crash or a
// missed event can never leave a stale derived row behind.
package projection

import (
	"sort"
	"time"

	"hearth/internal/core"
	"hearth/internal/schedule"
)

// Confirmation windows for fluctuating templates, in days before the due date.
const (
	actionRequiredDays    = 14
	needsConfirmationDays = 28
)

// Result is one consistent aggregation pass over a snapshot.
type Result struct {
	// Timeline holds dated one-off transactions plus every projected
	// recurring instance inside the horizon, sorted ascending by date.
	Timeline []core.Transaction

	// Upcoming is the full dashboard list, deduplicated and sorted
	// ascending by date. Use Next for the dashboard prefix.
	Upcoming []core.UpcomingDisplayItem
}

// Next returns the first n upcoming items.
func (r Result) Next(n int) []core.UpcomingDisplayItem {
	if n > len(r.Upcoming) {
		n = len(r.Upcoming)
	}
	return r.Upcoming[:n]
}

// Aggregate rebuilds the timeline and the upcoming list from a snapshot.
// The same inputs and the same now always produce the same result.
func Aggregate(accounts []core.Account, txns []core.Transaction, items []core.RecurringItem, now time.Time) Result {
	todayStart := core.DayOf(now).Start()
	horizonEnd := now.AddDate(schedule.DefaultHorizonYears, 0, 0)

	timeline := make([]core.Transaction, 0, len(txns))
	for _, t := range txns {
		if t.Date == nil || t.RecurringItemID != "" {
			continue
		}
		if t.SkippedUntil != nil && t.SkippedUntil.After(now) {
			continue
		}
		timeline = append(timeline, t)
	}

	seen := make(map[string]bool, len(items))
	templates := make(map[string]core.RecurringItem, len(items))
	for _, item := range items {
		if seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		templates[item.ID] = item
		instances := schedule.Expand(item, horizonEnd, todayStart)
		timeline = append(timeline, schedule.DropStale(instances, item)...)
	}

	sort.SliceStable(timeline, func(i, j int) bool {
		return timeline[i].Date.Before(*timeline[j].Date)
	})

	return Result{
		Timeline: timeline,
		Upcoming: upcomingFrom(timeline, templates, accounts, now, todayStart),
	}
}

func upcomingFrom(timeline []core.Transaction, templates map[string]core.RecurringItem, accounts []core.Account, now, todayStart time.Time) []core.UpcomingDisplayItem {
	names := make(map[string]string, len(accounts))
	for _, a := range accounts {
		names[a.ID] = a.Name
	}

	type dedupKey struct {
		originalID string
		at         int64
	}
	emitted := make(map[dedupKey]bool)

	var out []core.UpcomingDisplayItem
	for _, t := range timeline {
		if t.WasPaidEarly {
			continue
		}
		if t.SkippedUntil != nil && t.Date.After(*t.SkippedUntil) {
			continue
		}

		// One-off transactions are done the moment they happen; only a
		// strictly future date keeps them on the dashboard. Recurring
		// instances and bills stay visible for the whole of today.
		simple := t.RecurringItemID == "" && !t.IsBill && t.TransferID == ""
		if simple {
			if !t.Date.After(now) {
				continue
			}
		} else if t.Date.Before(todayStart) {
			continue
		}

		var tmpl *core.RecurringItem
		if t.RecurringItemID != "" {
			if found, ok := templates[t.RecurringItemID]; ok {
				tmpl = &found
			}
		}

		state := core.ConfirmationNone
		if tmpl != nil && tmpl.IsFluctuating {
			state = confirmationFor(*t.Date, todayStart)
		}

		originalID := t.ID
		postponed := false
		if tmpl != nil {
			originalID = tmpl.ID
			postponed = tmpl.IsPostponed
		}

		key := dedupKey{originalID, t.Date.UnixMilli()}
		if emitted[key] {
			continue
		}
		emitted[key] = true

		out = append(out, core.UpcomingDisplayItem{
			OriginalID:        originalID,
			Description:       t.Description,
			Amount:            t.Amount,
			Date:              *t.Date,
			Direction:         t.Direction,
			IsRecurring:       t.RecurringItemID != "",
			ConfirmationState: state,
			IsPostponed:       postponed,
			AccountName:       names[t.AccountID],
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

func confirmationFor(due, todayStart time.Time) core.ConfirmationState {
	daysUntil := int(due.Sub(todayStart).Hours() / 24)
	switch {
	case daysUntil <= actionRequiredDays:
		return core.ConfirmationRequired
	case daysUntil <= needsConfirmationDays:
		return core.NeedsConfirmation
	default:
		return core.ConfirmationNone
	}
}
