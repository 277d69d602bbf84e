package projection

import (
	"sort"
	"time"

	"hearth/internal/core"
)

// DayGroup collects the timeline entries that fall on one calendar day.
type DayGroup struct {
	Day          core.Day
	Transactions []core.Transaction
}

// UpcomingByDay groups the timeline from today onwards, ascending by day.
// Projected instances are included alongside dated actuals.
func UpcomingByDay(timeline []core.Transaction, now time.Time) []DayGroup {
	todayStart := core.DayOf(now).Start()
	var dated []core.Transaction
	for _, t := range timeline {
		if t.Date == nil || t.Date.Before(todayStart) {
			continue
		}
		dated = append(dated, t)
	}
	return groupByDay(dated)
}

// PastByDay groups actual transactions strictly before today, ascending by
// day. Projections never appear here.
func PastByDay(actuals []core.Transaction, now time.Time) []DayGroup {
	todayStart := core.DayOf(now).Start()
	var dated []core.Transaction
	for _, t := range actuals {
		if t.Date == nil || !t.Date.Before(todayStart) {
			continue
		}
		dated = append(dated, t)
	}
	return groupByDay(dated)
}

// ForDay returns what the calendar shows for one selected day: timeline
// entries for today and future days, actual transactions for past days.
func ForDay(timeline, actuals []core.Transaction, day core.Day, now time.Time) []core.Transaction {
	source := timeline
	if day.Before(core.DayOf(now)) {
		source = actuals
	}
	var out []core.Transaction
	for _, t := range source {
		if t.Date != nil && day.Contains(*t.Date) {
			out = append(out, t)
		}
	}
	return out
}

// FutureScope filters the timeline to a date window. With a nil window it
// returns everything strictly after now.
func FutureScope(timeline []core.Transaction, now time.Time, from, to *core.Day) []core.Transaction {
	var out []core.Transaction
	if from != nil && to != nil {
		start, end := from.Start(), to.End()
		for _, t := range timeline {
			if t.Date == nil || t.Date.Before(start) || t.Date.After(end) {
				continue
			}
			out = append(out, t)
		}
		return out
	}
	for _, t := range timeline {
		if t.Date != nil && t.Date.After(now) {
			out = append(out, t)
		}
	}
	return out
}

func groupByDay(txns []core.Transaction) []DayGroup {
	byKey := make(map[string]*DayGroup)
	for _, t := range txns {
		d := core.DayOf(*t.Date)
		key := d.String()
		g, ok := byKey[key]
		if !ok {
			g = &DayGroup{Day: d}
			byKey[key] = g
		}
		g.Transactions = append(g.Transactions, t)
	}
	out := make([]DayGroup, 0, len(byKey))
	for _, g := range byKey {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Day.Before(out[j].Day)
	})
	return out
}
