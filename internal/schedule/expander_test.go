package schedule

import (
	"testing"
	"time"

	"hearth/internal/core"
)

func instanceDates(instances []core.Transaction) []time.Time {
	dates := make([]time.Time, len(instances))
	for i, inst := range instances {
		dates[i] = *inst.Date
	}
	return dates
}

func TestExpandMonthly(t *testing.T) {
	item := template(date(2024, 1, 15), core.Monthly)
	got := Expand(item, date(2024, 4, 1), date(2024, 1, 1))

	want := []time.Time{date(2024, 1, 15), date(2024, 2, 15), date(2024, 3, 15)}
	dates := instanceDates(got)
	if len(dates) != len(want) {
		t.Fatalf("expanded %d instances (%v), want %d", len(dates), dates, len(want))
	}
	for i := range want {
		if !dates[i].Equal(want[i]) {
			t.Errorf("instance %d dated %v, want %v", i, dates[i], want[i])
		}
	}
}

func TestExpandInstanceShape(t *testing.T) {
	item := template(date(2024, 1, 15), core.Monthly)
	got := Expand(item, date(2024, 2, 1), date(2024, 1, 1))
	if len(got) != 1 {
		t.Fatalf("expected one instance, got %d", len(got))
	}
	inst := got[0]
	if inst.ID != core.ProjectedID(item.ID, date(2024, 1, 15)) {
		t.Errorf("instance id = %q", inst.ID)
	}
	if !inst.IsProjected() {
		t.Errorf("expanded instance must report IsProjected")
	}
	if !inst.IsBill {
		t.Errorf("recurring-derived instances count as bills")
	}
	if inst.RecurringItemID != item.ID {
		t.Errorf("instance not linked to template: %q", inst.RecurringItemID)
	}
	if !inst.Amount.Equal(item.Amount) || inst.Direction != item.Direction {
		t.Errorf("instance did not inherit amount/direction")
	}
}

func TestExpandSkipsHideButDoNotShift(t *testing.T) {
	item := template(date(2024, 1, 15), core.Monthly)
	item.SkippedDates = []time.Time{date(2024, 2, 15)}

	got := instanceDates(Expand(item, date(2024, 4, 1), date(2024, 1, 1)))
	want := []time.Time{date(2024, 1, 15), date(2024, 3, 15)}
	if len(got) != len(want) {
		t.Fatalf("expanded %v, want %v", got, want)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("instance %d dated %v, want %v", i, got[i], want[i])
		}
	}
}

func TestExpandNeverEmitsSkippedDate(t *testing.T) {
	item := template(date(2024, 1, 15), core.Monthly)
	item.SkippedDates = []time.Time{date(2024, 2, 15)}

	for _, horizon := range []time.Time{date(2024, 3, 1), date(2025, 1, 1), date(2030, 1, 1)} {
		for _, inst := range Expand(item, horizon, date(2024, 1, 1)) {
			if core.SameDay(*inst.Date, date(2024, 2, 15)) {
				t.Fatalf("horizon %v: emitted instance on skipped date", horizon)
			}
		}
	}
}

func TestExpandFastForwardsStaleCursor(t *testing.T) {
	// Cursor fell a year behind; expansion catches up without emitting
	// historical instances.
	item := template(date(2023, 1, 10), core.Monthly)
	today := date(2024, 1, 1)

	got := Expand(item, date(2024, 3, 1), today)
	for _, inst := range got {
		if inst.Date.Before(today) {
			t.Fatalf("emitted historical instance at %v", inst.Date)
		}
	}
	if len(got) != 2 {
		t.Fatalf("expected catch-up to 2024-01-10 and 2024-02-10, got %v", instanceDates(got))
	}
	if !got[0].Date.Equal(date(2024, 1, 10)) {
		t.Errorf("first caught-up instance at %v", got[0].Date)
	}
}

func TestExpandNoSchedule(t *testing.T) {
	item := template(date(2024, 1, 15), core.Monthly)
	item.NextDate = nil
	if got := Expand(item, date(2030, 1, 1), date(2024, 1, 1)); len(got) != 0 {
		t.Fatalf("template without NextDate expanded to %d instances", len(got))
	}
}

func TestExpandIsRestartable(t *testing.T) {
	item := template(date(2024, 1, 15), core.Weekly)
	first := instanceDates(Expand(item, date(2024, 6, 1), date(2024, 1, 1)))
	second := instanceDates(Expand(item, date(2024, 6, 1), date(2024, 1, 1)))
	if len(first) != len(second) {
		t.Fatalf("re-expansion differs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Equal(second[i]) {
			t.Errorf("instance %d differs between runs", i)
		}
	}
}

func TestDropStale(t *testing.T) {
	stale := template(date(2024, 1, 15), core.Monthly)
	instances := Expand(stale, date(2024, 4, 1), date(2024, 1, 1))

	// Real progress advanced the live template past January.
	live := AdvanceNextDate(stale)
	kept := DropStale(instances, live)
	for _, inst := range kept {
		if inst.Date.Before(*live.NextDate) {
			t.Fatalf("kept stale instance at %v before live cursor %v", inst.Date, live.NextDate)
		}
	}
	if len(kept) != len(instances)-1 {
		t.Errorf("kept %d of %d, want %d", len(kept), len(instances), len(instances)-1)
	}
}
