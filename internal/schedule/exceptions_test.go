package schedule

import (
	"testing"
	"time"

	"hearth/internal/core"

	"github.com/shopspring/decimal"
)

func template(next time.Time, freq core.Frequency) core.RecurringItem {
	return core.RecurringItem{
		ID:          "tmpl1",
		Description: "Internet",
		Amount:      decimal.NewFromInt(60),
		Direction:   core.Expense,
		Frequency:   freq,
		NextDate:    &next,
		Category:    core.Utilities,
		AccountID:   "acc1",
	}
}

func TestIsExcludedSkippedDates(t *testing.T) {
	item := template(date(2024, 1, 15), core.Monthly)
	item.SkippedDates = []time.Time{date(2024, 2, 15)}

	tests := []struct {
		name       string
		occurrence time.Time
		want       bool
	}{
		{"unlisted date", date(2024, 1, 15), false},
		{"listed date", date(2024, 2, 15), true},
		{"listed date, different time of day", time.Date(2024, 2, 15, 16, 45, 0, 0, time.UTC), true},
		{"same day-of-year in another year", date(2025, 2, 15), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsExcluded(item, tt.occurrence); got != tt.want {
				t.Errorf("IsExcluded(%v) = %v, want %v", tt.occurrence, got, tt.want)
			}
		})
	}
}

func TestIsExcludedLegacySkippedUntil(t *testing.T) {
	item := template(date(2024, 1, 15), core.Monthly)
	cutoff := date(2024, 3, 1)
	item.SkippedUntil = &cutoff

	if !IsExcluded(item, date(2024, 2, 15)) {
		t.Errorf("occurrence before cutoff should be excluded")
	}
	if IsExcluded(item, date(2024, 3, 1)) {
		t.Errorf("occurrence on the cutoff itself must not be excluded")
	}
	if IsExcluded(item, date(2024, 3, 15)) {
		t.Errorf("occurrence after cutoff must not be excluded")
	}
}

func TestAdvanceNextDate(t *testing.T) {
	for _, freq := range []core.Frequency{core.Weekly, core.Biweekly, core.Monthly, core.Yearly} {
		item := template(date(2024, 1, 15), freq)
		advanced := AdvanceNextDate(item)
		if !advanced.NextDate.After(*item.NextDate) {
			t.Errorf("%s: advanced NextDate %v not strictly after %v", freq, advanced.NextDate, item.NextDate)
		}
	}

	noCursor := template(date(2024, 1, 15), core.Monthly)
	noCursor.NextDate = nil
	if got := AdvanceNextDate(noCursor); got.NextDate != nil {
		t.Errorf("template without cursor must stay without cursor")
	}
}

func TestAddSkippedDateDoesNotAliasOriginal(t *testing.T) {
	item := template(date(2024, 1, 15), core.Monthly)
	item.SkippedDates = []time.Time{date(2024, 2, 15)}

	updated := AddSkippedDate(item, date(2024, 3, 15))
	if len(item.SkippedDates) != 1 {
		t.Fatalf("original skip set mutated: %v", item.SkippedDates)
	}
	if len(updated.SkippedDates) != 2 {
		t.Fatalf("updated skip set = %v", updated.SkippedDates)
	}
}
