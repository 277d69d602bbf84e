package projection

import (
	"testing"
	"time"

	"hearth/internal/core"
)

func TestDiscretionaryFilters(t *testing.T) {
	transfer := oneOff("transfer", "100", date(2024, 1, 5), core.Expense)
	transfer.TransferID = "tr1"
	recurringLinked := oneOff("rent-paid", "1200", date(2024, 1, 5), core.Expense)
	recurringLinked.RecurringItemID = "rent"
	bill := oneOff("water", "48", date(2024, 1, 5), core.Expense)
	bill.IsBill = true

	txns := []core.Transaction{
		oneOff("coffee", "4.50", date(2024, 1, 5), core.Expense),
		oneOff("paycheck", "2000", date(2024, 1, 5), core.Income),
		transfer,
		recurringLinked,
		bill,
	}
	got := Discretionary(txns)
	if len(got) != 1 || got[0].ID != "coffee" {
		t.Fatalf("discretionary = %v, want only the coffee", got)
	}
}

func TestSpentSince(t *testing.T) {
	txns := []core.Transaction{
		oneOff("old", "30", date(2023, 12, 20), core.Expense),
		oneOff("new-a", "10", date(2024, 1, 5), core.Expense),
		oneOff("new-b", "15.50", date(2024, 1, 8), core.Expense),
	}
	got := SpentSince(txns, StartOfMonth(date(2024, 1, 10)))
	if !got.Equal(amt("25.5")) {
		t.Fatalf("spent = %s, want 25.5", got)
	}
}

func TestSpendingByCategoryCoversAllCategories(t *testing.T) {
	food := oneOff("lunch", "12", date(2024, 1, 5), core.Expense)
	food.Category = core.Food
	got := SpendingByCategory([]core.Transaction{food}, date(2024, 1, 1))

	if len(got) != len(core.Categories()) {
		t.Fatalf("breakdown has %d categories, want %d", len(got), len(core.Categories()))
	}
	if !got[core.Food].Equal(amt("12")) {
		t.Errorf("food = %s, want 12", got[core.Food])
	}
	if !got[core.Housing].IsZero() {
		t.Errorf("unspent category must be zero, got %s", got[core.Housing])
	}
}

func TestCategorySpendingNewestFirst(t *testing.T) {
	a := oneOff("early", "5", date(2024, 1, 2), core.Expense)
	b := oneOff("late", "7", date(2024, 1, 8), core.Expense)
	a.Category, b.Category = core.Food, core.Food

	got := CategorySpending([]core.Transaction{a, b}, core.Food, date(2024, 1, 1))
	if len(got) != 2 || got[0].ID != "late" {
		t.Fatalf("drilldown order = %v, want newest first", got)
	}
}

func TestNormalizedMonthlyAmount(t *testing.T) {
	cases := []struct {
		name string
		item core.RecurringItem
		want string
	}{
		{
			name: "weekly expense",
			item: core.RecurringItem{Amount: amt("100"), Direction: core.Expense, Frequency: core.Weekly},
			want: "-433",
		},
		{
			name: "biweekly income",
			item: core.RecurringItem{Amount: amt("1000"), Direction: core.Income, Frequency: core.Biweekly},
			want: "2167",
		},
		{
			name: "monthly expense",
			item: core.RecurringItem{Amount: amt("1200"), Direction: core.Expense, Frequency: core.Monthly},
			want: "-1200",
		},
		{
			name: "yearly expense",
			item: core.RecurringItem{Amount: amt("120"), Direction: core.Expense, Frequency: core.Yearly},
			want: "-10",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizedMonthlyAmount(tc.item); !got.Equal(amt(tc.want)) {
				t.Errorf("normalized = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestMonthlyAndWeeklyCapacity(t *testing.T) {
	items := []core.RecurringItem{
		{Amount: amt("3000"), Direction: core.Income, Frequency: core.Monthly},
		{Amount: amt("1200"), Direction: core.Expense, Frequency: core.Monthly},
	}
	monthly := MonthlyCapacity(items)
	if !monthly.Equal(amt("1800")) {
		t.Fatalf("monthly capacity = %s, want 1800", monthly)
	}
	weekly := WeeklyCapacity(items)
	if !weekly.Mul(amt("4.33")).Sub(monthly).Abs().LessThan(amt("0.01")) {
		t.Errorf("weekly capacity %s does not scale back to monthly %s", weekly, monthly)
	}
}

func TestStartOfWeekIsMonday(t *testing.T) {
	cases := []struct {
		now  time.Time
		want time.Time
	}{
		{date(2024, 1, 10), date(2024, 1, 8)}, // wednesday
		{date(2024, 1, 8), date(2024, 1, 8)},  // monday itself
		{date(2024, 1, 14), date(2024, 1, 8)}, // sunday closes the week
	}
	for _, tc := range cases {
		if got := StartOfWeek(tc.now); !got.Equal(tc.want) {
			t.Errorf("StartOfWeek(%v) = %v, want %v", tc.now, got, tc.want)
		}
	}
}

func TestStartOfMonth(t *testing.T) {
	got := StartOfMonth(at(2024, 2, 29, 18, 30))
	if !got.Equal(date(2024, 2, 1)) {
		t.Fatalf("StartOfMonth = %v", got)
	}
}
