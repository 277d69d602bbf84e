package projection

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"hearth/internal/core"
)

// Normalization factors for converting per-cycle amounts to monthly terms.
var (
	weeksPerMonth      = decimal.NewFromFloat(4.33)
	fortnightsPerMonth = decimal.NewFromFloat(2.167)
	monthsPerYear      = decimal.NewFromInt(12)
)

// Discretionary filters the transactions that count against a spending
// budget: expenses that are not transfers, not produced by a template, and
// not flagged as bills.
func Discretionary(txns []core.Transaction) []core.Transaction {
	var out []core.Transaction
	for _, t := range txns {
		if t.Direction != core.Expense || t.TransferID != "" || t.RecurringItemID != "" || t.IsBill {
			continue
		}
		out = append(out, t)
	}
	return out
}

// SpentSince sums discretionary spending dated on or after since.
func SpentSince(txns []core.Transaction, since time.Time) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range Discretionary(txns) {
		if t.Date == nil || t.Date.Before(since) {
			continue
		}
		sum = sum.Add(t.Amount)
	}
	return sum
}

// SpendingByCategory breaks discretionary spending since a cutoff down by
// category. Every known category is present, zero when unspent.
func SpendingByCategory(txns []core.Transaction, since time.Time) map[core.Category]decimal.Decimal {
	out := make(map[core.Category]decimal.Decimal, len(core.Categories()))
	for _, c := range core.Categories() {
		out[c] = decimal.Zero
	}
	for _, t := range Discretionary(txns) {
		if t.Date == nil || t.Date.Before(since) {
			continue
		}
		out[t.Category] = out[t.Category].Add(t.Amount)
	}
	return out
}

// CategorySpending returns the discretionary transactions for one category
// since a cutoff, newest first, for the budget drilldown view.
func CategorySpending(txns []core.Transaction, category core.Category, since time.Time) []core.Transaction {
	var out []core.Transaction
	for _, t := range Discretionary(txns) {
		if t.Date == nil || t.Date.Before(since) || t.Category != category {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(*out[j].Date)
	})
	return out
}

// NormalizedMonthlyAmount converts a template's per-cycle amount to its
// signed monthly equivalent.
func NormalizedMonthlyAmount(item core.RecurringItem) decimal.Decimal {
	amount := item.Amount
	if item.Direction != core.Income {
		amount = amount.Neg()
	}
	switch item.Frequency {
	case core.Weekly:
		return amount.Mul(weeksPerMonth)
	case core.Biweekly:
		return amount.Mul(fortnightsPerMonth)
	case core.Yearly:
		return amount.Div(monthsPerYear)
	default:
		return amount
	}
}

// MonthlyCapacity sums the normalized monthly impact of every template:
// what is left to budget each month after recurring income and bills.
func MonthlyCapacity(items []core.RecurringItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(NormalizedMonthlyAmount(item))
	}
	return sum
}

// WeeklyCapacity is the monthly capacity scaled down to one week.
func WeeklyCapacity(items []core.RecurringItem) decimal.Decimal {
	return MonthlyCapacity(items).Div(weeksPerMonth)
}

// StartOfMonth returns midnight on the first of now's month.
func StartOfMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

// StartOfWeek returns midnight on the Monday of now's week.
func StartOfWeek(now time.Time) time.Time {
	day := core.DayOf(now)
	offset := (int(now.Weekday()) + 6) % 7
	return day.AddDays(-offset).Start()
}
