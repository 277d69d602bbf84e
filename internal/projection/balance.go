package projection

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hearth/internal/core"
)

// CurrentBalance sums the signed actual transactions for one account up to
// this exact moment. Undated transactions never count.
func CurrentBalance(actuals []core.Transaction, accountID string, now time.Time) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range actuals {
		if t.AccountID != accountID || t.Date == nil || t.Date.After(now) {
			continue
		}
		sum = sum.Add(t.Signed())
	}
	return sum
}

// AccountBalances derives the per-account balance as of target. Three
// regimes apply:
//
//   - target is today: actuals up to now, same as CurrentBalance;
//   - target is past: actuals up to the end of that day;
//   - target is future: current balance plus the signed timeline entries
//     in (now, end of target day].
func AccountBalances(accounts []core.Account, actuals, timeline []core.Transaction, target core.Day, now time.Time) map[string]decimal.Decimal {
	today := core.DayOf(now)
	out := make(map[string]decimal.Decimal, len(accounts))

	switch {
	case target.Equal(today):
		for _, a := range accounts {
			out[a.ID] = CurrentBalance(actuals, a.ID, now)
		}

	case target.Before(today):
		endOfDay := target.End()
		for _, a := range accounts {
			sum := decimal.Zero
			for _, t := range actuals {
				if t.AccountID != a.ID || t.Date == nil || t.Date.After(endOfDay) {
					continue
				}
				sum = sum.Add(t.Signed())
			}
			out[a.ID] = sum
		}

	default:
		endOfDay := target.End()
		for _, a := range accounts {
			sum := CurrentBalance(actuals, a.ID, now)
			for _, t := range timeline {
				if t.AccountID != a.ID || t.Date == nil {
					continue
				}
				if !t.Date.After(now) || t.Date.After(endOfDay) {
					continue
				}
				sum = sum.Add(t.Signed())
			}
			out[a.ID] = sum
		}
	}
	return out
}

// Total sums a balance map across all accounts.
func Total(balances map[string]decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, b := range balances {
		sum = sum.Add(b)
	}
	return sum
}

// SplitByType partitions a balance total into checking and everything else.
func SplitByType(accounts []core.Account, balances map[string]decimal.Decimal) (checking, savings decimal.Decimal) {
	checking, savings = decimal.Zero, decimal.Zero
	for _, a := range accounts {
		b, ok := balances[a.ID]
		if !ok {
			continue
		}
		if strings.EqualFold(a.Type, "Checking") {
			checking = checking.Add(b)
		} else {
			savings = savings.Add(b)
		}
	}
	return checking, savings
}
