package projection

import (
	"sort"
	"strings"

	"hearth/internal/core"
)

// HistoryFilter narrows the account history view. Zero values mean "no
// constraint" for their field.
type HistoryFilter struct {
	Search    string
	Category  core.Category
	AccountID string
	From      *core.Day
	To        *core.Day
}

// History returns dated actual transactions matching the filter, newest
// first. Undated transactions never appear in history.
func History(actuals []core.Transaction, f HistoryFilter) []core.Transaction {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]core.Transaction, 0, len(actuals))
	for _, t := range actuals {
		if t.Date == nil {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		if f.Category != "" && t.Category != f.Category {
			continue
		}
		if f.AccountID != "" && t.AccountID != f.AccountID {
			continue
		}
		if f.From != nil && t.Date.Before(f.From.Start()) {
			continue
		}
		if f.To != nil && t.Date.After(f.To.End()) {
			continue
		}
		out = append(out, t)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(*out[j].Date)
	})
	return out
}
