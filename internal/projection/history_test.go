package projection

import (
	"testing"
	"time"

	"hearth/internal/core"
)

func histTxn(id, description, amount string, when time.Time, category core.Category) core.Transaction {
	return core.Transaction{
		ID:          id,
		Description: description,
		Amount:      amt(amount),
		Direction:   core.Expense,
		Category:    category,
		AccountID:   "acc1",
		Date:        ptr(when),
	}
}

func dayPtr(t time.Time) *core.Day {
	d := core.DayOf(t)
	return &d
}

func TestHistoryFilters(t *testing.T) {
	actuals := []core.Transaction{
		histTxn("t1", "Rent March", "1200", date(2024, 3, 1), core.Housing),
		histTxn("t2", "Groceries", "80", date(2024, 3, 5), core.Food),
		histTxn("t3", "Groceries again", "40", date(2024, 4, 2), core.Food),
	}
	undated := core.Transaction{ID: "t4", Description: "Draft", Amount: amt("5"), AccountID: "acc1"}
	actuals = append(actuals, undated)

	tests := []struct {
		name   string
		filter HistoryFilter
		want   []string
	}{
		{
			name:   "no filter returns dated newest first",
			filter: HistoryFilter{},
			want:   []string{"t3", "t2", "t1"},
		},
		{
			name:   "search is case insensitive",
			filter: HistoryFilter{Search: "groc"},
			want:   []string{"t3", "t2"},
		},
		{
			name:   "category match",
			filter: HistoryFilter{Category: core.Housing},
			want:   []string{"t1"},
		},
		{
			name:   "date range is inclusive",
			filter: HistoryFilter{From: dayPtr(date(2024, 3, 1)), To: dayPtr(date(2024, 3, 5))},
			want:   []string{"t2", "t1"},
		},
		{
			name:   "combined filters intersect",
			filter: HistoryFilter{Search: "groceries", From: dayPtr(date(2024, 4, 1)), To: dayPtr(date(2024, 4, 30))},
			want:   []string{"t3"},
		},
		{
			name:   "account mismatch excludes all",
			filter: HistoryFilter{AccountID: "acc2"},
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := History(actuals, tt.filter)
			if len(got) != len(tt.want) {
				t.Fatalf("History() returned %d transactions, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("History()[%d].ID = %q, want %q", i, got[i].ID, id)
				}
			}
		})
	}
}
