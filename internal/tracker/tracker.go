// Package tracker keeps the derived views of one shared tracker in memory
// and rebuilds them whenever the underlying collections change. All writes
// go through the storage ports; this package only reads.
package tracker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"hearth/internal/core"
	"hearth/internal/projection"
)

// rollCheckInterval bounds how stale the derived views can get when no
// writes arrive: the day boundary moves even if nobody touches the data.
const rollCheckInterval = time.Minute

// Tracker serves consistent reads over the latest aggregation pass.
type Tracker struct {
	store Store
	clock func() time.Time

	mu   sync.RWMutex
	snap Snapshot
	res  projection.Result
	day  core.Day
}

func New(store Store) *Tracker {
	return &Tracker{store: store, clock: time.Now}
}

// Run loads the initial snapshot and then rebuilds on every change
// notification until the context is cancelled. Rebuilds are synchronous:
// once a write's notification is handled, reads see the new state.
func (t *Tracker) Run(ctx context.Context) error {
	if err := t.Reload(ctx); err != nil {
		return err
	}

	changes := t.store.Subscribe()
	ticker := time.NewTicker(rollCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ch, ok := <-changes:
			if !ok {
				return nil
			}
			if err := t.Reload(ctx); err != nil {
				slog.ErrorContext(ctx, "Failed to reload after change",
					"collection", ch.Collection,
					"error", err)
				continue
			}
			slog.DebugContext(ctx, "Rebuilt derived views", "collection", ch.Collection)
		case <-ticker.C:
			// Recompute when the calendar day rolls over so today's
			// dueness and balances stay correct without any writes.
			t.mu.RLock()
			rolled := !core.DayOf(t.clock()).Equal(t.day)
			t.mu.RUnlock()
			if rolled {
				if err := t.Reload(ctx); err != nil {
					slog.ErrorContext(ctx, "Failed to reload at day rollover", "error", err)
				}
			}
		}
	}
}

// Reload replaces the cached snapshot and derived views wholesale.
func (t *Tracker) Reload(ctx context.Context) error {
	snap, err := LoadSnapshot(ctx, t.store)
	if err != nil {
		return err
	}
	now := t.clock()
	res := projection.Aggregate(snap.Accounts, snap.Transactions, snap.RecurringItems, now)

	t.mu.Lock()
	t.snap = snap
	t.res = res
	t.day = core.DayOf(now)
	t.mu.Unlock()
	return nil
}

// Snapshot returns the collections behind the current derived views.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snap
}

// Upcoming returns the first n dashboard rows; n <= 0 returns all of them.
func (t *Tracker) Upcoming(n int) []core.UpcomingDisplayItem {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if n <= 0 {
		return t.res.Upcoming
	}
	return t.res.Next(n)
}

// Timeline returns the full projected timeline, ascending by date.
func (t *Tracker) Timeline() []core.Transaction {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.res.Timeline
}

// BalancesFor derives per-account balances as of the given day.
func (t *Tracker) BalancesFor(day core.Day) map[string]decimal.Decimal {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return projection.AccountBalances(t.snap.Accounts, t.snap.Transactions, t.res.Timeline, day, t.clock())
}

// CalendarDay returns what the calendar shows for one selected day.
func (t *Tracker) CalendarDay(day core.Day) []core.Transaction {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return projection.ForDay(t.res.Timeline, t.snap.Transactions, day, t.clock())
}

// UpcomingDays groups the timeline from today onwards for the calendar view.
func (t *Tracker) UpcomingDays() []projection.DayGroup {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return projection.UpcomingByDay(t.res.Timeline, t.clock())
}

// PastDays groups actual transactions strictly before today.
func (t *Tracker) PastDays() []projection.DayGroup {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return projection.PastByDay(t.snap.Transactions, t.clock())
}

// FutureScope filters the timeline to a window; nil bounds mean "after now".
func (t *Tracker) FutureScope(from, to *core.Day) []core.Transaction {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return projection.FutureScope(t.res.Timeline, t.clock(), from, to)
}

// BudgetSummary is the full budgeting view for the dashboard.
type BudgetSummary struct {
	Goals             core.BudgetGoals
	MonthlySpent      decimal.Decimal
	WeeklySpent       decimal.Decimal
	MonthlyByCategory map[core.Category]decimal.Decimal
	WeeklyByCategory  map[core.Category]decimal.Decimal
	MonthlyCapacity   decimal.Decimal
	WeeklyCapacity    decimal.Decimal
}

// Budget computes discretionary spending against the stored goals.
func (t *Tracker) Budget(ctx context.Context) (BudgetSummary, error) {
	goals, err := t.store.BudgetGoals(ctx)
	if err != nil {
		return BudgetSummary{}, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	now := t.clock()
	monthStart := projection.StartOfMonth(now)
	weekStart := projection.StartOfWeek(now)

	return BudgetSummary{
		Goals:             goals,
		MonthlySpent:      projection.SpentSince(t.snap.Transactions, monthStart),
		WeeklySpent:       projection.SpentSince(t.snap.Transactions, weekStart),
		MonthlyByCategory: projection.SpendingByCategory(t.snap.Transactions, monthStart),
		WeeklyByCategory:  projection.SpendingByCategory(t.snap.Transactions, weekStart),
		MonthlyCapacity:   projection.MonthlyCapacity(t.snap.RecurringItems),
		WeeklyCapacity:    projection.WeeklyCapacity(t.snap.RecurringItems),
	}, nil
}
