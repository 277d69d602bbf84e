// Package actions implements every user-initiated state transition. Each
// method validates against a snapshot the caller already holds, then writes
// through the storage ports; derived views are rebuilt by the tracker when
// the change notification lands. Methods never read the clock themselves:
// now is an argument, so the same call at the same instant always produces
// the same writes.
package actions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"hearth/internal/core"
	"hearth/internal/projection"
	"hearth/internal/schedule"
	"hearth/internal/tracker"
)

// Service executes state transitions against a Store.
type Service struct {
	store tracker.Store
}

func New(store tracker.Store) *Service {
	return &Service{store: store}
}

// AddAccount validates and persists a new account.
func (s *Service) AddAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	if err := s.store.UpsertAccount(ctx, a); err != nil {
		return core.Account{}, fmt.Errorf("upsert account: %w", err)
	}
	return a, nil
}

// DeleteAccount removes an account and every transaction that touches it.
func (s *Service) DeleteAccount(ctx context.Context, snap tracker.Snapshot, accountID string) error {
	var b tracker.Batch
	for _, t := range snap.Transactions {
		if t.AccountID == accountID {
			b.DeleteTransactions = append(b.DeleteTransactions, t.ID)
		}
	}
	if !b.Empty() {
		if err := s.store.Apply(ctx, b); err != nil {
			return fmt.Errorf("delete account transactions: %w", err)
		}
	}
	if err := s.store.DeleteAccount(ctx, accountID); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

// AddTransaction validates and persists a one-off transaction.
func (s *Service) AddTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.store.UpsertTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("upsert transaction: %w", err)
	}
	return t, nil
}

// UpdateTransaction persists edits to a transaction. Editing a projected
// instance never touches the template's schedule: the edit becomes a new
// one-off transaction and the original occurrence date is skipped.
func (s *Service) UpdateTransaction(ctx context.Context, snap tracker.Snapshot, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if !t.IsProjected() {
		if err := s.store.UpsertTransaction(ctx, t); err != nil {
			return fmt.Errorf("upsert transaction: %w", err)
		}
		return nil
	}

	tmpl, ok := findTemplate(snap, t.RecurringItemID)
	if !ok || t.Date == nil {
		slog.WarnContext(ctx, "Ignoring edit of orphaned projection", "id", t.ID)
		return nil
	}
	edited := t
	edited.ID = uuid.NewString()
	edited.RecurringItemID = ""
	edited.Frequency = ""

	b := tracker.Batch{
		PutTransactions:   []core.Transaction{edited},
		PutRecurringItems: []core.RecurringItem{schedule.AddSkippedDate(tmpl, *t.Date)},
	}
	if err := s.store.Apply(ctx, b); err != nil {
		return fmt.Errorf("apply projected edit: %w", err)
	}
	return nil
}

// DeleteTransaction removes a persisted transaction outright.
func (s *Service) DeleteTransaction(ctx context.Context, id string) error {
	return s.store.DeleteTransaction(ctx, id)
}

// UpsertRecurringItem validates and persists a schedule template.
func (s *Service) UpsertRecurringItem(ctx context.Context, item core.RecurringItem) (core.RecurringItem, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if err := item.Validate(); err != nil {
		return core.RecurringItem{}, err
	}
	if err := s.store.UpsertRecurringItem(ctx, item); err != nil {
		return core.RecurringItem{}, fmt.Errorf("upsert recurring item: %w", err)
	}
	return item, nil
}

// DeleteRecurringSeries removes a template and with it all future
// occurrences. Already-realized transactions stay.
func (s *Service) DeleteRecurringSeries(ctx context.Context, templateID string) error {
	return s.store.DeleteRecurringItem(ctx, templateID)
}

// DeleteOccurrence removes one timeline entry. A projected instance is
// hidden by skipping its date on the template; an actual transaction is
// deleted for real.
func (s *Service) DeleteOccurrence(ctx context.Context, snap tracker.Snapshot, t core.Transaction) error {
	if t.IsProjected() {
		tmpl, ok := findTemplate(snap, t.RecurringItemID)
		if !ok || t.Date == nil {
			return nil
		}
		_, err := s.UpsertRecurringItem(ctx, schedule.AddSkippedDate(tmpl, *t.Date))
		return err
	}
	return s.store.DeleteTransaction(ctx, t.ID)
}

// DismissOccurrence hides one upcoming occurrence of a template without
// shifting the rest of the schedule.
func (s *Service) DismissOccurrence(ctx context.Context, snap tracker.Snapshot, templateID string, occurrence time.Time) error {
	tmpl, ok := findTemplate(snap, templateID)
	if !ok {
		return nil
	}
	_, err := s.UpsertRecurringItem(ctx, schedule.AddSkippedDate(tmpl, occurrence))
	return err
}

// SkipNextOccurrence advances the template cursor past its next due date.
func (s *Service) SkipNextOccurrence(ctx context.Context, snap tracker.Snapshot, templateID string) error {
	tmpl, ok := findTemplate(snap, templateID)
	if !ok || tmpl.NextDate == nil {
		return nil
	}
	_, err := s.UpsertRecurringItem(ctx, schedule.AdvanceNextDate(tmpl))
	return err
}

// PayEarly realizes an upcoming occurrence today instead of on its due
// date. The paid transaction is flagged so it never reappears as upcoming,
// and the occurrence it covers is consumed: the cursor advances when it was
// the next due date, otherwise the specific date is skipped.
func (s *Service) PayEarly(ctx context.Context, snap tracker.Snapshot, now time.Time, templateID string, occurrence time.Time) error {
	tmpl, ok := findTemplate(snap, templateID)
	if !ok {
		return nil
	}
	accountID := fallbackAccount(snap, tmpl.AccountID)
	if accountID == "" {
		return core.ErrNoAccount
	}

	paid := realizedTransaction(tmpl, accountID, now)
	paid.WasPaidEarly = true
	paid.RecurringItemID = tmpl.ID

	updated := schedule.AddSkippedDate(tmpl, occurrence)
	if tmpl.NextDate != nil && core.SameDay(occurrence, *tmpl.NextDate) {
		updated = schedule.AdvanceNextDate(tmpl)
	}

	b := tracker.Batch{
		PutTransactions:   []core.Transaction{paid},
		PutRecurringItems: []core.RecurringItem{updated},
	}
	if err := s.store.Apply(ctx, b); err != nil {
		return fmt.Errorf("apply pay early: %w", err)
	}
	return nil
}

// ConfirmPostpone moves one occurrence to a chosen later date: the cursor
// advances past the original due date and a bill lands on the new one.
func (s *Service) ConfirmPostpone(ctx context.Context, snap tracker.Snapshot, templateID string, newDate time.Time) error {
	tmpl, ok := findTemplate(snap, templateID)
	if !ok || tmpl.NextDate == nil {
		return nil
	}
	accountID := fallbackAccount(snap, tmpl.AccountID)
	if accountID == "" {
		return core.ErrNoAccount
	}

	moved := realizedTransaction(tmpl, accountID, newDate)
	updated := schedule.SetPostponed(schedule.AdvanceNextDate(tmpl), true)

	b := tracker.Batch{
		PutTransactions:   []core.Transaction{moved},
		PutRecurringItems: []core.RecurringItem{updated},
	}
	if err := s.store.Apply(ctx, b); err != nil {
		return fmt.Errorf("apply postpone: %w", err)
	}
	return nil
}

// MarkPostponedPaid settles a postponed occurrence today and clears the
// postponed flag.
func (s *Service) MarkPostponedPaid(ctx context.Context, snap tracker.Snapshot, now time.Time, templateID string) error {
	tmpl, ok := findTemplate(snap, templateID)
	if !ok {
		return nil
	}
	accountID := fallbackAccount(snap, tmpl.AccountID)
	if accountID == "" {
		return core.ErrNoAccount
	}

	updated := schedule.SetPostponed(tmpl, false)
	if tmpl.NextDate != nil {
		updated = schedule.SetPostponed(schedule.AdvanceNextDate(tmpl), false)
	}

	b := tracker.Batch{
		PutTransactions:   []core.Transaction{realizedTransaction(tmpl, accountID, now)},
		PutRecurringItems: []core.RecurringItem{updated},
	}
	if err := s.store.Apply(ctx, b); err != nil {
		return fmt.Errorf("apply mark postponed paid: %w", err)
	}
	return nil
}

// ConfirmFluctuatingAmount realizes the next occurrence with the actual
// billed amount and advances the cursor.
func (s *Service) ConfirmFluctuatingAmount(ctx context.Context, snap tracker.Snapshot, templateID string, amount decimal.Decimal) error {
	tmpl, ok := findTemplate(snap, templateID)
	if !ok || tmpl.NextDate == nil {
		return nil
	}
	if !amount.IsPositive() {
		return core.ErrInvalidAmount
	}
	accountID := fallbackAccount(snap, tmpl.AccountID)
	if accountID == "" {
		return core.ErrNoAccount
	}

	confirmed := realizedTransaction(tmpl, accountID, *tmpl.NextDate)
	confirmed.Amount = amount

	b := tracker.Batch{
		PutTransactions:   []core.Transaction{confirmed},
		PutRecurringItems: []core.RecurringItem{schedule.AdvanceNextDate(tmpl)},
	}
	if err := s.store.Apply(ctx, b); err != nil {
		return fmt.Errorf("apply fluctuating confirmation: %w", err)
	}
	return nil
}

// ConfirmByScan realizes the next occurrence from a scanned bill: both the
// amount and the date come from the document, and any postponed or legacy
// skip state on the template is reset for the next cycle.
func (s *Service) ConfirmByScan(ctx context.Context, snap tracker.Snapshot, templateID string, amount decimal.Decimal, confirmedDate time.Time) error {
	tmpl, ok := findTemplate(snap, templateID)
	if !ok {
		return nil
	}
	if !amount.IsPositive() {
		return core.ErrInvalidAmount
	}
	accountID := fallbackAccount(snap, tmpl.AccountID)
	if accountID == "" {
		return core.ErrNoAccount
	}

	confirmed := realizedTransaction(tmpl, accountID, confirmedDate)
	confirmed.Amount = amount
	confirmed.RecurringItemID = tmpl.ID

	updated := tmpl
	if tmpl.NextDate != nil {
		updated = schedule.AdvanceNextDate(tmpl)
	}
	updated = schedule.ClearLegacySkip(schedule.SetPostponed(updated, false))

	b := tracker.Batch{
		PutTransactions:   []core.Transaction{confirmed},
		PutRecurringItems: []core.RecurringItem{updated},
	}
	if err := s.store.Apply(ctx, b); err != nil {
		return fmt.Errorf("apply scan confirmation: %w", err)
	}
	return nil
}

// SplitPayment replaces the next occurrence with equal installments on the
// given dates. All writes land in one batch.
func (s *Service) SplitPayment(ctx context.Context, snap tracker.Snapshot, templateID string, dates []time.Time) error {
	tmpl, ok := findTemplate(snap, templateID)
	if !ok || tmpl.NextDate == nil || len(dates) == 0 {
		return nil
	}

	split := tmpl.Amount.Div(decimal.NewFromInt(int64(len(dates))))
	b := tracker.Batch{
		PutRecurringItems: []core.RecurringItem{schedule.AdvanceNextDate(tmpl)},
	}
	for i, d := range dates {
		part := realizedTransaction(tmpl, tmpl.AccountID, d)
		part.Amount = split
		part.Description = fmt.Sprintf("%s (%d of %d)", tmpl.Description, i+1, len(dates))
		part.RecurringItemID = tmpl.ID
		b.PutTransactions = append(b.PutTransactions, part)
	}
	if err := s.store.Apply(ctx, b); err != nil {
		return fmt.Errorf("apply split payment: %w", err)
	}
	return nil
}

// ConvertToRecurring derives a template from an existing transaction. The
// cursor starts at the first occurrence on or after now, stepping from the
// transaction's own date, and the source transaction is linked to the new
// template so it never doubles as a budget expense.
func (s *Service) ConvertToRecurring(ctx context.Context, now time.Time, t core.Transaction, freq core.Frequency, fluctuating bool) (core.RecurringItem, error) {
	if t.Date == nil {
		return core.RecurringItem{}, core.ErrInvalidDate
	}
	cursor := *t.Date
	for cursor.Before(now) {
		cursor = schedule.Advance(cursor, freq)
	}

	tmpl := core.RecurringItem{
		ID:            uuid.NewString(),
		Description:   t.Description,
		Amount:        t.Amount,
		Direction:     t.Direction,
		Frequency:     freq,
		NextDate:      &cursor,
		Category:      t.Category,
		IsFluctuating: fluctuating,
		AccountID:     t.AccountID,
	}
	if err := tmpl.Validate(); err != nil {
		return core.RecurringItem{}, err
	}

	linked := t
	linked.RecurringItemID = tmpl.ID
	linked.Frequency = freq

	b := tracker.Batch{
		PutTransactions:   []core.Transaction{linked},
		PutRecurringItems: []core.RecurringItem{tmpl},
	}
	if err := s.store.Apply(ctx, b); err != nil {
		return core.RecurringItem{}, fmt.Errorf("apply conversion: %w", err)
	}
	return tmpl, nil
}

// AddTransfer moves money between two accounts as a paired expense and
// income sharing one transfer id. Transfers never count against budgets.
func (s *Service) AddTransfer(ctx context.Context, description string, amount decimal.Decimal, fromAccountID, toAccountID string, date time.Time) error {
	if !amount.IsPositive() {
		return core.ErrInvalidAmount
	}
	if fromAccountID == "" || toAccountID == "" {
		return core.ErrNoAccount
	}

	transferID := uuid.NewString()
	leg := func(accountID string, dir core.Direction) core.Transaction {
		d := date
		return core.Transaction{
			ID:          uuid.NewString(),
			Description: description,
			Amount:      amount,
			Date:        &d,
			Direction:   dir,
			AccountID:   accountID,
			Category:    core.SavingsTransfer,
			TransferID:  transferID,
		}
	}

	b := tracker.Batch{PutTransactions: []core.Transaction{
		leg(fromAccountID, core.Expense),
		leg(toAccountID, core.Income),
	}}
	if err := s.store.Apply(ctx, b); err != nil {
		return fmt.Errorf("apply transfer: %w", err)
	}
	return nil
}

// AdjustBalance reconciles an account against a statement by inserting a
// single correcting transaction dated now. Adjustments are bills so they
// stay out of discretionary budgets.
func (s *Service) AdjustBalance(ctx context.Context, snap tracker.Snapshot, now time.Time, accountID string, correctBalance decimal.Decimal) error {
	current := projection.CurrentBalance(snap.Transactions, accountID, now)
	diff := correctBalance.Sub(current)
	if diff.IsZero() {
		return nil
	}

	dir := core.Expense
	if diff.IsPositive() {
		dir = core.Income
	}
	at := now
	adjustment := core.Transaction{
		ID:          uuid.NewString(),
		Description: "Balance Adjustment",
		Amount:      diff.Abs(),
		Date:        &at,
		Direction:   dir,
		AccountID:   accountID,
		Category:    core.Other,
		IsBill:      true,
	}
	if err := s.store.UpsertTransaction(ctx, adjustment); err != nil {
		return fmt.Errorf("upsert adjustment: %w", err)
	}
	return nil
}

// RefreshLegacySkips strips the deprecated skippedUntil marker from every
// template and transaction that still carries one.
func (s *Service) RefreshLegacySkips(ctx context.Context, snap tracker.Snapshot) error {
	var b tracker.Batch
	for _, item := range snap.RecurringItems {
		if item.SkippedUntil != nil {
			b.PutRecurringItems = append(b.PutRecurringItems, schedule.ClearLegacySkip(item))
		}
	}
	for _, t := range snap.Transactions {
		if t.SkippedUntil != nil {
			t.SkippedUntil = nil
			b.PutTransactions = append(b.PutTransactions, t)
		}
	}
	if b.Empty() {
		return nil
	}
	if err := s.store.Apply(ctx, b); err != nil {
		return fmt.Errorf("apply legacy skip refresh: %w", err)
	}
	return nil
}

// SetBudgetGoals persists the tracker-wide spending targets.
func (s *Service) SetBudgetGoals(ctx context.Context, goals core.BudgetGoals) error {
	if goals.Monthly.IsNegative() || goals.Weekly.IsNegative() {
		return core.ErrInvalidAmount
	}
	return s.store.SetBudgetGoals(ctx, goals)
}

// realizedTransaction builds the actual transaction that settles one
// occurrence of a template. Callers adjust amount, linkage and flags.
func realizedTransaction(tmpl core.RecurringItem, accountID string, at time.Time) core.Transaction {
	d := at
	return core.Transaction{
		ID:          uuid.NewString(),
		Description: tmpl.Description,
		Amount:      tmpl.Amount,
		Date:        &d,
		Direction:   tmpl.Direction,
		AccountID:   accountID,
		Category:    tmpl.Category,
		IsBill:      true,
	}
}

func findTemplate(snap tracker.Snapshot, id string) (core.RecurringItem, bool) {
	for _, item := range snap.RecurringItems {
		if item.ID == id {
			return item, true
		}
	}
	return core.RecurringItem{}, false
}

func fallbackAccount(snap tracker.Snapshot, preferred string) string {
	if preferred != "" {
		return preferred
	}
	if len(snap.Accounts) > 0 {
		return snap.Accounts[0].ID
	}
	return ""
}
