package actions

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"hearth/internal/core"
	"hearth/internal/tracker"
)

type fakeStore struct {
	upsertedTxns    []core.Transaction
	deletedTxns     []string
	upsertedItems   []core.RecurringItem
	deletedItems    []string
	deletedAccounts []string
	accounts        []core.Account
	batches         []tracker.Batch
	goals           core.BudgetGoals
}

func (f *fakeStore) ListAccounts(context.Context) ([]core.Account, error) { return f.accounts, nil }
func (f *fakeStore) UpsertAccount(_ context.Context, a core.Account) error {
	f.accounts = append(f.accounts, a)
	return nil
}
func (f *fakeStore) DeleteAccount(_ context.Context, id string) error {
	f.deletedAccounts = append(f.deletedAccounts, id)
	return nil
}

func (f *fakeStore) ListTransactions(context.Context) ([]core.Transaction, error) { return nil, nil }
func (f *fakeStore) UpsertTransaction(_ context.Context, t core.Transaction) error {
	f.upsertedTxns = append(f.upsertedTxns, t)
	return nil
}
func (f *fakeStore) DeleteTransaction(_ context.Context, id string) error {
	f.deletedTxns = append(f.deletedTxns, id)
	return nil
}

func (f *fakeStore) ListRecurringItems(context.Context) ([]core.RecurringItem, error) {
	return nil, nil
}
func (f *fakeStore) UpsertRecurringItem(_ context.Context, item core.RecurringItem) error {
	f.upsertedItems = append(f.upsertedItems, item)
	return nil
}
func (f *fakeStore) DeleteRecurringItem(_ context.Context, id string) error {
	f.deletedItems = append(f.deletedItems, id)
	return nil
}

func (f *fakeStore) Apply(_ context.Context, b tracker.Batch) error {
	f.batches = append(f.batches, b)
	return nil
}

func (f *fakeStore) BudgetGoals(context.Context) (core.BudgetGoals, error) { return f.goals, nil }
func (f *fakeStore) SetBudgetGoals(_ context.Context, g core.BudgetGoals) error {
	f.goals = g
	return nil
}

func (f *fakeStore) Subscribe() <-chan tracker.Change { return nil }

func (f *fakeStore) lastBatch(t *testing.T) tracker.Batch {
	t.Helper()
	if len(f.batches) == 0 {
		t.Fatal("no batch was applied")
	}
	return f.batches[len(f.batches)-1]
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func amt(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func snapshotWithRent(next time.Time) tracker.Snapshot {
	return tracker.Snapshot{
		Accounts: []core.Account{{ID: "acc1", Name: "Checking", Type: "Checking"}},
		RecurringItems: []core.RecurringItem{{
			ID:          "rent",
			Description: "Rent",
			Amount:      amt("1200"),
			Direction:   core.Expense,
			Frequency:   core.Monthly,
			NextDate:    ptr(next),
			Category:    core.Housing,
			AccountID:   "acc1",
		}},
	}
}

func TestAddTransactionAssignsIDAndValidates(t *testing.T) {
	store := &fakeStore{}
	svc := New(store)

	got, err := svc.AddTransaction(context.Background(), core.Transaction{
		Description: "Groceries",
		Amount:      amt("54.20"),
		Date:        ptr(date(2024, 1, 8)),
		Direction:   core.Expense,
		AccountID:   "acc1",
		Category:    core.Food,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if got.ID == "" {
		t.Error("no id assigned")
	}
	if len(store.upsertedTxns) != 1 {
		t.Fatalf("upserted %d transactions", len(store.upsertedTxns))
	}

	_, err = svc.AddTransaction(context.Background(), core.Transaction{
		Description: "",
		Amount:      amt("5"),
		AccountID:   "acc1",
	})
	if err != core.ErrEmptyDescription {
		t.Errorf("blank description accepted: %v", err)
	}
	if len(store.upsertedTxns) != 1 {
		t.Error("invalid transaction reached the store")
	}
}

func TestPayEarlyNextDueAdvancesCursor(t *testing.T) {
	store := &fakeStore{}
	svc := New(store)
	snap := snapshotWithRent(date(2024, 2, 1))
	now := date(2024, 1, 20)

	if err := svc.PayEarly(context.Background(), snap, now, "rent", date(2024, 2, 1)); err != nil {
		t.Fatalf("pay early: %v", err)
	}

	b := store.lastBatch(t)
	if len(b.PutTransactions) != 1 || len(b.PutRecurringItems) != 1 {
		t.Fatalf("batch shape: %+v", b)
	}
	paid := b.PutTransactions[0]
	if !paid.WasPaidEarly || !paid.IsBill || paid.RecurringItemID != "rent" {
		t.Errorf("paid transaction flags: %+v", paid)
	}
	if !paid.Date.Equal(now) {
		t.Errorf("paid dated %v, want now", paid.Date)
	}
	updated := b.PutRecurringItems[0]
	if !updated.NextDate.Equal(date(2024, 3, 1)) {
		t.Errorf("cursor at %v, want advanced to march", updated.NextDate)
	}
	if len(updated.SkippedDates) != 0 {
		t.Errorf("next-due payment must not add a skip date")
	}
}

func TestPayEarlyFutureOccurrenceSkipsDate(t *testing.T) {
	store := &fakeStore{}
	svc := New(store)
	snap := snapshotWithRent(date(2024, 2, 1))

	if err := svc.PayEarly(context.Background(), snap, date(2024, 1, 20), "rent", date(2024, 3, 1)); err != nil {
		t.Fatalf("pay early: %v", err)
	}

	updated := store.lastBatch(t).PutRecurringItems[0]
	if !updated.NextDate.Equal(date(2024, 2, 1)) {
		t.Errorf("cursor moved to %v, must stay on the next due date", updated.NextDate)
	}
	if len(updated.SkippedDates) != 1 || !updated.SkippedDates[0].Equal(date(2024, 3, 1)) {
		t.Errorf("skipped dates = %v, want the paid future occurrence", updated.SkippedDates)
	}
}

func TestPayEarlyUnknownTemplateIsNoOp(t *testing.T) {
	store := &fakeStore{}
	svc := New(store)

	if err := svc.PayEarly(context.Background(), tracker.Snapshot{}, date(2024, 1, 20), "ghost", date(2024, 2, 1)); err != nil {
		t.Fatalf("pay early: %v", err)
	}
	if len(store.batches) != 0 || len(store.upsertedTxns) != 0 {
		t.Error("missing template must not produce writes")
	}
}

func TestDismissOccurrence(t *testing.T) {
	store := &fakeStore{}
	svc := New(store)
	snap := snapshotWithRent(date(2024, 2, 1))

	if err := svc.DismissOccurrence(context.Background(), snap, "rent", date(2024, 3, 1)); err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	if len(store.upsertedItems) != 1 {
		t.Fatal("template not updated")
	}
	got := store.upsertedItems[0]
	if len(got.SkippedDates) != 1 || !got.SkippedDates[0].Equal(date(2024, 3, 1)) {
		t.Errorf("skipped dates = %v", got.SkippedDates)
	}
	if !got.NextDate.Equal(date(2024, 2, 1)) {
		t.Errorf("dismiss must not move the cursor, got %v", got.NextDate)
	}
}

func TestConfirmPostpone(t *testing.T) {
	store := &fakeStore{}
	svc := New(store)
	snap := snapshotWithRent(date(2024, 2, 1))

	if err := svc.ConfirmPostpone(context.Background(), snap, "rent", date(2024, 2, 10)); err != nil {
		t.Fatalf("postpone: %v", err)
	}

	b := store.lastBatch(t)
	moved := b.PutTransactions[0]
	if !moved.Date.Equal(date(2024, 2, 10)) || !moved.IsBill {
		t.Errorf("moved bill = %+v", moved)
	}
	updated := b.PutRecurringItems[0]
	if !updated.NextDate.Equal(date(2024, 3, 1)) || !updated.IsPostponed {
		t.Errorf("template after postpone = %+v", updated)
	}
}

func TestMarkPostponedPaidClearsFlag(t *testing.T) {
	store := &fakeStore{}
	svc := New(store)
	snap := snapshotWithRent(date(2024, 2, 1))
	snap.RecurringItems[0].IsPostponed = true

	if err := svc.MarkPostponedPaid(context.Background(), snap, date(2024, 2, 5), "rent"); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	updated := store.lastBatch(t).PutRecurringItems[0]
	if updated.IsPostponed {
		t.Error("postponed flag survived settlement")
	}
	if !updated.NextDate.Equal(date(2024, 3, 1)) {
		t.Errorf("cursor at %v after settlement", updated.NextDate)
	}
}

func TestConfirmFluctuatingAmount(t *testing.T) {
	store := &fakeStore{}
	svc := New(store)
	snap := snapshotWithRent(date(2024, 2, 1))
	snap.RecurringItems[0].IsFluctuating = true

	if err := svc.ConfirmFluctuatingAmount(context.Background(), snap, "rent", amt("1237.80")); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	b := store.lastBatch(t)
	confirmed := b.PutTransactions[0]
	if !confirmed.Amount.Equal(amt("1237.80")) {
		t.Errorf("confirmed amount = %s", confirmed.Amount)
	}
	if !confirmed.Date.Equal(date(2024, 2, 1)) {
		t.Errorf("confirmed on %v, want the due date", confirmed.Date)
	}
	if !b.PutRecurringItems[0].NextDate.Equal(date(2024, 3, 1)) {
		t.Error("cursor did not advance")
	}

	if err := svc.ConfirmFluctuatingAmount(context.Background(), snap, "rent", amt("0")); err != core.ErrInvalidAmount {
		t.Errorf("zero amount accepted: %v", err)
	}
}

func TestConfirmByScanResetsTemplateState(t *testing.T) {
	store := &fakeStore{}
	svc := New(store)
	snap := snapshotWithRent(date(2024, 2, 1))
	snap.RecurringItems[0].IsPostponed = true
	snap.RecurringItems[0].SkippedUntil = ptr(date(2024, 1, 15))

	if err := svc.ConfirmByScan(context.Background(), snap, "rent", amt("1189.99"), date(2024, 1, 30)); err != nil {
		t.Fatalf("scan confirm: %v", err)
	}
	b := store.lastBatch(t)
	confirmed := b.PutTransactions[0]
	if confirmed.RecurringItemID != "rent" || !confirmed.Date.Equal(date(2024, 1, 30)) {
		t.Errorf("scanned transaction = %+v", confirmed)
	}
	updated := b.PutRecurringItems[0]
	if updated.IsPostponed || updated.SkippedUntil != nil {
		t.Errorf("template state not reset: %+v", updated)
	}
	if !updated.NextDate.Equal(date(2024, 3, 1)) {
		t.Errorf("cursor at %v", updated.NextDate)
	}
}

func TestSplitPayment(t *testing.T) {
	store := &fakeStore{}
	svc := New(store)
	snap := snapshotWithRent(date(2024, 2, 1))

	dates := []time.Time{date(2024, 2, 1), date(2024, 2, 15), date(2024, 3, 1)}
	if err := svc.SplitPayment(context.Background(), snap, "rent", dates); err != nil {
		t.Fatalf("split: %v", err)
	}

	b := store.lastBatch(t)
	if len(b.PutTransactions) != 3 {
		t.Fatalf("created %d installments", len(b.PutTransactions))
	}
	total := decimal.Zero
	for _, part := range b.PutTransactions {
		total = total.Add(part.Amount)
	}
	if !total.Equal(amt("1200")) {
		t.Errorf("installments sum to %s, want the full amount", total)
	}
	if b.PutTransactions[0].Description != "Rent (1 of 3)" {
		t.Errorf("first installment described %q", b.PutTransactions[0].Description)
	}
	if !b.PutRecurringItems[0].NextDate.Equal(date(2024, 3, 1)) {
		t.Error("split must consume the next occurrence")
	}
}

func TestConvertToRecurringCatchesUpCursor(t *testing.T) {
	store := &fakeStore{}
	svc := New(store)
	source := core.Transaction{
		ID:          "gym",
		Description: "Gym",
		Amount:      amt("35"),
		Date:        ptr(date(2023, 11, 10)),
		Direction:   core.Expense,
		AccountID:   "acc1",
		Category:    core.Personal,
	}

	tmpl, err := svc.ConvertToRecurring(context.Background(), date(2024, 1, 5), source, core.Monthly, false)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !tmpl.NextDate.Equal(date(2024, 1, 10)) {
		t.Errorf("cursor at %v, want first occurrence on or after now", tmpl.NextDate)
	}

	b := store.lastBatch(t)
	linked := b.PutTransactions[0]
	if linked.RecurringItemID != tmpl.ID || linked.Frequency != core.Monthly {
		t.Errorf("source transaction not linked: %+v", linked)
	}
}

func TestAddTransferPairsLegs(t *testing.T) {
	store := &fakeStore{}
	svc := New(store)

	if err := svc.AddTransfer(context.Background(), "Monthly savings", amt("400"), "acc1", "acc2", date(2024, 1, 15)); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	b := store.lastBatch(t)
	if len(b.PutTransactions) != 2 {
		t.Fatalf("transfer wrote %d legs", len(b.PutTransactions))
	}
	out, in := b.PutTransactions[0], b.PutTransactions[1]
	if out.Direction != core.Expense || out.AccountID != "acc1" {
		t.Errorf("outgoing leg = %+v", out)
	}
	if in.Direction != core.Income || in.AccountID != "acc2" {
		t.Errorf("incoming leg = %+v", in)
	}
	if out.TransferID == "" || out.TransferID != in.TransferID {
		t.Error("legs do not share a transfer id")
	}
	if out.Category != core.SavingsTransfer || in.Category != core.SavingsTransfer {
		t.Error("transfer legs must use the transfer category")
	}
}

func TestAdjustBalance(t *testing.T) {
	store := &fakeStore{}
	svc := New(store)
	now := date(2024, 1, 10)
	snap := tracker.Snapshot{
		Accounts: []core.Account{{ID: "acc1", Name: "Checking"}},
		Transactions: []core.Transaction{{
			ID:        "pay",
			Amount:    amt("2000"),
			Date:      ptr(date(2024, 1, 2)),
			Direction: core.Income,
			AccountID: "acc1",
		}},
	}

	if err := svc.AdjustBalance(context.Background(), snap, now, "acc1", amt("1950")); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if len(store.upsertedTxns) != 1 {
		t.Fatal("no adjustment written")
	}
	adj := store.upsertedTxns[0]
	if adj.Direction != core.Expense || !adj.Amount.Equal(amt("50")) {
		t.Errorf("adjustment = %+v, want a 50 expense", adj)
	}
	if !adj.IsBill {
		t.Error("adjustments must not count against budgets")
	}

	if err := svc.AdjustBalance(context.Background(), snap, now, "acc1", amt("2000")); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if len(store.upsertedTxns) != 1 {
		t.Error("zero difference must not write")
	}
}

func TestRefreshLegacySkips(t *testing.T) {
	store := &fakeStore{}
	svc := New(store)
	snap := snapshotWithRent(date(2024, 2, 1))
	snap.RecurringItems[0].SkippedUntil = ptr(date(2024, 1, 15))
	snap.Transactions = []core.Transaction{{
		ID:           "old",
		Description:  "Old",
		Amount:       amt("10"),
		Date:         ptr(date(2024, 1, 2)),
		Direction:    core.Expense,
		AccountID:    "acc1",
		SkippedUntil: ptr(date(2024, 1, 20)),
	}}

	if err := svc.RefreshLegacySkips(context.Background(), snap); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	b := store.lastBatch(t)
	if b.PutRecurringItems[0].SkippedUntil != nil {
		t.Error("template legacy skip survived")
	}
	if b.PutTransactions[0].SkippedUntil != nil {
		t.Error("transaction legacy skip survived")
	}

	clean := snapshotWithRent(date(2024, 2, 1))
	store.batches = nil
	if err := svc.RefreshLegacySkips(context.Background(), clean); err != nil {
		t.Fatalf("refresh clean: %v", err)
	}
	if len(store.batches) != 0 {
		t.Error("nothing to clear must not write")
	}
}

func TestUpdateProjectedInstanceBecomesOneOff(t *testing.T) {
	store := &fakeStore{}
	svc := New(store)
	snap := snapshotWithRent(date(2024, 2, 1))

	occurrence := date(2024, 3, 1)
	projected := core.Transaction{
		ID:              core.ProjectedID("rent", occurrence),
		Description:     "Rent (reduced)",
		Amount:          amt("1100"),
		Date:            ptr(occurrence),
		Direction:       core.Expense,
		AccountID:       "acc1",
		Category:        core.Housing,
		RecurringItemID: "rent",
		IsBill:          true,
	}

	if err := svc.UpdateTransaction(context.Background(), snap, projected); err != nil {
		t.Fatalf("update: %v", err)
	}

	b := store.lastBatch(t)
	edited := b.PutTransactions[0]
	if edited.RecurringItemID != "" {
		t.Error("edited copy must detach from the template")
	}
	if edited.ID == projected.ID {
		t.Error("edited copy must get a fresh id")
	}
	tmpl := b.PutRecurringItems[0]
	if len(tmpl.SkippedDates) != 1 || !tmpl.SkippedDates[0].Equal(occurrence) {
		t.Errorf("original occurrence not skipped: %v", tmpl.SkippedDates)
	}
}

func TestDeleteOccurrence(t *testing.T) {
	store := &fakeStore{}
	svc := New(store)
	snap := snapshotWithRent(date(2024, 2, 1))

	occurrence := date(2024, 3, 1)
	projected := core.Transaction{
		ID:              core.ProjectedID("rent", occurrence),
		Date:            ptr(occurrence),
		RecurringItemID: "rent",
	}
	if err := svc.DeleteOccurrence(context.Background(), snap, projected); err != nil {
		t.Fatalf("delete projected: %v", err)
	}
	if len(store.deletedTxns) != 0 {
		t.Error("projected instance must not be deleted from storage")
	}
	if len(store.upsertedItems) != 1 || len(store.upsertedItems[0].SkippedDates) != 1 {
		t.Error("projected delete must skip the date on the template")
	}

	actual := core.Transaction{ID: "one-off", Date: ptr(occurrence)}
	if err := svc.DeleteOccurrence(context.Background(), snap, actual); err != nil {
		t.Fatalf("delete actual: %v", err)
	}
	if len(store.deletedTxns) != 1 || store.deletedTxns[0] != "one-off" {
		t.Errorf("deleted = %v", store.deletedTxns)
	}
}

func TestDeleteAccountRemovesItsTransactions(t *testing.T) {
	store := &fakeStore{}
	svc := New(store)
	snap := tracker.Snapshot{
		Transactions: []core.Transaction{
			{ID: "a", AccountID: "acc1"},
			{ID: "b", AccountID: "acc2"},
		},
	}

	if err := svc.DeleteAccount(context.Background(), snap, "acc1"); err != nil {
		t.Fatalf("delete account: %v", err)
	}
	b := store.lastBatch(t)
	if len(b.DeleteTransactions) != 1 || b.DeleteTransactions[0] != "a" {
		t.Errorf("deleted transactions = %v", b.DeleteTransactions)
	}
	if len(store.deletedAccounts) != 1 || store.deletedAccounts[0] != "acc1" {
		t.Errorf("deleted accounts = %v", store.deletedAccounts)
	}
}
