// Package storage persists the tracker collections in SQLite and fans out
// change notifications to in-process subscribers.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"hearth/internal/core"
	"hearth/internal/tracker"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB

	mu     sync.Mutex
	subs   []chan tracker.Change
	closed bool
}

// Interface check: the repository is the tracker's full persistence surface.
var _ tracker.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		for _, ch := range r.subs {
			close(ch)
		}
		r.subs = nil
	}
	r.mu.Unlock()

	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Subscribe registers a change listener. The channel is buffered; a slow
// consumer drops notifications rather than blocking writers, which is safe
// because every rebuild reloads the full snapshot anyway.
func (r *SQLiteRepository) Subscribe() <-chan tracker.Change {
	ch := make(chan tracker.Change, 16)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		close(ch)
		return ch
	}
	r.subs = append(r.subs, ch)
	return ch
}

func (r *SQLiteRepository) notify(collections ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range collections {
		for _, ch := range r.subs {
			select {
			case ch <- tracker.Change{Collection: c}:
			default:
			}
		}
	}
}

// --- accounts ---

func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, type FROM accounts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		var a core.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Type); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpsertAccount(ctx context.Context, a core.Account) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, name, type) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, type = excluded.type`,
		a.ID, a.Name, a.Type)
	if err != nil {
		return fmt.Errorf("upsert account: %w", err)
	}
	r.notify(tracker.CollectionAccounts)
	return nil
}

func (r *SQLiteRepository) DeleteAccount(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	r.notify(tracker.CollectionAccounts)
	return nil
}

// --- transactions ---

const transactionColumns = `id, description, amount, date_ms, direction, account_id, category,
	recurring_item_id, transfer_id, frequency, was_paid_early, skipped_until_ms, is_bill`

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions ORDER BY date_ms`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return t, nil
}

func (r *SQLiteRepository) UpsertTransaction(ctx context.Context, t core.Transaction) error {
	if err := upsertTransaction(ctx, r.db, t); err != nil {
		return err
	}
	r.notify(tracker.CollectionTransactions)
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	r.notify(tracker.CollectionTransactions)
	return nil
}

// --- recurring items ---

const recurringColumns = `id, description, amount, direction, frequency, next_date_ms, category,
	is_fluctuating, skipped_dates, skipped_until_ms, is_postponed, account_id`

func (r *SQLiteRepository) ListRecurringItems(ctx context.Context) ([]core.RecurringItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_items ORDER BY next_date_ms`)
	if err != nil {
		return nil, fmt.Errorf("list recurring items: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringItem
	for rows.Next() {
		item, err := scanRecurringItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpsertRecurringItem(ctx context.Context, item core.RecurringItem) error {
	if err := upsertRecurringItem(ctx, r.db, item); err != nil {
		return err
	}
	r.notify(tracker.CollectionRecurringItems)
	return nil
}

func (r *SQLiteRepository) DeleteRecurringItem(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM recurring_items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete recurring item: %w", err)
	}
	r.notify(tracker.CollectionRecurringItems)
	return nil
}

// --- batch ---

// Apply lands a batch in one SQLite transaction. Notifications fire once
// per touched collection, after commit.
func (r *SQLiteRepository) Apply(ctx context.Context, b tracker.Batch) error {
	if b.Empty() {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	for _, t := range b.PutTransactions {
		if err := upsertTransaction(ctx, tx, t); err != nil {
			return err
		}
	}
	for _, id := range b.DeleteTransactions {
		if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}
	}
	for _, item := range b.PutRecurringItems {
		if err := upsertRecurringItem(ctx, tx, item); err != nil {
			return err
		}
	}
	for _, id := range b.DeleteRecurringItems {
		if _, err := tx.ExecContext(ctx, `DELETE FROM recurring_items WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete recurring item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	var touched []string
	if len(b.PutTransactions) > 0 || len(b.DeleteTransactions) > 0 {
		touched = append(touched, tracker.CollectionTransactions)
	}
	if len(b.PutRecurringItems) > 0 || len(b.DeleteRecurringItems) > 0 {
		touched = append(touched, tracker.CollectionRecurringItems)
	}
	r.notify(touched...)
	return nil
}

// --- budgets ---

func (r *SQLiteRepository) BudgetGoals(ctx context.Context) (core.BudgetGoals, error) {
	var monthly, weekly string
	err := r.db.QueryRowContext(ctx, `SELECT monthly, weekly FROM budgets WHERE id = 1`).
		Scan(&monthly, &weekly)
	if err != nil {
		return core.BudgetGoals{}, fmt.Errorf("get budget goals: %w", err)
	}

	var goals core.BudgetGoals
	if goals.Monthly, err = decimal.NewFromString(monthly); err != nil {
		return core.BudgetGoals{}, fmt.Errorf("parse monthly goal: %w", err)
	}
	if goals.Weekly, err = decimal.NewFromString(weekly); err != nil {
		return core.BudgetGoals{}, fmt.Errorf("parse weekly goal: %w", err)
	}
	return goals, nil
}

func (r *SQLiteRepository) SetBudgetGoals(ctx context.Context, goals core.BudgetGoals) error {
	_, err := r.db.ExecContext(ctx, `UPDATE budgets SET monthly = ?, weekly = ? WHERE id = 1`,
		goals.Monthly.String(), goals.Weekly.String())
	if err != nil {
		return fmt.Errorf("set budget goals: %w", err)
	}
	r.notify(tracker.CollectionBudgets)
	return nil
}

// --- export ---

// ListUnexported returns dated transactions not yet synced to the sheet,
// oldest first.
func (r *SQLiteRepository) ListUnexported(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE exported = 0 AND date_ms IS NOT NULL ORDER BY date_ms LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unexported: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// MarkExported flags transactions as synced. No change notification: the
// export flag is invisible to derived views.
func (r *SQLiteRepository) MarkExported(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET exported = 1 WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	return nil
}

// --- row mapping ---

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func upsertTransaction(ctx context.Context, e execer, t core.Transaction) error {
	_, err := e.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			description = excluded.description,
			amount = excluded.amount,
			date_ms = excluded.date_ms,
			direction = excluded.direction,
			account_id = excluded.account_id,
			category = excluded.category,
			recurring_item_id = excluded.recurring_item_id,
			transfer_id = excluded.transfer_id,
			frequency = excluded.frequency,
			was_paid_early = excluded.was_paid_early,
			skipped_until_ms = excluded.skipped_until_ms,
			is_bill = excluded.is_bill,
			exported = 0`,
		t.ID, t.Description, t.Amount.String(), millis(t.Date), string(t.Direction),
		t.AccountID, string(t.Category), t.RecurringItemID, t.TransferID,
		string(t.Frequency), t.WasPaidEarly, millis(t.SkippedUntil), t.IsBill)
	if err != nil {
		return fmt.Errorf("upsert transaction: %w", err)
	}
	return nil
}

func upsertRecurringItem(ctx context.Context, e execer, item core.RecurringItem) error {
	skips, err := encodeSkippedDates(item.SkippedDates)
	if err != nil {
		return err
	}
	_, err = e.ExecContext(ctx, `
		INSERT INTO recurring_items (`+recurringColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			description = excluded.description,
			amount = excluded.amount,
			direction = excluded.direction,
			frequency = excluded.frequency,
			next_date_ms = excluded.next_date_ms,
			category = excluded.category,
			is_fluctuating = excluded.is_fluctuating,
			skipped_dates = excluded.skipped_dates,
			skipped_until_ms = excluded.skipped_until_ms,
			is_postponed = excluded.is_postponed,
			account_id = excluded.account_id`,
		item.ID, item.Description, item.Amount.String(), string(item.Direction),
		string(item.Frequency), millis(item.NextDate), string(item.Category),
		item.IsFluctuating, skips, millis(item.SkippedUntil), item.IsPostponed, item.AccountID)
	if err != nil {
		return fmt.Errorf("upsert recurring item: %w", err)
	}
	return nil
}

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t            core.Transaction
		amount       string
		dateMs       sql.NullInt64
		direction    string
		category     string
		frequency    string
		skippedUntil sql.NullInt64
	)
	err := row.Scan(&t.ID, &t.Description, &amount, &dateMs, &direction, &t.AccountID,
		&category, &t.RecurringItemID, &t.TransferID, &frequency, &t.WasPaidEarly,
		&skippedUntil, &t.IsBill)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount for %s: %w", t.ID, err)
	}
	t.Date = fromMillis(dateMs)
	t.SkippedUntil = fromMillis(skippedUntil)
	t.Direction, _ = core.CoerceDirection(direction)
	t.Category, _ = core.CoerceCategory(category)
	if frequency != "" {
		t.Frequency, _ = core.CoerceFrequency(frequency)
	}
	return t, nil
}

func scanRecurringItem(row rowScanner) (core.RecurringItem, error) {
	var (
		item         core.RecurringItem
		amount       string
		nextDateMs   sql.NullInt64
		direction    string
		frequency    string
		category     string
		skips        string
		skippedUntil sql.NullInt64
	)
	err := row.Scan(&item.ID, &item.Description, &amount, &direction, &frequency,
		&nextDateMs, &category, &item.IsFluctuating, &skips, &skippedUntil,
		&item.IsPostponed, &item.AccountID)
	if err != nil {
		return core.RecurringItem{}, fmt.Errorf("scan recurring item: %w", err)
	}

	if item.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.RecurringItem{}, fmt.Errorf("parse amount for %s: %w", item.ID, err)
	}
	item.NextDate = fromMillis(nextDateMs)
	item.SkippedUntil = fromMillis(skippedUntil)
	item.Direction, _ = core.CoerceDirection(direction)
	item.Frequency, _ = core.CoerceFrequency(frequency)
	item.Category, _ = core.CoerceCategory(category)
	if item.SkippedDates, err = decodeSkippedDates(skips); err != nil {
		return core.RecurringItem{}, fmt.Errorf("parse skipped dates for %s: %w", item.ID, err)
	}
	return item, nil
}

func millis(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

// fromMillis restores a persisted instant in the local timezone so that
// day-of derivations see the calendar day the user entered.
func fromMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64).In(time.Local)
	return &t
}

func encodeSkippedDates(dates []time.Time) (string, error) {
	ms := make([]int64, len(dates))
	for i, d := range dates {
		ms[i] = d.UnixMilli()
	}
	raw, err := json.Marshal(ms)
	if err != nil {
		return "", fmt.Errorf("encode skipped dates: %w", err)
	}
	return string(raw), nil
}

func decodeSkippedDates(raw string) ([]time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	var ms []int64
	if err := json.Unmarshal([]byte(raw), &ms); err != nil {
		return nil, err
	}
	dates := make([]time.Time, len(ms))
	for i, v := range ms {
		dates[i] = time.UnixMilli(v).In(time.Local)
	}
	return dates, nil
}
