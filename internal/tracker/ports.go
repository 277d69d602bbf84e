package tracker

import (
	"context"

	"hearth/internal/core"
)

// Collection names carried on change notifications.
const (
	CollectionAccounts       = "accounts"
	CollectionTransactions   = "transactions"
	CollectionRecurringItems = "recurring_items"
	CollectionBudgets        = "budgets"
)

// Change signals that a collection was written and derived views must be
// rebuilt. It carries no payload: every recompute reloads the full snapshot.
type Change struct {
	Collection string
}

// Snapshot is one consistent read of the persisted collections.
type Snapshot struct {
	Accounts       []core.Account
	Transactions   []core.Transaction
	RecurringItems []core.RecurringItem
}

// Batch groups writes that must land atomically, like the two legs of a
// transfer or a template advance paired with its realized transaction.
type Batch struct {
	PutTransactions      []core.Transaction
	DeleteTransactions   []string
	PutRecurringItems    []core.RecurringItem
	DeleteRecurringItems []string
}

// Empty reports whether applying the batch would write nothing.
func (b Batch) Empty() bool {
	return len(b.PutTransactions) == 0 && len(b.DeleteTransactions) == 0 &&
		len(b.PutRecurringItems) == 0 && len(b.DeleteRecurringItems) == 0
}

// Ports for the persistence adapter.
type (
	AccountStore interface {
		ListAccounts(ctx context.Context) ([]core.Account, error)
		UpsertAccount(ctx context.Context, a core.Account) error
		DeleteAccount(ctx context.Context, id string) error
	}

	TransactionStore interface {
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
		UpsertTransaction(ctx context.Context, t core.Transaction) error
		DeleteTransaction(ctx context.Context, id string) error
	}

	RecurringItemStore interface {
		ListRecurringItems(ctx context.Context) ([]core.RecurringItem, error)
		UpsertRecurringItem(ctx context.Context, item core.RecurringItem) error
		DeleteRecurringItem(ctx context.Context, id string) error
	}

	// BatchWriter applies a Batch in a single storage transaction.
	BatchWriter interface {
		Apply(ctx context.Context, b Batch) error
	}

	BudgetStore interface {
		BudgetGoals(ctx context.Context) (core.BudgetGoals, error)
		SetBudgetGoals(ctx context.Context, goals core.BudgetGoals) error
	}

	// ChangeFeed delivers write notifications. Subscribe may be called by
	// multiple consumers; each gets its own channel, closed on shutdown.
	ChangeFeed interface {
		Subscribe() <-chan Change
	}

	// Store is the full persistence surface the tracker runs on.
	Store interface {
		AccountStore
		TransactionStore
		RecurringItemStore
		BatchWriter
		BudgetStore
		ChangeFeed
	}
)

// LoadSnapshot reads all three collections through the store ports.
func LoadSnapshot(ctx context.Context, s Store) (Snapshot, error) {
	accounts, err := s.ListAccounts(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	txns, err := s.ListTransactions(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	items, err := s.ListRecurringItems(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Accounts: accounts, Transactions: txns, RecurringItems: items}, nil
}
