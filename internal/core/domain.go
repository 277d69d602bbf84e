package core

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  Direction = "income"
	Expense Direction = "expense"
)

const (
	Weekly   Frequency = "weekly"
	Biweekly Frequency = "biweekly"
	Monthly  Frequency = "monthly"
	Yearly   Frequency = "yearly"
)

const (
	Paycheck        Category = "paycheck"
	Housing         Category = "housing"
	Transportation  Category = "transportation"
	Food            Category = "food"
	Utilities       Category = "utilities"
	Insurance       Category = "insurance"
	Healthcare      Category = "healthcare"
	SavingsTransfer Category = "savings_transfer"
	Personal        Category = "personal"
	Entertainment   Category = "entertainment"
	Other           Category = "other"
)

const (
	ConfirmationNone     ConfirmationState = "NONE"
	NeedsConfirmation    ConfirmationState = "NEEDS_CONFIRMATION"
	ConfirmationRequired ConfirmationState = "ACTION_REQUIRED"
)

type (
	Direction         string
	Frequency         string
	Category          string
	ConfirmationState string

	// Account is a named bucket of money. It carries no balance field:
	// balances are always derived from the transactions that touch it.
	Account struct {
		ID   string
		Name string
		Type string // free-text, e.g. "Checking" or "Savings"
	}

	// Transaction is an actual, persisted financial event. A nil Date means
	// the transaction is excluded from all balance and timeline computations.
	Transaction struct {
		ID              string
		Description     string
		Amount          decimal.Decimal // non-negative magnitude; Direction carries the sign
		Date            *time.Time
		Direction       Direction
		AccountID       string
		Category        Category
		RecurringItemID string // template that produced this, empty for one-offs
		TransferID      string // pairs two transactions as one transfer
		Frequency       Frequency
		WasPaidEarly    bool
		SkippedUntil    *time.Time // legacy skip cutoff
		IsBill          bool       // excluded from discretionary-budget aggregation
	}

	// RecurringItem is a schedule template, not an event. NextDate is the
	// authoritative cursor: the next occurrence that has not been realized yet.
	RecurringItem struct {
		ID            string
		Description   string
		Amount        decimal.Decimal
		Direction     Direction
		Frequency     Frequency
		NextDate      *time.Time
		Category      Category
		IsFluctuating bool // amount varies per cycle, needs confirmation near due date
		SkippedDates  []time.Time
		SkippedUntil  *time.Time // legacy, superseded by SkippedDates
		IsPostponed   bool
		AccountID     string
	}

	// BudgetGoals holds the tracker-wide spending targets.
	BudgetGoals struct {
		Monthly decimal.Decimal
		Weekly  decimal.Decimal
	}

	// UpcomingDisplayItem is derived fresh on every aggregation pass.
	UpcomingDisplayItem struct {
		OriginalID        string // template id for recurring rows, else the transaction id
		Description       string
		Amount            decimal.Decimal
		Date              time.Time
		Direction         Direction
		IsRecurring       bool
		ConfirmationState ConfirmationState
		IsPostponed       bool
		AccountName       string
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrNoAccount        = errors.New("no account selected")
	ErrInvalidDate      = errors.New("invalid date")
)

// Categories lists every known category in display order.
func Categories() []Category {
	return []Category{
		Paycheck, Housing, Transportation, Food, Utilities, Insurance,
		Healthcare, SavingsTransfer, Personal, Entertainment, Other,
	}
}

// DisplayName returns the human-readable category label.
func (c Category) DisplayName() string {
	switch c {
	case Paycheck:
		return "Paycheck"
	case Housing:
		return "Housing"
	case Transportation:
		return "Transportation"
	case Food:
		return "Food"
	case Utilities:
		return "Utilities"
	case Insurance:
		return "Insurance"
	case Healthcare:
		return "Healthcare"
	case SavingsTransfer:
		return "Savings & Transfer"
	case Personal:
		return "Personal"
	case Entertainment:
		return "Entertainment"
	default:
		return "Other"
	}
}

// CoerceDirection maps a persisted value to a known direction. Unrecognized
// values coerce to Expense; ok reports whether the input was already valid.
func CoerceDirection(s string) (Direction, bool) {
	switch Direction(s) {
	case Income, Expense:
		return Direction(s), true
	}
	return Expense, false
}

// CoerceFrequency maps a persisted value to a known frequency. Unrecognized
// values coerce to Monthly so one bad record cannot blank the projection.
func CoerceFrequency(s string) (Frequency, bool) {
	switch Frequency(s) {
	case Weekly, Biweekly, Monthly, Yearly:
		return Frequency(s), true
	}
	return Monthly, false
}

// CoerceCategory maps a persisted value to a known category, defaulting to Other.
func CoerceCategory(s string) (Category, bool) {
	for _, c := range Categories() {
		if Category(s) == c {
			return c, true
		}
	}
	return Other, false
}

// Signed returns the amount's contribution to a balance: positive for
// income, negative for expense.
func (t Transaction) Signed() decimal.Decimal {
	if t.Direction == Income {
		return t.Amount
	}
	return t.Amount.Neg()
}

// ProjectedID builds the deterministic synthetic id for a projected
// occurrence of a template. The scheme is load-bearing: dedup and
// correlate-back-to-template both depend on it.
func ProjectedID(templateID string, at time.Time) string {
	return templateID + "-" + strconv.FormatInt(at.UnixMilli(), 10)
}

// IsProjected reports whether this transaction is an ephemeral projected
// instance rather than a persisted event.
func (t Transaction) IsProjected() bool {
	return t.RecurringItemID != "" && strings.HasPrefix(t.ID, t.RecurringItemID+"-")
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyDescription
	}
	return nil
}

func (t Transaction) Validate() error {
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.AccountID) == "" {
		return ErrNoAccount
	}
	return nil
}

func (ri RecurringItem) Validate() error {
	if len(strings.TrimSpace(ri.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(ri.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if !ri.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if _, ok := CoerceFrequency(string(ri.Frequency)); !ok {
		return errors.New("invalid frequency")
	}
	return nil
}
