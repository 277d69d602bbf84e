package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTransactionValidate(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	good := Transaction{
		ID:          "t1",
		Description: "Rent",
		Amount:      decimal.NewFromInt(1200),
		Date:        &date,
		Direction:   Expense,
		AccountID:   "acc1",
		Category:    Housing,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		name string
		txn  Transaction
		want error
	}{
		{"blank description", Transaction{Description: "  ", Amount: decimal.NewFromInt(1), AccountID: "a"}, ErrEmptyDescription},
		{"zero amount", Transaction{Description: "x", Amount: decimal.Zero, AccountID: "a"}, ErrInvalidAmount},
		{"negative amount", Transaction{Description: "x", Amount: decimal.NewFromInt(-5), AccountID: "a"}, ErrInvalidAmount},
		{"no account", Transaction{Description: "x", Amount: decimal.NewFromInt(1)}, ErrNoAccount},
	}
	for _, tt := range bads {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.txn.Validate(); err != tt.want {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRecurringItemValidate(t *testing.T) {
	good := RecurringItem{
		Description: "Electric bill",
		Amount:      decimal.NewFromInt(90),
		Direction:   Expense,
		Frequency:   Monthly,
		Category:    Utilities,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bad := good
	bad.Frequency = "fortnightly"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for unknown frequency")
	}
}

func TestCoercions(t *testing.T) {
	if f, ok := CoerceFrequency("biweekly"); !ok || f != Biweekly {
		t.Errorf("CoerceFrequency(biweekly) = %v, %v", f, ok)
	}
	if f, ok := CoerceFrequency("sometimes"); ok || f != Monthly {
		t.Errorf("unknown frequency should coerce to monthly, got %v, %v", f, ok)
	}
	if c, ok := CoerceCategory("garbage"); ok || c != Other {
		t.Errorf("unknown category should coerce to other, got %v, %v", c, ok)
	}
	if d, ok := CoerceDirection("sideways"); ok || d != Expense {
		t.Errorf("unknown direction should coerce to expense, got %v, %v", d, ok)
	}
}

func TestSigned(t *testing.T) {
	amount := decimal.RequireFromString("12.50")
	in := Transaction{Amount: amount, Direction: Income}
	out := Transaction{Amount: amount, Direction: Expense}
	if !in.Signed().Equal(amount) {
		t.Errorf("income Signed() = %s, want %s", in.Signed(), amount)
	}
	if !out.Signed().Equal(amount.Neg()) {
		t.Errorf("expense Signed() = %s, want %s", out.Signed(), amount.Neg())
	}
}

func TestProjectedID(t *testing.T) {
	at := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	id := ProjectedID("tmpl1", at)
	want := "tmpl1-1705276800000"
	if id != want {
		t.Fatalf("ProjectedID = %q, want %q", id, want)
	}

	date := at
	proj := Transaction{ID: id, RecurringItemID: "tmpl1", Date: &date}
	if !proj.IsProjected() {
		t.Errorf("expected projected instance to report IsProjected")
	}
	real := Transaction{ID: "abc", RecurringItemID: "tmpl1", Date: &date}
	if real.IsProjected() {
		t.Errorf("persisted transaction must not report IsProjected")
	}
}
