package core

import (
	"errors"
	"testing"
	"time"
)

func validTransaction() Transaction {
	return Transaction{
		ID:          "tx-1",
		OwnerID:     "owner-1",
		Type:        Expense,
		Amount:      Money{Cents: 1250},
		Description: "groceries",
		Category:    "food",
		Date:        date(2024, 3, 10),
	}
}

func TestTransactionValidate(t *testing.T) {
	now := date(2024, 3, 15)
	if err := validTransaction().Validate(now); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		mod  func(*Transaction)
	}{
		{"unknown type", func(tx *Transaction) { tx.Type = "transfer" }},
		{"zero amount", func(tx *Transaction) { tx.Amount = Money{} }},
		{"negative amount", func(tx *Transaction) { tx.Amount = Money{Cents: -100} }},
		{"empty description", func(tx *Transaction) { tx.Description = "  " }},
		{"empty category", func(tx *Transaction) { tx.Category = "" }},
		{"zero date", func(tx *Transaction) { tx.Date = time.Time{} }},
		{"future date", func(tx *Transaction) { tx.Date = date(2024, 3, 16) }},
		{"recurring without repeating frequency", func(tx *Transaction) {
			tx.Recurring = &RecurrenceRule{Frequency: Once, NextDueDate: date(2024, 4, 10)}
		}},
		{"recurrence end before date", func(tx *Transaction) {
			tx.Recurring = &RecurrenceRule{Frequency: Monthly, NextDueDate: date(2024, 4, 10), EndDate: date(2024, 1, 1)}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := validTransaction()
			tc.mod(&tx)
			if err := tx.Validate(now); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestTransactionSoftDelete(t *testing.T) {
	now := date(2024, 3, 20)
	got := validTransaction().SoftDelete(now)
	if !got.Deleted {
		t.Fatal("tombstone flag should be set")
	}
	if !got.UpdatedAt.Equal(now) {
		t.Fatalf("updated at = %v, want %v", got.UpdatedAt, now)
	}
}

func TestTransactionAdvanceRecurrence(t *testing.T) {
	now := date(2024, 4, 1)
	tmpl := validTransaction()
	tmpl.Recurring = &RecurrenceRule{Frequency: Monthly, NextDueDate: date(2024, 4, 10)}

	instance, next, done := tmpl.AdvanceRecurrence("tx-2", now)
	if done {
		t.Fatal("open-ended monthly series should continue")
	}
	if instance.ID != "tx-2" || instance.Recurring != nil {
		t.Fatalf("instance = %+v", instance)
	}
	if !instance.Date.Equal(date(2024, 4, 10)) {
		t.Fatalf("instance date = %v", instance.Date)
	}
	if instance.Version != 0 {
		t.Fatalf("instance version = %d, want 0 for a fresh record", instance.Version)
	}
	if want := date(2024, 5, 10); !next.Recurring.NextDueDate.Equal(want) {
		t.Fatalf("template next due = %v, want %v", next.Recurring.NextDueDate, want)
	}

	// Original rule is untouched (value semantics).
	if !tmpl.Recurring.NextDueDate.Equal(date(2024, 4, 10)) {
		t.Fatal("source template mutated")
	}
}

func TestTransactionAdvanceRecurrenceTerminates(t *testing.T) {
	now := date(2024, 4, 1)
	tmpl := validTransaction()
	tmpl.Recurring = &RecurrenceRule{
		Frequency:   Monthly,
		NextDueDate: date(2024, 4, 10),
		EndDate:     date(2024, 4, 30), // May 10 runs past it
	}

	instance, next, done := tmpl.AdvanceRecurrence("tx-2", now)
	if !done {
		t.Fatal("series should terminate at end date")
	}
	if next.Recurring != nil {
		t.Fatal("terminated template should clear its rule")
	}
	if !instance.Date.Equal(date(2024, 4, 10)) {
		t.Fatalf("final instance date = %v", instance.Date)
	}
}
