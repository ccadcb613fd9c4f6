package core

import (
	"fmt"
	"strings"
	"time"
)

// TransactionType separates money coming in from money going out.
type TransactionType string

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// RecurrenceRule describes an optional repeat schedule attached to a
// transaction. NextDueDate is when the next instance should be
// materialized; a zero EndDate means the series is open-ended.
type RecurrenceRule struct {
	Frequency   Frequency `json:"frequency"`
	NextDueDate time.Time `json:"next_due_date"`
	EndDate     time.Time `json:"end_date,omitempty"`
}

// Transaction is a single income or expense entry in the ledger.
// Deleted is a tombstone: summaries skip tombstoned rows, the record
// is never physically removed.
type Transaction struct {
	ID            string          `json:"id"`
	OwnerID       string          `json:"owner_id"`
	Type          TransactionType `json:"type"`
	Amount        Money           `json:"amount"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	Date          time.Time       `json:"date"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	Tags          []string        `json:"tags,omitempty"`
	Recurring     *RecurrenceRule `json:"recurring,omitempty"`
	Deleted       bool            `json:"deleted"`
	Version       int64           `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Validate checks the transaction invariants: positive amount, known
// type, non-empty category, date not in the future, and a coherent
// recurrence rule when one is attached.
func (t Transaction) Validate(now time.Time) error {
	if !t.Type.Valid() {
		return fmt.Errorf("%w: unknown transaction type %q", ErrValidation, string(t.Type))
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("%w: empty description", ErrValidation)
	}
	if len(t.Description) > 200 {
		return fmt.Errorf("%w: description too long (max 200 characters)", ErrValidation)
	}
	if strings.TrimSpace(t.Category) == "" {
		return fmt.Errorf("%w: empty category", ErrValidation)
	}
	if t.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrValidation)
	}
	if t.Date.After(now) {
		return fmt.Errorf("%w: date cannot be in the future", ErrValidation)
	}
	if t.Recurring != nil {
		if !t.Recurring.Frequency.Recurring() {
			return fmt.Errorf("%w: recurring transaction needs a repeating frequency", ErrValidation)
		}
		if !t.Recurring.EndDate.IsZero() && !t.Recurring.EndDate.After(t.Date) {
			return fmt.Errorf("%w: recurrence end date must be after the transaction date", ErrValidation)
		}
	}
	return nil
}

// SoftDelete returns a copy with the tombstone flag set.
func (t Transaction) SoftDelete(now time.Time) Transaction {
	t.Deleted = true
	t.UpdatedAt = now
	return t
}

// AdvanceRecurrence materializes the next instance of a recurring
// transaction: it returns the concrete transaction dated at the
// current NextDueDate plus the template with its schedule advanced.
// done is true when the series terminated (end date reached or
// frequency exhausted), in which case the template's rule is cleared.
func (t Transaction) AdvanceRecurrence(newID string, now time.Time) (instance Transaction, template Transaction, done bool) {
	template = t
	instance = t
	instance.ID = newID
	instance.Recurring = nil
	instance.Deleted = false
	instance.Version = 0
	instance.Date = t.Recurring.NextDueDate
	instance.CreatedAt = now
	instance.UpdatedAt = now

	next, ok := NextOccurrence(t.Recurring.NextDueDate, t.Recurring.Frequency)
	if !ok || (!t.Recurring.EndDate.IsZero() && next.After(t.Recurring.EndDate)) {
		template.Recurring = nil
		template.UpdatedAt = now
		return instance, template, true
	}
	rule := *t.Recurring
	rule.NextDueDate = next
	template.Recurring = &rule
	template.UpdatedAt = now
	return instance, template, false
}
