package core

import (
	"fmt"
	"strings"
	"time"
)

// BillState is the derived lifecycle state of a bill. It is computed
// on read from the stored fields and the clock, never persisted.
type BillState string

const (
	BillInactive BillState = "inactive"
	BillPaid     BillState = "paid"
	BillOverdue  BillState = "overdue"
	BillDueSoon  BillState = "due-soon"
	BillPending  BillState = "pending"
)

// DueSoonWindow is the fixed lookahead used to classify bills as
// imminently due.
const DueSoonWindow = 3 * 24 * time.Hour

// ReminderSettings controls reminder events for a bill.
type ReminderSettings struct {
	Enabled    bool `json:"enabled"`
	DaysBefore int  `json:"days_before"`
}

// BillPayment is one entry in a bill's append-only payment history.
type BillPayment struct {
	ID            string    `json:"id"`
	Amount        Money     `json:"amount"`
	PaidDate      time.Time `json:"paid_date"`
	Method        string    `json:"method,omitempty"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Notes         string    `json:"notes,omitempty"`
}

// Bill is a recurring (or one-time) obligation. NextDueDate tracks
// the current cycle; marking the bill paid advances it, and a bill
// whose series terminates is deactivated with IsPaid left set.
type Bill struct {
	ID          string           `json:"id"`
	OwnerID     string           `json:"owner_id"`
	Name        string           `json:"name"`
	Amount      Money            `json:"amount"`
	Category    string           `json:"category"`
	DueDate     time.Time        `json:"due_date"`
	Frequency   Frequency        `json:"frequency"`
	NextDueDate time.Time        `json:"next_due_date"`
	EndDate     time.Time        `json:"end_date,omitempty"`
	IsActive    bool             `json:"is_active"`
	IsPaid      bool             `json:"is_paid"`
	PaidDate    time.Time        `json:"paid_date,omitempty"`
	PaidAmount  Money            `json:"paid_amount"`
	Reminder    ReminderSettings `json:"reminder"`
	// LastReminded is when a reminder event was last published for the
	// current cycle, so the worker sends at most one per day.
	LastReminded time.Time     `json:"last_reminded,omitempty"`
	Attachments  []string      `json:"attachments,omitempty"`
	Payments     []BillPayment `json:"payments"`
	Version      int64         `json:"version"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Validate checks the bill invariants.
func (b Bill) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("%w: empty bill name", ErrValidation)
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(b.Category) == "" {
		return fmt.Errorf("%w: empty category", ErrValidation)
	}
	if b.DueDate.IsZero() {
		return fmt.Errorf("%w: due date is required", ErrValidation)
	}
	if err := ValidateFrequency(b.Frequency); err != nil {
		return err
	}
	if !b.EndDate.IsZero() && !b.EndDate.After(b.DueDate) {
		return fmt.Errorf("%w: end date must be after the due date", ErrValidation)
	}
	if b.Reminder.DaysBefore < 0 || b.Reminder.DaysBefore > 30 {
		return fmt.Errorf("%w: reminder days must be 0-30", ErrValidation)
	}
	return nil
}

// OverdueAt reports whether the bill is past due and unpaid.
func (b Bill) OverdueAt(now time.Time) bool {
	return b.IsActive && !b.IsPaid && b.NextDueDate.Before(now)
}

// StatusAt derives the bill state at the given instant. Checks run in
// fixed order: inactive, paid, overdue, due-soon, pending.
func (b Bill) StatusAt(now time.Time) BillState {
	switch {
	case !b.IsActive:
		return BillInactive
	case b.IsPaid:
		return BillPaid
	case b.NextDueDate.Before(now):
		return BillOverdue
	case !b.NextDueDate.After(now.Add(DueSoonWindow)):
		return BillDueSoon
	default:
		return BillPending
	}
}

// PaymentInput carries the optional fields of a bill payment. A zero
// Amount means "pay the bill's own amount".
type PaymentInput struct {
	Amount        Money
	Method        string
	TransactionID string
	Notes         string
}

// MarkPaid records a payment against the current cycle and returns
// the updated bill. The payment is appended to the history; if the
// schedule yields a next occurrence within the end date, the bill
// rolls over to a fresh pending cycle, otherwise it is deactivated
// and stays permanently paid. An explicitly supplied non-positive
// amount is rejected without mutating anything.
func (b Bill) MarkPaid(in PaymentInput, now time.Time, paymentID string) (Bill, error) {
	amount := in.Amount
	if amount.IsZero() {
		amount = b.Amount
	} else if amount.Cents <= 0 {
		return Bill{}, fmt.Errorf("%w: payment amount must be positive", ErrValidation)
	}
	if !b.IsActive {
		return Bill{}, fmt.Errorf("%w: bill is inactive", ErrInvalidOperation)
	}

	out := b
	out.Payments = make([]BillPayment, len(b.Payments), len(b.Payments)+1)
	copy(out.Payments, b.Payments)
	out.Payments = append(out.Payments, BillPayment{
		ID:            paymentID,
		Amount:        amount,
		PaidDate:      now,
		Method:        in.Method,
		TransactionID: in.TransactionID,
		Notes:         in.Notes,
	})

	next, ok := NextOccurrence(b.NextDueDate, b.Frequency)
	if ok && (b.EndDate.IsZero() || !next.After(b.EndDate)) {
		// Advance to the next pending cycle.
		out.NextDueDate = next
		out.IsPaid = false
		out.PaidDate = time.Time{}
		out.PaidAmount = Money{}
	} else {
		// One-time, or the series ran past its end date.
		out.IsActive = false
		out.IsPaid = true
		out.PaidDate = now
		out.PaidAmount = amount
	}
	out.UpdatedAt = now
	return out, nil
}

// Deactivate returns a copy with the bill switched off.
func (b Bill) Deactivate(now time.Time) Bill {
	b.IsActive = false
	b.UpdatedAt = now
	return b
}
