package services

import (
	"context"
	"fmt"

	"fintrack/internal/core"
)

// TransactionService manages income and expense records.
type TransactionService struct {
	deps Deps
}

func NewTransactionService(deps Deps) *TransactionService {
	return &TransactionService{deps: deps}
}

// TransactionInput carries the caller-supplied fields for create and
// update. Amount is the decimal string form, e.g. "42.50".
type TransactionInput struct {
	Type          core.TransactionType `json:"type"`
	Amount        string               `json:"amount"`
	Description   string               `json:"description"`
	Category      string               `json:"category"`
	Date          string               `json:"date"`
	PaymentMethod string               `json:"paymentMethod"`
	Tags          []string             `json:"tags"`
	Recurring     *core.RecurrenceRule `json:"recurring,omitempty"`
}

func (s *TransactionService) Create(ctx context.Context, ownerID string, in TransactionInput) (core.Transaction, error) {
	now := s.deps.now()

	tx, err := s.buildTransaction(ownerID, in)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.ID = s.deps.newID()
	tx.CreatedAt = now
	tx.UpdatedAt = now

	if err := tx.Validate(now); err != nil {
		return core.Transaction{}, err
	}
	return s.deps.Store.SaveTransaction(ctx, tx)
}

func (s *TransactionService) Get(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	return s.deps.Store.GetTransaction(ctx, ownerID, id)
}

func (s *TransactionService) List(ctx context.Context, f TransactionFilter) ([]core.Transaction, error) {
	return s.deps.Store.ListTransactions(ctx, f)
}

// Update replaces the editable fields of an existing transaction.
// Identity, ownership and creation time are preserved.
func (s *TransactionService) Update(ctx context.Context, ownerID, id string, in TransactionInput) (core.Transaction, error) {
	existing, err := s.deps.Store.GetTransaction(ctx, ownerID, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if existing.Deleted {
		return core.Transaction{}, fmt.Errorf("%w: transaction is deleted", core.ErrInvalidOperation)
	}

	now := s.deps.now()
	updated, err := s.buildTransaction(ownerID, in)
	if err != nil {
		return core.Transaction{}, err
	}
	updated.ID = existing.ID
	updated.Version = existing.Version
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = now

	if err := updated.Validate(now); err != nil {
		return core.Transaction{}, err
	}
	return s.deps.Store.SaveTransaction(ctx, updated)
}

// Delete tombstones a transaction. The record stays in storage and is
// excluded from listings and summaries.
func (s *TransactionService) Delete(ctx context.Context, ownerID, id string) error {
	existing, err := s.deps.Store.GetTransaction(ctx, ownerID, id)
	if err != nil {
		return err
	}
	_, err = s.deps.Store.SaveTransaction(ctx, existing.SoftDelete(s.deps.now()))
	return err
}

func (s *TransactionService) buildTransaction(ownerID string, in TransactionInput) (core.Transaction, error) {
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := parseDate(in.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	var rule *core.RecurrenceRule
	if in.Recurring != nil {
		r := *in.Recurring
		if r.NextDueDate.IsZero() {
			// The first occurrence follows the transaction's own date.
			if next, ok := core.NextOccurrence(date, r.Frequency); ok {
				r.NextDueDate = next
			}
		}
		rule = &r
	}
	return core.Transaction{
		OwnerID:       ownerID,
		Type:          in.Type,
		Amount:        amount,
		Description:   in.Description,
		Category:      in.Category,
		Date:          date,
		PaymentMethod: in.PaymentMethod,
		Tags:          append([]string(nil), in.Tags...),
		Recurring:     rule,
	}, nil
}
