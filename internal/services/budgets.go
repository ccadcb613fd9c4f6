package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
)

// BudgetService manages monthly category budgets and keeps their
// spent figures in sync with the transaction log.
type BudgetService struct {
	deps Deps
}

func NewBudgetService(deps Deps) *BudgetService {
	return &BudgetService{deps: deps}
}

// BudgetCategoryInput is one category line in a create or update
// request. BudgetAmount is the decimal string form.
type BudgetCategoryInput struct {
	Category     string `json:"category"`
	BudgetAmount string `json:"budgetAmount"`
	Rollover     bool   `json:"rollover"`
}

type BudgetInput struct {
	Name       string                `json:"name"`
	Month      int                   `json:"month"`
	Year       int                   `json:"year"`
	Categories []BudgetCategoryInput `json:"categories"`
}

// Create registers a budget for an owner and period. At most one
// budget may exist per owner, month and year.
func (s *BudgetService) Create(ctx context.Context, ownerID string, in BudgetInput) (core.Budget, error) {
	if _, err := s.deps.Store.GetBudgetByPeriod(ctx, ownerID, in.Month, in.Year); err == nil {
		return core.Budget{}, fmt.Errorf("%w: budget already exists for %d/%d", core.ErrInvalidOperation, in.Month, in.Year)
	} else if !errors.Is(err, core.ErrNotFound) {
		return core.Budget{}, err
	}

	now := s.deps.now()
	b, err := s.buildBudget(ownerID, in)
	if err != nil {
		return core.Budget{}, err
	}
	b.ID = s.deps.newID()
	b.IsActive = true
	b.CreatedAt = now
	b.UpdatedAt = now

	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}

	saved, err := s.deps.Store.SaveBudget(ctx, b)
	if err != nil {
		return core.Budget{}, err
	}
	return s.refresh(ctx, saved)
}

func (s *BudgetService) Get(ctx context.Context, ownerID, id string) (core.Budget, error) {
	return s.deps.Store.GetBudget(ctx, ownerID, id)
}

func (s *BudgetService) List(ctx context.Context, ownerID string) ([]core.Budget, error) {
	return s.deps.Store.ListBudgets(ctx, ownerID)
}

// Update replaces the name and category lines of a budget. The period
// is fixed at creation; spent amounts are recomputed afterwards.
func (s *BudgetService) Update(ctx context.Context, ownerID, id string, in BudgetInput) (core.Budget, error) {
	existing, err := s.deps.Store.GetBudget(ctx, ownerID, id)
	if err != nil {
		return core.Budget{}, err
	}

	updated, err := s.buildBudget(ownerID, in)
	if err != nil {
		return core.Budget{}, err
	}
	updated.ID = existing.ID
	updated.Month = existing.Month
	updated.Year = existing.Year
	updated.IsActive = existing.IsActive
	updated.Version = existing.Version
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = s.deps.now()

	if err := updated.Validate(); err != nil {
		return core.Budget{}, err
	}

	saved, err := s.deps.Store.SaveBudget(ctx, updated)
	if err != nil {
		return core.Budget{}, err
	}
	return s.refresh(ctx, saved)
}

func (s *BudgetService) Delete(ctx context.Context, ownerID, id string) error {
	return s.deps.Store.DeleteBudget(ctx, ownerID, id)
}

// UpdateSpentAmounts recomputes the spent figures of a budget from
// the expense transactions of its calendar month. The operation is
// idempotent: running it twice yields the same totals.
func (s *BudgetService) UpdateSpentAmounts(ctx context.Context, ownerID, id string) (core.Budget, error) {
	b, err := s.deps.Store.GetBudget(ctx, ownerID, id)
	if err != nil {
		return core.Budget{}, err
	}
	return s.refresh(ctx, b)
}

// BudgetStatus is a budget with its derived health classification.
type BudgetStatus struct {
	Budget core.Budget       `json:"budget"`
	Health core.BudgetHealth `json:"health"`
}

// Status refreshes a budget's spent amounts and reports its health.
func (s *BudgetService) Status(ctx context.Context, ownerID, id string) (BudgetStatus, error) {
	b, err := s.UpdateSpentAmounts(ctx, ownerID, id)
	if err != nil {
		return BudgetStatus{}, err
	}
	return BudgetStatus{Budget: b, Health: b.Health()}, nil
}

func (s *BudgetService) refresh(ctx context.Context, b core.Budget) (core.Budget, error) {
	start := monthStart(b.Year, b.Month)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)

	txs, err := s.deps.Store.ListTransactions(ctx, TransactionFilter{
		OwnerID: b.OwnerID,
		Start:   start,
		End:     end,
		Type:    core.Expense,
	})
	if err != nil {
		return core.Budget{}, err
	}

	spent := make(map[string]core.Money)
	for _, tx := range txs {
		spent[tx.Category] = spent[tx.Category].Add(tx.Amount)
	}

	updated := b.Recalculate(spent, s.deps.now())
	saved, err := s.deps.Store.SaveBudget(ctx, updated)
	if err != nil {
		return core.Budget{}, err
	}
	slog.InfoContext(ctx, "Budget spent amounts refreshed",
		"budget_id", saved.ID, "month", saved.Month, "year", saved.Year,
		"total_spent_cents", saved.TotalSpent.Cents)
	return saved, nil
}

func (s *BudgetService) buildBudget(ownerID string, in BudgetInput) (core.Budget, error) {
	categories := make([]core.BudgetCategory, 0, len(in.Categories))
	for _, c := range in.Categories {
		amount, err := core.ParseAmount(c.BudgetAmount)
		if err != nil {
			return core.Budget{}, fmt.Errorf("category %q: %w", c.Category, err)
		}
		categories = append(categories, core.BudgetCategory{
			Category:     c.Category,
			BudgetAmount: amount,
			Rollover:     c.Rollover,
		})
	}
	return core.Budget{
		OwnerID:    ownerID,
		Name:       in.Name,
		Month:      in.Month,
		Year:       in.Year,
		Categories: categories,
	}, nil
}
