package core

import (
	"fmt"
	"strings"
	"time"
)

// BudgetCategory is one budgeted line: how much is allocated to a
// category and how much has been spent against it this period.
type BudgetCategory struct {
	Category     string `json:"category"`
	BudgetAmount Money  `json:"budget_amount"`
	SpentAmount  Money  `json:"spent_amount"`
	Rollover     bool   `json:"rollover"`
}

// Budget is a per-month spending plan. TotalBudget and TotalSpent are
// denormalized sums over the category lines, recomputed on every
// recalculation; at most one budget exists per (owner, month, year).
type Budget struct {
	ID          string           `json:"id"`
	OwnerID     string           `json:"owner_id"`
	Name        string           `json:"name"`
	Month       int              `json:"month"`
	Year        int              `json:"year"`
	Categories  []BudgetCategory `json:"categories"`
	TotalBudget Money            `json:"total_budget"`
	TotalSpent  Money            `json:"total_spent"`
	IsActive    bool             `json:"is_active"`
	Version     int64            `json:"version"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Validate checks the budget invariants.
func (b Budget) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("%w: empty budget name", ErrValidation)
	}
	if b.Month < 1 || b.Month > 12 {
		return fmt.Errorf("%w: month must be 1-12", ErrValidation)
	}
	if b.Year < 2020 {
		return fmt.Errorf("%w: year must be 2020 or later", ErrValidation)
	}
	if len(b.Categories) == 0 {
		return fmt.Errorf("%w: budget needs at least one category", ErrValidation)
	}
	seen := make(map[string]bool, len(b.Categories))
	for _, c := range b.Categories {
		if strings.TrimSpace(c.Category) == "" {
			return fmt.Errorf("%w: empty category name", ErrValidation)
		}
		if seen[c.Category] {
			return fmt.Errorf("%w: duplicate category %q", ErrValidation, c.Category)
		}
		seen[c.Category] = true
		if c.BudgetAmount.Cents < 0 {
			return fmt.Errorf("%w: negative budget amount for %q", ErrValidation, c.Category)
		}
		if c.SpentAmount.Cents < 0 {
			return fmt.Errorf("%w: negative spent amount for %q", ErrValidation, c.Category)
		}
	}
	return nil
}

// Recalculate overwrites each line's spent amount from the given
// per-category expense sums and re-derives both totals. Categories
// absent from the map are reset to zero, so applying the same sums
// twice yields identical totals.
func (b Budget) Recalculate(spentByCategory map[string]Money, now time.Time) Budget {
	out := b
	out.Categories = make([]BudgetCategory, len(b.Categories))
	copy(out.Categories, b.Categories)

	var totalBudget, totalSpent Money
	for i := range out.Categories {
		out.Categories[i].SpentAmount = spentByCategory[out.Categories[i].Category]
		totalBudget = totalBudget.Add(out.Categories[i].BudgetAmount)
		totalSpent = totalSpent.Add(out.Categories[i].SpentAmount)
	}
	out.TotalBudget = totalBudget
	out.TotalSpent = totalSpent
	out.UpdatedAt = now
	return out
}

// Health classifies the budget's overall spending level.
func (b Budget) Health() BudgetHealth {
	return ClassifyBudget(b.TotalSpent, b.TotalBudget)
}
