package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func TestBudgetCreateRejectsDuplicatePeriod(t *testing.T) {
	svc := services.NewBudgetService(testDeps(storage.NewMemoryStore(), nil))
	ctx := context.Background()

	in := services.BudgetInput{
		Name:  "August",
		Month: 8,
		Year:  2026,
		Categories: []services.BudgetCategoryInput{
			{Category: "food", BudgetAmount: "400.00"},
		},
	}
	_, err := svc.Create(ctx, "alice", in)
	require.NoError(t, err)

	_, err = svc.Create(ctx, "alice", in)
	assert.True(t, errors.Is(err, core.ErrInvalidOperation), "err = %v", err)

	// Periods are scoped per owner.
	_, err = svc.Create(ctx, "bob", in)
	assert.NoError(t, err)
}

func TestBudgetRefreshComputesSpentFromTransactions(t *testing.T) {
	store := storage.NewMemoryStore()
	deps := testDeps(store, nil)
	budgets := services.NewBudgetService(deps)
	transactions := services.NewTransactionService(deps)
	ctx := context.Background()

	spend := func(amount, category, date string) {
		t.Helper()
		_, err := transactions.Create(ctx, "alice", services.TransactionInput{
			Type:        core.Expense,
			Amount:      amount,
			Description: "x",
			Category:    category,
			Date:        date,
		})
		require.NoError(t, err)
	}
	spend("120.00", "food", "2026-08-05")
	spend("30.00", "food", "2026-08-20")
	spend("55.00", "transport", "2026-08-12")
	// Different month, must not count.
	spend("400.00", "food", "2026-07-05")
	// Income never counts against a budget.
	_, err := transactions.Create(ctx, "alice", services.TransactionInput{
		Type:        core.Income,
		Amount:      "2000.00",
		Description: "Salary",
		Category:    "food",
		Date:        "2026-08-01",
	})
	require.NoError(t, err)

	created, err := budgets.Create(ctx, "alice", services.BudgetInput{
		Name:  "August",
		Month: 8,
		Year:  2026,
		Categories: []services.BudgetCategoryInput{
			{Category: "food", BudgetAmount: "400.00"},
			{Category: "transport", BudgetAmount: "100.00"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(50000), created.TotalBudget.Cents)
	assert.Equal(t, int64(20500), created.TotalSpent.Cents)
	byCategory := make(map[string]int64, len(created.Categories))
	for _, c := range created.Categories {
		byCategory[c.Category] = c.SpentAmount.Cents
	}
	assert.Equal(t, int64(15000), byCategory["food"])
	assert.Equal(t, int64(5500), byCategory["transport"])

	// More spending, then an explicit refresh picks it up.
	spend("25.00", "transport", "2026-08-25")
	refreshed, err := budgets.UpdateSpentAmounts(ctx, "alice", created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(23000), refreshed.TotalSpent.Cents)
}

func TestBudgetStatusHealth(t *testing.T) {
	store := storage.NewMemoryStore()
	deps := testDeps(store, nil)
	budgets := services.NewBudgetService(deps)
	transactions := services.NewTransactionService(deps)
	ctx := context.Background()

	_, err := transactions.Create(ctx, "alice", services.TransactionInput{
		Type:        core.Expense,
		Amount:      "95.00",
		Description: "x",
		Category:    "food",
		Date:        "2026-08-05",
	})
	require.NoError(t, err)

	created, err := budgets.Create(ctx, "alice", services.BudgetInput{
		Name:  "August",
		Month: 8,
		Year:  2026,
		Categories: []services.BudgetCategoryInput{
			{Category: "food", BudgetAmount: "100.00"},
		},
	})
	require.NoError(t, err)

	status, err := budgets.Status(ctx, "alice", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, status.Budget.ID)
	assert.Equal(t, core.ClassifyBudget(status.Budget.TotalSpent, status.Budget.TotalBudget), status.Health)
}
