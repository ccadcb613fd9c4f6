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

func TestTransactionCreateAndUpdatePreservesIdentity(t *testing.T) {
	svc := services.NewTransactionService(testDeps(storage.NewMemoryStore(), nil))
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice", services.TransactionInput{
		Type:        core.Expense,
		Amount:      "12.30",
		Description: "Lunch",
		Category:    "food",
		Date:        "2026-08-10",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1230), created.Amount.Cents)
	assert.Equal(t, fixedNow, created.CreatedAt)

	updated, err := svc.Update(ctx, "alice", created.ID, services.TransactionInput{
		Type:        core.Expense,
		Amount:      "15.00",
		Description: "Lunch with tip",
		Category:    "food",
		Date:        "2026-08-10",
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, created.Version+1, updated.Version)
	assert.Equal(t, int64(1500), updated.Amount.Cents)
}

func TestTransactionDeleteTombstones(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := services.NewTransactionService(testDeps(store, nil))
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice", services.TransactionInput{
		Type:        core.Income,
		Amount:      "2000.00",
		Description: "Salary",
		Category:    "salary",
		Date:        "2026-08-01",
	})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, "alice", created.ID))

	visible, err := svc.List(ctx, services.TransactionFilter{OwnerID: "alice"})
	require.NoError(t, err)
	assert.Empty(t, visible)

	all, err := svc.List(ctx, services.TransactionFilter{OwnerID: "alice", IncludeDeleted: true})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Deleted)

	// A tombstoned transaction cannot be edited.
	_, err = svc.Update(ctx, "alice", created.ID, services.TransactionInput{
		Type:        core.Income,
		Amount:      "1.00",
		Description: "x",
		Category:    "salary",
		Date:        "2026-08-01",
	})
	assert.True(t, errors.Is(err, core.ErrInvalidOperation))
}

func TestTransactionCreateDefaultsRecurringSchedule(t *testing.T) {
	svc := services.NewTransactionService(testDeps(storage.NewMemoryStore(), nil))

	created, err := svc.Create(context.Background(), "alice", services.TransactionInput{
		Type:        core.Expense,
		Amount:      "9.99",
		Description: "Streaming",
		Category:    "subscriptions",
		Date:        "2026-08-10",
		Recurring:   &core.RecurrenceRule{Frequency: core.Monthly},
	})
	require.NoError(t, err)
	require.NotNil(t, created.Recurring)
	assert.Equal(t, created.Date.AddDate(0, 1, 0), created.Recurring.NextDueDate)
}
