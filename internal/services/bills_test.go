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

func TestBillDeactivate(t *testing.T) {
	svc := services.NewBillService(testDeps(storage.NewMemoryStore(), nil))
	ctx := context.Background()

	bill, err := svc.Create(ctx, "alice", services.BillInput{
		Name:      "Gym",
		Amount:    "45.00",
		Category:  "health",
		DueDate:   "2026-09-01",
		Frequency: core.Monthly,
	})
	require.NoError(t, err)

	deactivated, err := svc.Deactivate(ctx, "alice", bill.ID)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)

	_, err = svc.Deactivate(ctx, "alice", bill.ID)
	assert.True(t, errors.Is(err, core.ErrInvalidOperation))

	_, err = svc.MarkPaid(ctx, "alice", bill.ID, core.PaymentInput{})
	assert.True(t, errors.Is(err, core.ErrInvalidOperation))

	// Inactive bills drop out of the active listing but keep history.
	active, err := svc.List(ctx, "alice", true)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := svc.List(ctx, "alice", false)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestBillUpcomingSortedByDueDate(t *testing.T) {
	svc := services.NewBillService(testDeps(storage.NewMemoryStore(), nil))
	ctx := context.Background()

	create := func(name, due string) {
		t.Helper()
		_, err := svc.Create(ctx, "alice", services.BillInput{
			Name:      name,
			Amount:    "10.00",
			Category:  "utilities",
			DueDate:   due,
			Frequency: core.Monthly,
		})
		require.NoError(t, err)
	}
	create("water", "2026-09-03")
	create("electricity", "2026-08-30")
	// Outside the default 7-day window.
	create("insurance", "2026-10-01")

	upcoming, err := svc.Upcoming(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, "electricity", upcoming[0].Bill.Name)
	assert.Equal(t, "water", upcoming[1].Bill.Name)
}
