package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func TestProcessRecurringTransactionsCatchesUp(t *testing.T) {
	store := storage.NewMemoryStore()
	deps := testDeps(store, nil)
	ctx := context.Background()

	// Template three months behind schedule.
	_, err := store.SaveTransaction(ctx, core.Transaction{
		ID:          "tmpl-1",
		OwnerID:     "alice",
		Type:        core.Expense,
		Amount:      core.Money{Cents: 999},
		Description: "Streaming",
		Category:    "subscriptions",
		Date:        time.Date(2026, time.May, 29, 0, 0, 0, 0, time.UTC),
		Recurring: &core.RecurrenceRule{
			Frequency:   core.Monthly,
			NextDueDate: time.Date(2026, time.June, 29, 0, 0, 0, 0, time.UTC),
		},
	})
	require.NoError(t, err)

	p := services.NewRecurringProcessor(deps)
	created, err := p.ProcessRecurringTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, created, "June, July and August instances")

	all, err := store.ListTransactions(ctx, services.TransactionFilter{OwnerID: "alice"})
	require.NoError(t, err)
	assert.Len(t, all, 4, "template plus three instances")

	tmpl, err := store.GetTransaction(ctx, "alice", "tmpl-1")
	require.NoError(t, err)
	require.NotNil(t, tmpl.Recurring)
	assert.True(t, tmpl.Recurring.NextDueDate.After(fixedNow))

	// Re-running is a no-op until the next due date.
	created, err = p.ProcessRecurringTransactions(ctx)
	require.NoError(t, err)
	assert.Zero(t, created)
}

func TestProcessRecurringTransactionsEndsSeries(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	_, err := store.SaveTransaction(ctx, core.Transaction{
		ID:          "tmpl-1",
		OwnerID:     "alice",
		Type:        core.Expense,
		Amount:      core.Money{Cents: 4500},
		Description: "Gym",
		Category:    "health",
		Date:        time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC),
		Recurring: &core.RecurrenceRule{
			Frequency:   core.Monthly,
			NextDueDate: time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC),
			EndDate:     time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC),
		},
	})
	require.NoError(t, err)

	p := services.NewRecurringProcessor(testDeps(store, nil))
	created, err := p.ProcessRecurringTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	tmpl, err := store.GetTransaction(ctx, "alice", "tmpl-1")
	require.NoError(t, err)
	assert.Nil(t, tmpl.Recurring, "series past its end date loses the rule")
}

func TestProcessAutoContributions(t *testing.T) {
	store := storage.NewMemoryStore()
	events := &fakeEvents{}
	ctx := context.Background()

	_, err := store.SaveGoal(ctx, core.Goal{
		ID:           "goal-1",
		OwnerID:      "alice",
		Name:         "Vacation",
		TargetAmount: core.Money{Cents: 30000},
		TargetDate:   time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC),
		StartDate:    time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC),
		Status:       core.GoalActive,
		AutoContribute: core.AutoContribute{
			Enabled:          true,
			Amount:           core.Money{Cents: 10000},
			Frequency:        core.Monthly,
			NextContribution: time.Date(2026, time.June, 29, 0, 0, 0, 0, time.UTC),
		},
	})
	require.NoError(t, err)

	p := services.NewRecurringProcessor(testDeps(store, events))
	applied, err := p.ProcessAutoContributions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, applied, "June, July and August contributions")

	goal, err := store.GetGoal(ctx, "alice", "goal-1")
	require.NoError(t, err)
	assert.Equal(t, int64(30000), goal.CurrentAmount.Cents)
	assert.Equal(t, core.GoalCompleted, goal.Status)
	assert.True(t, goal.AutoContribute.NextContribution.After(fixedNow))
	assert.Len(t, events.completed, 1)
}

func TestProcessAutoContributionsDisablesArchivedGoal(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	_, err := store.SaveGoal(ctx, core.Goal{
		ID:           "goal-1",
		OwnerID:      "alice",
		Name:         "Stale",
		TargetAmount: core.Money{Cents: 10000},
		TargetDate:   time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC),
		Status:       core.GoalActive,
		Archived:     true,
		AutoContribute: core.AutoContribute{
			Enabled:          true,
			Amount:           core.Money{Cents: 1000},
			Frequency:        core.Monthly,
			NextContribution: time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC),
		},
	})
	require.NoError(t, err)

	p := services.NewRecurringProcessor(testDeps(store, nil))
	applied, err := p.ProcessAutoContributions(ctx)
	require.NoError(t, err)
	assert.Zero(t, applied)

	goal, err := store.GetGoal(ctx, "alice", "goal-1")
	require.NoError(t, err)
	assert.False(t, goal.AutoContribute.Enabled, "unfundable schedule is switched off")
	assert.Zero(t, goal.CurrentAmount.Cents)
}

func TestPublishBillRemindersOncePerDay(t *testing.T) {
	store := storage.NewMemoryStore()
	events := &fakeEvents{}
	ctx := context.Background()

	saveBill := func(id string, due time.Time, reminder core.ReminderSettings) {
		t.Helper()
		_, err := store.SaveBill(ctx, core.Bill{
			ID:          id,
			OwnerID:     "alice",
			Name:        id,
			Amount:      core.Money{Cents: 8000},
			Category:    "utilities",
			DueDate:     due,
			Frequency:   core.Monthly,
			NextDueDate: due,
			IsActive:    true,
			Reminder:    reminder,
		})
		require.NoError(t, err)
	}
	// Due in 2 days, window is 3: reminded.
	saveBill("electricity", fixedNow.AddDate(0, 0, 2), core.ReminderSettings{Enabled: true, DaysBefore: 3})
	// Due in 10 days, window is 3: not yet.
	saveBill("rent", fixedNow.AddDate(0, 0, 10), core.ReminderSettings{Enabled: true, DaysBefore: 3})
	// Overdue: reminded.
	saveBill("water", fixedNow.AddDate(0, 0, -1), core.ReminderSettings{Enabled: true, DaysBefore: 3})
	// Reminders off: silent.
	saveBill("internet", fixedNow.AddDate(0, 0, 1), core.ReminderSettings{})

	p := services.NewRecurringProcessor(testDeps(store, events))
	sent, err := p.PublishBillReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	names := make([]string, 0, len(events.reminders))
	for _, b := range events.reminders {
		names = append(names, b.Name)
	}
	assert.ElementsMatch(t, []string{"electricity", "water"}, names)

	// Same day, second pass: nothing new.
	sent, err = p.PublishBillReminders(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Len(t, events.reminders, 2)
}

func TestPublishBillRemindersWithoutPublisher(t *testing.T) {
	p := services.NewRecurringProcessor(testDeps(storage.NewMemoryStore(), nil))
	sent, err := p.PublishBillReminders(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
}
