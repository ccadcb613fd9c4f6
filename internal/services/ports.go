// Package services owns the mutation rules for the tracked entities.
// Every operation is an explicit load, pure transform, save sequence:
// the domain transforms live in internal/core and the persistence
// step goes through the Store interface below, so nothing here keeps
// ambient state.
package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

// TransactionFilter narrows ListTransactions. Zero fields are
// unbounded; tombstoned rows are excluded unless IncludeDeleted.
type TransactionFilter struct {
	OwnerID        string
	Start          time.Time
	End            time.Time
	Category       string
	Type           core.TransactionType
	IncludeDeleted bool
}

// Store is the persistence collaborator. Get and List are always
// owner-scoped; a record owned by someone else is core.ErrNotFound.
// Save inserts when Version is zero and otherwise performs a
// compare-and-swap on the stored version, returning core.ErrConflict
// when a concurrent update won.
type Store interface {
	GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error)
	ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error)
	SaveTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	// ListDueRecurringTransactions returns templates across all owners
	// whose next due date is at or before asOf.
	ListDueRecurringTransactions(ctx context.Context, asOf time.Time) ([]core.Transaction, error)

	GetBudget(ctx context.Context, ownerID, id string) (core.Budget, error)
	GetBudgetByPeriod(ctx context.Context, ownerID string, month, year int) (core.Budget, error)
	ListBudgets(ctx context.Context, ownerID string) ([]core.Budget, error)
	SaveBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	DeleteBudget(ctx context.Context, ownerID, id string) error

	GetBill(ctx context.Context, ownerID, id string) (core.Bill, error)
	ListBills(ctx context.Context, ownerID string, activeOnly bool) ([]core.Bill, error)
	SaveBill(ctx context.Context, b core.Bill) (core.Bill, error)
	DeleteBill(ctx context.Context, ownerID, id string) error
	// ListBillsDueBy returns active unpaid bills across all owners due
	// at or before the given instant.
	ListBillsDueBy(ctx context.Context, due time.Time) ([]core.Bill, error)

	GetGoal(ctx context.Context, ownerID, id string) (core.Goal, error)
	ListGoals(ctx context.Context, ownerID string, includeArchived bool) ([]core.Goal, error)
	SaveGoal(ctx context.Context, g core.Goal) (core.Goal, error)
	// ListDueAutoContributions returns goals across all owners whose
	// auto-contribution is scheduled at or before asOf.
	ListDueAutoContributions(ctx context.Context, asOf time.Time) ([]core.Goal, error)
}

// EventPublisher emits domain events for external consumers
// (notification delivery lives outside this service). Implementations
// must be safe to skip: a nil publisher disables events.
type EventPublisher interface {
	PublishBillReminder(ctx context.Context, bill core.Bill, daysUntilDue int) error
	PublishGoalMilestone(ctx context.Context, goal core.Goal, milestone core.Milestone) error
	PublishGoalCompleted(ctx context.Context, goal core.Goal) error
}

// Deps bundles the collaborators every service needs. Now and NewID
// default to the wall clock and random UUIDs; tests inject fixed
// versions of both.
type Deps struct {
	Store  Store
	Events EventPublisher
	Now    func() time.Time
	NewID  func() string
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d Deps) newID() string {
	if d.NewID != nil {
		return d.NewID()
	}
	return uuid.NewString()
}
