package services_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

// fixedNow keeps test schedules deterministic.
var fixedNow = time.Date(2026, time.August, 29, 12, 0, 0, 0, time.UTC)

// testDeps returns deps with a frozen clock and sequential IDs.
func testDeps(store services.Store, events services.EventPublisher) services.Deps {
	var n int
	return services.Deps{
		Store:  store,
		Events: events,
		Now:    func() time.Time { return fixedNow },
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
	}
}

// fakeEvents records published events for assertions.
type fakeEvents struct {
	mu         sync.Mutex
	reminders  []core.Bill
	milestones []core.Milestone
	completed  []core.Goal
	failWith   error
}

func (f *fakeEvents) PublishBillReminder(_ context.Context, bill core.Bill, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.reminders = append(f.reminders, bill)
	return nil
}

func (f *fakeEvents) PublishGoalMilestone(_ context.Context, _ core.Goal, m core.Milestone) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.milestones = append(f.milestones, m)
	return nil
}

func (f *fakeEvents) PublishGoalCompleted(_ context.Context, g core.Goal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.completed = append(f.completed, g)
	return nil
}
