package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RecurringProcessor runs the scheduled passes: materializing due
// recurring transactions, applying auto-contributions, and publishing
// bill reminders. Each pass is idempotent for a given day, so a
// crashed run can simply be repeated.
type RecurringProcessor struct {
	deps Deps
}

func NewRecurringProcessor(deps Deps) *RecurringProcessor {
	return &RecurringProcessor{deps: deps}
}

// ProcessRecurringTransactions materializes one concrete transaction
// for every recurring template that is due, advancing each template's
// schedule. A template due several periods back catches up one period
// per call per period, looping until nothing is due.
func (p *RecurringProcessor) ProcessRecurringTransactions(ctx context.Context) (int, error) {
	now := p.deps.now()
	created := 0

	for {
		due, err := p.deps.Store.ListDueRecurringTransactions(ctx, now)
		if err != nil {
			return created, fmt.Errorf("list due recurring transactions: %w", err)
		}
		if len(due) == 0 {
			return created, nil
		}

		progressed := false
		for _, tmpl := range due {
			instance, advanced, _ := tmpl.AdvanceRecurrence(p.deps.newID(), now)
			if _, err := p.deps.Store.SaveTransaction(ctx, instance); err != nil {
				slog.ErrorContext(ctx, "Failed to save recurring instance",
					"template_id", tmpl.ID, "error", err)
				continue
			}
			if _, err := p.deps.Store.SaveTransaction(ctx, advanced); err != nil {
				slog.ErrorContext(ctx, "Failed to advance recurring template",
					"template_id", tmpl.ID, "error", err)
				continue
			}
			created++
			progressed = true
			slog.InfoContext(ctx, "Materialized recurring transaction",
				"template_id", tmpl.ID, "instance_id", instance.ID,
				"category", tmpl.Category, "amount_cents", tmpl.Amount.Cents)
		}
		if !progressed {
			return created, nil
		}
	}
}

// ProcessAutoContributions applies every scheduled goal contribution
// that is due and advances its schedule, emitting milestone and
// completion events through the goal service rules.
func (p *RecurringProcessor) ProcessAutoContributions(ctx context.Context) (int, error) {
	now := p.deps.now()
	applied := 0

	for {
		due, err := p.deps.Store.ListDueAutoContributions(ctx, now)
		if err != nil {
			return applied, fmt.Errorf("list due auto-contributions: %w", err)
		}
		if len(due) == 0 {
			return applied, nil
		}

		progressed := false
		for _, g := range due {
			updated, done, err := g.AdvanceAutoContribution(now, p.deps.newID())
			if err != nil {
				// Archived or otherwise unfundable goals stop their
				// schedule instead of retrying forever.
				stopped := g
				stopped.AutoContribute.Enabled = false
				stopped.UpdatedAt = now
				if _, err := p.deps.Store.SaveGoal(ctx, stopped); err != nil {
					slog.ErrorContext(ctx, "Failed to disable auto-contribution",
						"goal_id", g.ID, "error", err)
				}
				continue
			}
			saved, err := p.deps.Store.SaveGoal(ctx, updated)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to save auto-contribution",
					"goal_id", g.ID, "error", err)
				continue
			}
			applied++
			progressed = true
			slog.InfoContext(ctx, "Applied auto-contribution",
				"goal_id", saved.ID, "amount_cents", g.AutoContribute.Amount.Cents,
				"schedule_done", done)
			publishGoalEvents(ctx, p.deps.Events, g, saved)
		}
		if !progressed {
			return applied, nil
		}
	}
}

// PublishBillReminders emits a reminder event for every active unpaid
// bill inside its reminder window, at most once per day per bill, and
// an overdue event once a bill's due date has passed.
func (p *RecurringProcessor) PublishBillReminders(ctx context.Context) (int, error) {
	if p.deps.Events == nil {
		slog.WarnContext(ctx, "Event publisher not available, skipping bill reminders")
		return 0, nil
	}

	now := p.deps.now()
	// Widest reminder window the settings allow.
	horizon := now.Add(30 * 24 * time.Hour)

	bills, err := p.deps.Store.ListBillsDueBy(ctx, horizon)
	if err != nil {
		return 0, fmt.Errorf("list bills due: %w", err)
	}

	sent := 0
	for _, b := range bills {
		if !b.Reminder.Enabled || b.IsPaid || !b.IsActive {
			continue
		}
		daysUntil := int(b.NextDueDate.Sub(now).Hours() / 24)
		if daysUntil > b.Reminder.DaysBefore {
			continue
		}
		if sameDay(b.LastReminded, now) {
			continue
		}
		if err := p.deps.Events.PublishBillReminder(ctx, b, daysUntil); err != nil {
			slog.ErrorContext(ctx, "Failed to publish bill reminder",
				"bill_id", b.ID, "error", err)
			continue
		}
		b.LastReminded = now
		b.UpdatedAt = now
		if _, err := p.deps.Store.SaveBill(ctx, b); err != nil {
			slog.ErrorContext(ctx, "Failed to record reminder timestamp",
				"bill_id", b.ID, "error", err)
			continue
		}
		sent++
		slog.InfoContext(ctx, "Published bill reminder",
			"bill_id", b.ID, "days_until_due", daysUntil, "overdue", b.OverdueAt(now))
	}
	return sent, nil
}

func sameDay(a, b time.Time) bool {
	if a.IsZero() {
		return false
	}
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
