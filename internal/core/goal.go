package core

import (
	"fmt"
	"strings"
	"time"
)

// GoalStatus is the explicit lifecycle state of a savings goal.
// Archived is an orthogonal flag and not part of this enum.
type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalPaused    GoalStatus = "paused"
	GoalCancelled GoalStatus = "cancelled"
)

// Valid reports whether s is a known goal status.
func (s GoalStatus) Valid() bool {
	switch s {
	case GoalActive, GoalCompleted, GoalPaused, GoalCancelled:
		return true
	}
	return false
}

// Milestone is a sub-target within a goal, achievable independently
// of the others.
type Milestone struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	TargetAmount Money     `json:"target_amount"`
	AchievedDate time.Time `json:"achieved_date,omitempty"`
	IsAchieved   bool      `json:"is_achieved"`
}

// GoalEntry is one row in a goal's contribution or withdrawal log.
type GoalEntry struct {
	ID            string    `json:"id"`
	Amount        Money     `json:"amount"`
	Date          time.Time `json:"date"`
	Source        string    `json:"source,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Notes         string    `json:"notes,omitempty"`
}

// AutoContribute configures scheduled automatic contributions.
type AutoContribute struct {
	Enabled          bool      `json:"enabled"`
	Amount           Money     `json:"amount"`
	Frequency        Frequency `json:"frequency"`
	NextContribution time.Time `json:"next_contribution,omitempty"`
}

// Goal is a savings target with milestones and append-only
// contribution/withdrawal logs. Progress, overdue, and completion are
// derived on read from the stored amounts.
type Goal struct {
	ID             string         `json:"id"`
	OwnerID        string         `json:"owner_id"`
	Name           string         `json:"name"`
	Type           string         `json:"type,omitempty"`
	TargetAmount   Money          `json:"target_amount"`
	CurrentAmount  Money          `json:"current_amount"`
	TargetDate     time.Time      `json:"target_date"`
	StartDate      time.Time      `json:"start_date"`
	Priority       string         `json:"priority,omitempty"`
	Status         GoalStatus     `json:"status"`
	Category       string         `json:"category,omitempty"`
	AutoContribute AutoContribute `json:"auto_contribute"`
	Milestones     []Milestone    `json:"milestones"`
	Contributions  []GoalEntry    `json:"contributions"`
	Withdrawals    []GoalEntry    `json:"withdrawals"`
	Archived       bool           `json:"archived"`
	Version        int64          `json:"version"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Validate checks the goal invariants at creation time.
func (g Goal) Validate(now time.Time) error {
	if strings.TrimSpace(g.Name) == "" {
		return fmt.Errorf("%w: empty goal name", ErrValidation)
	}
	if err := g.TargetAmount.Validate(); err != nil {
		return err
	}
	if g.CurrentAmount.Cents < 0 {
		return fmt.Errorf("%w: current amount cannot be negative", ErrValidation)
	}
	if g.TargetDate.IsZero() || !g.TargetDate.After(now) {
		return fmt.Errorf("%w: target date must be in the future", ErrValidation)
	}
	if !g.Status.Valid() {
		return fmt.Errorf("%w: unknown goal status %q", ErrValidation, string(g.Status))
	}
	if g.AutoContribute.Enabled {
		if err := g.AutoContribute.Amount.Validate(); err != nil {
			return err
		}
		if !g.AutoContribute.Frequency.Recurring() {
			return fmt.Errorf("%w: auto-contribute needs a repeating frequency", ErrValidation)
		}
	}
	for _, m := range g.Milestones {
		if strings.TrimSpace(m.Name) == "" {
			return fmt.Errorf("%w: empty milestone name", ErrValidation)
		}
		if err := m.TargetAmount.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Progress returns the completion percentage, capped at 100.
func (g Goal) Progress() float64 {
	if g.TargetAmount.Cents <= 0 {
		return 0
	}
	p := float64(g.CurrentAmount.Cents) / float64(g.TargetAmount.Cents) * 100
	if p > 100 {
		return 100
	}
	return p
}

// Completed reports whether the saved amount has reached the target.
func (g Goal) Completed() bool {
	return g.CurrentAmount.Cents >= g.TargetAmount.Cents
}

// OverdueAt reports whether an active goal ran past its target date
// without completing.
func (g Goal) OverdueAt(now time.Time) bool {
	return g.Status == GoalActive && g.TargetDate.Before(now) && !g.Completed()
}

// Remaining returns how much is still missing (zero when completed).
func (g Goal) Remaining() Money {
	if g.Completed() {
		return Money{}
	}
	return g.TargetAmount.Sub(g.CurrentAmount)
}

// ContributionInput carries the fields of a contribution.
type ContributionInput struct {
	Amount        Money
	Source        string
	TransactionID string
	Notes         string
}

// Contribute appends to the contribution log and raises the current
// amount. Crossing the target flips an active goal to completed, and
// every unachieved milestone whose target is now met is marked
// achieved; milestones are evaluated in list order, each on its own.
func (g Goal) Contribute(in ContributionInput, now time.Time, entryID string) (Goal, error) {
	if in.Amount.Cents <= 0 {
		return Goal{}, fmt.Errorf("%w: contribution amount must be positive", ErrValidation)
	}
	if g.Archived {
		return Goal{}, fmt.Errorf("%w: goal is archived", ErrInvalidOperation)
	}

	out := g
	out.Contributions = appendEntry(g.Contributions, GoalEntry{
		ID:            entryID,
		Amount:        in.Amount,
		Date:          now,
		Source:        in.Source,
		TransactionID: in.TransactionID,
		Notes:         in.Notes,
	})
	out.CurrentAmount = g.CurrentAmount.Add(in.Amount)

	if out.Completed() && out.Status == GoalActive {
		out.Status = GoalCompleted
	}

	out.Milestones = make([]Milestone, len(g.Milestones))
	copy(out.Milestones, g.Milestones)
	for i := range out.Milestones {
		if !out.Milestones[i].IsAchieved && out.CurrentAmount.Cents >= out.Milestones[i].TargetAmount.Cents {
			out.Milestones[i].IsAchieved = true
			out.Milestones[i].AchievedDate = now
		}
	}
	out.UpdatedAt = now
	return out, nil
}

// WithdrawalInput carries the fields of a withdrawal.
type WithdrawalInput struct {
	Amount        Money
	Reason        string
	TransactionID string
}

// Withdraw appends to the withdrawal log and lowers the current
// amount. Overdrawing is rejected without mutation. Falling back
// under the target reverts a completed goal to active and unachieves
// any milestone whose target is no longer met.
func (g Goal) Withdraw(in WithdrawalInput, now time.Time, entryID string) (Goal, error) {
	if in.Amount.Cents <= 0 {
		return Goal{}, fmt.Errorf("%w: withdrawal amount must be positive", ErrValidation)
	}
	if g.Archived {
		return Goal{}, fmt.Errorf("%w: goal is archived", ErrInvalidOperation)
	}
	if in.Amount.Cents > g.CurrentAmount.Cents {
		return Goal{}, fmt.Errorf("%w: withdrawal exceeds current amount", ErrInvalidOperation)
	}

	out := g
	out.Withdrawals = appendEntry(g.Withdrawals, GoalEntry{
		ID:            entryID,
		Amount:        in.Amount,
		Date:          now,
		Reason:        in.Reason,
		TransactionID: in.TransactionID,
	})
	out.CurrentAmount = g.CurrentAmount.Sub(in.Amount)

	if !out.Completed() && out.Status == GoalCompleted {
		out.Status = GoalActive
	}

	out.Milestones = make([]Milestone, len(g.Milestones))
	copy(out.Milestones, g.Milestones)
	for i := range out.Milestones {
		if out.Milestones[i].IsAchieved && out.CurrentAmount.Cents < out.Milestones[i].TargetAmount.Cents {
			out.Milestones[i].IsAchieved = false
			out.Milestones[i].AchievedDate = time.Time{}
		}
	}
	out.UpdatedAt = now
	return out, nil
}

// Archive returns a copy with the archived flag set. Archived is
// orthogonal to Status and blocks money mutations.
func (g Goal) Archive(now time.Time) Goal {
	g.Archived = true
	g.UpdatedAt = now
	return g
}

// AdvanceAutoContribution applies one scheduled contribution and
// advances the schedule. done is true when the schedule terminated.
func (g Goal) AdvanceAutoContribution(now time.Time, entryID string) (Goal, bool, error) {
	out, err := g.Contribute(ContributionInput{
		Amount: g.AutoContribute.Amount,
		Source: "auto-contribute",
	}, now, entryID)
	if err != nil {
		return Goal{}, false, err
	}
	next, ok := NextOccurrence(g.AutoContribute.NextContribution, g.AutoContribute.Frequency)
	if !ok {
		out.AutoContribute.Enabled = false
		return out, true, nil
	}
	out.AutoContribute.NextContribution = next
	return out, false, nil
}

func appendEntry(log []GoalEntry, e GoalEntry) []GoalEntry {
	out := make([]GoalEntry, len(log), len(log)+1)
	copy(out, log)
	return append(out, e)
}
