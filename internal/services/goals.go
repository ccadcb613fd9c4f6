package services

import (
	"context"
	"log/slog"
	"time"

	"fintrack/internal/core"
)

// GoalService manages savings goals, their entry logs and the
// milestone events they emit.
type GoalService struct {
	deps Deps
}

func NewGoalService(deps Deps) *GoalService {
	return &GoalService{deps: deps}
}

type GoalInput struct {
	Name           string               `json:"name"`
	Type           string               `json:"type"`
	TargetAmount   string               `json:"targetAmount"`
	TargetDate     string               `json:"targetDate"`
	Category       string               `json:"category"`
	Priority       string               `json:"priority"`
	Milestones     []MilestoneInput     `json:"milestones"`
	AutoContribute *AutoContributeInput `json:"autoContribute,omitempty"`
}

type MilestoneInput struct {
	Name         string `json:"name"`
	TargetAmount string `json:"targetAmount"`
}

type AutoContributeInput struct {
	Amount    string         `json:"amount"`
	Frequency core.Frequency `json:"frequency"`
}

// ContributionInput is a deposit toward a goal.
type ContributionInput struct {
	Amount string `json:"amount"`
	Notes  string `json:"notes"`
}

// WithdrawalInput is a withdrawal from a goal.
type WithdrawalInput struct {
	Amount string `json:"amount"`
	Reason string `json:"reason"`
}

func (s *GoalService) Create(ctx context.Context, ownerID string, in GoalInput) (core.Goal, error) {
	now := s.deps.now()

	g, err := s.buildGoal(ownerID, in, now)
	if err != nil {
		return core.Goal{}, err
	}
	g.ID = s.deps.newID()
	g.Status = core.GoalActive
	g.StartDate = now
	g.CreatedAt = now
	g.UpdatedAt = now

	if err := g.Validate(now); err != nil {
		return core.Goal{}, err
	}
	return s.deps.Store.SaveGoal(ctx, g)
}

func (s *GoalService) Get(ctx context.Context, ownerID, id string) (core.Goal, error) {
	return s.deps.Store.GetGoal(ctx, ownerID, id)
}

func (s *GoalService) List(ctx context.Context, ownerID string, includeArchived bool) ([]core.Goal, error) {
	return s.deps.Store.ListGoals(ctx, ownerID, includeArchived)
}

// Update replaces the descriptive fields of a goal. The accumulated
// amount, entry logs and milestone achievement state are preserved
// for milestones that keep their position and target.
func (s *GoalService) Update(ctx context.Context, ownerID, id string, in GoalInput) (core.Goal, error) {
	existing, err := s.deps.Store.GetGoal(ctx, ownerID, id)
	if err != nil {
		return core.Goal{}, err
	}

	now := s.deps.now()
	updated, err := s.buildGoal(ownerID, in, now)
	if err != nil {
		return core.Goal{}, err
	}
	updated.ID = existing.ID
	updated.Status = existing.Status
	updated.CurrentAmount = existing.CurrentAmount
	updated.StartDate = existing.StartDate
	updated.Contributions = existing.Contributions
	updated.Withdrawals = existing.Withdrawals
	updated.Archived = existing.Archived
	updated.Version = existing.Version
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = now

	// Replacement milestones inherit achievement from the stored goal
	// when the target already is covered by the current amount.
	for i := range updated.Milestones {
		if updated.CurrentAmount.Cents >= updated.Milestones[i].TargetAmount.Cents {
			updated.Milestones[i].IsAchieved = true
			updated.Milestones[i].AchievedDate = now
		}
	}

	if err := updated.Validate(now); err != nil {
		return core.Goal{}, err
	}
	return s.deps.Store.SaveGoal(ctx, updated)
}

// AddContribution records a deposit toward the goal and publishes
// milestone and completion events for any threshold the deposit
// crossed. Event delivery failures are logged, never surfaced.
func (s *GoalService) AddContribution(ctx context.Context, ownerID, id string, in ContributionInput) (core.Goal, error) {
	g, err := s.deps.Store.GetGoal(ctx, ownerID, id)
	if err != nil {
		return core.Goal{}, err
	}
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.Goal{}, err
	}

	updated, err := g.Contribute(core.ContributionInput{
		Amount: amount,
		Source: "manual",
		Notes:  in.Notes,
	}, s.deps.now(), s.deps.newID())
	if err != nil {
		return core.Goal{}, err
	}

	saved, err := s.deps.Store.SaveGoal(ctx, updated)
	if err != nil {
		return core.Goal{}, err
	}
	publishGoalEvents(ctx, s.deps.Events, g, saved)
	return saved, nil
}

// AddWithdrawal records a withdrawal from the goal.
func (s *GoalService) AddWithdrawal(ctx context.Context, ownerID, id string, in WithdrawalInput) (core.Goal, error) {
	g, err := s.deps.Store.GetGoal(ctx, ownerID, id)
	if err != nil {
		return core.Goal{}, err
	}
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.Goal{}, err
	}

	updated, err := g.Withdraw(core.WithdrawalInput{
		Amount: amount,
		Reason: in.Reason,
	}, s.deps.now(), s.deps.newID())
	if err != nil {
		return core.Goal{}, err
	}
	return s.deps.Store.SaveGoal(ctx, updated)
}

// Archive retires a goal. Archived goals reject further entries and
// are hidden from default listings.
func (s *GoalService) Archive(ctx context.Context, ownerID, id string) (core.Goal, error) {
	g, err := s.deps.Store.GetGoal(ctx, ownerID, id)
	if err != nil {
		return core.Goal{}, err
	}
	return s.deps.Store.SaveGoal(ctx, g.Archive(s.deps.now()))
}

// GoalProgress is a goal with its derived progress figures.
type GoalProgress struct {
	Goal                core.Goal  `json:"goal"`
	Percent             float64    `json:"percent"`
	RemainingCents      int64      `json:"remaining_cents"`
	VelocityCentsPerDay float64    `json:"velocity_cents_per_day"`
	ProjectedCompletion *time.Time `json:"projected_completion,omitempty"`
	Overdue             bool       `json:"overdue"`
}

// Progress reports a goal's completion percentage, saving velocity
// and the projected completion date at the current pace.
func (s *GoalService) Progress(ctx context.Context, ownerID, id string) (GoalProgress, error) {
	g, err := s.deps.Store.GetGoal(ctx, ownerID, id)
	if err != nil {
		return GoalProgress{}, err
	}

	now := s.deps.now()
	velocity := core.ContributionVelocity(g.Contributions, g.StartDate, now)
	p := GoalProgress{
		Goal:                g,
		Percent:             g.Progress(),
		RemainingCents:      g.Remaining().Cents,
		VelocityCentsPerDay: velocity,
		Overdue:             g.OverdueAt(now),
	}
	if projected, ok := core.ProjectedCompletion(g.Remaining(), velocity, now); ok {
		p.ProjectedCompletion = &projected
	}
	return p, nil
}

// publishGoalEvents compares a goal before and after a contribution
// and emits one event per newly achieved milestone, plus a completion
// event when the target was just reached. Delivery failures are
// logged, never surfaced.
func publishGoalEvents(ctx context.Context, events EventPublisher, before, after core.Goal) {
	if events == nil {
		return
	}
	achieved := make(map[string]bool, len(before.Milestones))
	for _, m := range before.Milestones {
		achieved[m.ID] = m.IsAchieved
	}
	for _, m := range after.Milestones {
		if m.IsAchieved && !achieved[m.ID] {
			if err := events.PublishGoalMilestone(ctx, after, m); err != nil {
				slog.ErrorContext(ctx, "Failed to publish milestone event",
					"goal_id", after.ID, "milestone", m.Name, "error", err)
			}
		}
	}
	if after.Status == core.GoalCompleted && before.Status != core.GoalCompleted {
		if err := events.PublishGoalCompleted(ctx, after); err != nil {
			slog.ErrorContext(ctx, "Failed to publish goal completed event",
				"goal_id", after.ID, "error", err)
		}
	}
}

func (s *GoalService) buildGoal(ownerID string, in GoalInput, now time.Time) (core.Goal, error) {
	target, err := core.ParseAmount(in.TargetAmount)
	if err != nil {
		return core.Goal{}, err
	}
	targetDate, err := parseDate(in.TargetDate)
	if err != nil {
		return core.Goal{}, err
	}

	milestones := make([]core.Milestone, 0, len(in.Milestones))
	for _, m := range in.Milestones {
		amount, err := core.ParseAmount(m.TargetAmount)
		if err != nil {
			return core.Goal{}, err
		}
		milestones = append(milestones, core.Milestone{
			ID:           s.deps.newID(),
			Name:         m.Name,
			TargetAmount: amount,
		})
	}

	var auto core.AutoContribute
	if in.AutoContribute != nil {
		amount, err := core.ParseAmount(in.AutoContribute.Amount)
		if err != nil {
			return core.Goal{}, err
		}
		next, ok := core.NextOccurrence(now, in.AutoContribute.Frequency)
		if !ok {
			next = now
		}
		auto = core.AutoContribute{
			Enabled:          true,
			Amount:           amount,
			Frequency:        in.AutoContribute.Frequency,
			NextContribution: next,
		}
	}

	return core.Goal{
		OwnerID:        ownerID,
		Name:           in.Name,
		Type:           in.Type,
		TargetAmount:   target,
		TargetDate:     targetDate,
		Category:       in.Category,
		Priority:       in.Priority,
		Milestones:     milestones,
		AutoContribute: auto,
	}, nil
}
