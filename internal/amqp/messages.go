package amqp

import (
	"encoding/json"
	"time"
)

// Routing keys for the notification exchange. Consumers bind per key.
const (
	RouteBillReminder  = "bill.reminder"
	RouteBillOverdue   = "bill.overdue"
	RouteGoalMilestone = "goal.milestone"
	RouteGoalCompleted = "goal.completed"
)

// BillReminderMessage notifies that a bill is inside its reminder
// window or overdue. The consumer fetches the full bill when it needs
// more than what's carried here.
type BillReminderMessage struct {
	BillID       string    `json:"bill_id"`
	OwnerID      string    `json:"owner_id"`
	Name         string    `json:"name"`
	AmountCents  int64     `json:"amount_cents"`
	DueDate      time.Time `json:"due_date"`
	DaysUntilDue int       `json:"days_until_due"`
	Overdue      bool      `json:"overdue"`
	Timestamp    time.Time `json:"timestamp"`
}

// GoalMilestoneMessage notifies that a goal crossed one of its
// milestone thresholds.
type GoalMilestoneMessage struct {
	GoalID             string    `json:"goal_id"`
	OwnerID            string    `json:"owner_id"`
	GoalName           string    `json:"goal_name"`
	MilestoneName      string    `json:"milestone_name"`
	MilestoneCents     int64     `json:"milestone_cents"`
	CurrentAmountCents int64     `json:"current_amount_cents"`
	Timestamp          time.Time `json:"timestamp"`
}

// GoalCompletedMessage notifies that a goal reached its target.
type GoalCompletedMessage struct {
	GoalID            string    `json:"goal_id"`
	OwnerID           string    `json:"owner_id"`
	GoalName          string    `json:"goal_name"`
	TargetAmountCents int64     `json:"target_amount_cents"`
	Timestamp         time.Time `json:"timestamp"`
}

func toJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}
