package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"fintrack/internal/core"
)

// BillService manages recurring bills and their payment history.
type BillService struct {
	deps Deps
}

func NewBillService(deps Deps) *BillService {
	return &BillService{deps: deps}
}

type BillInput struct {
	Name        string                `json:"name"`
	Amount      string                `json:"amount"`
	Category    string                `json:"category"`
	DueDate     string                `json:"dueDate"`
	Frequency   core.Frequency        `json:"frequency"`
	EndDate     string                `json:"endDate,omitempty"`
	Reminder    core.ReminderSettings `json:"reminder"`
	Attachments []string              `json:"attachments,omitempty"`
}

func (s *BillService) Create(ctx context.Context, ownerID string, in BillInput) (core.Bill, error) {
	now := s.deps.now()

	b, err := s.buildBill(ownerID, in)
	if err != nil {
		return core.Bill{}, err
	}
	b.ID = s.deps.newID()
	b.NextDueDate = b.DueDate
	b.IsActive = true
	b.CreatedAt = now
	b.UpdatedAt = now

	if err := b.Validate(); err != nil {
		return core.Bill{}, err
	}
	return s.deps.Store.SaveBill(ctx, b)
}

func (s *BillService) Get(ctx context.Context, ownerID, id string) (core.Bill, error) {
	return s.deps.Store.GetBill(ctx, ownerID, id)
}

func (s *BillService) List(ctx context.Context, ownerID string, activeOnly bool) ([]core.Bill, error) {
	return s.deps.Store.ListBills(ctx, ownerID, activeOnly)
}

// Update replaces the editable fields of a bill. Payment history,
// paid state and the current cycle's next due date are preserved.
func (s *BillService) Update(ctx context.Context, ownerID, id string, in BillInput) (core.Bill, error) {
	existing, err := s.deps.Store.GetBill(ctx, ownerID, id)
	if err != nil {
		return core.Bill{}, err
	}

	updated, err := s.buildBill(ownerID, in)
	if err != nil {
		return core.Bill{}, err
	}
	updated.ID = existing.ID
	updated.NextDueDate = existing.NextDueDate
	updated.IsActive = existing.IsActive
	updated.IsPaid = existing.IsPaid
	updated.PaidDate = existing.PaidDate
	updated.PaidAmount = existing.PaidAmount
	updated.Payments = existing.Payments
	updated.LastReminded = existing.LastReminded
	updated.Version = existing.Version
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = s.deps.now()

	if err := updated.Validate(); err != nil {
		return core.Bill{}, err
	}
	return s.deps.Store.SaveBill(ctx, updated)
}

func (s *BillService) Delete(ctx context.Context, ownerID, id string) error {
	return s.deps.Store.DeleteBill(ctx, ownerID, id)
}

// Deactivate retires a bill without deleting its payment history. The
// worker skips inactive bills and MarkPaid rejects them.
func (s *BillService) Deactivate(ctx context.Context, ownerID, id string) (core.Bill, error) {
	b, err := s.deps.Store.GetBill(ctx, ownerID, id)
	if err != nil {
		return core.Bill{}, err
	}
	if !b.IsActive {
		return core.Bill{}, fmt.Errorf("%w: bill is already inactive", core.ErrInvalidOperation)
	}
	b.IsActive = false
	b.UpdatedAt = s.deps.now()
	return s.deps.Store.SaveBill(ctx, b)
}

// MarkPaid records a payment against the bill's current cycle. An
// empty amount pays the scheduled amount in full.
func (s *BillService) MarkPaid(ctx context.Context, ownerID, id string, in core.PaymentInput) (core.Bill, error) {
	b, err := s.deps.Store.GetBill(ctx, ownerID, id)
	if err != nil {
		return core.Bill{}, err
	}

	now := s.deps.now()
	paid, err := b.MarkPaid(in, now, s.deps.newID())
	if err != nil {
		return core.Bill{}, err
	}

	saved, err := s.deps.Store.SaveBill(ctx, paid)
	if err != nil {
		return core.Bill{}, err
	}
	slog.InfoContext(ctx, "Bill marked paid",
		"bill_id", saved.ID, "amount_cents", saved.PaidAmount.Cents,
		"active", saved.IsActive, "next_due", saved.NextDueDate)
	return saved, nil
}

// BillWithStatus pairs a bill with its derived state at a point in
// time.
type BillWithStatus struct {
	Bill   core.Bill      `json:"bill"`
	Status core.BillState `json:"status"`
}

// Upcoming lists active bills due within the given number of days,
// soonest first, each with its derived status.
func (s *BillService) Upcoming(ctx context.Context, ownerID string, days int) ([]BillWithStatus, error) {
	if days <= 0 {
		days = 7
	}
	bills, err := s.deps.Store.ListBills(ctx, ownerID, true)
	if err != nil {
		return nil, err
	}

	now := s.deps.now()
	horizon := now.Add(time.Duration(days) * 24 * time.Hour)

	out := make([]BillWithStatus, 0, len(bills))
	for _, b := range bills {
		if b.IsPaid || b.NextDueDate.After(horizon) {
			continue
		}
		out = append(out, BillWithStatus{Bill: b, Status: b.StatusAt(now)})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Bill.NextDueDate.Before(out[j].Bill.NextDueDate)
	})
	return out, nil
}

func (s *BillService) buildBill(ownerID string, in BillInput) (core.Bill, error) {
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.Bill{}, err
	}
	dueDate, err := parseDate(in.DueDate)
	if err != nil {
		return core.Bill{}, err
	}
	var endDate time.Time
	if in.EndDate != "" {
		endDate, err = parseDate(in.EndDate)
		if err != nil {
			return core.Bill{}, err
		}
	}
	return core.Bill{
		OwnerID:     ownerID,
		Name:        in.Name,
		Amount:      amount,
		Category:    in.Category,
		DueDate:     dueDate,
		Frequency:   in.Frequency,
		EndDate:     endDate,
		Reminder:    in.Reminder,
		Attachments: append([]string(nil), in.Attachments...),
	}, nil
}
