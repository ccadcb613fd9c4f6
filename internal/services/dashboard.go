package services

import (
	"context"
	"time"

	"fintrack/internal/core"
)

// DashboardService assembles the read-only aggregate views.
type DashboardService struct {
	deps Deps
}

func NewDashboardService(deps Deps) *DashboardService {
	return &DashboardService{deps: deps}
}

// Summary is the dashboard overview for a date range.
type Summary struct {
	Start         time.Time            `json:"start"`
	End           time.Time            `json:"end"`
	TotalIncome   core.Money           `json:"total_income"`
	TotalExpenses core.Money           `json:"total_expenses"`
	Net           core.Money           `json:"net"`
	Categories    []core.CategoryTotal `json:"categories"`
	UpcomingBills []BillWithStatus     `json:"upcoming_bills"`
	ActiveGoals   int                  `json:"active_goals"`
}

// BuildSummary aggregates income, expenses and per-category totals
// over [start, end], plus the bills due in the next week and the
// count of active goals.
func (s *DashboardService) BuildSummary(ctx context.Context, ownerID string, start, end time.Time) (Summary, error) {
	txs, err := s.deps.Store.ListTransactions(ctx, TransactionFilter{
		OwnerID: ownerID,
		Start:   start,
		End:     end,
	})
	if err != nil {
		return Summary{}, err
	}

	out := Summary{Start: start, End: end}
	for _, tx := range txs {
		if tx.Deleted {
			continue
		}
		switch tx.Type {
		case core.Income:
			out.TotalIncome = out.TotalIncome.Add(tx.Amount)
		case core.Expense:
			out.TotalExpenses = out.TotalExpenses.Add(tx.Amount)
		}
	}
	out.Net = out.TotalIncome.Sub(out.TotalExpenses)
	out.Categories = core.CategorySummary(txs, start, end)

	now := s.deps.now()
	bills, err := s.deps.Store.ListBills(ctx, ownerID, true)
	if err != nil {
		return Summary{}, err
	}
	horizon := now.Add(7 * 24 * time.Hour)
	for _, b := range bills {
		if b.IsPaid || b.NextDueDate.After(horizon) {
			continue
		}
		out.UpcomingBills = append(out.UpcomingBills, BillWithStatus{Bill: b, Status: b.StatusAt(now)})
	}

	goals, err := s.deps.Store.ListGoals(ctx, ownerID, false)
	if err != nil {
		return Summary{}, err
	}
	for _, g := range goals {
		if g.Status == core.GoalActive {
			out.ActiveGoals++
		}
	}
	return out, nil
}

// Monthly aggregates transactions of a calendar year into per-month,
// per-type rows.
func (s *DashboardService) Monthly(ctx context.Context, ownerID string, year int) ([]core.MonthlyTotal, error) {
	start := monthStart(year, 1)
	end := monthStart(year+1, 1).Add(-time.Nanosecond)
	txs, err := s.deps.Store.ListTransactions(ctx, TransactionFilter{
		OwnerID: ownerID,
		Start:   start,
		End:     end,
	})
	if err != nil {
		return nil, err
	}
	return core.MonthlySummary(txs, year), nil
}

// CategoryBreakdown returns per-category expense totals for a date
// range, largest first. Used by the chart endpoint.
func (s *DashboardService) CategoryBreakdown(ctx context.Context, ownerID string, start, end time.Time) ([]core.CategoryTotal, error) {
	txs, err := s.deps.Store.ListTransactions(ctx, TransactionFilter{
		OwnerID: ownerID,
		Start:   start,
		End:     end,
		Type:    core.Expense,
	})
	if err != nil {
		return nil, err
	}
	return core.CategorySummary(txs, start, end), nil
}
