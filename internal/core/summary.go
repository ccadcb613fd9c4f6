package core

import (
	"sort"
	"time"
)

// CategoryTotal aggregates the transactions of one (category, type)
// pair over a period.
type CategoryTotal struct {
	Category string          `json:"category"`
	Type     TransactionType `json:"type"`
	Total    Money           `json:"total"`
	Count    int             `json:"count"`
	Average  Money           `json:"average"`
}

// MonthlyTotal aggregates one (month, type) pair within a year.
type MonthlyTotal struct {
	Month time.Month      `json:"month"`
	Type  TransactionType `json:"type"`
	Total Money           `json:"total"`
	Count int             `json:"count"`
}

// CategorySummary aggregates non-deleted transactions falling inside
// [start, end] by (category, type), sorted by total descending.
// Category name breaks ties for a stable order.
func CategorySummary(txns []Transaction, start, end time.Time) []CategoryTotal {
	type key struct {
		category string
		typ      TransactionType
	}
	acc := make(map[key]*CategoryTotal)
	for _, t := range txns {
		if t.Deleted || t.Date.Before(start) || t.Date.After(end) {
			continue
		}
		k := key{t.Category, t.Type}
		ct, ok := acc[k]
		if !ok {
			ct = &CategoryTotal{Category: t.Category, Type: t.Type}
			acc[k] = ct
		}
		ct.Total = ct.Total.Add(t.Amount)
		ct.Count++
	}

	out := make([]CategoryTotal, 0, len(acc))
	for _, ct := range acc {
		ct.Average = Money{Cents: ct.Total.Cents / int64(ct.Count)}
		out = append(out, *ct)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total.Cents != out[j].Total.Cents {
			return out[i].Total.Cents > out[j].Total.Cents
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// MonthlySummary aggregates non-deleted transactions of one calendar
// year by (month, type), sorted by month ascending.
func MonthlySummary(txns []Transaction, year int) []MonthlyTotal {
	type key struct {
		month time.Month
		typ   TransactionType
	}
	acc := make(map[key]*MonthlyTotal)
	for _, t := range txns {
		if t.Deleted || t.Date.Year() != year {
			continue
		}
		k := key{t.Date.Month(), t.Type}
		mt, ok := acc[k]
		if !ok {
			mt = &MonthlyTotal{Month: t.Date.Month(), Type: t.Type}
			acc[k] = mt
		}
		mt.Total = mt.Total.Add(t.Amount)
		mt.Count++
	}

	out := make([]MonthlyTotal, 0, len(acc))
	for _, mt := range acc {
		out = append(out, *mt)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month < out[j].Month
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// BudgetHealth classifies how much of a budget has been consumed.
type BudgetHealth string

const (
	OverBudget  BudgetHealth = "over-budget"
	Warning     BudgetHealth = "warning"
	OnTrack     BudgetHealth = "on-track"
	UnderBudget BudgetHealth = "under-budget"
)

// ClassifyBudget maps spent/budget to a health level. Thresholds are
// inclusive lower bounds checked from the top: >=100% over-budget,
// >=80% warning, >=50% on-track, otherwise under-budget. A zero
// budget with any spending counts as over-budget.
func ClassifyBudget(spent, budget Money) BudgetHealth {
	if budget.Cents <= 0 {
		if spent.Cents > 0 {
			return OverBudget
		}
		return UnderBudget
	}
	// Compare on cents to keep the boundaries exact: spent*100 >= budget*pct.
	switch {
	case spent.Cents*100 >= budget.Cents*100:
		return OverBudget
	case spent.Cents*100 >= budget.Cents*80:
		return Warning
	case spent.Cents*100 >= budget.Cents*50:
		return OnTrack
	default:
		return UnderBudget
	}
}

// ContributionVelocity returns the average saved cents per day since
// startDate. The elapsed time is floored at one day so a brand new
// goal does not divide by zero.
func ContributionVelocity(contributions []GoalEntry, startDate, now time.Time) float64 {
	var total int64
	for _, c := range contributions {
		total += c.Amount.Cents
	}
	days := now.Sub(startDate).Hours() / 24
	if days < 1 {
		days = 1
	}
	return float64(total) / days
}

// ProjectedCompletion estimates when the remaining amount will be
// saved at the given velocity (cents per day). ok is false when the
// velocity is not positive.
func ProjectedCompletion(remaining Money, centsPerDay float64, now time.Time) (time.Time, bool) {
	if centsPerDay <= 0 {
		return time.Time{}, false
	}
	if remaining.Cents <= 0 {
		return now, true
	}
	days := float64(remaining.Cents) / centsPerDay
	return now.Add(time.Duration(days * 24 * float64(time.Hour))), true
}
