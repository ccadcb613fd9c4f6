package core

import (
	"testing"
	"time"
)

func tx(typ TransactionType, category string, cents int64, when time.Time) Transaction {
	return Transaction{
		ID:          category + when.String(),
		OwnerID:     "owner-1",
		Type:        typ,
		Amount:      Money{Cents: cents},
		Description: category,
		Category:    category,
		Date:        when,
	}
}

func TestCategorySummary(t *testing.T) {
	start := date(2024, 3, 1)
	end := date(2024, 3, 31)
	deleted := tx(Expense, "food", 9999, date(2024, 3, 10))
	deleted.Deleted = true

	txns := []Transaction{
		tx(Expense, "food", 2000, date(2024, 3, 5)),
		tx(Expense, "food", 1000, date(2024, 3, 20)),
		tx(Expense, "rent", 50000, date(2024, 3, 1)),
		tx(Income, "salary", 300000, date(2024, 3, 25)),
		tx(Expense, "travel", 4000, date(2024, 2, 28)), // outside range
		deleted, // tombstoned
	}

	got := CategorySummary(txns, start, end)
	if len(got) != 3 {
		t.Fatalf("expected 3 rows, got %d: %+v", len(got), got)
	}

	// Sorted by total descending.
	if got[0].Category != "salary" || got[0].Total.Cents != 300000 || got[0].Count != 1 {
		t.Fatalf("row 0 = %+v", got[0])
	}
	if got[1].Category != "rent" || got[1].Total.Cents != 50000 {
		t.Fatalf("row 1 = %+v", got[1])
	}
	if got[2].Category != "food" || got[2].Total.Cents != 3000 || got[2].Count != 2 {
		t.Fatalf("row 2 = %+v", got[2])
	}
	if got[2].Average.Cents != 1500 {
		t.Fatalf("food average = %d, want 1500", got[2].Average.Cents)
	}

	// Full-period totals equal the sum of matching non-deleted amounts.
	var sum int64
	for _, r := range got {
		sum += r.Total.Cents
	}
	if sum != 2000+1000+50000+300000 {
		t.Fatalf("total sum = %d", sum)
	}
}

func TestMonthlySummary(t *testing.T) {
	txns := []Transaction{
		tx(Expense, "food", 1000, date(2024, 1, 10)),
		tx(Expense, "food", 2000, date(2024, 1, 20)),
		tx(Income, "salary", 5000, date(2024, 1, 31)),
		tx(Expense, "food", 3000, date(2024, 6, 1)),
		tx(Expense, "food", 4000, date(2023, 6, 1)), // other year
	}

	got := MonthlySummary(txns, 2024)
	if len(got) != 3 {
		t.Fatalf("expected 3 rows, got %d: %+v", len(got), got)
	}
	if got[0].Month != time.January || got[0].Type != Expense || got[0].Total.Cents != 3000 || got[0].Count != 2 {
		t.Fatalf("row 0 = %+v", got[0])
	}
	if got[1].Month != time.January || got[1].Type != Income || got[1].Total.Cents != 5000 {
		t.Fatalf("row 1 = %+v", got[1])
	}
	if got[2].Month != time.June || got[2].Total.Cents != 3000 {
		t.Fatalf("row 2 = %+v", got[2])
	}
}

func TestClassifyBudget(t *testing.T) {
	budget := Money{Cents: 10000}
	cases := []struct {
		spent int64
		want  BudgetHealth
	}{
		{0, UnderBudget},
		{4999, UnderBudget},
		{5000, OnTrack},
		{7999, OnTrack},
		{8000, Warning},
		{9999, Warning},
		{10000, OverBudget},
		{15000, OverBudget},
	}
	for _, tc := range cases {
		if got := ClassifyBudget(Money{Cents: tc.spent}, budget); got != tc.want {
			t.Fatalf("ClassifyBudget(%d, 10000) = %s, want %s", tc.spent, got, tc.want)
		}
	}

	if got := ClassifyBudget(Money{Cents: 1}, Money{}); got != OverBudget {
		t.Fatalf("zero budget with spending = %s, want %s", got, OverBudget)
	}
	if got := ClassifyBudget(Money{}, Money{}); got != UnderBudget {
		t.Fatalf("zero budget without spending = %s, want %s", got, UnderBudget)
	}
}

func TestClassifyBudgetMonotonic(t *testing.T) {
	budget := Money{Cents: 123456}
	rank := map[BudgetHealth]int{UnderBudget: 0, OnTrack: 1, Warning: 2, OverBudget: 3}

	prev := -1
	for spent := int64(0); spent <= budget.Cents*2; spent += 1111 {
		r := rank[ClassifyBudget(Money{Cents: spent}, budget)]
		if r < prev {
			t.Fatalf("status rank decreased at spent=%d", spent)
		}
		prev = r
	}
}

func TestContributionVelocity(t *testing.T) {
	start := date(2024, 1, 1)
	now := date(2024, 1, 11) // 10 days
	log := []GoalEntry{
		{Amount: Money{Cents: 5000}},
		{Amount: Money{Cents: 5000}},
	}
	if got := ContributionVelocity(log, start, now); got != 1000 {
		t.Fatalf("velocity = %v, want 1000", got)
	}

	// Elapsed time floors at one day.
	if got := ContributionVelocity(log, now, now); got != 10000 {
		t.Fatalf("same-day velocity = %v, want 10000", got)
	}

	if got := ContributionVelocity(nil, start, now); got != 0 {
		t.Fatalf("empty log velocity = %v, want 0", got)
	}
}

func TestProjectedCompletion(t *testing.T) {
	now := date(2024, 1, 1)

	got, ok := ProjectedCompletion(Money{Cents: 10000}, 1000, now)
	if !ok {
		t.Fatal("expected a projection")
	}
	if want := date(2024, 1, 11); !got.Equal(want) {
		t.Fatalf("projection = %v, want %v", got, want)
	}

	if _, ok := ProjectedCompletion(Money{Cents: 10000}, 0, now); ok {
		t.Fatal("zero velocity should have no projection")
	}
	if _, ok := ProjectedCompletion(Money{Cents: 10000}, -5, now); ok {
		t.Fatal("negative velocity should have no projection")
	}

	got, ok = ProjectedCompletion(Money{}, 1000, now)
	if !ok || !got.Equal(now) {
		t.Fatalf("nothing remaining should project now, got %v ok=%v", got, ok)
	}
}
