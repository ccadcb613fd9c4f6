package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	deps := services.Deps{Store: storage.NewMemoryStore()}
	s := NewServer(":0", Services{
		Transactions: services.NewTransactionService(deps),
		Budgets:      services.NewBudgetService(deps),
		Bills:        services.NewBillService(deps),
		Goals:        services.NewGoalService(deps),
		Dashboard:    services.NewDashboardService(deps),
	}, nil, Options{RateLimitRPM: 10000, CacheTTL: time.Minute})
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func doJSON(t *testing.T, s *Server, method, path, owner string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if owner != "" {
		req.Header.Set(ownerHeader, owner)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(dst))
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, s, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	doJSON(t, s, http.MethodGet, "/healthz", "", nil)

	rec := doJSON(t, s, http.MethodGet, "/debug/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.GreaterOrEqual(t, body["requests"]["totalRequests"], int64(1))
	assert.Contains(t, body, "rateLimit")
	assert.Contains(t, body, "security")
}

func TestTransactionLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/transactions", "alice", map[string]any{
		"type":        "expense",
		"amount":      "42.50",
		"description": "Groceries",
		"category":    "food",
		"date":        "2026-08-10",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created core.Transaction
	decodeBody(t, rec, &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, int64(4250), created.Amount.Cents)
	assert.Equal(t, int64(1), created.Version)

	rec = doJSON(t, s, http.MethodGet, "/api/transactions/"+created.ID, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Owner scoping: another caller sees 404, not 403.
	rec = doJSON(t, s, http.MethodGet, "/api/transactions/"+created.ID, "bob", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, s, http.MethodPut, "/api/transactions/"+created.ID, "alice", map[string]any{
		"type":        "expense",
		"amount":      "50.00",
		"description": "Groceries and household",
		"category":    "food",
		"date":        "2026-08-10",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated core.Transaction
	decodeBody(t, rec, &updated)
	assert.Equal(t, int64(5000), updated.Amount.Cents)
	assert.Equal(t, int64(2), updated.Version)

	rec = doJSON(t, s, http.MethodDelete, "/api/transactions/"+created.ID, "alice", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/transactions", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list listResponse[core.Transaction]
	decodeBody(t, rec, &list)
	assert.Zero(t, list.Count)
}

func TestMissingOwnerHeader(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/transactions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestValidationErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{
			name: "negative amount",
			body: map[string]any{"type": "expense", "amount": "-5.00", "description": "x", "category": "misc", "date": "2026-08-10"},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "unknown type",
			body: map[string]any{"type": "transfer", "amount": "5.00", "description": "x", "category": "misc", "date": "2026-08-10"},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "missing date",
			body: map[string]any{"type": "expense", "amount": "5.00", "description": "x", "category": "misc"},
			want: http.StatusUnprocessableEntity,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, s, http.MethodPost, "/api/transactions", "alice", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestMalformedJSONBody(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/transactions", bytes.NewBufferString("{not json"))
	req.Header.Set(ownerHeader, "alice")
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBudgetDuplicatePeriod(t *testing.T) {
	s := newTestServer(t)

	body := map[string]any{
		"name":  "August",
		"month": 8,
		"year":  2026,
		"categories": []map[string]any{
			{"category": "food", "budgetAmount": "400.00"},
		},
	}
	rec := doJSON(t, s, http.MethodPost, "/api/budgets", "alice", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, s, http.MethodPost, "/api/budgets", "alice", body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// A different owner may reuse the period.
	rec = doJSON(t, s, http.MethodPost, "/api/budgets", "bob", body)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestBillPayFlow(t *testing.T) {
	s := newTestServer(t)

	// A monthly bill rolls over to a fresh pending cycle when paid.
	rec := doJSON(t, s, http.MethodPost, "/api/bills", "alice", map[string]any{
		"name":      "Electricity",
		"amount":    "80.00",
		"category":  "utilities",
		"dueDate":   "2026-09-15",
		"frequency": "monthly",
		"reminder":  map[string]any{"enabled": true, "days_before": 3},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var monthly core.Bill
	decodeBody(t, rec, &monthly)

	rec = doJSON(t, s, http.MethodPost, fmt.Sprintf("/api/bills/%s/pay", monthly.ID), "alice", map[string]any{
		"amount": "80.00",
		"method": "card",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var rolled core.Bill
	decodeBody(t, rec, &rolled)
	assert.False(t, rolled.IsPaid)
	assert.Len(t, rolled.Payments, 1)
	assert.True(t, rolled.NextDueDate.After(monthly.NextDueDate))

	// A one-time bill deactivates once paid; paying again is refused.
	rec = doJSON(t, s, http.MethodPost, "/api/bills", "alice", map[string]any{
		"name":      "Car registration",
		"amount":    "120.00",
		"category":  "transport",
		"dueDate":   "2026-10-01",
		"frequency": "once",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var once core.Bill
	decodeBody(t, rec, &once)

	rec = doJSON(t, s, http.MethodPost, fmt.Sprintf("/api/bills/%s/pay", once.ID), "alice", map[string]any{
		"amount": "120.00",
		"method": "card",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var settled core.Bill
	decodeBody(t, rec, &settled)
	assert.True(t, settled.IsPaid)
	assert.False(t, settled.IsActive)

	rec = doJSON(t, s, http.MethodPost, fmt.Sprintf("/api/bills/%s/pay", once.ID), "alice", map[string]any{
		"amount": "120.00",
		"method": "card",
	})
	assert.Equal(t, http.StatusConflict, rec.Code, "paying a settled one-time bill")
}

func TestBillPayWithoutAmount(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/bills", "alice", map[string]any{
		"name":      "Internet",
		"amount":    "55.00",
		"category":  "utilities",
		"dueDate":   "2026-09-10",
		"frequency": "monthly",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var bill core.Bill
	decodeBody(t, rec, &bill)

	// Omitting the amount pays the scheduled amount in full.
	rec = doJSON(t, s, http.MethodPost, fmt.Sprintf("/api/bills/%s/pay", bill.ID), "alice", map[string]any{})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var paid core.Bill
	decodeBody(t, rec, &paid)
	require.Len(t, paid.Payments, 1)
	assert.Equal(t, int64(5500), paid.Payments[0].Amount.Cents)
}

func TestGoalContributeAndProgress(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/goals", "alice", map[string]any{
		"name":         "Emergency fund",
		"type":         "emergency",
		"targetAmount": "1000.00",
		"targetDate":   time.Now().UTC().AddDate(1, 0, 0).Format("2006-01-02"),
		"category":     "savings",
		"priority":     "high",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var goal core.Goal
	decodeBody(t, rec, &goal)

	rec = doJSON(t, s, http.MethodPost, fmt.Sprintf("/api/goals/%s/contribute", goal.ID), "alice", map[string]any{
		"amount": "250.00",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var after core.Goal
	decodeBody(t, rec, &after)
	assert.Equal(t, int64(25000), after.CurrentAmount.Cents)

	rec = doJSON(t, s, http.MethodGet, fmt.Sprintf("/api/goals/%s/progress", goal.ID), "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var progress services.GoalProgress
	decodeBody(t, rec, &progress)
	assert.InDelta(t, 25.0, progress.Percent, 0.01)
	assert.Equal(t, int64(75000), progress.RemainingCents)

	rec = doJSON(t, s, http.MethodPost, fmt.Sprintf("/api/goals/%s/withdraw", goal.ID), "alice", map[string]any{
		"amount": "5000.00",
		"reason": "overdraw",
	})
	assert.Equal(t, http.StatusConflict, rec.Code, "withdrawing more than the balance")

	rec = doJSON(t, s, http.MethodPost, fmt.Sprintf("/api/goals/%s/archive", goal.ID), "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestDashboardSummaryCaching(t *testing.T) {
	s := newTestServer(t)

	today := time.Now().UTC().Format("2006-01-02")
	post := func(amount string) {
		rec := doJSON(t, s, http.MethodPost, "/api/transactions", "alice", map[string]any{
			"type":        "expense",
			"amount":      amount,
			"description": "x",
			"category":    "misc",
			"date":        today,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	post("10.00")

	rec := doJSON(t, s, http.MethodGet, "/api/dashboard/summary", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var first services.Summary
	decodeBody(t, rec, &first)
	assert.Equal(t, int64(1000), first.TotalExpenses.Cents)

	// A mutation purges the cache, so the next read sees the new total.
	post("5.00")
	rec = doJSON(t, s, http.MethodGet, "/api/dashboard/summary", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var second services.Summary
	decodeBody(t, rec, &second)
	assert.Equal(t, int64(1500), second.TotalExpenses.Cents)
}

func TestDashboardSummaryInvalidatedByBillPay(t *testing.T) {
	s := newTestServer(t)

	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
	rec := doJSON(t, s, http.MethodPost, "/api/bills", "alice", map[string]any{
		"name":      "Rent",
		"amount":    "900.00",
		"category":  "housing",
		"dueDate":   tomorrow,
		"frequency": "monthly",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var bill core.Bill
	decodeBody(t, rec, &bill)

	rec = doJSON(t, s, http.MethodGet, "/api/dashboard/summary", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var before services.Summary
	decodeBody(t, rec, &before)
	require.Len(t, before.UpcomingBills, 1)

	// Paying rolls the bill a month ahead, out of the upcoming window;
	// the cached summary must not outlive the mutation.
	rec = doJSON(t, s, http.MethodPost, fmt.Sprintf("/api/bills/%s/pay", bill.ID), "alice", map[string]any{})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, s, http.MethodGet, "/api/dashboard/summary", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var after services.Summary
	decodeBody(t, rec, &after)
	assert.Empty(t, after.UpcomingBills)
}

func TestDashboardChartUnknownKind(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/dashboard/chart?kind=pie", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboardChartEmptyData(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/dashboard/chart?kind=categories", "alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
