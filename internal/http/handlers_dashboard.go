package http

import (
	"fmt"
	"net/http"
	"time"
)

// handleDashboardSummary serves the overview for a date range,
// defaulting to the current calendar month. Responses are cached per
// owner and range until the next mutation.
func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	now := time.Now().UTC()
	defaultStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	defaultEnd := defaultStart.AddDate(0, 1, 0).Add(-time.Nanosecond)

	start, err := queryDate(r, "start", defaultStart)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid start date, want YYYY-MM-DD")
		return
	}
	end, err := queryDate(r, "end", defaultEnd)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid end date, want YYYY-MM-DD")
		return
	}

	key := fmt.Sprintf("%s|%s|%s", owner, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if cached, hit := s.summaryCache.Get(key); hit {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	summary, err := s.svc.Dashboard.BuildSummary(r.Context(), owner, start, end)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.summaryCache.Set(key, summary)
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleDashboardMonthly(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	year, err := queryInt(r, "year", time.Now().UTC().Year())
	if err != nil || year < 1970 {
		writeError(w, r, http.StatusBadRequest, "invalid year parameter")
		return
	}

	key := fmt.Sprintf("%s|%d", owner, year)
	if cached, hit := s.monthlyCache.Get(key); hit {
		writeJSON(w, http.StatusOK, newListResponse(cached))
		return
	}

	totals, err := s.svc.Dashboard.Monthly(r.Context(), owner, year)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.monthlyCache.Set(key, totals)
	writeJSON(w, http.StatusOK, newListResponse(totals))
}

// handleDashboardChart renders a PNG. The kind parameter selects the
// chart: categories (expense breakdown), monthly (income vs expenses
// for a year) or goals (progress bars).
func (s *Server) handleDashboardChart(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	var (
		png []byte
		err error
	)
	switch kind := r.URL.Query().Get("kind"); kind {
	case "", "categories":
		now := time.Now().UTC()
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
		if start, err = queryDate(r, "start", start); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid start date, want YYYY-MM-DD")
			return
		}
		if end, err = queryDate(r, "end", end); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid end date, want YYYY-MM-DD")
			return
		}
		totals, berr := s.svc.Dashboard.CategoryBreakdown(r.Context(), owner, start, end)
		if berr != nil {
			writeDomainError(w, r, berr)
			return
		}
		png, err = s.charts.CategoryBreakdown(totals)
	case "monthly":
		year, yerr := queryInt(r, "year", time.Now().UTC().Year())
		if yerr != nil || year < 1970 {
			writeError(w, r, http.StatusBadRequest, "invalid year parameter")
			return
		}
		totals, merr := s.svc.Dashboard.Monthly(r.Context(), owner, year)
		if merr != nil {
			writeDomainError(w, r, merr)
			return
		}
		png, err = s.charts.MonthlyTrend(year, totals)
	case "goals":
		goals, gerr := s.svc.Goals.List(r.Context(), owner, false)
		if gerr != nil {
			writeDomainError(w, r, gerr)
			return
		}
		png, err = s.charts.GoalProgress(goals)
	default:
		writeError(w, r, http.StatusBadRequest, "unknown chart kind")
		return
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if png == nil {
		writeError(w, r, http.StatusNotFound, "no data to chart")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
