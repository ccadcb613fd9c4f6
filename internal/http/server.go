// Package http exposes the finance tracker over a JSON REST API.
// Handlers stay thin: decode, call the owning service, map the
// domain error to a status code. Aggregate endpoints sit behind
// small LRU caches that are purged wholesale on every mutation.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/charts"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

// Services bundles the application services the API fronts.
type Services struct {
	Transactions *services.TransactionService
	Budgets      *services.BudgetService
	Bills        *services.BillService
	Goals        *services.GoalService
	Dashboard    *services.DashboardService
}

// Options tunes the server's middleware and caches.
type Options struct {
	RateLimitRPM int
	CacheTTL     time.Duration
}

type Server struct {
	http.Server

	svc    Services
	charts *charts.Generator

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	summaryCache *cache.LRUCache[services.Summary]
	monthlyCache *cache.LRUCache[[]core.MonthlyTotal]
	cacheManager *cache.Manager

	logger       *applog.Logger
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a server ready for
// ListenAndServe.
func NewServer(addr string, svc Services, logger *applog.Logger, opts Options) *Server {
	if opts.RateLimitRPM <= 0 {
		opts.RateLimitRPM = ratelimit.DefaultConfig().RequestsPerMinute
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Second
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	detector := security.NewDetector()
	s := &Server{
		svc:      svc,
		charts:   charts.NewGenerator(),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitRPM, CleanupInterval: 5 * time.Minute}),
		detector: detector,
		tracer:   trace.NewMiddleware(detector.ExtractClientIP, logger),

		summaryCache: cache.NewLRUCache[services.Summary](100, opts.CacheTTL),
		monthlyCache: cache.NewLRUCache[[]core.MonthlyTotal](100, opts.CacheTTL),
		cacheManager: cache.NewManager(),

		logger: logger.WithComponent(applog.ComponentHTTP),
	}
	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.Register(s.monthlyCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)
	mux.HandleFunc("GET /debug/metrics", s.handleMetrics)

	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("POST /api/budgets", s.handleCreateBudget)
	mux.HandleFunc("GET /api/budgets", s.handleListBudgets)
	mux.HandleFunc("GET /api/budgets/{id}", s.handleGetBudget)
	mux.HandleFunc("PUT /api/budgets/{id}", s.handleUpdateBudget)
	mux.HandleFunc("DELETE /api/budgets/{id}", s.handleDeleteBudget)
	mux.HandleFunc("POST /api/budgets/{id}/refresh", s.handleRefreshBudget)
	mux.HandleFunc("GET /api/budgets/{id}/status", s.handleBudgetStatus)

	mux.HandleFunc("POST /api/bills", s.handleCreateBill)
	mux.HandleFunc("GET /api/bills", s.handleListBills)
	mux.HandleFunc("GET /api/bills/upcoming", s.handleUpcomingBills)
	mux.HandleFunc("GET /api/bills/{id}", s.handleGetBill)
	mux.HandleFunc("PUT /api/bills/{id}", s.handleUpdateBill)
	mux.HandleFunc("DELETE /api/bills/{id}", s.handleDeleteBill)
	mux.HandleFunc("POST /api/bills/{id}/pay", s.handlePayBill)
	mux.HandleFunc("POST /api/bills/{id}/deactivate", s.handleDeactivateBill)

	mux.HandleFunc("POST /api/goals", s.handleCreateGoal)
	mux.HandleFunc("GET /api/goals", s.handleListGoals)
	mux.HandleFunc("GET /api/goals/{id}", s.handleGetGoal)
	mux.HandleFunc("PUT /api/goals/{id}", s.handleUpdateGoal)
	mux.HandleFunc("POST /api/goals/{id}/contribute", s.handleContributeGoal)
	mux.HandleFunc("POST /api/goals/{id}/withdraw", s.handleWithdrawGoal)
	mux.HandleFunc("POST /api/goals/{id}/archive", s.handleArchiveGoal)
	mux.HandleFunc("GET /api/goals/{id}/progress", s.handleGoalProgress)

	mux.HandleFunc("GET /api/dashboard/summary", s.handleDashboardSummary)
	mux.HandleFunc("GET /api/dashboard/monthly", s.handleDashboardMonthly)
	mux.HandleFunc("GET /api/dashboard/chart", s.handleDashboardChart)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.logger.Info("HTTP server configured", "addr", addr, "rate_limit_rpm", opts.RateLimitRPM, "cache_ttl", opts.CacheTTL.String())
	return s
}

// middleware is the outer chain: request ID and timing first, then
// security headers, then the request-scoped logger, then rate
// limiting on mutations.
func (s *Server) middleware(next http.Handler) http.Handler {
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
	})

	h := limitMutations(limited, next)
	h = s.flagSuspicious(h)
	h = applog.RequestIDMiddleware(func(r *http.Request) string { return trace.GetRequestID(r.Context()) })(h)
	h = applog.Middleware(s.logger)(h)
	h = headers.Middleware(h)
	h = s.tracer.Middleware(h)
	return h
}

// flagSuspicious logs requests matching known probe patterns. They
// are served normally; the signal feeds monitoring, not blocking.
func (s *Server) flagSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request detected",
				applog.FieldMethod, r.Method, applog.FieldPath, r.URL.Path, applog.FieldClientIP, s.detector.ExtractClientIP(r))
		}
		next.ServeHTTP(w, r)
	})
}

// limitMutations applies the rate limiter to writes only; reads are
// cheap and cached.
func limitMutations(limited func(http.Handler) http.Handler, next http.Handler) http.Handler {
	guarded := limited(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
			guarded.ServeHTTP(w, r)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// invalidateCaches drops the cached aggregates after any mutation.
// Mutations are rare relative to dashboard reads, so a full purge is
// simpler than per-owner tracking.
func (s *Server) invalidateCaches() {
	s.summaryCache.Purge()
	s.monthlyCache.Purge()
}

// Shutdown stops background cleanup goroutines and then drains the
// HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// handleMetrics exposes middleware counters for operational checks.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"requests":  s.tracer.GetMetrics(),
		"rateLimit": s.limiter.GetMetrics(),
		"security":  s.detector.GetMetrics(),
	})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
