// Package ratelimit throttles clients by IP over a fixed one minute
// counting window.
package ratelimit

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Config holds rate limiter settings.
type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		CleanupInterval:   5 * time.Minute,
	}
}

// window counts requests from one client since its start time.
type window struct {
	start time.Time
	count int
}

// Limiter tracks per-client request counts. A client's window resets
// one minute after its first request, not on a global tick.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int

	rejected int64

	janitorEvery time.Duration
	stop         chan struct{}
	stopOnce     sync.Once
}

// NewLimiter creates a limiter and starts its cleanup goroutine.
// Call Stop when done.
func NewLimiter(cfg Config) *Limiter {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = DefaultConfig().RequestsPerMinute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultConfig().CleanupInterval
	}

	rl := &Limiter{
		windows:      make(map[string]*window),
		limit:        cfg.RequestsPerMinute,
		janitorEvery: cfg.CleanupInterval,
		stop:         make(chan struct{}),
	}
	go rl.janitor()
	return rl
}

// Allow reports whether a request from clientIP fits in its current
// window and records it.
func (rl *Limiter) Allow(clientIP string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w := rl.windows[clientIP]
	if w == nil || now.Sub(w.start) >= time.Minute {
		rl.windows[clientIP] = &window{start: now, count: 1}
		return true
	}

	w.count++
	if w.count > rl.limit {
		atomic.AddInt64(&rl.rejected, 1)
		return false
	}
	return true
}

// Middleware wraps a handler with rate limiting. onLimit handles
// rejected requests; when nil a plain 429 with Retry-After is written.
func (rl *Limiter) Middleware(extractIP func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.Allow(extractIP(r)) {
				if onLimit != nil {
					onLimit(w, r)
					return
				}
				w.Header().Set("Retry-After", "60")
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// janitor drops windows idle long enough that their counts can no
// longer matter.
func (rl *Limiter) janitor() {
	ticker := time.NewTicker(rl.janitorEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-10 * time.Minute)
			rl.mu.Lock()
			for ip, w := range rl.windows {
				if w.start.Before(cutoff) {
					delete(rl.windows, ip)
				}
			}
			rl.mu.Unlock()
		case <-rl.stop:
			return
		}
	}
}

// Stop terminates the cleanup goroutine. Safe to call more than once.
func (rl *Limiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// ActiveClients returns the number of clients currently tracked.
func (rl *Limiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}

// Metrics is a snapshot of limiter activity.
type Metrics struct {
	Rejected       int64 `json:"rejected"`
	TrackedClients int64 `json:"trackedClients"`
}

// GetMetrics returns current limiter metrics.
func (rl *Limiter) GetMetrics() Metrics {
	rl.mu.Lock()
	tracked := int64(len(rl.windows))
	rl.mu.Unlock()

	return Metrics{
		Rejected:       atomic.LoadInt64(&rl.rejected),
		TrackedClients: tracked,
	}
}
