package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// Limiter throttles requests across named tiers, each backed by its own
// token bucket. Exchanges enforce separate budgets for public market
// data and signed account endpoints, so the two must not share tokens.
type Limiter struct {
	mu      sync.RWMutex
	tiers   map[string]*rate.Limiter
	metrics *Metrics
}

// Metrics tracks statistics about limiter usage.
type Metrics struct {
	totalRequests   atomic.Int64
	allowedRequests atomic.Int64
	deniedRequests  atomic.Int64
}

// New creates a Limiter with no tiers. Requests against an unregistered
// tier pass through unthrottled.
func New() *Limiter {
	return &Limiter{
		tiers:   make(map[string]*rate.Limiter),
		metrics: &Metrics{},
	}
}

// SetTier registers or replaces a tier with the given sustained rate and
// burst capacity.
func (l *Limiter) SetTier(name string, perSecond, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tiers[name] = rate.NewLimiter(rate.Limit(perSecond), burst)
}

func (l *Limiter) tier(name string) *rate.Limiter {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tiers[name]
}

// Wait blocks until the tier's bucket allows a request or the context is
// cancelled.
func (l *Limiter) Wait(ctx context.Context, name string) error {
	l.metrics.totalRequests.Add(1)
	limiter := l.tier(name)
	if limiter == nil {
		l.metrics.allowedRequests.Add(1)
		return nil
	}
	if err := limiter.Wait(ctx); err != nil {
		l.metrics.deniedRequests.Add(1)
		return err
	}
	l.metrics.allowedRequests.Add(1)
	return nil
}

// Allow returns true if the tier's bucket permits a request immediately.
func (l *Limiter) Allow(name string) bool {
	l.metrics.totalRequests.Add(1)
	limiter := l.tier(name)
	if limiter == nil {
		l.metrics.allowedRequests.Add(1)
		return true
	}
	allowed := limiter.Allow()
	if allowed {
		l.metrics.allowedRequests.Add(1)
	} else {
		l.metrics.deniedRequests.Add(1)
	}
	return allowed
}

// Tiers returns the names of the registered tiers.
func (l *Limiter) Tiers() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.tiers))
	for name := range l.tiers {
		names = append(names, name)
	}
	return names
}

// Metrics returns a snapshot of the current limiter statistics.
func (l *Limiter) Metrics() MetricsSnapshot {
	return MetricsSnapshot{
		TotalRequests:   l.metrics.totalRequests.Load(),
		AllowedRequests: l.metrics.allowedRequests.Load(),
		DeniedRequests:  l.metrics.deniedRequests.Load(),
	}
}

// MetricsSnapshot is a point-in-time capture of limiter statistics.
type MetricsSnapshot struct {
	// TotalRequests is the total number of rate limit checks performed.
	TotalRequests int64
	// AllowedRequests is the number of requests that were allowed.
	AllowedRequests int64
	// DeniedRequests is the number of requests denied or cancelled while
	// waiting.
	DeniedRequests int64
}
