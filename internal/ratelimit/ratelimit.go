package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/amishk599/jobscout/internal/model"
)

// BackendLimiter enforces a minimum delay between requests to the same
// backend (an ATS, a portal host). Each backend gets its own token bucket.
type BackendLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
}

// NewBackendLimiter creates a limiter that allows one request per minDelay
// for each backend. A zero minDelay disables limiting.
func NewBackendLimiter(minDelay time.Duration) *BackendLimiter {
	limit := rate.Inf
	if minDelay > 0 {
		limit = rate.Every(minDelay)
	}
	return &BackendLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
	}
}

func (l *BackendLimiter) limiterFor(backend string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.limiters[backend]; ok {
		return lim
	}
	lim := rate.NewLimiter(l.limit, 1)
	l.limiters[backend] = lim
	return lim
}

// Wait blocks until a request to backend is allowed.
func (l *BackendLimiter) Wait(ctx context.Context, backend string) error {
	if err := l.limiterFor(backend).Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait for %s: %w", backend, err)
	}
	return nil
}

// RateLimitedSource is a decorator that enforces backend-level rate limiting
// before delegating to the wrapped Source.
type RateLimitedSource struct {
	inner   model.Source
	limiter *BackendLimiter
	backend string
}

// NewRateLimitedSource wraps a Source with backend-level rate limiting.
// All sources targeting the same backend should share one limiter.
func NewRateLimitedSource(inner model.Source, limiter *BackendLimiter, backend string) *RateLimitedSource {
	return &RateLimitedSource{
		inner:   inner,
		limiter: limiter,
		backend: backend,
	}
}

// Name returns the wrapped source name.
func (s *RateLimitedSource) Name() string { return s.inner.Name() }

// Close closes the wrapped source.
func (s *RateLimitedSource) Close() error { return s.inner.Close() }

// SupportsSince forwards the wrapped source's capability.
func (s *RateLimitedSource) SupportsSince() bool { return model.SupportsSince(s.inner) }

// Fetch waits for the limiter, then delegates to the wrapped source.
func (s *RateLimitedSource) Fetch(ctx context.Context, since *time.Time) ([]model.RawJob, error) {
	if err := s.limiter.Wait(ctx, s.backend); err != nil {
		return nil, err
	}
	return s.inner.Fetch(ctx, since)
}
