// Package retry decorates sources so that transient upstream failures are
// retried with exponential backoff before a run gives up on the source.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/amishk599/jobscout/internal/model"
)

// maxBackoff bounds any single wait, including server Retry-After hints.
const maxBackoff = 2 * time.Minute

// RetrySource wraps a model.Source and re-issues failed fetches that look
// transient. Non-retryable errors are returned after the first attempt.
type RetrySource struct {
	inner      model.Source
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewRetrySource allows up to maxRetries extra attempts. The first retry
// waits about baseDelay and each later one doubles it.
func NewRetrySource(inner model.Source, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *RetrySource {
	return &RetrySource{
		inner:      inner,
		maxRetries: max(maxRetries, 0),
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

func (s *RetrySource) Name() string        { return s.inner.Name() }
func (s *RetrySource) Close() error        { return s.inner.Close() }
func (s *RetrySource) SupportsSince() bool { return model.SupportsSince(s.inner) }

// Fetch calls the wrapped source, passing the same since on every attempt.
func (s *RetrySource) Fetch(ctx context.Context, since *time.Time) ([]model.RawJob, error) {
	for attempt := 0; ; attempt++ {
		jobs, err := s.inner.Fetch(ctx, since)
		if err == nil {
			return jobs, nil
		}
		if attempt == s.maxRetries || !isRetryable(err) {
			return nil, err
		}

		delay := s.backoffDelay(attempt+1, err)
		s.logger.Warn("source fetch failed, retrying",
			"source", s.inner.Name(),
			"attempt", attempt+1,
			"max_retries", s.maxRetries,
			"delay", delay,
			"error", err,
		)
		if err := sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("retry %s: %w", s.inner.Name(), err)
		}
	}
}

// backoffDelay returns the wait before retry number attempt (1-based):
// baseDelay doubled per attempt with ±30% jitter, or the server's
// Retry-After when it sent one.
func (s *RetrySource) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return min(httpErr.RetryAfter, maxBackoff)
	}
	d := float64(s.baseDelay << (attempt - 1))
	d *= 0.7 + 0.6*rand.Float64()
	return min(time.Duration(d), maxBackoff)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// isRetryable treats network, DNS and decode failures as transient along
// with retryable HTTP statuses. Context errors never are.
func isRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Retryable()
	}
	return true
}
