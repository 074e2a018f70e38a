package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/jobscout/internal/model"
)

func TestWait_SameBackend_EnforcesMinDelay(t *testing.T) {
	limiter := NewBackendLimiter(100 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, limiter.Wait(ctx, "greenhouse"))

	start := time.Now()
	require.NoError(t, limiter.Wait(ctx, "greenhouse"))
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestWait_DifferentBackends_NoCrossBlocking(t *testing.T) {
	limiter := NewBackendLimiter(200 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, limiter.Wait(ctx, "greenhouse"))

	start := time.Now()
	require.NoError(t, limiter.Wait(ctx, "lever"))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestWait_ZeroDelayNeverBlocks(t *testing.T) {
	limiter := NewBackendLimiter(0)
	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.Wait(context.Background(), "hh"))
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestWait_ContextCancellation(t *testing.T) {
	limiter := NewBackendLimiter(5 * time.Second)
	require.NoError(t, limiter.Wait(context.Background(), "greenhouse"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := limiter.Wait(ctx, "greenhouse")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "greenhouse")
}

type stubSource struct {
	calls int
	since bool
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Close() error { return nil }

func (s *stubSource) SupportsSince() bool { return s.since }

func (s *stubSource) Fetch(context.Context, *time.Time) ([]model.RawJob, error) {
	s.calls++
	return []model.RawJob{{Title: "Analyst"}}, nil
}

func TestRateLimitedSource_DelegatesAndForwardsSince(t *testing.T) {
	inner := &stubSource{since: true}
	src := NewRateLimitedSource(inner, NewBackendLimiter(time.Millisecond), "lever")

	jobs, err := src.Fetch(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, "stub", src.Name())
	assert.True(t, model.SupportsSince(src))
}
