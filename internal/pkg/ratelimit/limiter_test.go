package ratelimit

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wingmanmatch/wingman/internal/pkg/cache"
)

func newTestLimiter() *Limiter {
	mem := cache.NewMemoryCache()
	logger := logrus.New()
	logger.SetOutput(discardWriter{})
	return NewLimiter(mem, logrus.NewEntry(logger))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestChatBucketAllowsBurstThenDenies(t *testing.T) {
	l := newTestLimiter()
	ctx := context.Background()

	// chat policy: capacity=1, refill=2/s
	r1, err := l.Consume(ctx, "chat", "user1", 1)
	require.NoError(t, err)
	assert.True(t, r1.Allowed)

	r2, err := l.Consume(ctx, "chat", "user1", 1)
	require.NoError(t, err)
	assert.False(t, r2.Allowed)
	assert.Greater(t, r2.RetryAfterSeconds, 0.0)
}

func TestUnknownPolicyFailsOpen(t *testing.T) {
	l := newTestLimiter()
	ctx := context.Background()

	r, err := l.Consume(ctx, "nonexistent", "user1", 1)
	require.Error(t, err)
	assert.True(t, r.Allowed)
}

func TestDistinctIdentifiersHaveIndependentBuckets(t *testing.T) {
	l := newTestLimiter()
	ctx := context.Background()

	r1, err := l.Consume(ctx, "chat", "userA", 1)
	require.NoError(t, err)
	assert.True(t, r1.Allowed)

	r2, err := l.Consume(ctx, "chat", "userB", 1)
	require.NoError(t, err)
	assert.True(t, r2.Allowed)
}
