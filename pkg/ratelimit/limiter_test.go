package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tcphotos/pkg/config"
)

func TestSlidingWindow(t *testing.T) {
	sw := NewSlidingWindow(3, 200*time.Millisecond)

	for i := 0; i < 3; i++ {
		assert.True(t, sw.allow(), "request %d should be allowed", i+1)
	}
	assert.False(t, sw.allow(), "fourth request should be throttled")

	time.Sleep(250 * time.Millisecond)
	assert.True(t, sw.allow(), "window should have slid")
	assert.Len(t, sw.requests, 1, "expired requests are dropped")
}

func TestSlidingWindowWait(t *testing.T) {
	sw := NewSlidingWindow(1, 100*time.Millisecond)
	require.True(t, sw.allow())

	start := time.Now()
	require.NoError(t, sw.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestSlidingWindowWaitCancelled(t *testing.T) {
	sw := NewSlidingWindow(1, time.Hour)
	require.True(t, sw.allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := sw.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFromSettings(t *testing.T) {
	l := FromSettings(config.RateLimitConfig{RequestsPerMinute: 0})
	assert.IsType(t, Unlimited{}, l)
	assert.NoError(t, l.Wait(context.Background()))

	l = FromSettings(config.RateLimitConfig{RequestsPerMinute: 2})
	sw, ok := l.(*SlidingWindow)
	require.True(t, ok)
	assert.Equal(t, 2, sw.maxRequests)
	assert.Equal(t, time.Minute, sw.windowSize)
}
