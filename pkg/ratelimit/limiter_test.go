package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLimiterSpacing(t *testing.T) {
	limiter := NewRequestLimiter(50 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, limiter.Wait(ctx))
	require.NoError(t, limiter.Wait(ctx))
	require.NoError(t, limiter.Wait(ctx))

	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestRequestLimiterDisabled(t *testing.T) {
	limiter := NewRequestLimiter(0)
	for i := 0; i < 100; i++ {
		require.True(t, limiter.Allow())
	}
}

func TestRequestLimiterCancelled(t *testing.T) {
	limiter := NewRequestLimiter(time.Hour)
	require.True(t, limiter.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, limiter.Wait(ctx))
}

func TestPolitenessRange(t *testing.T) {
	p := NewPoliteness(3*time.Second, 5*time.Second)
	for i := 0; i < 200; i++ {
		d := p.Next()
		require.GreaterOrEqual(t, d, 3*time.Second)
		require.LessOrEqual(t, d, 5*time.Second)
	}
}

func TestPolitenessFixedAndInverted(t *testing.T) {
	assert.Equal(t, time.Second, NewPoliteness(time.Second, time.Second).Next())
	assert.Equal(t, 2*time.Second, NewPoliteness(2*time.Second, time.Second).Next())
	assert.Equal(t, time.Duration(0), (&Politeness{}).Next())
}

func TestPolitenessWaitCancelled(t *testing.T) {
	p := NewPoliteness(time.Hour, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := p.Wait(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Less(t, time.Since(start), time.Second)
}

func TestPolitenessZeroWait(t *testing.T) {
	p := NewPoliteness(0, 0)
	assert.NoError(t, p.Wait(context.Background()))
}
