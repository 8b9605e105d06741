package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostRateLimiterBurst(t *testing.T) {
	l := NewHostRateLimiter(time.Hour, 2)
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "a.example"))
	require.NoError(t, l.Wait(ctx, "a.example"))

	// budget for a.example is spent; a different host is unaffected
	require.NoError(t, l.Wait(ctx, "b.example"))

	ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx, "a.example"))
}

func TestHostRateLimiterUnlimited(t *testing.T) {
	l := NewHostRateLimiter(0, 0)

	for i := 0; i < 10; i++ {
		require.NoError(t, l.Wait(context.Background(), "a.example"))
	}
}

func TestHostRateLimiterCancelled(t *testing.T) {
	l := NewHostRateLimiter(time.Hour, 1)
	require.NoError(t, l.Wait(context.Background(), "a.example"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, l.Wait(ctx, "a.example"))
}
