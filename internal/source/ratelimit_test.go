package source

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterAllowsUpToWindowCapacity(t *testing.T) {
	limiter := NewLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Wait(ctx, "serpapi"))
	}
	assert.Equal(t, 3, limiter.InFlight("serpapi"))
}

func TestLimiterTracksSourcesIndependently(t *testing.T) {
	limiter := NewLimiter(1, time.Minute)
	ctx := context.Background()

	require.NoError(t, limiter.Wait(ctx, "serpapi"))
	require.NoError(t, limiter.Wait(ctx, "brave"))

	assert.Equal(t, 1, limiter.InFlight("serpapi"))
	assert.Equal(t, 1, limiter.InFlight("brave"))
}

func TestLimiterBlocksUntilOldestExpires(t *testing.T) {
	window := 150 * time.Millisecond
	limiter := NewLimiter(1, window)
	ctx := context.Background()

	require.NoError(t, limiter.Wait(ctx, "serpapi"))

	start := time.Now()
	require.NoError(t, limiter.Wait(ctx, "serpapi"))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond, "second request should wait for the window")
}

func TestLimiterWaitCancellable(t *testing.T) {
	limiter := NewLimiter(1, time.Minute)

	require.NoError(t, limiter.Wait(context.Background(), "serpapi"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := limiter.Wait(ctx, "serpapi")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLimiterExpiredEntriesFreeCapacity(t *testing.T) {
	window := 50 * time.Millisecond
	limiter := NewLimiter(2, window)
	ctx := context.Background()

	require.NoError(t, limiter.Wait(ctx, "duckduckgo"))
	require.NoError(t, limiter.Wait(ctx, "duckduckgo"))

	time.Sleep(window + 20*time.Millisecond)
	assert.Equal(t, 0, limiter.InFlight("duckduckgo"))

	require.NoError(t, limiter.Wait(ctx, "duckduckgo"))
}
