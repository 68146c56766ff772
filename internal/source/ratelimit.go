package source

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cognitive-agent/backend/pkg/logger"
)

// maxWaitSlice bounds a single sleep so a stale window never parks a
// caller longer than this before re-checking.
const maxWaitSlice = 5 * time.Second

// Limiter is a per-source sliding-window rate limiter. A full window makes
// Wait block until the oldest recorded request ages out, then re-check.
type Limiter struct {
	mu          sync.Mutex
	windows     map[string][]time.Time
	maxRequests int
	window      time.Duration
}

func NewLimiter(maxRequests int, window time.Duration) *Limiter {
	if maxRequests <= 0 {
		maxRequests = 100
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		windows:     make(map[string][]time.Time),
		maxRequests: maxRequests,
		window:      window,
	}
}

// Wait blocks until the named source has window capacity or ctx is done.
// The slot is claimed before returning, so concurrent waiters cannot
// overshoot the window.
func (l *Limiter) Wait(ctx context.Context, sourceName string) error {
	for {
		wait, ok := l.tryAcquire(sourceName)
		if ok {
			return nil
		}

		if wait > maxWaitSlice {
			wait = maxWaitSlice
		}
		if wait <= 0 {
			wait = time.Millisecond
		}

		logger.Debug("Rate limit window full, waiting",
			zap.String("source", sourceName),
			zap.Duration("wait", wait),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// tryAcquire claims a slot if one is free. When the window is full it
// returns the time until the oldest entry expires.
func (l *Limiter) tryAcquire(sourceName string) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-l.window)

	entries := l.windows[sourceName]
	live := entries[:0]
	for _, t := range entries {
		if t.After(cutoff) {
			live = append(live, t)
		}
	}

	if len(live) < l.maxRequests {
		l.windows[sourceName] = append(live, now)
		return 0, true
	}

	l.windows[sourceName] = live
	return live[0].Add(l.window).Sub(now), false
}

// InFlight reports how many requests are currently inside the window for a
// source. Used by health checks and tests.
func (l *Limiter) InFlight(sourceName string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-l.window)
	count := 0
	for _, t := range l.windows[sourceName] {
		if t.After(cutoff) {
			count++
		}
	}
	return count
}
