package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(rl *RateLimiter) *fiber.App {
	app := fiber.New()
	app.Use(rl.Middleware())
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString("pong")
	})
	return app
}

func TestRateLimiterAllowsWithinBudget(t *testing.T) {
	rl := New(Config{MaxRequestsPerMinute: 5})
	defer rl.Stop()
	app := newTestApp(rl)

	for i := 0; i < 5; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
}

func TestRateLimiterRejectsOverBudget(t *testing.T) {
	rl := New(Config{MaxRequestsPerMinute: 2})
	defer rl.Stop()
	app := newTestApp(rl)

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestRateLimiterKeysByUserHeader(t *testing.T) {
	rl := New(Config{MaxRequestsPerMinute: 1})
	defer rl.Stop()
	app := newTestApp(rl)

	first := httptest.NewRequest("GET", "/ping", nil)
	first.Header.Set("X-User-ID", "alice")
	resp, err := app.Test(first)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	second := httptest.NewRequest("GET", "/ping", nil)
	second.Header.Set("X-User-ID", "bob")
	resp, err = app.Test(second)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode, "distinct users have distinct budgets")

	third := httptest.NewRequest("GET", "/ping", nil)
	third.Header.Set("X-User-ID", "alice")
	resp, err = app.Test(third)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestRateLimiterRefills(t *testing.T) {
	rl := New(Config{MaxRequestsPerMinute: 2, WindowDuration: 100 * time.Millisecond})
	defer rl.Stop()
	app := newTestApp(rl)

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	time.Sleep(120 * time.Millisecond)

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
