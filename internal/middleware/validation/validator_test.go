package validation

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp() *fiber.App {
	app := fiber.New()
	app.Use(Middleware(Config{MaxQueryLength: 100}))
	app.Post("/api/v1/loop", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func postLoop(t *testing.T, app *fiber.App, body, contentType string) int {
	t.Helper()

	req := httptest.NewRequest("POST", "/api/v1/loop", strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestValidRequestPasses(t *testing.T) {
	app := newTestApp()
	status := postLoop(t, app, `{"query":"how do neural networks learn"}`, "application/json")
	assert.Equal(t, fiber.StatusOK, status)
}

func TestMissingQueryRejected(t *testing.T) {
	app := newTestApp()
	assert.Equal(t, fiber.StatusBadRequest, postLoop(t, app, `{}`, "application/json"))
	assert.Equal(t, fiber.StatusBadRequest, postLoop(t, app, `{"query":"   "}`, "application/json"))
}

func TestMalformedJSONRejected(t *testing.T) {
	app := newTestApp()
	assert.Equal(t, fiber.StatusBadRequest, postLoop(t, app, `{"query":`, "application/json"))
}

func TestOverlongQueryRejected(t *testing.T) {
	app := newTestApp()
	long := `{"query":"` + strings.Repeat("a", 200) + `"}`
	assert.Equal(t, fiber.StatusBadRequest, postLoop(t, app, long, "application/json"))
}

func TestSuspiciousQueryRejected(t *testing.T) {
	app := newTestApp()
	assert.Equal(t, fiber.StatusBadRequest,
		postLoop(t, app, `{"query":"<script>alert(1)</script>"}`, "application/json"))
	assert.Equal(t, fiber.StatusBadRequest,
		postLoop(t, app, `{"query":"drop table users"}`, "application/json"))
}

func TestUnsupportedContentTypeRejected(t *testing.T) {
	app := newTestApp()
	assert.Equal(t, fiber.StatusUnsupportedMediaType,
		postLoop(t, app, "query=x", "application/x-www-form-urlencoded"))
}
