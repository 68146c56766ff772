package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognitive-agent/backend/internal/compiler"
	"github.com/cognitive-agent/backend/internal/loop"
	"github.com/cognitive-agent/backend/internal/source"
	"github.com/cognitive-agent/backend/internal/validation"
)

const handlerArticle = `Machine learning models depend on training data quality.
Training data quality shapes how machine learning models generalize to new datasets.
Neural networks are machine learning models trained on curated datasets.
Dataset curation and training data quality drive neural networks research.`

type fixedAdapter struct {
	name string
}

func (f *fixedAdapter) Name() string { return f.name }

func (f *fixedAdapter) Search(context.Context, string, int) ([]source.Result, error) {
	return []source.Result{
		{URL: "https://example.org/one", Title: "One", Content: handlerArticle, RelevanceScore: 0.9},
		{URL: "https://example.org/two", Title: "Two", Content: handlerArticle, RelevanceScore: 0.8},
	}, nil
}

func newTestApp() (*fiber.App, *loop.Orchestrator) {
	registry := source.NewRegistryFromAdapters(&fixedAdapter{name: "mock"})
	limiter := source.NewLimiter(1000, time.Minute)
	client := source.NewClient(registry, limiter, 5*time.Second, 10)
	scorer := validation.NewScorer(validation.NewMemoryCache(time.Hour), 10)
	comp := compiler.New(compiler.Config{SimilarityThreshold: 0.01})

	orchestrator := loop.NewOrchestrator(client, scorer, comp, loop.Config{
		MaxIterations:        2,
		ConvergenceThreshold: 0.99,
		CredibilityThreshold: 0.1,
	})

	loopHandler := NewLoopHandler(orchestrator, nil)
	knowledgeHandler := NewKnowledgeHandler(comp)

	app := fiber.New()
	api := app.Group("/api/v1")
	api.Post("/loop", loopHandler.HandleLoop)
	api.Get("/loop/history", loopHandler.GetHistory)
	api.Get("/knowledge", knowledgeHandler.HandleQuery)
	api.Get("/stats", loopHandler.GetStats)
	api.Get("/health", loopHandler.HandleHealth)

	return app, orchestrator
}

func TestHandleLoop(t *testing.T) {
	app, _ := newTestApp()

	req := httptest.NewRequest("POST", "/api/v1/loop",
		strings.NewReader(`{"query":"training data quality"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, 30000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var result loop.Result
	require.NoError(t, json.Unmarshal(body, &result))
	assert.NotEmpty(t, result.LoopID)
	assert.Equal(t, "training data quality", result.Query)
	assert.Len(t, result.Iterations, 2)
}

func TestHandleLoopMissingQuery(t *testing.T) {
	app, _ := newTestApp()

	req := httptest.NewRequest("POST", "/api/v1/loop", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGetStats(t *testing.T) {
	app, orchestrator := newTestApp()

	_, err := orchestrator.Execute(context.Background(), "warmup query", loop.ExecuteContext{})
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/stats", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var stats loop.Stats
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, 1, stats.TotalLoops)
}

func TestGetHistoryFallsBackToMemory(t *testing.T) {
	app, orchestrator := newTestApp()

	_, err := orchestrator.Execute(context.Background(), "remembered query", loop.ExecuteContext{})
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/loop/history", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "remembered query")
}

func TestHandleHealth(t *testing.T) {
	app, _ := newTestApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestKnowledgeQueryRequiresConcept(t *testing.T) {
	app, _ := newTestApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/knowledge", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestKnowledgeQueryAfterLoop(t *testing.T) {
	app, orchestrator := newTestApp()

	_, err := orchestrator.Execute(context.Background(), "neural networks", loop.ExecuteContext{})
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/knowledge?concept=training&include_concepts=true", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "graph_size")
}
