package handlers

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/cognitive-agent/backend/internal/loop"
	"github.com/cognitive-agent/backend/internal/source"
	"github.com/cognitive-agent/backend/internal/storage/models"
	"github.com/cognitive-agent/backend/pkg/logger"
)

// HistoryStore reads persisted loop history. Optional; the handler falls
// back to the orchestrator's in-memory history when absent.
type HistoryStore interface {
	GetLoopHistory(ctx context.Context, limit int) ([]models.LoopRecord, error)
}

type LoopHandler struct {
	orchestrator *loop.Orchestrator
	store        HistoryStore
}

func NewLoopHandler(orchestrator *loop.Orchestrator, store HistoryStore) *LoopHandler {
	return &LoopHandler{
		orchestrator: orchestrator,
		store:        store,
	}
}

type loopRequest struct {
	Query      string   `json:"query"`
	Sources    []string `json:"sources"`
	MaxResults int      `json:"max_results"`
	KnownFacts []string `json:"known_facts"`
}

func (h *LoopHandler) HandleLoop(c *fiber.Ctx) error {
	var req loopRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query is required",
		})
	}

	result, err := h.orchestrator.Execute(c.Context(), req.Query, loop.ExecuteContext{
		SearchOptions: source.Options{
			Sources:    req.Sources,
			MaxResults: req.MaxResults,
		},
		KnownFacts: req.KnownFacts,
	})
	if err != nil {
		logger.Error("Loop execution failed", zap.String("query", req.Query), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to execute loop",
		})
	}

	return c.JSON(result)
}

func (h *LoopHandler) GetStats(c *fiber.Ctx) error {
	return c.JSON(h.orchestrator.GetLearningStats())
}

func (h *LoopHandler) GetHistory(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	if h.store != nil {
		records, err := h.store.GetLoopHistory(c.Context(), limit)
		if err != nil {
			logger.Error("Failed to read loop history", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to read history",
			})
		}
		return c.JSON(fiber.Map{"history": records})
	}

	results := h.orchestrator.History(limit)
	history := make([]fiber.Map, 0, len(results))
	for _, result := range results {
		history = append(history, fiber.Map{
			"loop_id":    result.LoopID,
			"query":      result.Query,
			"iterations": len(result.Iterations),
			"converged":  result.Converged,
			"cancelled":  result.Cancelled,
			"summary":    result.Knowledge.Summary,
			"timestamp":  result.Timestamp,
		})
	}
	return c.JSON(fiber.Map{"history": history})
}

func (h *LoopHandler) HandleHealth(c *fiber.Ctx) error {
	health := h.orchestrator.HealthCheck(c.Context())

	status := fiber.StatusOK
	if health.Status == loop.StatusUnhealthy {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(health)
}
