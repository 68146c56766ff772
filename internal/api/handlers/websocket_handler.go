package handlers

import (
	"context"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/cognitive-agent/backend/internal/loop"
	"github.com/cognitive-agent/backend/internal/source"
	"github.com/cognitive-agent/backend/pkg/logger"
)

// WebSocketHandler streams loop progress: one message per completed
// iteration, then a final result message.
type WebSocketHandler struct {
	orchestrator *loop.Orchestrator
}

func NewWebSocketHandler(orchestrator *loop.Orchestrator) *WebSocketHandler {
	return &WebSocketHandler{orchestrator: orchestrator}
}

type wsRequest struct {
	Type       string   `json:"type"`
	Query      string   `json:"query"`
	Sources    []string `json:"sources"`
	KnownFacts []string `json:"known_facts"`
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")
	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg wsRequest
		if err := c.ReadJSON(&msg); err != nil {
			logger.Debug("WebSocket read ended", zap.Error(err))
			break
		}

		if msg.Type != "loop" || msg.Query == "" {
			h.send(c, map[string]interface{}{
				"type":  "error",
				"error": "Expected a loop message with a query",
			})
			continue
		}

		if err := h.runLoop(c, msg); err != nil {
			logger.Error("WebSocket loop failed", zap.Error(err))
			h.send(c, map[string]interface{}{
				"type":  "error",
				"error": "Failed to execute loop",
			})
		}
	}
}

func (h *WebSocketHandler) runLoop(c *websocket.Conn, msg wsRequest) error {
	h.send(c, map[string]interface{}{
		"type":  "status",
		"query": msg.Query,
	})

	// Execute runs synchronously, so iteration messages are written in
	// order from this goroutine only.
	result, err := h.orchestrator.Execute(context.Background(), msg.Query, loop.ExecuteContext{
		SearchOptions: source.Options{Sources: msg.Sources},
		KnownFacts:    msg.KnownFacts,
		OnIteration: func(record loop.IterationRecord) {
			h.send(c, map[string]interface{}{
				"type":              "iteration",
				"iteration":         record.Iteration,
				"query":             record.Query,
				"sources_found":     record.SourcesFound,
				"sources_validated": record.SourcesValidated,
				"abstraction_count": record.AbstractionCount,
			})
		},
	})
	if err != nil {
		return err
	}

	return c.WriteJSON(map[string]interface{}{
		"type":       "complete",
		"loop_id":    result.LoopID,
		"iterations": len(result.Iterations),
		"converged":  result.Converged,
		"cancelled":  result.Cancelled,
		"summary":    result.Knowledge.Summary,
		"metrics":    result.Metrics,
	})
}

func (h *WebSocketHandler) send(c *websocket.Conn, msg map[string]interface{}) {
	if err := c.WriteJSON(msg); err != nil {
		logger.Warn("WebSocket write failed", zap.Error(err))
	}
}
