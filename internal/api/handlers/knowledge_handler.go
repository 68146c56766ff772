package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/cognitive-agent/backend/internal/compiler"
)

type KnowledgeHandler struct {
	compiler *compiler.Compiler
}

func NewKnowledgeHandler(comp *compiler.Compiler) *KnowledgeHandler {
	return &KnowledgeHandler{compiler: comp}
}

// HandleQuery serves read-only knowledge graph lookups.
func (h *KnowledgeHandler) HandleQuery(c *fiber.Ctx) error {
	concept := c.Query("concept")
	if concept == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "concept is required",
		})
	}

	maxResults, _ := strconv.Atoi(c.Query("max_results", "10"))
	minConfidence, _ := strconv.ParseFloat(c.Query("min_confidence", "0"), 64)
	includeConcepts := c.QueryBool("include_concepts", false)

	result := h.compiler.QueryKnowledge(concept, compiler.QueryOptions{
		MaxResults:      maxResults,
		MinConfidence:   minConfidence,
		IncludeConcepts: includeConcepts,
	})

	return c.JSON(fiber.Map{
		"concept":          concept,
		"results":          result.Results,
		"related_concepts": result.RelatedConcepts,
		"graph_size":       h.compiler.Graph().Size(),
	})
}
