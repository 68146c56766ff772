package compiler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cognitive-agent/backend/pkg/logger"
)

// Compiler turns validated source texts into concepts, embeddings,
// relationships and abstractions, and folds them into the shared
// knowledge graph.
type Compiler struct {
	cfg   Config
	graph *KnowledgeGraph
}

func New(cfg Config) *Compiler {
	cfg = cfg.withDefaults()
	return &Compiler{
		cfg:   cfg,
		graph: NewKnowledgeGraph(cfg.GraphMaxEntries),
	}
}

// NewWithGraph shares an existing graph across compiler instances.
func NewWithGraph(cfg Config, graph *KnowledgeGraph) *Compiler {
	return &Compiler{cfg: cfg.withDefaults(), graph: graph}
}

func (c *Compiler) Graph() *KnowledgeGraph {
	return c.graph
}

// Compile runs the full pipeline over an iteration's validated texts.
// Failures here are fatal for the iteration; the orchestrator surfaces
// them rather than skipping compilation.
func (c *Compiler) Compile(ctx context.Context, texts []string) (*Compilation, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	joined := strings.TrimSpace(strings.Join(texts, "\n\n"))
	if joined == "" {
		return nil, fmt.Errorf("compilation failed: %w", ErrEmptyInput)
	}

	concepts, err := extractConcepts(joined, c.cfg.MaxConcepts)
	if err != nil {
		return nil, fmt.Errorf("concept extraction failed: %w", err)
	}

	embeddings := make([]Embedding, 0, len(concepts))
	for _, concept := range concepts {
		embeddings = append(embeddings, Embed(concept.Term, c.cfg.EmbeddingDimensions))
	}

	relationships := buildRelationships(concepts, embeddings, c.cfg.SimilarityThreshold)
	abstractions := formAbstractions(relationships)

	c.graph.Merge(concepts, abstractions)

	compilation := &Compilation{
		Concepts:      concepts,
		Embeddings:    embeddings,
		Relationships: relationships,
		Abstractions:  abstractions,
		Metadata: Metadata{
			SourceCount:       len(texts),
			ConceptCount:      len(concepts),
			RelationshipCount: len(relationships),
			AbstractionCount:  len(abstractions),
			Duration:          time.Since(start),
		},
	}

	logger.Info("Compilation completed",
		zap.Int("sources", len(texts)),
		zap.Int("concepts", len(concepts)),
		zap.Int("relationships", len(relationships)),
		zap.Int("abstractions", len(abstractions)),
		zap.Duration("duration", compilation.Metadata.Duration),
	)

	return compilation, nil
}

// QueryKnowledge is the read-only graph traversal exposed at the module
// boundary; no network I/O.
func (c *Compiler) QueryKnowledge(concept string, opts QueryOptions) *QueryResult {
	return c.graph.Query(concept, c.cfg.QueryDepth, opts)
}
