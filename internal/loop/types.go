package loop

import (
	"time"

	"github.com/cognitive-agent/backend/internal/compiler"
	"github.com/cognitive-agent/backend/internal/source"
)

// ExecuteContext is the optional per-invocation context: search options,
// caller-known facts for consistency scoring, and an iteration progress
// callback used by streaming transports.
type ExecuteContext struct {
	SearchOptions source.Options
	KnownFacts    []string
	OnIteration   func(IterationRecord)
}

// IterationRecord is the immutable per-iteration snapshot appended to the
// loop's ordered history.
type IterationRecord struct {
	Iteration         int                    `json:"iteration"`
	Query             string                 `json:"query"`
	SourcesFound      int                    `json:"sources_found"`
	SourcesValidated  int                    `json:"sources_validated"`
	SourcesFiltered   int                    `json:"sources_filtered"`
	MeanCredibility   float64                `json:"mean_credibility"`
	ConceptCount      int                    `json:"concept_count"`
	RelationshipCount int                    `json:"relationship_count"`
	AbstractionCount  int                    `json:"abstraction_count"`
	Concepts          []compiler.Concept     `json:"concepts,omitempty"`
	Abstractions      []compiler.Abstraction `json:"abstractions,omitempty"`
	SourceErrors      []string               `json:"source_errors,omitempty"`
	Duration          time.Duration          `json:"duration"`
}

// Knowledge is the integrated, ranked knowledge set assembled from every
// iteration after the loop terminates.
type Knowledge struct {
	Abstractions []compiler.Abstraction `json:"abstractions"`
	Concepts     []compiler.Concept     `json:"concepts"`
	Summary      string                 `json:"summary"`
}

// Metrics are exponential moving averages over completed loops. They are
// observability signals only; loop logic never reads them.
type Metrics struct {
	RetrievalAccuracy     float64 `json:"retrieval_accuracy"`
	CompilationEfficiency float64 `json:"compilation_efficiency"`
	ValidationQuality     float64 `json:"validation_quality"`
	LearningScore         float64 `json:"learning_score"`
}

// Result is the terminal object returned to the caller of Execute.
type Result struct {
	LoopID     string            `json:"loop_id"`
	Query      string            `json:"query"`
	Iterations []IterationRecord `json:"iterations"`
	Converged  bool              `json:"converged"`
	Cancelled  bool              `json:"cancelled,omitempty"`
	Knowledge  Knowledge         `json:"knowledge"`
	Metrics    Metrics           `json:"metrics"`
	Timestamp  time.Time         `json:"timestamp"`
	Duration   time.Duration     `json:"duration"`
}

type Stats struct {
	TotalLoops         int     `json:"total_loops"`
	AverageIterations  float64 `json:"average_iterations"`
	ConvergenceRate    float64 `json:"convergence_rate"`
	PerformanceMetrics Metrics `json:"performance_metrics"`
	KnowledgeGraphSize int     `json:"knowledge_graph_size"`
}

type Config struct {
	MaxIterations        int
	ConvergenceThreshold float64
	CredibilityThreshold float64
	HistoryLimit         int
	MetricsRate          float64
}

func (c Config) withDefaults() Config {
	if c.MaxIterations <= 0 {
		c.MaxIterations = 5
	}
	if c.ConvergenceThreshold <= 0 {
		c.ConvergenceThreshold = 0.8
	}
	if c.CredibilityThreshold <= 0 {
		c.CredibilityThreshold = 0.6
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = 100
	}
	if c.MetricsRate <= 0 {
		c.MetricsRate = 0.1
	}
	return c
}
