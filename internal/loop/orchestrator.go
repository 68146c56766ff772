package loop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cognitive-agent/backend/internal/compiler"
	"github.com/cognitive-agent/backend/internal/metrics"
	"github.com/cognitive-agent/backend/internal/source"
	"github.com/cognitive-agent/backend/internal/validation"
	"github.com/cognitive-agent/backend/pkg/logger"
)

// Summarizer produces a prose summary of the integrated knowledge. The
// orchestrator always has a deterministic fallback when none is wired or
// the wired one fails.
type Summarizer interface {
	Summarize(ctx context.Context, query string, abstractions []compiler.Abstraction) (string, error)
}

// Recorder persists completed loop results.
type Recorder interface {
	RecordLoop(ctx context.Context, result *Result) error
}

// GraphMirror receives each iteration's compilation, e.g. for a graph
// database projection. Mirror failures are logged, never fatal.
type GraphMirror interface {
	MirrorCompilation(ctx context.Context, loopID string, compilation *compiler.Compilation) error
}

// EmbeddingIndex receives concept embeddings for similarity search.
type EmbeddingIndex interface {
	IndexEmbeddings(ctx context.Context, embeddings []compiler.Embedding) error
}

// Orchestrator drives the retrieve, validate, compile, assess cycle until
// convergence or the iteration cap.
type Orchestrator struct {
	sources  *source.Client
	scorer   *validation.Scorer
	compiler *compiler.Compiler
	cfg      Config

	summarizer Summarizer
	recorder   Recorder
	mirror     GraphMirror
	index      EmbeddingIndex

	mu              sync.Mutex
	history         []*Result
	totalLoops      int
	convergedLoops  int
	totalIterations int
	metrics         Metrics
	metricsPrimed   bool
}

func NewOrchestrator(sources *source.Client, scorer *validation.Scorer, comp *compiler.Compiler, cfg Config) *Orchestrator {
	return &Orchestrator{
		sources:  sources,
		scorer:   scorer,
		compiler: comp,
		cfg:      cfg.withDefaults(),
	}
}

func (o *Orchestrator) SetSummarizer(s Summarizer)  { o.summarizer = s }
func (o *Orchestrator) SetRecorder(r Recorder)      { o.recorder = r }
func (o *Orchestrator) SetMirror(m GraphMirror)     { o.mirror = m }
func (o *Orchestrator) SetIndex(idx EmbeddingIndex) { o.index = idx }

// Execute runs one full cognitive loop for the query. Cancellation at any
// stage terminates the loop after the current stage and returns the
// partial result with the cancelled flag set; compilation errors on
// non-empty input abort the loop with a wrapped error.
func (o *Orchestrator) Execute(ctx context.Context, query string, ectx ExecuteContext) (*Result, error) {
	start := time.Now()
	result := &Result{
		LoopID:    uuid.New().String(),
		Query:     query,
		Timestamp: start,
	}

	logger.Info("Loop started",
		zap.String("loop_id", result.LoopID),
		zap.String("query", query),
		zap.Int("max_iterations", o.cfg.MaxIterations),
	)

	currentQuery := query
	var prev *IterationRecord

	for i := 1; i <= o.cfg.MaxIterations; i++ {
		if ctx.Err() != nil {
			result.Cancelled = true
			break
		}

		record, err := o.runIteration(ctx, result.LoopID, i, currentQuery, ectx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				result.Cancelled = true
				break
			}
			return nil, fmt.Errorf("loop %s iteration %d: %w", result.LoopID, i, err)
		}

		result.Iterations = append(result.Iterations, *record)
		if ectx.OnIteration != nil {
			ectx.OnIteration(*record)
		}

		score := convergenceScore(prev, record)
		metrics.ConvergenceScore.Observe(score)
		logger.Info("Iteration assessed",
			zap.String("loop_id", result.LoopID),
			zap.Int("iteration", i),
			zap.Int("abstractions", record.AbstractionCount),
			zap.Float64("convergence_score", score),
		)

		if score >= o.cfg.ConvergenceThreshold {
			result.Converged = true
			break
		}

		currentQuery = refineQuery(query, record.Concepts)
		prev = record
	}

	result.Knowledge = o.integrate(ctx, query, result.Iterations)
	result.Duration = time.Since(start)

	o.recordCompletion(result)
	observeLoop(result, o.compiler.Graph().Size())

	if o.recorder != nil {
		if err := o.recorder.RecordLoop(ctx, result); err != nil {
			logger.Warn("Loop persistence failed",
				zap.String("loop_id", result.LoopID), zap.Error(err))
		}
	}

	logger.Info("Loop finished",
		zap.String("loop_id", result.LoopID),
		zap.Int("iterations", len(result.Iterations)),
		zap.Bool("converged", result.Converged),
		zap.Bool("cancelled", result.Cancelled),
		zap.Duration("duration", result.Duration),
	)

	return result, nil
}

func (o *Orchestrator) runIteration(ctx context.Context, loopID string, iteration int, query string, ectx ExecuteContext) (*IterationRecord, error) {
	start := time.Now()

	record := &IterationRecord{Iteration: iteration, Query: query}

	response, err := o.sources.Search(ctx, query, ectx.SearchOptions)
	if err != nil {
		return nil, fmt.Errorf("retrieval: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	record.SourcesFound = len(response.Results)
	for _, srcErr := range response.Errors {
		record.SourceErrors = append(record.SourceErrors, srcErr.Error())
	}

	report := o.scorer.Validate(ctx, response.Results, validation.Context{KnownFacts: ectx.KnownFacts})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	record.SourcesValidated = report.Summary.ValidatedSources
	record.MeanCredibility = report.Summary.MeanCredibility

	texts := filterTexts(response.Results, report.Records, o.cfg.CredibilityThreshold)
	record.SourcesFiltered = len(texts)

	// Nothing cleared the credibility bar (or every source failed):
	// record an empty iteration and let convergence assessment decide.
	if len(texts) == 0 {
		record.Duration = time.Since(start)
		logger.Warn("No sources passed filtering",
			zap.Int("iteration", iteration),
			zap.Int("found", record.SourcesFound),
		)
		return record, nil
	}

	compilation, err := o.compiler.Compile(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("compilation: %w", err)
	}

	record.ConceptCount = compilation.Metadata.ConceptCount
	record.RelationshipCount = compilation.Metadata.RelationshipCount
	record.AbstractionCount = compilation.Metadata.AbstractionCount
	record.Concepts = compilation.Concepts
	record.Abstractions = compilation.Abstractions
	record.Duration = time.Since(start)

	if o.mirror != nil {
		if err := o.mirror.MirrorCompilation(ctx, loopID, compilation); err != nil {
			logger.Warn("Graph mirror failed", zap.Error(err))
		}
	}
	if o.index != nil {
		if err := o.index.IndexEmbeddings(ctx, compilation.Embeddings); err != nil {
			logger.Warn("Embedding index failed", zap.Error(err))
		}
	}

	return record, nil
}

// filterTexts keeps the content of sources whose overall validation score
// clears the credibility threshold.
func filterTexts(results []source.Result, records []validation.Record, threshold float64) []string {
	passed := make(map[string]bool, len(records))
	for _, r := range records {
		if r.OverallScore >= threshold {
			passed[r.URL] = true
		}
	}

	var texts []string
	for _, result := range results {
		if !passed[result.URL] {
			continue
		}
		text := result.Content
		if text == "" {
			text = result.Snippet
		}
		if text != "" {
			texts = append(texts, text)
		}
	}
	return texts
}

func (o *Orchestrator) recordCompletion(result *Result) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.totalLoops++
	o.totalIterations += len(result.Iterations)
	if result.Converged {
		o.convergedLoops++
	}

	o.updateMetricsLocked(result)
	result.Metrics = o.metrics

	o.history = append(o.history, result)
	if len(o.history) > o.cfg.HistoryLimit {
		o.history = o.history[len(o.history)-o.cfg.HistoryLimit:]
	}
}

// Compiler exposes the knowledge compiler for read paths (graph queries,
// health probes).
func (o *Orchestrator) Compiler() *compiler.Compiler {
	return o.compiler
}

// History returns the retained results, oldest first, capped at limit.
func (o *Orchestrator) History(limit int) []*Result {
	o.mu.Lock()
	defer o.mu.Unlock()

	if limit <= 0 || limit > len(o.history) {
		limit = len(o.history)
	}
	out := make([]*Result, limit)
	copy(out, o.history[len(o.history)-limit:])
	return out
}
