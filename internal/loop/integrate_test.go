package loop

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognitive-agent/backend/internal/compiler"
)

func testOrchestratorBare() *Orchestrator {
	return newTestOrchestrator(Config{})
}

func TestIntegrateDeduplicatesAcrossIterations(t *testing.T) {
	o := testOrchestratorBare()

	shared := compiler.Abstraction{ID: "shared", Title: "Shared", Level: compiler.LevelLow}
	only1 := compiler.Abstraction{ID: "only-one", Title: "One", Level: compiler.LevelLow}

	iterations := []IterationRecord{
		{Iteration: 1, Abstractions: []compiler.Abstraction{shared, only1}},
		{Iteration: 2, Abstractions: []compiler.Abstraction{shared}},
	}

	knowledge := o.integrate(context.Background(), "query", iterations)
	require.Len(t, knowledge.Abstractions, 2)

	byID := make(map[string]compiler.Abstraction)
	for _, a := range knowledge.Abstractions {
		byID[a.ID] = a
	}

	// Level low base 0.1; shared appears in 2/2 iterations, only-one in 1/2.
	assert.InDelta(t, 0.5+0.1+0.2*1.0, byID["shared"].Confidence, 1e-9)
	assert.InDelta(t, 0.5+0.1+0.2*0.5, byID["only-one"].Confidence, 1e-9)
	assert.Equal(t, "shared", knowledge.Abstractions[0].ID,
		"recurring abstraction ranks first")
}

func TestIntegrateLevelBases(t *testing.T) {
	o := testOrchestratorBare()

	iterations := []IterationRecord{{
		Iteration: 1,
		Abstractions: []compiler.Abstraction{
			{ID: "lo", Level: compiler.LevelLow},
			{ID: "mid", Level: compiler.LevelMedium},
			{ID: "hi", Level: compiler.LevelHigh},
		},
	}}

	knowledge := o.integrate(context.Background(), "query", iterations)
	require.Len(t, knowledge.Abstractions, 3)

	byID := make(map[string]float64)
	for _, a := range knowledge.Abstractions {
		byID[a.ID] = a.Confidence
	}

	assert.InDelta(t, 0.8, byID["lo"], 1e-9)
	assert.InDelta(t, 0.9, byID["mid"], 1e-9)
	assert.InDelta(t, 1.0, byID["hi"], 1e-9)
}

func TestIntegrateAggregatesConceptFrequencies(t *testing.T) {
	o := testOrchestratorBare()

	iterations := []IterationRecord{
		{Iteration: 1, Concepts: []compiler.Concept{
			{Term: "gravity", Frequency: 3, Confidence: 0.4},
			{Term: "quantum", Frequency: 1, Confidence: 0.3},
		}},
		{Iteration: 2, Concepts: []compiler.Concept{
			{Term: "gravity", Frequency: 2, Confidence: 0.6},
		}},
	}

	knowledge := o.integrate(context.Background(), "query", iterations)
	require.Len(t, knowledge.Concepts, 2)

	assert.Equal(t, "gravity", knowledge.Concepts[0].Term)
	assert.Equal(t, 5, knowledge.Concepts[0].Frequency)
	assert.Equal(t, 0.6, knowledge.Concepts[0].Confidence, "highest confidence wins on merge")
}

func TestIntegrateEmptyIterations(t *testing.T) {
	o := testOrchestratorBare()

	knowledge := o.integrate(context.Background(), "query", nil)
	assert.Empty(t, knowledge.Abstractions)
	assert.Empty(t, knowledge.Concepts)
	assert.NotEmpty(t, knowledge.Summary)
}

func TestFallbackSummaryDeterministic(t *testing.T) {
	abstractions := []compiler.Abstraction{
		{CentralConcept: "gravity"},
		{CentralConcept: "quantum"},
	}

	first := fallbackSummary("physics", 2, abstractions)
	second := fallbackSummary("physics", 2, abstractions)
	assert.Equal(t, first, second)
	assert.Contains(t, first, "gravity")
	assert.Contains(t, first, "quantum")
}

func TestUpdateMetricsEMA(t *testing.T) {
	o := newTestOrchestrator(Config{MetricsRate: 0.1})

	first := &Result{Iterations: []IterationRecord{
		{SourcesFound: 10, SourcesValidated: 8, AbstractionCount: 4, MeanCredibility: 0.8},
	}}
	o.mu.Lock()
	o.updateMetricsLocked(first)
	o.mu.Unlock()

	assert.InDelta(t, 0.8, o.metrics.RetrievalAccuracy, 1e-9, "first sample primes the average")

	second := &Result{Iterations: []IterationRecord{
		{SourcesFound: 10, SourcesValidated: 0, AbstractionCount: 0, MeanCredibility: 0.0},
	}}
	o.mu.Lock()
	o.updateMetricsLocked(second)
	o.mu.Unlock()

	assert.InDelta(t, 0.8*0.9, o.metrics.RetrievalAccuracy, 1e-9,
		"subsequent samples blend at the configured rate")
}
