package compiler

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleText = `Machine learning models rely on training data quality.
Training data quality determines how machine learning models generalize.
Neural networks are machine learning models trained on large datasets.
Dataset curation improves training data quality for neural networks.
Researchers study neural networks and machine learning models extensively.`

func TestCompileEmptyInput(t *testing.T) {
	comp := New(Config{})

	_, err := comp.Compile(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = comp.Compile(context.Background(), []string{"", "   "})
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestCompileRespectsCancellation(t *testing.T) {
	comp := New(Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := comp.Compile(ctx, []string{sampleText})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompilePipeline(t *testing.T) {
	comp := New(Config{SimilarityThreshold: 0.1})

	compilation, err := comp.Compile(context.Background(), []string{sampleText})
	require.NoError(t, err)

	assert.NotEmpty(t, compilation.Concepts)
	assert.Equal(t, len(compilation.Concepts), len(compilation.Embeddings))
	assert.Equal(t, len(compilation.Concepts), compilation.Metadata.ConceptCount)
	assert.Equal(t, 1, compilation.Metadata.SourceCount)

	for _, concept := range compilation.Concepts {
		assert.GreaterOrEqual(t, concept.Frequency, 1)
		assert.GreaterOrEqual(t, concept.Confidence, 0.0)
		assert.LessOrEqual(t, concept.Confidence, 1.0)
	}

	for _, rel := range compilation.Relationships {
		assert.GreaterOrEqual(t, rel.Strength, 0.1)
		assert.NotEqual(t, rel.Source, rel.Target)
	}
}

func TestCompileDeterministic(t *testing.T) {
	first := New(Config{SimilarityThreshold: 0.1})
	second := New(Config{SimilarityThreshold: 0.1})

	a, err := first.Compile(context.Background(), []string{sampleText})
	require.NoError(t, err)
	b, err := second.Compile(context.Background(), []string{sampleText})
	require.NoError(t, err)

	assert.Equal(t, a.Concepts, b.Concepts)
	assert.Equal(t, a.Relationships, b.Relationships)

	require.Equal(t, len(a.Abstractions), len(b.Abstractions))
	for i := range a.Abstractions {
		assert.Equal(t, a.Abstractions[i].ID, b.Abstractions[i].ID)
		assert.Equal(t, a.Abstractions[i].Concepts, b.Abstractions[i].Concepts)
	}
}

func TestAbstractionIDIdempotent(t *testing.T) {
	terms := []string{"alpha", "beta", "gamma"}

	assert.Equal(t, AbstractionID(terms), AbstractionID(terms))
	assert.Len(t, AbstractionID(terms), 16)
	assert.NotEqual(t, AbstractionID(terms), AbstractionID([]string{"alpha", "beta", "delta"}))
}

func TestFormAbstractionsGroupsConnectedConcepts(t *testing.T) {
	relationships := []Relationship{
		{Source: "alpha", Target: "beta", Strength: 0.9},
		{Source: "beta", Target: "gamma", Strength: 0.85},
		{Source: "delta", Target: "epsilon", Strength: 0.8},
	}

	abstractions := formAbstractions(relationships)

	require.Len(t, abstractions, 1, "only the three-concept group qualifies")
	assert.ElementsMatch(t, []string{"alpha", "beta", "gamma"}, abstractions[0].Concepts)
	assert.Equal(t, LevelLow, abstractions[0].Level)
	assert.NotEmpty(t, abstractions[0].CentralConcept)
}

func TestAbstractionLevels(t *testing.T) {
	assert.Equal(t, LevelLow, abstractionLevel(3))
	assert.Equal(t, LevelLow, abstractionLevel(4))
	assert.Equal(t, LevelMedium, abstractionLevel(5))
	assert.Equal(t, LevelMedium, abstractionLevel(7))
	assert.Equal(t, LevelHigh, abstractionLevel(8))
}

func TestGraphMergeAccumulatesReferences(t *testing.T) {
	graph := NewKnowledgeGraph(100)

	concepts := []Concept{
		{Term: "alpha", Frequency: 2, Confidence: 0.5},
		{Term: "beta", Frequency: 3, Confidence: 0.6},
	}
	abstraction := Abstraction{
		ID:       AbstractionID([]string{"alpha", "beta", "gamma"}),
		Concepts: []string{"alpha", "beta", "gamma"},
	}

	graph.Merge(concepts, []Abstraction{abstraction})
	graph.Merge(concepts, []Abstraction{abstraction})

	// 2 concepts + 1 abstraction; the repeated merge bumps counts, not size.
	assert.Equal(t, 3, graph.Size())
}

func TestGraphConsolidationKeepsMostReferenced(t *testing.T) {
	graph := NewKnowledgeGraph(10)

	popular := Abstraction{ID: "popular", Concepts: []string{"x", "y", "z"}}
	for i := 0; i < 5; i++ {
		graph.Merge(nil, []Abstraction{popular})
	}

	for i := 0; i < 12; i++ {
		graph.Merge([]Concept{{Term: fmt.Sprintf("filler-%02d", i), Frequency: 1}}, nil)
	}

	assert.LessOrEqual(t, graph.Size(), 10)

	result := graph.Query("x", 1, QueryOptions{})
	require.Len(t, result.Results, 1, "the most-referenced abstraction survives consolidation")
	assert.Equal(t, "popular", result.Results[0].ID)
}

func TestGraphQueryTraversal(t *testing.T) {
	graph := NewKnowledgeGraph(100)

	first := Abstraction{ID: "ab-one", Concepts: []string{"alpha", "beta", "gamma"}, Confidence: 0.9}
	second := Abstraction{ID: "ab-two", Concepts: []string{"gamma", "delta", "epsilon"}, Confidence: 0.8}
	graph.Merge(nil, []Abstraction{first, second})

	shallow := graph.Query("alpha", 1, QueryOptions{})
	require.Len(t, shallow.Results, 1)
	assert.Equal(t, "ab-one", shallow.Results[0].ID)

	deep := graph.Query("alpha", 2, QueryOptions{IncludeConcepts: true})
	assert.Len(t, deep.Results, 2, "depth 2 reaches the abstraction sharing gamma")
	assert.Contains(t, deep.RelatedConcepts, "delta")
	assert.NotContains(t, deep.RelatedConcepts, "alpha")
}

func TestGraphQueryMinConfidence(t *testing.T) {
	graph := NewKnowledgeGraph(100)
	graph.Merge(nil, []Abstraction{
		{ID: "weak", Concepts: []string{"alpha", "beta", "gamma"}, Confidence: 0.2},
	})

	result := graph.Query("alpha", 2, QueryOptions{MinConfidence: 0.5})
	assert.Empty(t, result.Results)
}

func TestQueryKnowledgeIsReadOnly(t *testing.T) {
	comp := New(Config{SimilarityThreshold: 0.1})

	_, err := comp.Compile(context.Background(), []string{sampleText})
	require.NoError(t, err)

	before := comp.Graph().Size()
	comp.QueryKnowledge("training", QueryOptions{MaxResults: 5})
	assert.Equal(t, before, comp.Graph().Size())
}

func TestExtractConceptsDeterministicOrder(t *testing.T) {
	first, err := extractConcepts(sampleText, 50)
	require.NoError(t, err)
	second, err := extractConcepts(sampleText, 50)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	for i := 1; i < len(first); i++ {
		prev, curr := first[i-1], first[i]
		ordered := prev.Frequency > curr.Frequency ||
			(prev.Frequency == curr.Frequency && strings.Compare(prev.Term, curr.Term) < 0)
		assert.True(t, ordered, "concepts must sort by frequency desc then term asc")
	}
}

func TestExtractConceptsHonorsCap(t *testing.T) {
	concepts, err := extractConcepts(sampleText, 3)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(concepts), 3)
}

func TestClassifyConcept(t *testing.T) {
	assert.Equal(t, ConceptNumber, classifyConcept("2024"))
	assert.Equal(t, ConceptAcronym, classifyConcept("NASA"))
	assert.Equal(t, ConceptProperNoun, classifyConcept("Machine Learning"))
	assert.Equal(t, ConceptCommonNoun, classifyConcept("gravity"))
}

func TestMetadataDuration(t *testing.T) {
	comp := New(Config{})

	compilation, err := comp.Compile(context.Background(), []string{sampleText})
	require.NoError(t, err)
	assert.Greater(t, compilation.Metadata.Duration, time.Duration(0))
}
