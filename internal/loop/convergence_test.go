package loop

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cognitive-agent/backend/internal/compiler"
)

func TestConvergenceScoreComponents(t *testing.T) {
	prev := &IterationRecord{AbstractionCount: 2, MeanCredibility: 0.5}

	grown := &IterationRecord{AbstractionCount: 4, MeanCredibility: 0.5}
	assert.InDelta(t, 0.4+0.3, convergenceScore(prev, grown), 1e-9,
		"growth plus sufficiency")

	improved := &IterationRecord{AbstractionCount: 2, MeanCredibility: 0.6}
	assert.InDelta(t, 0.3, convergenceScore(prev, improved), 1e-9,
		"credibility improvement only")

	all := &IterationRecord{AbstractionCount: 5, MeanCredibility: 0.7}
	assert.InDelta(t, 1.0, convergenceScore(prev, all), 1e-9)

	flat := &IterationRecord{AbstractionCount: 2, MeanCredibility: 0.5}
	assert.InDelta(t, 0.0, convergenceScore(prev, flat), 1e-9)
}

func TestConvergenceScoreMarginNotInclusive(t *testing.T) {
	prev := &IterationRecord{MeanCredibility: 0.5}
	atMargin := &IterationRecord{MeanCredibility: 0.55}

	assert.InDelta(t, 0.0, convergenceScore(prev, atMargin), 1e-9,
		"improvement must exceed the margin, not merely meet it")
}

func TestConvergenceScoreFirstIteration(t *testing.T) {
	sufficient := &IterationRecord{AbstractionCount: 3}
	assert.InDelta(t, 0.3, convergenceScore(nil, sufficient), 1e-9)

	sparse := &IterationRecord{AbstractionCount: 2}
	assert.InDelta(t, 0.0, convergenceScore(nil, sparse), 1e-9)
}

// More positive signals can never lower the score.
func TestConvergenceScoreMonotonic(t *testing.T) {
	prev := &IterationRecord{AbstractionCount: 2, MeanCredibility: 0.5}

	base := convergenceScore(prev, &IterationRecord{AbstractionCount: 2, MeanCredibility: 0.5})
	withGrowth := convergenceScore(prev, &IterationRecord{AbstractionCount: 3, MeanCredibility: 0.5})
	withBoth := convergenceScore(prev, &IterationRecord{AbstractionCount: 3, MeanCredibility: 0.7})

	assert.GreaterOrEqual(t, withGrowth, base)
	assert.GreaterOrEqual(t, withBoth, withGrowth)
}

func TestRefineQueryAppendsTopTerms(t *testing.T) {
	concepts := []compiler.Concept{
		{Term: "gravity", Frequency: 10},
		{Term: "quantum", Frequency: 8},
		{Term: "relativity", Frequency: 6},
		{Term: "entropy", Frequency: 4},
	}

	refined := refineQuery("physics basics", concepts)
	assert.Equal(t, "physics basics gravity quantum relativity", refined)
}

func TestRefineQuerySkipsTermsAlreadyPresent(t *testing.T) {
	concepts := []compiler.Concept{
		{Term: "Gravity", Frequency: 10},
		{Term: "quantum", Frequency: 8},
	}

	refined := refineQuery("gravity research", concepts)
	assert.Equal(t, "gravity research quantum", refined)
}

func TestRefineQueryDeterministicTieBreak(t *testing.T) {
	concepts := []compiler.Concept{
		{Term: "beta", Frequency: 5},
		{Term: "alpha", Frequency: 5},
		{Term: "gamma", Frequency: 5},
		{Term: "delta", Frequency: 5},
	}

	first := refineQuery("base", concepts)
	second := refineQuery("base", concepts)
	assert.Equal(t, first, second)
	assert.Equal(t, "base alpha beta delta", first)
}

func TestRefineQueryNoConcepts(t *testing.T) {
	assert.Equal(t, "unchanged", refineQuery("unchanged", nil))
}
