package compiler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedDeterministic(t *testing.T) {
	first := Embed("neural network", 384)
	second := Embed("neural network", 384)

	assert.Equal(t, first.Vector, second.Vector, "same term must yield a bit-identical vector")
	assert.Equal(t, 384, first.Dimensions)
	assert.Len(t, first.Vector, 384)
}

func TestEmbedDistinctTermsDiffer(t *testing.T) {
	a := Embed("alpha", 64)
	b := Embed("beta", 64)

	assert.NotEqual(t, a.Vector, b.Vector)
}

func TestEmbedUnitNorm(t *testing.T) {
	embedding := Embed("gravity", 384)

	var norm float64
	for _, v := range embedding.Vector {
		norm += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)

	for _, v := range embedding.Vector {
		assert.GreaterOrEqual(t, v, -1.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestCosineSimilarityIdentity(t *testing.T) {
	embedding := Embed("thermodynamics", 128)

	similarity := CosineSimilarity(embedding.Vector, embedding.Vector)
	assert.InDelta(t, 1.0, similarity, 1e-9)
}

func TestCosineSimilarityBounds(t *testing.T) {
	a := Embed("first", 64)
	b := Embed("second", 64)

	similarity := CosineSimilarity(a.Vector, b.Vector)
	assert.GreaterOrEqual(t, similarity, -1.0-1e-9)
	assert.LessOrEqual(t, similarity, 1.0+1e-9)
}

func TestCosineSimilarityMismatchedLengths(t *testing.T) {
	assert.Equal(t, 0.0, CosineSimilarity([]float64{1, 0}, []float64{1}))
}

func TestCosineSimilarityZeroVector(t *testing.T) {
	require.Equal(t, 0.0, CosineSimilarity([]float64{0, 0}, []float64{1, 1}))
}
