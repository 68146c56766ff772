package compiler

import (
	"math"

	"github.com/cognitive-agent/backend/pkg/hashutil"
)

// Embed produces the deterministic pseudo-embedding for a concept term:
// SHA-256 bytes of the term mapped cyclically into [-1,1] across the
// configured dimensions, then L2-normalized. The same term always yields
// a bit-identical vector.
func Embed(term string, dimensions int) Embedding {
	hash := hashutil.HashBytes(term)

	vector := make([]float64, dimensions)
	for i := range vector {
		b := hash[i%len(hash)]
		vector[i] = float64(b)/127.5 - 1
	}

	var norm float64
	for _, v := range vector {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vector {
			vector[i] /= norm
		}
	}

	return Embedding{
		Concept:    term,
		Vector:     vector,
		Dimensions: dimensions,
	}
}

func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
