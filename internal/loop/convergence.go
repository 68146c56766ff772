package loop

import (
	"sort"
	"strings"

	"github.com/cognitive-agent/backend/internal/compiler"
)

const (
	weightAbstractionGrowth    = 0.4
	weightCredibilityImproved  = 0.3
	weightAbstractionSufficent = 0.3

	credibilityImprovementMargin = 0.05
	sufficientAbstractions       = 3
	refinementTerms              = 3
)

// convergenceScore blends three binary signals. With no prior iteration
// only the sufficiency term can fire, so a first iteration alone can
// never clear a threshold above 0.3.
func convergenceScore(prev, current *IterationRecord) float64 {
	var score float64

	if prev != nil && current.AbstractionCount > prev.AbstractionCount {
		score += weightAbstractionGrowth
	}
	if prev != nil && current.MeanCredibility > prev.MeanCredibility+credibilityImprovementMargin {
		score += weightCredibilityImproved
	}
	if current.AbstractionCount >= sufficientAbstractions {
		score += weightAbstractionSufficent
	}

	return score
}

// refineQuery appends the top most frequent concept terms from the latest
// iteration to the original query, skipping terms the query already
// contains.
func refineQuery(original string, concepts []compiler.Concept) string {
	if len(concepts) == 0 {
		return original
	}

	sorted := make([]compiler.Concept, len(concepts))
	copy(sorted, concepts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Frequency != sorted[j].Frequency {
			return sorted[i].Frequency > sorted[j].Frequency
		}
		return sorted[i].Term < sorted[j].Term
	})

	lowered := strings.ToLower(original)
	terms := make([]string, 0, refinementTerms)
	for _, concept := range sorted {
		if len(terms) == refinementTerms {
			break
		}
		if strings.Contains(lowered, strings.ToLower(concept.Term)) {
			continue
		}
		terms = append(terms, concept.Term)
	}

	if len(terms) == 0 {
		return original
	}
	return original + " " + strings.Join(terms, " ")
}
