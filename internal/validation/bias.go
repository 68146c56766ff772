package validation

import (
	"fmt"
	"strings"

	"github.com/cognitive-agent/backend/internal/source"
)

// scoreBias blends political imbalance (0.4), sensationalism (0.3),
// emotional loading (0.2) and one-sidedness (0.1). Higher means more
// biased; the overall score uses (1 - bias).
func scoreBias(src source.Result) (float64, error) {
	if src.Content == "" {
		return 0, fmt.Errorf("no content to assess")
	}

	text := strings.ToLower(src.Content)

	score := politicalImbalance(text)*0.4 +
		termDensityScore(text, sensationalistTerms, 3)*0.3 +
		termDensityScore(text, emotionalTerms, 3)*0.2 +
		oneSidednessScore(text)*0.1

	return clamp01(score), nil
}

// politicalImbalance measures how lopsided the political lexicon usage
// is: equal counts on both sides score 0, one-sided usage scores 1.
func politicalImbalance(lowerText string) float64 {
	left := countTermHits(lowerText, politicalLeftTerms)
	right := countTermHits(lowerText, politicalRightTerms)

	total := left + right
	if total == 0 {
		return 0
	}

	diff := left - right
	if diff < 0 {
		diff = -diff
	}
	return float64(diff) / float64(total)
}

// oneSidednessScore: text that never concedes an opposing view (no
// contrastive connectives) reads as one-sided.
func oneSidednessScore(lowerText string) float64 {
	hits := countTermHits(lowerText, contrastiveConnectives)
	switch {
	case hits == 0:
		return 1
	case hits == 1:
		return 0.5
	default:
		return 0
	}
}

func countTermHits(lowerText string, terms []string) int {
	hits := 0
	for _, term := range terms {
		hits += strings.Count(lowerText, term)
	}
	return hits
}
