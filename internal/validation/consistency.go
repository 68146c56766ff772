package validation

import "strings"

// negationWindow is how far back (in characters) a negation term may sit
// and still count as contradicting a fact occurrence.
const negationWindow = 50

// scoreConsistency compares source text against the caller's known facts:
// +1 per fact textually present, -0.5 per fact contradicted by a nearby
// negation term, normalized by fact count into [0,1]. No facts means
// neutral.
func scoreConsistency(content string, knownFacts []string) float64 {
	if len(knownFacts) == 0 {
		return neutralScore
	}

	lowerText := strings.ToLower(content)

	var sum float64
	for _, fact := range knownFacts {
		lowerFact := strings.ToLower(strings.TrimSpace(fact))
		if lowerFact == "" {
			continue
		}

		idx := strings.Index(lowerText, lowerFact)
		if idx < 0 {
			continue
		}

		if isNegated(lowerText, idx) {
			sum -= 0.5
		} else {
			sum += 1
		}
	}

	return clamp01(sum / float64(len(knownFacts)))
}

func isNegated(lowerText string, factIndex int) bool {
	start := factIndex - negationWindow
	if start < 0 {
		start = 0
	}
	window := lowerText[start:factIndex]

	for _, term := range negationTerms {
		if strings.Contains(window, " "+term+" ") || strings.HasPrefix(window, term+" ") {
			return true
		}
	}
	return false
}
