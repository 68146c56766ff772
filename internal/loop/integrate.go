package loop

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/cognitive-agent/backend/internal/compiler"
	"github.com/cognitive-agent/backend/pkg/logger"
)

const (
	confidenceFloor      = 0.5
	confidenceRecurrence = 0.2
	summaryCentralThemes = 3
)

func levelBase(level compiler.AbstractionLevel) float64 {
	switch level {
	case compiler.LevelHigh:
		return 0.3
	case compiler.LevelMedium:
		return 0.2
	default:
		return 0.1
	}
}

// integrate folds every iteration's output into one deduplicated,
// confidence-ranked knowledge set. Abstractions recurring across
// iterations earn a recurrence bonus proportional to how many iterations
// produced them.
func (o *Orchestrator) integrate(ctx context.Context, query string, iterations []IterationRecord) Knowledge {
	iterationCount := len(iterations)

	byID := make(map[string]compiler.Abstraction)
	appearances := make(map[string]int)
	conceptFreq := make(map[string]compiler.Concept)

	for _, iteration := range iterations {
		seenThisIteration := make(map[string]bool)
		for _, abstraction := range iteration.Abstractions {
			key := abstraction.ID
			if existing, ok := byID[key]; !ok || abstraction.Confidence > existing.Confidence {
				byID[key] = abstraction
			}
			if !seenThisIteration[key] {
				seenThisIteration[key] = true
				appearances[key]++
			}
		}

		for _, concept := range iteration.Concepts {
			if existing, ok := conceptFreq[concept.Term]; ok {
				existing.Frequency += concept.Frequency
				if concept.Confidence > existing.Confidence {
					existing.Confidence = concept.Confidence
				}
				conceptFreq[concept.Term] = existing
				continue
			}
			conceptFreq[concept.Term] = concept
		}
	}

	knowledge := Knowledge{
		Abstractions: make([]compiler.Abstraction, 0, len(byID)),
		Concepts:     make([]compiler.Concept, 0, len(conceptFreq)),
	}

	for id, abstraction := range byID {
		recurrence := 0.0
		if iterationCount > 0 {
			recurrence = float64(appearances[id]) / float64(iterationCount)
		}
		abstraction.Confidence = confidenceFloor +
			levelBase(abstraction.Level) +
			confidenceRecurrence*recurrence
		knowledge.Abstractions = append(knowledge.Abstractions, abstraction)
	}

	sort.Slice(knowledge.Abstractions, func(i, j int) bool {
		if knowledge.Abstractions[i].Confidence != knowledge.Abstractions[j].Confidence {
			return knowledge.Abstractions[i].Confidence > knowledge.Abstractions[j].Confidence
		}
		return knowledge.Abstractions[i].ID < knowledge.Abstractions[j].ID
	})

	for _, concept := range conceptFreq {
		knowledge.Concepts = append(knowledge.Concepts, concept)
	}
	sort.Slice(knowledge.Concepts, func(i, j int) bool {
		if knowledge.Concepts[i].Frequency != knowledge.Concepts[j].Frequency {
			return knowledge.Concepts[i].Frequency > knowledge.Concepts[j].Frequency
		}
		return knowledge.Concepts[i].Term < knowledge.Concepts[j].Term
	})

	knowledge.Summary = o.summarize(ctx, query, iterationCount, knowledge.Abstractions)

	return knowledge
}

func (o *Orchestrator) summarize(ctx context.Context, query string, iterations int, abstractions []compiler.Abstraction) string {
	if o.summarizer != nil {
		summary, err := o.summarizer.Summarize(ctx, query, abstractions)
		if err == nil && summary != "" {
			return summary
		}
		if err != nil {
			logger.Warn("Summarizer failed, using fallback", zap.Error(err))
		}
	}
	return fallbackSummary(query, iterations, abstractions)
}

// fallbackSummary is fully deterministic: same abstractions, same text.
func fallbackSummary(query string, iterations int, abstractions []compiler.Abstraction) string {
	if len(abstractions) == 0 {
		return fmt.Sprintf("No abstractions compiled for %q after %d iteration(s).", query, iterations)
	}

	themes := make([]string, 0, summaryCentralThemes)
	for _, abstraction := range abstractions {
		if len(themes) == summaryCentralThemes {
			break
		}
		themes = append(themes, abstraction.CentralConcept)
	}

	return fmt.Sprintf("Compiled %d abstraction(s) across %d iteration(s) for %q; central themes: %s.",
		len(abstractions), iterations, query, strings.Join(themes, ", "))
}
