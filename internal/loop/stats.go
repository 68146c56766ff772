package loop

import (
	"strconv"

	"github.com/cognitive-agent/backend/internal/metrics"
)

// observeLoop exports one completed loop to the prometheus collectors.
func observeLoop(result *Result, graphSize int) {
	metrics.LoopDuration.WithLabelValues(strconv.FormatBool(result.Converged)).
		Observe(result.Duration.Seconds())
	metrics.LoopIterations.Observe(float64(len(result.Iterations)))
	metrics.KnowledgeGraphSize.Set(float64(graphSize))

	status := "completed"
	switch {
	case result.Cancelled:
		status = "cancelled"
	case result.Converged:
		status = "converged"
	}
	metrics.LoopTotal.WithLabelValues(status).Inc()

	for _, iteration := range result.Iterations {
		metrics.AbstractionsFormed.Add(float64(iteration.AbstractionCount))
	}
}

// updateMetricsLocked folds one completed loop's samples into the
// exponential moving averages. The first loop primes the averages with
// its raw samples. Caller holds o.mu.
func (o *Orchestrator) updateMetricsLocked(result *Result) {
	var found, validated, abstractions int
	var credibilitySum float64

	for _, iteration := range result.Iterations {
		found += iteration.SourcesFound
		validated += iteration.SourcesValidated
		abstractions += iteration.AbstractionCount
		credibilitySum += iteration.MeanCredibility
	}

	sample := Metrics{}
	if found > 0 {
		sample.RetrievalAccuracy = float64(validated) / float64(found)
	}
	if validated > 0 {
		sample.CompilationEfficiency = ratioCapped(float64(abstractions), float64(validated))
	}
	if n := len(result.Iterations); n > 0 {
		sample.ValidationQuality = credibilitySum / float64(n)
	}
	sample.LearningScore = (sample.RetrievalAccuracy + sample.CompilationEfficiency + sample.ValidationQuality) / 3

	if !o.metricsPrimed {
		o.metrics = sample
		o.metricsPrimed = true
		return
	}

	rate := o.cfg.MetricsRate
	o.metrics.RetrievalAccuracy = ema(o.metrics.RetrievalAccuracy, sample.RetrievalAccuracy, rate)
	o.metrics.CompilationEfficiency = ema(o.metrics.CompilationEfficiency, sample.CompilationEfficiency, rate)
	o.metrics.ValidationQuality = ema(o.metrics.ValidationQuality, sample.ValidationQuality, rate)
	o.metrics.LearningScore = ema(o.metrics.LearningScore, sample.LearningScore, rate)
}

func ema(current, sample, rate float64) float64 {
	return current*(1-rate) + sample*rate
}

func ratioCapped(num, den float64) float64 {
	ratio := num / den
	if ratio > 1 {
		return 1
	}
	return ratio
}

// GetLearningStats is a consistent snapshot of loop counters and the
// moving averages.
func (o *Orchestrator) GetLearningStats() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()

	stats := Stats{
		TotalLoops:         o.totalLoops,
		PerformanceMetrics: o.metrics,
		KnowledgeGraphSize: o.compiler.Graph().Size(),
	}
	if o.totalLoops > 0 {
		stats.AverageIterations = float64(o.totalIterations) / float64(o.totalLoops)
		stats.ConvergenceRate = float64(o.convergedLoops) / float64(o.totalLoops)
	}
	return stats
}
