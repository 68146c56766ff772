package validation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cognitive-agent/backend/internal/metrics"
	"github.com/cognitive-agent/backend/internal/source"
	"github.com/cognitive-agent/backend/pkg/logger"
)

// Record is the validation outcome for one source. All score fields lie
// in [0,1]; OverallScore is a fixed weighted blend of the four sub-scores.
type Record struct {
	URL          string    `json:"url"`
	Credibility  float64   `json:"credibility"`
	Bias         float64   `json:"bias"`
	Freshness    float64   `json:"freshness"`
	Consistency  float64   `json:"consistency"`
	OverallScore float64   `json:"overall_score"`
	Issues       []string  `json:"issues,omitempty"`
	Validated    bool      `json:"validated"`
	Timestamp    time.Time `json:"timestamp"`
}

type Summary struct {
	TotalSources     int     `json:"total_sources"`
	ValidatedSources int     `json:"validated_sources"`
	MeanCredibility  float64 `json:"mean_credibility"`
	MeanBias         float64 `json:"mean_bias"`
	MeanOverall      float64 `json:"mean_overall"`
}

type Report struct {
	Records         []Record `json:"records"`
	Summary         Summary  `json:"summary"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// Context carries caller-supplied known facts for consistency scoring.
type Context struct {
	KnownFacts []string
}

const (
	weightCredibility = 0.4
	weightBias        = 0.3
	weightFreshness   = 0.2
	weightConsistency = 0.1

	neutralScore = 0.5
)

type Scorer struct {
	cache       Cache
	maxRequests int
}

func NewScorer(cache Cache, maxRequests int) *Scorer {
	if maxRequests <= 0 {
		maxRequests = 10
	}
	return &Scorer{cache: cache, maxRequests: maxRequests}
}

// Validate scores up to maxRequests sources. Each source's four
// sub-assessments run concurrently; a failed sub-check degrades to the
// neutral value instead of aborting the record.
func (s *Scorer) Validate(ctx context.Context, sources []source.Result, vctx Context) *Report {
	if len(sources) > s.maxRequests {
		logger.Debug("Capping validation batch",
			zap.Int("requested", len(sources)),
			zap.Int("cap", s.maxRequests),
		)
		sources = sources[:s.maxRequests]
	}

	report := &Report{Records: make([]Record, 0, len(sources))}

	for _, src := range sources {
		if cached, ok := s.cache.Get(ctx, src.URL); ok {
			report.Records = append(report.Records, *cached)
			continue
		}

		record := s.validateOne(src, vctx)
		s.cache.Set(ctx, src.URL, &record)
		metrics.ValidationScore.WithLabelValues().Observe(record.OverallScore)
		report.Records = append(report.Records, record)
	}

	report.Summary = summarize(report.Records)
	report.Recommendations = recommend(report.Summary)

	logger.Info("Validation batch completed",
		zap.Int("sources", report.Summary.TotalSources),
		zap.Int("validated", report.Summary.ValidatedSources),
		zap.Float64("mean_credibility", report.Summary.MeanCredibility),
	)

	return report
}

type subScore struct {
	name  string
	value float64
	err   error
}

func (s *Scorer) validateOne(src source.Result, vctx Context) Record {
	scores := make(chan subScore, 4)

	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		value, err := scoreCredibility(src)
		scores <- subScore{name: "credibility", value: value, err: err}
	}()
	go func() {
		defer wg.Done()
		value, err := scoreBias(src)
		scores <- subScore{name: "bias", value: value, err: err}
	}()
	go func() {
		defer wg.Done()
		scores <- subScore{name: "freshness", value: scoreFreshness(src.PublishedAt)}
	}()
	go func() {
		defer wg.Done()
		scores <- subScore{name: "consistency", value: scoreConsistency(src.Content, vctx.KnownFacts)}
	}()

	wg.Wait()
	close(scores)

	record := Record{
		URL:         src.URL,
		Credibility: neutralScore,
		Bias:        neutralScore,
		Freshness:   neutralScore,
		Consistency: neutralScore,
		Timestamp:   time.Now(),
	}

	credibilityOK := false
	for score := range scores {
		if score.err != nil {
			record.Issues = append(record.Issues, fmt.Sprintf("%s check degraded: %v", score.name, score.err))
			continue
		}
		switch score.name {
		case "credibility":
			record.Credibility = score.value
			credibilityOK = true
		case "bias":
			record.Bias = score.value
		case "freshness":
			record.Freshness = score.value
		case "consistency":
			record.Consistency = score.value
		}
	}

	record.Validated = credibilityOK
	record.OverallScore = Overall(record.Credibility, record.Bias, record.Freshness, record.Consistency)

	return record
}

// Overall blends the four sub-scores with the fixed validation weights.
// Deterministic: same inputs always produce the same output.
func Overall(credibility, bias, freshness, consistency float64) float64 {
	score := credibility*weightCredibility +
		(1-bias)*weightBias +
		freshness*weightFreshness +
		consistency*weightConsistency
	return clamp01(score)
}

func summarize(records []Record) Summary {
	summary := Summary{TotalSources: len(records)}
	if len(records) == 0 {
		return summary
	}

	var totalCredibility, totalBias, totalOverall float64
	for _, r := range records {
		if r.Validated {
			summary.ValidatedSources++
		}
		totalCredibility += r.Credibility
		totalBias += r.Bias
		totalOverall += r.OverallScore
	}

	n := float64(len(records))
	summary.MeanCredibility = totalCredibility / n
	summary.MeanBias = totalBias / n
	summary.MeanOverall = totalOverall / n

	return summary
}

func recommend(summary Summary) []string {
	var recommendations []string

	if summary.TotalSources == 0 {
		return nil
	}
	if summary.MeanCredibility < 0.6 {
		recommendations = append(recommendations, "mean credibility is low; seek more authoritative sources")
	}
	if summary.MeanBias > 0.5 {
		recommendations = append(recommendations, "sources show elevated bias; diversify providers")
	}
	if summary.ValidatedSources < summary.TotalSources {
		recommendations = append(recommendations, "some sources were only partially validated; treat their scores as degraded")
	}

	return recommendations
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
