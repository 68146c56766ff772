package loop

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/cognitive-agent/backend/internal/compiler"
	"github.com/cognitive-agent/backend/internal/source"
	"github.com/cognitive-agent/backend/internal/validation"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

type ComponentHealth struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type Health struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
	Timestamp  time.Time                  `json:"timestamp"`
}

// HealthCheck probes each component with canned inputs. No network calls
// are made and nothing persistent is mutated; the validation probe may
// touch the transient score cache, which is acceptable.
func (o *Orchestrator) HealthCheck(ctx context.Context) *Health {
	health := &Health{
		Components: make(map[string]ComponentHealth),
		Timestamp:  time.Now(),
	}

	health.Components["sources"] = o.probeSources()
	health.Components["validation"] = o.probeValidation(ctx)
	health.Components["compiler"] = probeCompiler()

	healthy, unhealthy := 0, 0
	for _, component := range health.Components {
		switch component.Status {
		case StatusHealthy:
			healthy++
		case StatusUnhealthy:
			unhealthy++
		}
	}

	switch {
	case unhealthy == 0 && healthy == len(health.Components):
		health.Status = StatusHealthy
	case unhealthy == len(health.Components):
		health.Status = StatusUnhealthy
	default:
		health.Status = StatusDegraded
	}

	return health
}

func (o *Orchestrator) probeSources() ComponentHealth {
	count := o.sources.Registry().Len()
	if count == 0 {
		return ComponentHealth{Status: StatusUnhealthy, Detail: "no source adapters registered"}
	}
	return ComponentHealth{
		Status: StatusHealthy,
		Detail: fmt.Sprintf("%d adapter(s) registered", count),
	}
}

func (o *Orchestrator) probeValidation(ctx context.Context) ComponentHealth {
	probe := source.Result{
		URL:     "https://diagnostics.internal/probe",
		Title:   "Diagnostics probe",
		Content: "This diagnostic document cites a study [1] and reports findings from 2024. However, alternative interpretations exist.",
	}

	report := o.scorer.Validate(ctx, []source.Result{probe}, validation.Context{})
	if len(report.Records) != 1 {
		return ComponentHealth{Status: StatusUnhealthy, Detail: "probe produced no record"}
	}

	record := report.Records[0]
	for _, score := range []float64{record.Credibility, record.Bias, record.Freshness, record.Consistency, record.OverallScore} {
		if score < 0 || score > 1 || math.IsNaN(score) {
			return ComponentHealth{Status: StatusUnhealthy, Detail: "probe score out of range"}
		}
	}

	return ComponentHealth{Status: StatusHealthy}
}

func probeCompiler() ComponentHealth {
	first := compiler.Embed("diagnostics", 16)
	second := compiler.Embed("diagnostics", 16)

	similarity := compiler.CosineSimilarity(first.Vector, second.Vector)
	if math.Abs(similarity-1) > 1e-9 {
		return ComponentHealth{Status: StatusUnhealthy, Detail: "embedding determinism probe failed"}
	}

	return ComponentHealth{Status: StatusHealthy}
}
