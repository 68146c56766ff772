package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LoopDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cognitive_loop_duration_seconds",
			Help:    "Full loop execution duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"converged"},
	)

	LoopTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cognitive_loop_total",
			Help: "Total number of loops executed",
		},
		[]string{"status"},
	)

	LoopIterations = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cognitive_loop_iterations",
			Help:    "Iterations per loop",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
	)

	SourceRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cognitive_source_requests_total",
			Help: "Total source search requests",
		},
		[]string{"source", "status"},
	)

	SourcesRetrieved = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cognitive_sources_retrieved",
			Help:    "Deduplicated results per retrieval",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	ValidationScore = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cognitive_validation_score",
			Help:    "Overall validation scores",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
		[]string{},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cognitive_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cognitive_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	AbstractionsFormed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cognitive_abstractions_formed_total",
			Help: "Total abstractions formed",
		},
	)

	KnowledgeGraphSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cognitive_knowledge_graph_entries",
			Help: "Entries in the in-memory knowledge graph",
		},
	)

	ConvergenceScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cognitive_convergence_score",
			Help:    "Convergence scores per iteration",
			Buckets: []float64{0, 0.3, 0.4, 0.6, 0.7, 0.8, 1.0},
		},
	)
)

func Init() {
	prometheus.MustRegister(LoopDuration)
	prometheus.MustRegister(LoopTotal)
	prometheus.MustRegister(LoopIterations)
	prometheus.MustRegister(SourceRequests)
	prometheus.MustRegister(SourcesRetrieved)
	prometheus.MustRegister(ValidationScore)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(AbstractionsFormed)
	prometheus.MustRegister(KnowledgeGraphSize)
	prometheus.MustRegister(ConvergenceScore)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
