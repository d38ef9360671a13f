// Package metrics defines the Prometheus collectors exported by lancong.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "lancong"

// Search pipeline metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Total number of search requests by strategy",
		},
		[]string{"strategy", "status"},
	)

	SearchStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_stage_duration_seconds",
			Help:      "Duration of individual search pipeline stages",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"stage"},
	)

	RerankDegradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rerank_degraded_total",
			Help:      "Rerank calls that fell back to input order after a scoring failure",
		},
		[]string{"mode"},
	)
)

// Embedding metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider"},
	)

	EmbedJobPlacesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embed_job_places_total",
			Help:      "Places processed by the offline embedding job",
		},
		[]string{"result"}, // "embedded" / "skipped" / "failed"
	)
)

// Enrichment metrics.
var (
	EnrichmentLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_lookups_total",
			Help:      "Knowledge-base lookups by outcome",
		},
		[]string{"status"},
	)

	EnrichmentCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_cache_total",
			Help:      "Enrichment cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)

var registerOnce sync.Once

// Register registers every lancong collector with the default registry.
// It is safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			SearchRequestsTotal,
			SearchStageDuration,
			RerankDegradedTotal,
			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			EmbedJobPlacesTotal,
			EnrichmentLookupsTotal,
			EnrichmentCacheTotal,
			CircuitBreakerState,
			httpRequestDuration,
			httpRequestsTotal,
		)
	})
}

// ObserveStage records the duration of a pipeline stage that began at start.
func ObserveStage(stage string, start time.Time) {
	SearchStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// Status returns the status label for an error outcome.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
