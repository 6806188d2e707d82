// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Mood inference
	MoodInferences = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodtune_mood_inferences_total",
			Help: "Mood analyses produced, by source",
		},
		[]string{"source"}, // "ai", "heuristic"
	)

	MoodFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodtune_mood_fallbacks_total",
			Help: "Classifier results discarded in favor of the heuristic",
		},
		[]string{"reason"}, // "backend", "malformed"
	)

	// Recommendations
	RecommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodtune_recommendations_total",
			Help: "Tracks recommended, by candidate source",
		},
		[]string{"source"}, // "catalog", "fallback"
	)

	CatalogDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "moodtune_catalog_search_duration_seconds",
			Help:    "Duration of catalog searches in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Circuit breaker
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "moodtune_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodtune_circuit_breaker_requests_total",
			Help: "Requests through the circuit breaker",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodtune_circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Scheduler
	SchedulerRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodtune_scheduler_runs_total",
			Help: "Auto-analysis runs, by result",
		},
		[]string{"result"}, // "success", "error", "skipped"
	)

	// HTTP API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodtune_api_requests_total",
			Help: "HTTP API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moodtune_api_request_duration_seconds",
			Help:    "HTTP API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordAPIRequest records one served HTTP request.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordCatalogSearch records how long a catalog search took.
func RecordCatalogSearch(duration time.Duration) {
	CatalogDuration.Observe(duration.Seconds())
}

// RecordRecommendations counts tracks served from source.
func RecordRecommendations(source string, n int) {
	RecommendationsServed.WithLabelValues(source).Add(float64(n))
}
