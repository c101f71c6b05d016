// Package metrics declares the Prometheus collectors exported at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compass_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "compass_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Place search provider
	PlaceSearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compass_place_search_requests_total",
			Help: "Total number of place search provider calls by outcome",
		},
		[]string{"operation", "outcome"}, // outcome: "ok", "error", "rejected"
	)

	PlaceSearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "compass_place_search_duration_seconds",
			Help:    "Latency of place search provider calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"operation"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "compass_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compass_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Recommendation engine
	VenuesIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "compass_venues_ingested_total",
			Help: "Total number of venues written to local storage from the provider",
		},
	)

	RecommendationsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compass_recommendations_total",
			Help: "Total number of recommendation requests by outcome",
		},
		[]string{"outcome"}, // "ok", "not_ready", "upstream_error", "error"
	)

	RecommendationCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "compass_recommendation_candidates",
			Help:    "Number of candidates ranked per recommendation",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)
)

// RecordAPIRequest records one served request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordPlaceSearch records one provider call.
func RecordPlaceSearch(operation, outcome string, duration time.Duration) {
	PlaceSearchRequests.WithLabelValues(operation, outcome).Inc()
	PlaceSearchDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordRecommendation records the outcome of one Generate call and, on
// success, how many candidates were ranked.
func RecordRecommendation(outcome string, candidates int) {
	RecommendationsGenerated.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		RecommendationCandidates.Observe(float64(candidates))
	}
}
