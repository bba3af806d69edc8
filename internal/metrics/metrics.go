// Astrarium - Astrological Computation and Chart Analysis API
// Copyright 2026 Astrarium Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/astrarium/astrarium

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the API surface, the computation cache,
// the upstream ephemeris client, and API key management.

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astrarium_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "astrarium_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "astrarium_http_active_requests",
			Help: "Current number of in-flight HTTP requests",
		},
	)

	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astrarium_rate_limit_rejections_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"scope"}, // "key" or "ip"
	)

	// Computation cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astrarium_cache_hits_total",
			Help: "Total number of computation cache hits",
		},
		[]string{"endpoint"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astrarium_cache_misses_total",
			Help: "Total number of computation cache misses",
		},
		[]string{"endpoint"},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "astrarium_cache_entries",
			Help: "Current number of cached computation results",
		},
	)

	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "astrarium_cache_evictions_total",
			Help: "Total number of expired cache entries evicted by the sweeper",
		},
	)

	// Chart computation metrics
	ChartComputations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astrarium_chart_computations_total",
			Help: "Total number of chart computations by operation",
		},
		[]string{"operation"},
	)

	ChartComputationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "astrarium_chart_computation_duration_seconds",
			Help:    "Chart computation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Upstream ephemeris metrics
	EphemerisRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astrarium_ephemeris_requests_total",
			Help: "Total number of upstream ephemeris requests",
		},
		[]string{"operation", "result"}, // result: "success", "failure"
	)

	EphemerisRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "astrarium_ephemeris_request_duration_seconds",
			Help:    "Upstream ephemeris request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "astrarium_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astrarium_circuit_breaker_requests_total",
			Help: "Total number of requests through the circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astrarium_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// API key metrics
	KeyOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astrarium_key_operations_total",
			Help: "Total number of API key operations",
		},
		[]string{"operation", "result"}, // operation: "create", "revoke", "authenticate"
	)

	ActiveKeys = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "astrarium_active_keys",
			Help: "Current number of active API keys",
		},
	)
)

// RecordHTTPRequest records count and latency for a completed request.
func RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		HTTPActiveRequests.Inc()
	} else {
		HTTPActiveRequests.Dec()
	}
}

// RecordCacheHit records a cache hit for the given endpoint.
func RecordCacheHit(endpoint string) {
	CacheHits.WithLabelValues(endpoint).Inc()
}

// RecordCacheMiss records a cache miss for the given endpoint.
func RecordCacheMiss(endpoint string) {
	CacheMisses.WithLabelValues(endpoint).Inc()
}

// RecordRateLimitRejection records a rejected request for the given scope.
func RecordRateLimitRejection(scope string) {
	RateLimitRejections.WithLabelValues(scope).Inc()
}

// RecordChartComputation records a completed chart computation.
func RecordChartComputation(operation string, duration time.Duration) {
	ChartComputations.WithLabelValues(operation).Inc()
	ChartComputationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordEphemerisRequest records an upstream call outcome.
func RecordEphemerisRequest(operation string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	EphemerisRequests.WithLabelValues(operation, result).Inc()
	EphemerisRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordKeyOperation records an API key management operation.
func RecordKeyOperation(operation string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	KeyOperations.WithLabelValues(operation, result).Inc()
}
