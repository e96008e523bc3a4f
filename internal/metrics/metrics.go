// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tomtom215/ledgerview/internal/projection"
)

const namespace = "ledgerview"

var (
	// Projection Metrics
	ProjectionEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "projection_events_total",
			Help:      "Total number of events processed by the projection engine",
		},
		[]string{"event_type", "outcome"}, // outcome: ok, ignored, malformed, failed
	)

	ProjectionDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "projection_decisions_total",
			Help:      "Idempotency guard decisions per handler",
		},
		[]string{"handler", "decision"}, // decision: created, applied, unchanged, skipped
	)

	ProjectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "projection_duration_seconds",
			Help:      "Time to apply one event to every registered handler",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// Store Metrics
	StoreUpsertDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_upsert_duration_seconds",
			Help:      "Duration of conditional upserts against the read-model store",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"backend"},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Total number of failed store operations",
		},
		[]string{"backend", "operation"},
	)

	// NATS Metrics
	NATSMessagesConsumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nats_messages_consumed_total",
			Help:      "Total number of messages consumed from NATS",
		},
	)

	NATSMessagesPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nats_messages_published_total",
			Help:      "Total number of messages published to NATS",
		},
	)

	NATSMessagesPoisoned = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nats_messages_poisoned_total",
			Help:      "Total number of messages routed to the poison queue",
		},
	)

	NATSProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "nats_processing_duration_seconds",
			Help:      "Time to handle one NATS message including decode",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state_transitions_total",
			Help:      "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Duration of API requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"cache"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "app_info",
			Help:      "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordStoreUpsert records one upsert against backend.
func RecordStoreUpsert(backend string, duration time.Duration, err error) {
	StoreUpsertDuration.WithLabelValues(backend).Observe(duration.Seconds())
	if err != nil {
		StoreErrors.WithLabelValues(backend, "upsert").Inc()
	}
}

// RecordStoreGetError records a failed lookup against backend.
func RecordStoreGetError(backend string) {
	StoreErrors.WithLabelValues(backend, "get").Inc()
}

// RecordNATSConsumed records one consumed message and its handling time.
func RecordNATSConsumed(duration time.Duration) {
	NATSMessagesConsumed.Inc()
	NATSProcessingDuration.Observe(duration.Seconds())
}

// RecordNATSPublished records one published message.
func RecordNATSPublished() {
	NATSMessagesPublished.Inc()
}

// RecordNATSPoisoned records one message sent to the poison queue.
func RecordNATSPoisoned() {
	NATSMessagesPoisoned.Inc()
}

// breakerStateValues maps gobreaker state names to gauge values.
var breakerStateValues = map[string]float64{
	"closed":    0,
	"half-open": 1,
	"open":      2,
}

// RecordCircuitBreakerTransition records a state change of the named breaker.
func RecordCircuitBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	if v, ok := breakerStateValues[to]; ok {
		CircuitBreakerState.WithLabelValues(name).Set(v)
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordCacheLookup records a hit or miss on the named cache.
func RecordCacheLookup(cache string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cache).Inc()
		return
	}
	CacheMisses.WithLabelValues(cache).Inc()
}

// ProjectionObserver implements projection.Observer on the projection
// metric families.
type ProjectionObserver struct{}

// EventProcessed implements projection.Observer.
func (ProjectionObserver) EventProcessed(eventType, outcome string, duration time.Duration) {
	ProjectionEvents.WithLabelValues(eventType, outcome).Inc()
	ProjectionDuration.Observe(duration.Seconds())
}

// HandlerDecided implements projection.Observer.
func (ProjectionObserver) HandlerDecided(handler string, decision projection.Decision) {
	ProjectionDecisions.WithLabelValues(handler, decision.String()).Inc()
}

var _ projection.Observer = ProjectionObserver{}
