// Package observability registers the service's Prometheus collectors. They
// are package-level and registered on the default registry through promauto,
// which is what promhttp.Handler serves at /metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rides"

// Dispatch outcomes.
const (
	OutcomeAssigned  = "assigned"
	OutcomeNoDrivers = "no_drivers"
	OutcomeError     = "error"
)

var (
	DispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "dispatch_total", Help: "Trip requests by dispatch outcome"},
		[]string{"outcome"},
	)
	DispatchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "dispatch_latency_seconds",
		Help:      "Time from trip request to committed assignment",
		Buckets:   prometheus.DefBuckets,
	})
	DispatchCandidates = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "dispatch_candidates",
		Help:      "Available drivers seen per dispatch",
		Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
	})
	ReservationsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dispatch_reservations_skipped_total",
		Help:      "Candidates passed over because another request held their reservation",
	})
	ReservationFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dispatch_reservation_fallbacks_total",
		Help:      "Dispatches that found every candidate reserved and assigned the least-loaded driver unreserved",
	})

	TripTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "trip_transitions_total", Help: "Committed trip status transitions"},
		[]string{"from", "to"},
	)
	TripTransitionConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "trip_transition_conflicts_total",
		Help:      "Transitions that lost a compare-and-set race and were re-validated",
	})

	EventPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "event_publish_failures_total",
		Help:      "Trip events that could not be published",
	})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
