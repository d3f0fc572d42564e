package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Selection outcomes.
const (
	OutcomeUnseen     = "unseen"
	OutcomeWraparound = "wraparound"
	OutcomeDegraded   = "degraded"
	OutcomeAnonymous  = "anonymous"
	OutcomeEmpty      = "empty"
	OutcomeTruncated  = "truncated"
)

var (
	SelectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contentstream_selections_total",
			Help: "Total get_unseen calls by content type and outcome",
		},
		[]string{"content_type", "outcome"},
	)

	SelectionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contentstream_selection_duration_seconds",
			Help:    "Duration of get_unseen calls in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"content_type"},
	)

	SelectionWidenAttempts = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contentstream_selection_widen_attempts",
			Help:    "Candidate windows fetched per get_unseen call",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 8},
		},
		[]string{"content_type"},
	)

	MutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contentstream_mutations_total",
			Help: "Total membership mutations by content type, kind and result",
		},
		[]string{"content_type", "kind", "result"},
	)

	IdentitiesAssignedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contentstream_identities_assigned_total",
			Help: "Dense ids assigned by content type",
		},
		[]string{"content_type"},
	)

	IdentityConflictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contentstream_identity_conflicts_total",
			Help: "Lost races while assigning dense ids (retried internally)",
		},
		[]string{"content_type"},
	)

	SeenCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contentstream_seen_cache_total",
			Help: "Seen-set cache lookups by result",
		},
		[]string{"result"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contentstream_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contentstream_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	StoreBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "contentstream_store_breaker_state",
			Help: "Membership store circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)
)

func RecordSelection(contentType, outcome string, attempts int, d time.Duration) {
	SelectionsTotal.WithLabelValues(contentType, outcome).Inc()
	SelectionDuration.WithLabelValues(contentType).Observe(d.Seconds())
	if attempts > 0 {
		SelectionWidenAttempts.WithLabelValues(contentType).Observe(float64(attempts))
	}
}

func RecordMutation(contentType, kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	MutationsTotal.WithLabelValues(contentType, kind, result).Inc()
}

func RecordIdentityAssigned(contentType string) {
	IdentitiesAssignedTotal.WithLabelValues(contentType).Inc()
}

func RecordIdentityConflict(contentType string) {
	IdentityConflictsTotal.WithLabelValues(contentType).Inc()
}

func RecordSeenCache(result string) {
	SeenCacheTotal.WithLabelValues(result).Inc()
}

func ObserveHTTP(method, route, status string, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
