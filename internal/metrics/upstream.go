package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Upstream (movie metadata API) metrics.
var (
	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Total number of upstream movie API requests",
		},
		[]string{"endpoint", "status"},
	)

	UpstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream movie API request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)

	UpstreamRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_retries_total",
			Help:      "Total number of retried upstream requests",
		},
		[]string{"endpoint"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_transitions_total",
			Help:      "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	ResponseCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "response_cache_total",
			Help:      "Response cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	AggregationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendation_aggregations_total",
			Help:      "Recommendation aggregations by outcome",
		},
		[]string{"result"}, // "complete" / "partial" / "superseded"
	)

	AggregationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommendation_aggregation_duration_seconds",
			Help:      "Duration of applied recommendation aggregations",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)

var upstreamMetricsRegistered bool

// RegisterUpstreamMetrics registers upstream, cache and aggregation metrics. Must be called once from main.
func RegisterUpstreamMetrics() {
	if upstreamMetricsRegistered {
		return
	}
	prometheus.MustRegister(UpstreamRequestsTotal)
	prometheus.MustRegister(UpstreamRequestDuration)
	prometheus.MustRegister(UpstreamRetriesTotal)
	prometheus.MustRegister(CircuitBreakerState)
	prometheus.MustRegister(CircuitBreakerTransitions)
	prometheus.MustRegister(ResponseCacheTotal)
	prometheus.MustRegister(AggregationsTotal)
	prometheus.MustRegister(AggregationDuration)
	upstreamMetricsRegistered = true
}

// AggregationRecorder reports feed outcomes to Prometheus.
type AggregationRecorder struct{}

// AggregationCompleted records an applied aggregation.
func (AggregationRecorder) AggregationCompleted(d time.Duration, partial bool) {
	result := "complete"
	if partial {
		result = "partial"
	}
	AggregationsTotal.WithLabelValues(result).Inc()
	AggregationDuration.Observe(d.Seconds())
}

// AggregationSuperseded records a discarded aggregation.
func (AggregationRecorder) AggregationSuperseded() {
	AggregationsTotal.WithLabelValues("superseded").Inc()
}
