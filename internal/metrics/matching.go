package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "talentmatch"

// Matching Prometheus metrics.
var (
	MatchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_requests_total",
			Help:      "Total number of pair scorings by aggregation mode",
		},
		[]string{"mode"},
	)

	MatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_duration_seconds",
			Help:      "Pair scoring duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	CriterionFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "criterion_fallback_total",
			Help:      "Criteria that degraded to a neutral or estimated score",
		},
		[]string{"criterion"},
	)

	CacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Cache lookups by data class, tier and result",
		},
		[]string{"class", "tier", "result"}, // result: hit / miss / error
	)

	BatchPairsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_pairs_total",
			Help:      "Batch pairs by outcome",
		},
		[]string{"outcome"}, // scored / duplicate / failed / skipped
	)
)

// Routing lookup Prometheus metrics.
var (
	RoutingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routing_requests_total",
			Help:      "External routing lookups by status",
		},
		[]string{"status"}, // ok / error / circuit_open / quota_exceeded / rate_limited
	)

	RoutingRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "routing_request_duration_seconds",
			Help:      "External routing lookup duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	RoutingBreakerOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "routing_breaker_open",
			Help:      "1 when the routing circuit breaker is open",
		},
	)

	RoutingQuotaRemaining = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "routing_quota_remaining",
			Help:      "Remaining daily routing lookups",
		},
	)
)

// Lexical-relations provider Prometheus metrics.
var (
	LexiconRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lexicon_requests_total",
			Help:      "Lexical-relations provider requests by model and status",
		},
		[]string{"model", "status"},
	)

	LexiconRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lexicon_request_duration_seconds",
			Help:      "Lexical-relations provider request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"model"},
	)
)

var matchingMetricsRegistered bool

// RegisterMatchingMetrics registers matching, cache, routing and lexicon metrics. Must be called once from main.
func RegisterMatchingMetrics() {
	if matchingMetricsRegistered {
		return
	}
	prometheus.MustRegister(MatchRequestsTotal)
	prometheus.MustRegister(MatchDuration)
	prometheus.MustRegister(CriterionFallbackTotal)
	prometheus.MustRegister(CacheRequestsTotal)
	prometheus.MustRegister(BatchPairsTotal)
	prometheus.MustRegister(RoutingRequestsTotal)
	prometheus.MustRegister(RoutingRequestDuration)
	prometheus.MustRegister(RoutingBreakerOpen)
	prometheus.MustRegister(RoutingQuotaRemaining)
	prometheus.MustRegister(LexiconRequestsTotal)
	prometheus.MustRegister(LexiconRequestDuration)
	matchingMetricsRegistered = true
}
