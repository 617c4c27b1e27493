package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "augur_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "augur_http_request_duration_seconds",
			Help: "HTTP request duration in seconds",
		},
		[]string{"method", "route"},
	)

	GenerationCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "augur_generation_calls_total",
			Help: "Text generation calls by provider and result",
		},
		[]string{"provider", "result"},
	)

	GenerationFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "augur_generation_fallbacks_total",
			Help: "Retries on the default provider after a failed call",
		},
		[]string{"from", "to"},
	)

	GenerationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "augur_generation_latency_seconds",
			Help:    "Provider call latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider"},
	)

	SchemaParseFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "augur_structured_output_parse_failures_total",
			Help: "Structured outputs that could not be parsed as a JSON object",
		},
	)

	MemoryOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "augur_memory_operations_total",
			Help: "Knowledge store operations by kind and result",
		},
		[]string{"op", "result"},
	)

	MemoryPromotions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "augur_memory_promotions_total",
			Help: "Records moved from short-term to core memory",
		},
	)

	OpinionConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "augur_opinion_confidence",
			Help:    "Confidence of formed and revised opinions",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		},
	)

	SweptEntries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "augur_store_swept_entries_total",
			Help: "Expired entries purged by the sweeper",
		},
	)
)
