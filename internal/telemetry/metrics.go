// Package telemetry provides observability primitives for the generation
// engine: a set of Prometheus collectors for engine-level concerns and an
// OpenTelemetry tracing setup. The engine and transport packages do not
// record against these collectors or open spans themselves.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine-level Prometheus collectors.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec // labels: endpoint, status
	RequestDuration  *prometheus.HistogramVec // labels: endpoint
	ActiveRequests   prometheus.Gauge
	RetriesTotal     *prometheus.CounterVec // labels: endpoint
	RateLimitWaits   prometheus.Counter
	CapacityWaits    prometheus.Counter
	CapacityRemaining prometheus.Gauge
	SubBatchesTotal  *prometheus.CounterVec // labels: op
	StreamEventsTotal *prometheus.CounterVec // labels: endpoint
	TokensProcessed  *prometheus.CounterVec // labels: model, type
}

// NewMetrics creates and registers all metrics with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "genai",
			Name:      "requests_total",
			Help:      "Total number of requests issued to the generation service.",
		}, []string{"endpoint", "status"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:                       "genai",
			Name:                            "request_duration_seconds",
			Help:                            "Request duration in seconds, by endpoint.",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 0,
		}, []string{"endpoint"}),

		ActiveRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "genai",
			Name:      "active_requests",
			Help:      "Number of currently in-flight requests across all engines.",
		}),

		RetriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "genai",
			Name:      "retries_total",
			Help:      "Total retry attempts after a 429 response, by endpoint.",
		}, []string{"endpoint"}),

		RateLimitWaits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "genai",
			Name:      "rate_limited_total",
			Help:      "Total requests that exhausted the retry budget after 429s.",
		}),

		CapacityWaits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "genai",
			Name:      "capacity_waits_total",
			Help:      "Total times the capacity gate busy-waited for budget to refresh.",
		}),

		CapacityRemaining: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "genai",
			Name:      "capacity_remaining",
			Help:      "Most recently observed remaining token budget.",
		}),

		SubBatchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "genai",
			Name:      "sub_batches_total",
			Help:      "Total sub-batches dispatched, by operation.",
		}, []string{"op"}),

		StreamEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "genai",
			Name:      "stream_events_total",
			Help:      "Total SSE frames demultiplexed, by endpoint.",
		}, []string{"endpoint"}),

		TokensProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "genai",
			Name:      "tokens_processed_total",
			Help:      "Total tokens reported by the service, by model and type.",
		}, []string{"model", "type"}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.ActiveRequests,
		m.RetriesTotal,
		m.RateLimitWaits,
		m.CapacityWaits,
		m.CapacityRemaining,
		m.SubBatchesTotal,
		m.StreamEventsTotal,
		m.TokensProcessed,
	)

	return m
}
