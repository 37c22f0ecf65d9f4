// Package metrics defines the Prometheus collectors exported by the gateway.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// LatencyBuckets spans fast model listings up to long generations.
var LatencyBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300}

// Stream event outcomes.
const (
	OutcomeEmitted = "emitted"
	OutcomeSkipped = "skipped"
)

var (
	// UpstreamRequestsTotal counts provider calls by variant, operation and status code.
	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_upstream_requests_total",
			Help: "Upstream provider requests",
		},
		[]string{"provider", "operation", "status"},
	)

	// UpstreamLatency records time to upstream response headers.
	UpstreamLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_upstream_latency_seconds",
			Help:    "Upstream time to first byte",
			Buckets: LatencyBuckets,
		},
		[]string{"provider", "operation"},
	)

	// StreamEventsTotal counts transcoded stream lines by outcome.
	StreamEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_stream_events_total",
			Help: "Stream payload lines processed",
		},
		[]string{"provider", "outcome"},
	)

	// ActiveStreams tracks relays currently writing to clients.
	ActiveStreams = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gateway_streams_active",
			Help: "Active streaming relays",
		},
	)

	// AuthDeniedTotal counts requests rejected by the role guard.
	AuthDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_auth_denied_total",
			Help: "Requests denied by the role guard",
		},
	)
)

func init() {
	prometheus.MustRegister(
		UpstreamRequestsTotal,
		UpstreamLatency,
		StreamEventsTotal,
		ActiveStreams,
		AuthDeniedTotal,
	)
}
