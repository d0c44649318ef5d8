package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var Metrics = struct {
	RPCRequests              *prometheus.CounterVec
	RPCDuration              *prometheus.HistogramVec
	TasksTotal               *prometheus.CounterVec
	SSEEvents                *prometheus.CounterVec
	ClientRetries            *prometheus.CounterVec
	ClientFailures           *prometheus.CounterVec
	OrchestrationRefinements prometheus.Counter
	ActiveStreams            prometheus.Gauge
}{
	RPCRequests: promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitmesh",
		Name:      "rpc_requests_total",
		Help:      "Total JSON-RPC requests by method and outcome.",
	}, []string{"method", "status"}),

	RPCDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fitmesh",
		Name:      "rpc_request_duration_seconds",
		Help:      "JSON-RPC request duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"}),

	TasksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitmesh",
		Name:      "tasks_total",
		Help:      "Total tasks reaching each terminal state.",
	}, []string{"state"}),

	SSEEvents: promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitmesh",
		Name:      "sse_events_total",
		Help:      "Total server-sent events emitted by event name.",
	}, []string{"event"}),

	ClientRetries: promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitmesh",
		Name:      "client_retries_total",
		Help:      "Total retried outbound calls by peer.",
	}, []string{"peer"}),

	ClientFailures: promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitmesh",
		Name:      "client_failures_total",
		Help:      "Total failed outbound call attempts by peer and failure kind.",
	}, []string{"peer", "kind"}),

	OrchestrationRefinements: promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fitmesh",
		Name:      "orchestration_refinements_total",
		Help:      "Total plan refinements triggered by validator conflicts.",
	}),

	ActiveStreams: promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fitmesh",
		Name:      "active_streams",
		Help:      "Number of currently open event streams.",
	}),
}
