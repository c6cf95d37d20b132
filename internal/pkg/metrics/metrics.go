// Package metrics holds the Prometheus collectors of the library service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds the application-specific collectors
var Registry = prometheus.NewRegistry()

var (
	gatewayOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "library",
			Subsystem: "gateway",
			Name:      "operations_total",
			Help:      "Record gateway operations by action, collection and outcome.",
		},
		[]string{"action", "collection", "outcome"},
	)

	gatewayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "library",
			Subsystem: "gateway",
			Name:      "operation_duration_seconds",
			Help:      "Duration of record gateway operations.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"action"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "library",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	aiCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "library",
			Subsystem: "assistant",
			Name:      "calls_total",
			Help:      "Generative AI calls by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		gatewayOps,
		gatewayDuration,
		httpRequests,
		aiCalls,
	)
}

// RecordGatewayOp records one gateway operation
func RecordGatewayOp(action, collection string, err error, elapsed time.Duration) {
	gatewayOps.WithLabelValues(action, collection, outcome(err)).Inc()
	gatewayDuration.WithLabelValues(action).Observe(elapsed.Seconds())
}

// RecordHTTPRequest records one handled HTTP request
func RecordHTTPRequest(method, route string, status int) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// RecordAICall records one generative AI call
func RecordAICall(kind string, err error) {
	aiCalls.WithLabelValues(kind, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
