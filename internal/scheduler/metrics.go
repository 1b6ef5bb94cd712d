package scheduler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess   = "success"
	outcomeHTTPError = "http_error"
	outcomeTransport = "transport_error"
)

type clientMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// newClientMetrics registers on reg; a nil reg builds unregistered collectors.
func newClientMetrics(reg prometheus.Registerer) *clientMetrics {
	factory := promauto.With(reg)
	return &clientMetrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cadence_client_requests_total",
			Help: "Calls to the scheduling service by method, route and outcome",
		}, []string{"method", "route", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cadence_client_request_duration_seconds",
			Help:    "Round-trip time of calls to the scheduling service",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		}, []string{"method", "route"}),
	}
}

func (m *clientMetrics) observe(method, route, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, outcome).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
