package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the authentication service's Prometheus metrics.
type Metrics struct {
	AuthAttempts *prometheus.CounterVec
	AuthDuration prometheus.Histogram
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		AuthAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "firtrace_auth_attempts_total",
			Help: "Authentication attempts by outcome",
		}, []string{"outcome"}),
		AuthDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "firtrace_auth_duration_seconds",
			Help:    "Latency of authentication requests",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObserveAuth records one authentication attempt.
func (m *Metrics) ObserveAuth(outcome string, seconds float64) {
	m.AuthAttempts.WithLabelValues(outcome).Inc()
	m.AuthDuration.Observe(seconds)
}
