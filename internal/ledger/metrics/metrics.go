package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for ledger operations.
type Metrics struct {
	Operations      *prometheus.CounterVec
	OperationTime   *prometheus.HistogramVec
	AuthFailures    prometheus.Counter
	EventsPublished prometheus.Counter
}

// New creates and registers all ledger metrics with the default registry.
func New() *Metrics {
	return &Metrics{
		Operations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vaultbank_ledger_operations_total",
			Help: "Ledger operations by name and outcome",
		}, []string{"operation", "outcome"}),
		OperationTime: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vaultbank_ledger_operation_duration_seconds",
			Help:    "Latency of ledger consistency units",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		AuthFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vaultbank_auth_failures_total",
			Help: "Failed credential verifications and privilege checks",
		}),
		EventsPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vaultbank_domain_events_published_total",
			Help: "Domain events handed to the notifier after commit",
		}),
	}
}

// Observe records one completed operation with its outcome and duration.
func (m *Metrics) Observe(operation, outcome string, seconds float64) {
	m.Operations.WithLabelValues(operation, outcome).Inc()
	m.OperationTime.WithLabelValues(operation).Observe(seconds)
}
