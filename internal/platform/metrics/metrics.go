package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the bot. A single holder is built
// in main and handed to the components that observe into it.
type Metrics struct {
	ChecksTotal    *prometheus.CounterVec
	GrantsTotal    prometheus.Counter
	ExhaustedTotal prometheus.Counter
	TrackedUsers   prometheus.Gauge
	SweepDuration  prometheus.Histogram
	BackendLatency prometheus.Histogram
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		ChecksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rolegate_verification_checks_total",
			Help: "Verification checks issued to the backend, by outcome",
		}, []string{"outcome"}),
		GrantsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rolegate_role_grants_total",
			Help: "Verified roles granted through the gateway",
		}),
		ExhaustedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rolegate_retry_exhausted_total",
			Help: "Users dropped after using their whole retry budget",
		}),
		TrackedUsers: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "rolegate_tracked_users",
			Help: "Users currently tracked by the reconciliation loop",
		}),
		SweepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rolegate_sweep_duration_seconds",
			Help:    "Duration of one reconciliation sweep",
			Buckets: prometheus.DefBuckets,
		}),
		BackendLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rolegate_backend_call_duration_seconds",
			Help:    "Latency of verification backend calls",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.4, 1, 2.5, 5},
		}),
	}
}

// CheckOutcome labels for ChecksTotal.
const (
	OutcomeVerified    = "verified"
	OutcomeNotVerified = "not_verified"
	OutcomeError       = "error"
)

// ObserveCheck records one verification check outcome.
func (m *Metrics) ObserveCheck(outcome string) {
	if m == nil {
		return
	}
	m.ChecksTotal.WithLabelValues(outcome).Inc()
}
