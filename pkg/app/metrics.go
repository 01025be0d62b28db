package app

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Evaluation outcomes.
const (
	OutcomeOK         = "ok"
	OutcomeError      = "error"
	OutcomeTimeout    = "timeout"
	OutcomeSuperseded = "superseded"
	OutcomeFatal      = "fatal"
)

// Metrics records layout evaluations.
type Metrics struct {
	Evaluations *prometheus.CounterVec // by outcome
	Duration    prometheus.Histogram
}

// NewMetrics creates the evaluation metrics and registers them with reg. A
// nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cuttlecase",
			Subsystem: "app",
			Name:      "evaluations_total",
			Help:      "Layout evaluations by outcome.",
		}, []string{"outcome"}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cuttlecase",
			Subsystem: "app",
			Name:      "evaluation_duration_seconds",
			Help:      "Time from layout source to preview result.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Evaluations, m.Duration)
	}
	return m
}

func (m *Metrics) observe(outcome string, d time.Duration) {
	m.Evaluations.WithLabelValues(outcome).Inc()
	m.Duration.Observe(d.Seconds())
}
