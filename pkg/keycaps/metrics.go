package keycaps

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts cache activity.
type Metrics struct {
	Lookups *prometheus.CounterVec // by result: hit, miss
	Fetches *prometheus.CounterVec // by outcome: ok, error
}

// NewMetrics creates the cache counters and registers them with reg. A nil
// reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cuttlecase",
			Subsystem: "keycap_cache",
			Name:      "lookups_total",
			Help:      "Keycap mesh lookups by cache result.",
		}, []string{"result"}),
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cuttlecase",
			Subsystem: "keycap_cache",
			Name:      "fetches_total",
			Help:      "Keycap mesh asset fetches by outcome.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.Lookups, m.Fetches)
	}
	return m
}

func (m *Metrics) lookup(hit bool) {
	if hit {
		m.Lookups.WithLabelValues("hit").Inc()
	} else {
		m.Lookups.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) fetch(err error) {
	if err != nil {
		m.Fetches.WithLabelValues("error").Inc()
	} else {
		m.Fetches.WithLabelValues("ok").Inc()
	}
}
