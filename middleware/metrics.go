package middleware

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pharos-watch/pharos/entry"
)

// Metrics counts processed and dropped entries.
type Metrics struct {
	processed prometheus.Counter
	dropped   prometheus.Counter
}

// NewMetrics creates a metrics middleware and registers its counters with
// the given registerer. A nil registerer leaves the counters unregistered,
// which is convenient in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		processed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pharos",
			Name:      "entries_processed_total",
			Help:      "Entries delivered to the handler.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pharos",
			Name:      "entries_dropped_total",
			Help:      "Entries dropped by the pipeline.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.processed, m.dropped)
	}
	return m
}

// Wrap decorates the handler with counter updates.
func (m *Metrics) Wrap(next Handler) Handler {
	return func(e entry.Entry) *entry.Entry {
		result := next(e)
		if result != nil {
			m.processed.Inc()
		} else {
			m.dropped.Inc()
		}
		return result
	}
}
