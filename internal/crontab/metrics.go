package crontab

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks job table activity.
type Metrics struct {
	rewritesTotal  prometheus.Counter
	errorsTotal    prometheus.Counter
	managedEntries prometheus.Gauge
}

// InitMetrics registers job table metrics under the given namespace. A nil
// registerer falls back to the default registry.
func InitMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		rewritesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crontab_rewrites_total",
			Help:      "Total number of job table rewrites.",
		}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crontab_errors_total",
			Help:      "Total number of job table read or write failures.",
		}),
		managedEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "crontab_managed_entries",
			Help:      "Managed entries in the job table after the last rewrite.",
		}),
	}

	reg.MustRegister(m.rewritesTotal, m.errorsTotal, m.managedEntries)
	return m
}

// RecordRewrite counts a successful rewrite leaving n managed entries.
func (m *Metrics) RecordRewrite(n int) {
	if m == nil {
		return
	}
	m.rewritesTotal.Inc()
	m.managedEntries.Set(float64(n))
}

// RecordError counts a failed table operation.
func (m *Metrics) RecordError() {
	if m == nil {
		return
	}
	m.errorsTotal.Inc()
}
