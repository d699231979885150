package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks directive execution.
type Metrics struct {
	directivesTotal *prometheus.CounterVec
}

// InitMetrics registers dispatch metrics under the given namespace. A nil
// registerer falls back to the default registry.
func InitMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		directivesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "directives_total",
			Help:      "Directives executed, by kind and status.",
		}, []string{"kind", "status"}),
	}

	reg.MustRegister(m.directivesTotal)
	return m
}

// RecordDirective counts one executed directive.
func (m *Metrics) RecordDirective(kind string, success bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !success {
		status = "failed"
	}
	m.directivesTotal.WithLabelValues(kind, status).Inc()
}
