// Package metrics exposes list activity to Prometheus. A nil *Metrics is
// valid and records nothing.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	MetricPagesFetched    = "pages_fetched_total"
	MetricActiveListeners = "active_listeners"
	MetricHydrations      = "hydrations_total"
)

// Result label values.
const (
	ResultOK        = "ok"
	ResultExhausted = "exhausted"
	ResultMissing   = "missing"
	ResultError     = "error"
)

type Metrics struct {
	pagesFetched    *prometheus.CounterVec
	activeListeners prometheus.Gauge
	hydrations      *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		pagesFetched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "soilview",
				Name:      MetricPagesFetched,
				Help:      "Page range queries by result.",
			},
			[]string{"result"},
		),
		activeListeners: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "soilview",
				Name:      MetricActiveListeners,
				Help:      "Child listeners currently attached by lists.",
			},
		),
		hydrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "soilview",
				Name:      MetricHydrations,
				Help:      "Item value fetches by result.",
			},
			[]string{"result"},
		),
	}
	reg.MustRegister(m.pagesFetched, m.activeListeners, m.hydrations)
	return m
}

func (m *Metrics) PageFetched(result string) {
	if m == nil {
		return
	}
	m.pagesFetched.WithLabelValues(result).Inc()
}

func (m *Metrics) ListenerAttached() {
	if m == nil {
		return
	}
	m.activeListeners.Inc()
}

func (m *Metrics) ListenerDetached() {
	if m == nil {
		return
	}
	m.activeListeners.Dec()
}

func (m *Metrics) Hydrated(result string) {
	if m == nil {
		return
	}
	m.hydrations.WithLabelValues(result).Inc()
}
