// internal/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the dashboard collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Ticks        *prometheus.CounterVec
	TicksSkipped *prometheus.CounterVec
	WindowSize   *prometheus.GaugeVec
	Clients      *prometheus.GaugeVec
	Alerts       *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_ticks_total",
			Help: "Readings generated per dashboard.",
		}, []string{"dashboard"}),
		TicksSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_ticks_skipped_total",
			Help: "Ticks suspended because no client was watching.",
		}, []string{"dashboard"}),
		WindowSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dashboard_window_size",
			Help: "Readings currently held in the rolling window.",
		}, []string{"dashboard"}),
		Clients: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dashboard_ws_clients",
			Help: "Connected WebSocket clients.",
		}, []string{"dashboard"}),
		Alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_alerts_total",
			Help: "Out-of-range readings per field.",
		}, []string{"dashboard", "field"}),
	}
	m.registry.MustRegister(
		m.Ticks, m.TicksSkipped, m.WindowSize, m.Clients, m.Alerts,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
