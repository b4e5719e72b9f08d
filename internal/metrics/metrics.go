package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shopsphere"

// Metrics holds the store collectors on a private registry.
type Metrics struct {
	registry    *prometheus.Registry
	cartOps     *prometheus.CounterVec
	recordCalls *prometheus.CounterVec
	imports     *prometheus.CounterVec
	sessions    prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cartOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_operations_total",
			Help:      "Cart operations by kind.",
		}, []string{"op"}),
		recordCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_calls_total",
			Help:      "Record service calls by table, operation and outcome.",
		}, []string{"table", "op", "outcome"}),
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_imports_total",
			Help:      "Catalog imports by outcome.",
		}, []string{"outcome"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Live storefront sessions.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.cartOps,
		m.recordCalls,
		m.imports,
		m.sessions,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) CartOperation(op string) {
	m.cartOps.WithLabelValues(op).Inc()
}

// RecordCall counts a record service call.
func (m *Metrics) RecordCall(table, op string, err error) {
	m.recordCalls.WithLabelValues(table, op, outcome(err)).Inc()
}

func (m *Metrics) CatalogImport(err error) {
	m.imports.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) SessionCreated() {
	m.sessions.Inc()
}

func (m *Metrics) SessionClosed() {
	m.sessions.Dec()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
