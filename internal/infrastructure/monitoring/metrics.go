package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GriffinCanCode/qbridge/internal/domain/dispatch"
)

const namespace = "qbridge"

// Metrics holds the bridge's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Bridge metrics
	Dispatches     *prometheus.CounterVec
	Settled        *prometheus.CounterVec
	SettleDuration *prometheus.HistogramVec
	NodeCalls      *prometheus.CounterVec
	NodeDuration   prometheus.Histogram
	WSConnections  *prometheus.GaugeVec
	Renders        *prometheus.CounterVec
	GatewayNotices prometheus.Counter
}

// NewMetrics creates collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
		Dispatches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatch_total",
				Help:      "Dispatch decisions by action and disposition",
			},
			[]string{"action", "disposition"},
		),
		Settled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_settled_total",
				Help:      "Correlated requests by action and outcome",
			},
			[]string{"action", "outcome"},
		),
		SettleDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Time from posting a request to its settle",
				Buckets:   []float64{.005, .025, .1, .5, 1, 5, 10, 60, 300, 3600},
			},
			[]string{"action", "outcome"},
		),
		NodeCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "node_calls_total",
				Help:      "Node API calls by status class",
			},
			[]string{"status"},
		),
		NodeDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "node_call_duration_seconds",
				Help:      "Node API call duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 30},
			},
		),
		WSConnections: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ws_connections",
				Help:      "Open WebSocket connections by role",
			},
			[]string{"role"},
		),
		Renders: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "renders_total",
				Help:      "Rendered resources by view and content class",
			},
			[]string{"view", "class"},
		),
		GatewayNotices: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gateway_notices_total",
				Help:      "Read-only notices shown to gateway viewers",
			},
		),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records a served HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, route, status).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveDispatch records a dispatch decision.
func (m *Metrics) ObserveDispatch(action string, d dispatch.Disposition) {
	if action == "" {
		action = "none"
	}
	m.Dispatches.WithLabelValues(action, string(d)).Inc()
}

// ObserveRequest records a settled correlated request.
func (m *Metrics) ObserveRequest(action, outcome string, elapsed time.Duration) {
	m.Settled.WithLabelValues(action, outcome).Inc()
	m.SettleDuration.WithLabelValues(action, outcome).Observe(elapsed.Seconds())
}

// ObserveNodeCall records a node API call.
func (m *Metrics) ObserveNodeCall(status string, elapsed time.Duration) {
	m.NodeCalls.WithLabelValues(status).Inc()
	m.NodeDuration.Observe(elapsed.Seconds())
}

// ConnectionOpened tracks a WebSocket connection by role.
func (m *Metrics) ConnectionOpened(role string) {
	m.WSConnections.WithLabelValues(role).Inc()
}

// ConnectionClosed untracks a WebSocket connection.
func (m *Metrics) ConnectionClosed(role string) {
	m.WSConnections.WithLabelValues(role).Dec()
}

// RecordRender records a rendered resource.
func (m *Metrics) RecordRender(view, class string) {
	m.Renders.WithLabelValues(view, class).Inc()
}

// RecordGatewayNotice counts a notice shown to a gateway viewer.
func (m *Metrics) RecordGatewayNotice() {
	m.GatewayNotices.Inc()
}
