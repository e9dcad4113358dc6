package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors for the service
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	callsTotal          *prometheus.CounterVec
	callSetupDuration   prometheus.Histogram
	wsConnectionsActive prometheus.Gauge
	peerAllocFailures   prometheus.Counter
}

// New creates and registers all service metrics on a fresh registry
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		httpRequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		}),
		callsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "calls_total",
			Help: "Total number of call lifecycle transitions by outcome",
		}, []string{"event"}), // initiated, accepted, rejected, ended, missed
		callSetupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "call_setup_duration_seconds",
			Help:    "Time from call request to acceptance",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 45, 60},
		}),
		wsConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ws_connections_active",
			Help: "Number of open realtime connections",
		}),
		peerAllocFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "peer_allocation_failures_total",
			Help: "Total number of failed peer identity allocations",
		}),
	}

	registry.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.httpRequestsInFlight,
		m.callsTotal,
		m.callSetupDuration,
		m.wsConnectionsActive,
		m.peerAllocFailures,
	)

	return m
}

// Registry returns the underlying Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordHTTPRequest records a completed HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, path, statusLabel(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// IncHTTPInFlight increments the in-flight request gauge
func (m *Metrics) IncHTTPInFlight() {
	if m == nil {
		return
	}
	m.httpRequestsInFlight.Inc()
}

// DecHTTPInFlight decrements the in-flight request gauge
func (m *Metrics) DecHTTPInFlight() {
	if m == nil {
		return
	}
	m.httpRequestsInFlight.Dec()
}

// RecordCallEvent counts a call lifecycle transition
// (initiated, accepted, rejected, ended, missed)
func (m *Metrics) RecordCallEvent(event string) {
	if m == nil {
		return
	}
	m.callsTotal.WithLabelValues(event).Inc()
}

// RecordCallSetup records the time between call request and acceptance
func (m *Metrics) RecordCallSetup(d time.Duration) {
	if m == nil {
		return
	}
	m.callSetupDuration.Observe(d.Seconds())
}

// IncWSConnections increments the active realtime connection gauge
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.wsConnectionsActive.Inc()
}

// DecWSConnections decrements the active realtime connection gauge
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.wsConnectionsActive.Dec()
}

// RecordPeerAllocFailure counts a failed peer identity allocation
func (m *Metrics) RecordPeerAllocFailure() {
	if m == nil {
		return
	}
	m.peerAllocFailures.Inc()
}

func statusLabel(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
