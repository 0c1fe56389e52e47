package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for a service
type Metrics struct {
	registry *prometheus.Registry

	// HTTP Request Metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// WebSocket Metrics
	feedConnections      prometheus.Gauge
	feedEventsTotal      *prometheus.CounterVec
	feedErrorsTotal      *prometheus.CounterVec

	// Call workflow metrics
	callsCreatedTotal     prometheus.Counter
	callsActive           prometheus.Gauge
	invitationsTotal      *prometheus.CounterVec
	joinGateChecksTotal   *prometheus.CounterVec

	// Push Notification Metrics
	pushNotificationsTotal  *prometheus.CounterVec
	pushNotificationsFailed *prometheus.CounterVec

	// Storage Metrics
	documentOpsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics on a private registry
func NewMetrics(serviceName string) *Metrics {
	registry := prometheus.NewRegistry()
	labels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "http_requests_total",
				Help:        "Total number of HTTP requests",
				ConstLabels: labels,
			},
			[]string{"method", "endpoint", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "http_request_duration_seconds",
				Help:        "HTTP request latency in seconds",
				ConstLabels: labels,
				Buckets:     prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name:        "http_requests_in_flight",
				Help:        "Number of HTTP requests currently being processed",
				ConstLabels: labels,
			},
		),
		feedConnections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name:        "feed_connections",
				Help:        "Number of open change-feed WebSocket connections",
				ConstLabels: labels,
			},
		),
		feedEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "feed_events_total",
				Help:        "Total number of change-feed events delivered",
				ConstLabels: labels,
			},
			[]string{"table"},
		),
		feedErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "feed_errors_total",
				Help:        "Total number of change-feed delivery errors",
				ConstLabels: labels,
			},
			[]string{"kind"},
		),
		callsCreatedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name:        "calls_created_total",
				Help:        "Total number of conference calls created",
				ConstLabels: labels,
			},
		),
		callsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name:        "calls_active",
				Help:        "Number of conference calls currently active",
				ConstLabels: labels,
			},
		),
		invitationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "call_invitations_total",
				Help:        "Total number of call invitation responses",
				ConstLabels: labels,
			},
			[]string{"status"},
		),
		joinGateChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "call_join_gate_checks_total",
				Help:        "Total number of join gate checks by outcome",
				ConstLabels: labels,
			},
			[]string{"outcome"},
		),
		pushNotificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "push_notifications_total",
				Help:        "Total number of push notifications sent",
				ConstLabels: labels,
			},
			[]string{"provider"},
		),
		pushNotificationsFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "push_notifications_failed_total",
				Help:        "Total number of failed push notifications",
				ConstLabels: labels,
			},
			[]string{"provider"},
		),
		documentOpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "document_operations_total",
				Help:        "Total number of document storage operations",
				ConstLabels: labels,
			},
			[]string{"operation", "status"},
		),
	}

	registry.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.httpRequestsInFlight,
		m.feedConnections,
		m.feedEventsTotal,
		m.feedErrorsTotal,
		m.callsCreatedTotal,
		m.callsActive,
		m.invitationsTotal,
		m.joinGateChecksTotal,
		m.pushNotificationsTotal,
		m.pushNotificationsFailed,
		m.documentOpsTotal,
	)

	return m
}

// GetRegistry returns the private Prometheus registry
func (m *Metrics) GetRegistry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records a completed HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, endpoint, statusLabel(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// IncrementHTTPRequestsInFlight increments the in-flight request gauge
func (m *Metrics) IncrementHTTPRequestsInFlight() {
	m.httpRequestsInFlight.Inc()
}

// DecrementHTTPRequestsInFlight decrements the in-flight request gauge
func (m *Metrics) DecrementHTTPRequestsInFlight() {
	m.httpRequestsInFlight.Dec()
}

// RecordFeedConnection tracks change-feed connection open/close
func (m *Metrics) RecordFeedConnection(delta int) {
	m.feedConnections.Add(float64(delta))
}

// RecordFeedEvent records a delivered change-feed event
func (m *Metrics) RecordFeedEvent(table string) {
	m.feedEventsTotal.WithLabelValues(table).Inc()
}

// RecordFeedError records a change-feed delivery error
func (m *Metrics) RecordFeedError(kind string) {
	m.feedErrorsTotal.WithLabelValues(kind).Inc()
}

// RecordPush records a push notification attempt
func (m *Metrics) RecordPush(provider string, failed bool) {
	m.pushNotificationsTotal.WithLabelValues(provider).Inc()
	if failed {
		m.pushNotificationsFailed.WithLabelValues(provider).Inc()
	}
}

// RecordDocumentOp records a document storage operation
func (m *Metrics) RecordDocumentOp(operation, status string) {
	m.documentOpsTotal.WithLabelValues(operation, status).Inc()
}

func statusLabel(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
