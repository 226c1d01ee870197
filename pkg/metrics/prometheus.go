// Package metrics provides Prometheus metrics for the physio session service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the physio service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Session lifecycle metrics
	sessionsCreated prometheus.Counter
	sessionsEnded   prometheus.Counter
	sessionsActive  prometheus.Gauge
	participants    prometheus.Gauge
	joinsRejected   *prometheus.CounterVec

	// Realtime routing metrics
	messagesRouted *prometheus.CounterVec
	routeErrors    prometheus.Counter
	connections    prometheus.Gauge

	// Validation metrics
	framesValidated   prometheus.Counter
	accuracyScores    prometheus.Histogram
	validationLatency prometheus.Histogram

	// Report export metrics
	reportsExported prometheus.Counter
	exportErrors    prometheus.Counter

	// HTTP performance metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System performance metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "physio",
		subsystem:        "session",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.sessionsCreated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_created_total",
		Help:      "Total number of therapy sessions created.",
	})
	m.sessionsEnded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_ended_total",
		Help:      "Total number of therapy sessions ended.",
	})
	m.sessionsActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_active",
		Help:      "Number of currently active therapy sessions.",
	})
	m.participants = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "participants",
		Help:      "Number of participants across all active sessions.",
	})
	m.joinsRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "joins_rejected_total",
		Help:      "Join attempts rejected, labelled by reason.",
	}, []string{"reason"})

	m.messagesRouted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "realtime",
		Name:      "messages_routed_total",
		Help:      "Realtime messages routed, labelled by envelope type.",
	}, []string{"type"})
	m.routeErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "realtime",
		Name:      "route_errors_total",
		Help:      "Messages that could not be routed or delivered.",
	})
	m.connections = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "realtime",
		Name:      "connections",
		Help:      "Number of attached realtime connections.",
	})

	m.framesValidated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "validation",
		Name:      "frames_validated_total",
		Help:      "Pose frames run through the validation engine.",
	})
	m.accuracyScores = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "validation",
		Name:      "accuracy_score",
		Help:      "Distribution of computed accuracy scores.",
		Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
	})
	m.validationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "validation",
		Name:      "latency_ms",
		Help:      "Validation engine latency in milliseconds.",
		Buckets:   m.histogramBuckets,
	})

	m.reportsExported = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "export",
		Name:      "reports_exported_total",
		Help:      "Session reports written to the export directory.",
	})
	m.exportErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "export",
		Name:      "errors_total",
		Help:      "Failed report export attempts.",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests, labelled by endpoint, method and status.",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_ms",
		Help:      "HTTP request duration in milliseconds.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	}, []string{"endpoint", "method", "status"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "memory_bytes",
		Help:      "Current allocated memory in bytes.",
	})
	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "goroutines",
		Help:      "Current number of goroutines.",
	})
}

// RecordSessionCreated increments the sessions created counter.
func RecordSessionCreated() {
	globalManager.sessionsCreated.Inc()
}

// RecordSessionEnded increments the sessions ended counter.
func RecordSessionEnded() {
	globalManager.sessionsEnded.Inc()
}

// UpdateActiveSessions sets the active sessions gauge.
func UpdateActiveSessions(count int) {
	globalManager.sessionsActive.Set(float64(count))
}

// UpdateParticipants sets the participants gauge.
func UpdateParticipants(count int) {
	globalManager.participants.Set(float64(count))
}

// RecordJoinRejected increments the join rejection counter for a reason.
func RecordJoinRejected(reason string) {
	globalManager.joinsRejected.WithLabelValues(reason).Inc()
}

// RecordMessageRouted increments the routed messages counter for a type.
func RecordMessageRouted(messageType string) {
	globalManager.messagesRouted.WithLabelValues(messageType).Inc()
}

// RecordRouteError increments the routing error counter.
func RecordRouteError() {
	globalManager.routeErrors.Inc()
}

// UpdateConnections sets the attached connections gauge.
func UpdateConnections(count int) {
	globalManager.connections.Set(float64(count))
}

// RecordFrameValidated increments the validated frames counter.
func RecordFrameValidated() {
	globalManager.framesValidated.Inc()
}

// RecordAccuracyScore observes a computed accuracy score.
func RecordAccuracyScore(accuracy int) {
	globalManager.accuracyScores.Observe(float64(accuracy))
}

// RecordValidationLatency records validation latency in milliseconds.
func RecordValidationLatency(latencyMs float64) {
	globalManager.validationLatency.Observe(latencyMs)
}

// RecordReportExported increments the exported reports counter.
func RecordReportExported() {
	globalManager.reportsExported.Inc()
}

// RecordExportError increments the export error counter.
func RecordExportError() {
	globalManager.exportErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// UpdateSystemMemoryUsage sets the allocated memory gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
