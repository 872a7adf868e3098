// Package metrics provides Prometheus metrics for the choozi session runtime.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the choozi service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Touch input
	touchesIngested *prometheus.CounterVec
	touchesIgnored  *prometheus.CounterVec
	contactsCreated prometheus.Counter
	activeContacts  prometheus.Gauge

	// Rounds and phases
	settleRestarts   prometheus.Counter
	settleFires      prometheus.Counter
	roundsStarted    prometheus.Counter
	roundsCompleted  prometheus.Counter
	phaseTransitions *prometheus.CounterVec
	resets           *prometheus.CounterVec

	// Audio/haptic outbox
	effectsPublished *prometheus.CounterVec
	effectsDropped   *prometheus.CounterVec

	// Inbox queue and session loop
	queueCapacity      prometheus.Gauge
	queueSize          prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	loopLatency        prometheus.Histogram

	// HTTP bridge
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

type state struct {
	manager  *Manager
	registry *prometheus.Registry
}

var current atomic.Pointer[state] //nolint:gochecknoglobals // process-wide metrics singleton

func init() { //nolint:gochecknoinits // metrics must be usable before main configures them
	Configure()
}

// Configure replaces the global manager with one registered on a fresh
// registry. It is meant to be called once at startup.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	opts = append(opts, WithPrometheusRegistry(registry))
	current.Store(&state{manager: NewManager(opts...), registry: registry})
}

func global() *Manager {
	return current.Load().manager
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "choozi",
		subsystem:        "session",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		constLabels:      make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.touchesIngested = m.counterVec("touches_ingested_total", "Touch batches applied to the session by kind", "kind")
	m.touchesIgnored = m.counterVec("touches_ignored_total", "Touch batches dropped because the phase blocks input", "kind")
	m.contactsCreated = m.counter("contacts_created_total", "Contacts created from new touches")
	m.activeContacts = m.gauge("active_contacts", "Contacts currently tracked")

	m.settleRestarts = m.counter("settle_restarts_total", "Quiet period restarts caused by contact set changes")
	m.settleFires = m.counter("settle_fires_total", "Quiet periods that ran to completion")
	m.roundsStarted = m.counter("rounds_started_total", "Rounds that resolved a winner and started the reveal")
	m.roundsCompleted = m.counter("rounds_completed_total", "Rounds whose reveal ran through to waiting")
	m.phaseTransitions = m.counterVec("phase_transitions_total", "Sequencer step entries by phase and step", "phase", "step")
	m.resets = m.counterVec("resets_total", "Forced resets by reason", "reason")

	m.effectsPublished = m.counterVec("effects_published_total", "Audio/haptic requests published to the renderer", "kind")
	m.effectsDropped = m.counterVec("effects_dropped_total", "Audio/haptic requests dropped", "kind", "reason")

	m.queueCapacity = m.gauge("queue_capacity", "Maximum inbox capacity")
	m.queueSize = m.gauge("queue_size", "Current inbox length")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Inbox utilization ratio (current size / capacity)")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Commands enqueued to the inbox")
	m.queueDequeued = m.counter("queue_dequeue_total", "Commands dequeued by the session loop")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Commands rejected by the inbox")
	m.loopLatency = m.histogram("loop_command_latency_milliseconds", "Time the session loop spends on one command", m.histogramBuckets)

	m.httpRequests = promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component", "component", "error_type")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// Enabled reports whether updates are recorded.
func (m *Manager) Enabled() bool {
	return m.enabled
}

func with(fn func(m *Manager)) {
	m := global()
	if m == nil || !m.enabled {
		return
	}
	fn(m)
}

// Touch input.

// RecordTouchIngested counts a touch batch applied to the session.
func RecordTouchIngested(kind string) {
	with(func(m *Manager) { m.touchesIngested.WithLabelValues(kind).Inc() })
}

// RecordTouchIgnored counts a touch batch dropped by the phase gate.
func RecordTouchIgnored(kind string) {
	with(func(m *Manager) { m.touchesIgnored.WithLabelValues(kind).Inc() })
}

// RecordContactsCreated adds n newly created contacts.
func RecordContactsCreated(n int) {
	with(func(m *Manager) { m.contactsCreated.Add(float64(n)) })
}

// UpdateActiveContacts sets the number of tracked contacts.
func UpdateActiveContacts(n int) {
	with(func(m *Manager) { m.activeContacts.Set(float64(n)) })
}

// Rounds and phases.

// RecordSettleRestart counts a quiet period restart.
func RecordSettleRestart() {
	with(func(m *Manager) { m.settleRestarts.Inc() })
}

// RecordSettleFired counts a quiet period that elapsed.
func RecordSettleFired() {
	with(func(m *Manager) { m.settleFires.Inc() })
}

// RecordRoundStarted counts a resolved winner.
func RecordRoundStarted() {
	with(func(m *Manager) { m.roundsStarted.Inc() })
}

// RecordRoundCompleted counts a reveal that returned to waiting.
func RecordRoundCompleted() {
	with(func(m *Manager) { m.roundsCompleted.Inc() })
}

// RecordPhaseTransition counts entry into a sequencer step.
func RecordPhaseTransition(phase, step string) {
	with(func(m *Manager) { m.phaseTransitions.WithLabelValues(phase, step).Inc() })
}

// RecordReset counts a forced reset.
func RecordReset(reason string) {
	with(func(m *Manager) { m.resets.WithLabelValues(reason).Inc() })
}

// Effects.

// RecordEffectPublished counts an effect handed to the renderer.
func RecordEffectPublished(kind string) {
	with(func(m *Manager) { m.effectsPublished.WithLabelValues(kind).Inc() })
}

// RecordEffectDropped counts an effect that was not delivered.
func RecordEffectDropped(kind, reason string) {
	with(func(m *Manager) { m.effectsDropped.WithLabelValues(kind, reason).Inc() })
}

// Queue and loop.

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	with(func(m *Manager) { m.queueCapacity.Set(float64(capacity)) })
}

// UpdateQueueSize sets the current queue size and utilization.
func UpdateQueueSize(size, capacity int) {
	with(func(m *Manager) {
		m.queueSize.Set(float64(size))
		if capacity > 0 {
			m.queueUtilization.Set(float64(size) / float64(capacity))
		}
	})
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	with(func(m *Manager) { m.queueEnqueued.Inc() })
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	with(func(m *Manager) { m.queueDequeued.Inc() })
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	with(func(m *Manager) { m.queueEnqueueErrors.Inc() })
}

// RecordLoopLatency records how long one command took on the session loop.
func RecordLoopLatency(latencyMs float64) {
	with(func(m *Manager) { m.loopLatency.Observe(latencyMs) })
}

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	with(func(m *Manager) { m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc() })
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	with(func(m *Manager) { m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration) })
}

// Errors.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	with(func(m *Manager) { m.errorsByComponent.WithLabelValues(component, errorType).Inc() })
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	with(func(m *Manager) { m.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc() })
}

// System.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	with(func(m *Manager) { m.systemMemoryUsage.Set(float64(bytes)) })
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	with(func(m *Manager) { m.systemGoroutineCount.Set(float64(count)) })
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	with(func(m *Manager) { m.systemGCPauseTime.Observe(pauseMs) })
}

// GetRegistry returns the registry the global manager is registered on.
func GetRegistry() *prometheus.Registry {
	return current.Load().registry
}
