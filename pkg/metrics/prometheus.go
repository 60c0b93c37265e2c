// Package metrics provides Prometheus metrics for the vitae CV analysis service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Core business metrics - the analysis pipeline
	analysesProcessed prometheus.Counter
	analysesFailed    prometheus.Counter
	analysisDuration  prometheus.Histogram
	areasUnscored     *prometheus.CounterVec

	// Upstream model provider metrics
	upstreamCalls   *prometheus.CounterVec
	upstreamRetries prometheus.Counter
	upstreamErrors  prometheus.Counter
	gradingLatency  prometheus.Histogram
	tokensUsed      prometheus.Counter

	// Store metrics
	storedAnalyses prometheus.Gauge

	// Job pipeline metrics
	jobQueueSize     prometheus.Gauge
	jobQueueCapacity prometheus.Gauge
	workerCount      prometheus.Gauge
	activeJobs       prometheus.Gauge

	// Report metrics
	reportsGenerated *prometheus.CounterVec

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
		namespace:        "vitae",
		subsystem:        "analysis",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.analysesProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "analyses_processed_total",
		Help:      "Total number of CV analyses completed and stored",
	})

	m.analysesFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "analyses_failed_total",
		Help:      "Total number of CV submissions that failed outright",
	})

	m.analysisDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "analysis_duration_seconds",
		Help:      "End-to-end duration of one CV analysis",
		Buckets:   m.histogramBuckets,
	})

	m.areasUnscored = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "areas_unscored_total",
		Help:      "Areas that exhausted their retry budget, by area",
	}, []string{"area"})

	m.upstreamCalls = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "upstream_calls_total",
		Help:      "Calls issued to the model provider, by model",
	}, []string{"model"})

	m.upstreamRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "upstream_retries_total",
		Help:      "Retried model provider calls",
	})

	m.upstreamErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "upstream_errors_total",
		Help:      "Model provider calls that failed after the retry budget",
	})

	m.gradingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "grading_latency_seconds",
		Help:      "Latency of a single per-area grading call",
		Buckets:   m.histogramBuckets,
	})

	m.tokensUsed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tokens_used_total",
		Help:      "Tokens billed across all model provider calls",
	})

	m.storedAnalyses = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stored_analyses",
		Help:      "Number of records in the analysis store",
	})

	m.jobQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "job_queue_size",
		Help:      "Current number of queued submissions",
	})

	m.jobQueueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "job_queue_capacity",
		Help:      "Capacity of the submission queue",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Number of submission workers",
	})

	m.activeJobs = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "active_jobs",
		Help:      "Jobs currently tracked by the registry",
	})

	m.reportsGenerated = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reports_generated_total",
		Help:      "Reports generated, by format",
	}, []string{"format"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests, by endpoint, method, and status",
	}, []string{"endpoint", "method", "status"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration, by endpoint and method",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "memory_bytes",
		Help:      "Current allocated memory in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "goroutines",
		Help:      "Current number of goroutines",
	})
}

// GetRegistry returns the custom registry for serving metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level helpers recording against the global manager.

func RecordAnalysisProcessed() { globalManager.analysesProcessed.Inc() }

func RecordAnalysisFailed() { globalManager.analysesFailed.Inc() }

func RecordAnalysisDuration(s float64) {
	globalManager.analysisDuration.Observe(s)
}

func RecordAreaUnscored(area string) {
	globalManager.areasUnscored.WithLabelValues(area).Inc()
}

func RecordUpstreamCall(model string) {
	globalManager.upstreamCalls.WithLabelValues(model).Inc()
}

func RecordUpstreamRetry() { globalManager.upstreamRetries.Inc() }

func RecordUpstreamError() { globalManager.upstreamErrors.Inc() }

func RecordGradingLatency(s float64) {
	globalManager.gradingLatency.Observe(s)
}

func RecordTokensUsed(n int) {
	if n > 0 {
		globalManager.tokensUsed.Add(float64(n))
	}
}

func UpdateStoredAnalyses(n int) { globalManager.storedAnalyses.Set(float64(n)) }

func UpdateJobQueueSize(n int) { globalManager.jobQueueSize.Set(float64(n)) }

func UpdateJobQueueCapacity(n int) { globalManager.jobQueueCapacity.Set(float64(n)) }

func UpdateWorkerCount(n int) { globalManager.workerCount.Set(float64(n)) }

func UpdateActiveJobs(n int) { globalManager.activeJobs.Set(float64(n)) }

func RecordReportGenerated(format string) {
	globalManager.reportsGenerated.WithLabelValues(format).Inc()
}

func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

func RecordHTTPRequestDuration(endpoint, method string, seconds float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method).Observe(seconds)
}

func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

func UpdateSystemGoroutineCount(n int) {
	globalManager.systemGoroutineCount.Set(float64(n))
}
