// Package metrics provides Prometheus metrics for the crop advisor service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prediction outcomes.
const (
	OutcomeDone             = "done"
	OutcomeInvalidInput     = "invalid_input"
	OutcomeModelUnavailable = "model_unavailable"
)

// Enrichment outcomes.
const (
	EnrichmentOK          = "ok"
	EnrichmentError       = "error"
	EnrichmentTimeout     = "timeout"
	EnrichmentBreakerOpen = "breaker_open"
	EnrichmentRateLimited = "rate_limited"
	EnrichmentDisabled    = "disabled"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Workflow
	predictions        *prometheus.CounterVec
	predictionLatency  prometheus.Histogram
	cropPredictions    *prometheus.CounterVec
	fertilizerFailures prometheus.Counter

	// Enrichment
	enrichments       *prometheus.CounterVec
	enrichmentLatency prometheus.Histogram

	// Rate limiter
	rateLimitCapacity prometheus.Gauge
	rateLimitInWindow prometheus.Gauge

	// Models
	modelLoads  *prometheus.CounterVec
	modelLoaded *prometheus.GaugeVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "cropadvisor",
		subsystem:        "api",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.predictions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "predictions_total",
		Help:        "Prediction requests by final outcome",
		ConstLabels: m.constLabels,
	}, []string{"outcome"})

	m.predictionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "prediction_latency_milliseconds",
		Help:        "End-to-end prediction workflow latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.cropPredictions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "crop_predictions_total",
		Help:        "Recommended crops by label",
		ConstLabels: m.constLabels,
	}, []string{"crop"})

	m.fertilizerFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fertilizer_failures_total",
		Help:        "Fertilizer predictions that failed and were reported in the error field",
		ConstLabels: m.constLabels,
	})

	m.enrichments = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "enrichment_total",
		Help:        "Enrichment attempts by outcome",
		ConstLabels: m.constLabels,
	}, []string{"outcome"})

	m.enrichmentLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "enrichment_latency_milliseconds",
		Help:        "Latency of calls to the generative language API in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.rateLimitCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "ratelimit_capacity",
		Help:        "Enrichment calls allowed per window",
		ConstLabels: m.constLabels,
	})

	m.rateLimitInWindow = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "ratelimit_in_window",
		Help:        "Enrichment calls admitted within the current window",
		ConstLabels: m.constLabels,
	})

	m.modelLoads = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "model_loads_total",
		Help:        "Model load attempts by model and result",
		ConstLabels: m.constLabels,
	}, []string{"model", "result"})

	m.modelLoaded = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "model_loaded",
		Help:        "1 when the model is loaded and serving, else 0",
		ConstLabels: m.constLabels,
	}, []string{"model"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_errors_total",
		Help:        "HTTP responses with status >= 400 by endpoint and error type",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_memory_usage_bytes",
		Help:        "Current heap allocation in bytes",
		ConstLabels: m.constLabels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_goroutine_count",
		Help:        "Current number of goroutines",
		ConstLabels: m.constLabels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_time_milliseconds",
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: m.constLabels,
	})
}

// RecordPrediction counts a finished prediction and its latency.
func RecordPrediction(outcome string, latencyMs float64) {
	globalManager.predictions.WithLabelValues(outcome).Inc()
	globalManager.predictionLatency.Observe(latencyMs)
}

// RecordCrop counts a recommended crop.
func RecordCrop(crop string) {
	globalManager.cropPredictions.WithLabelValues(crop).Inc()
}

// RecordFertilizerFailure increments the fertilizer failure counter.
func RecordFertilizerFailure() {
	globalManager.fertilizerFailures.Inc()
}

// RecordEnrichment counts an enrichment attempt by outcome.
func RecordEnrichment(outcome string) {
	globalManager.enrichments.WithLabelValues(outcome).Inc()
}

// RecordEnrichmentLatency records the latency of one API call.
func RecordEnrichmentLatency(latencyMs float64) {
	globalManager.enrichmentLatency.Observe(latencyMs)
}

// UpdateRateLimit publishes the limiter occupancy.
func UpdateRateLimit(capacity, inWindow int) {
	globalManager.rateLimitCapacity.Set(float64(capacity))
	globalManager.rateLimitInWindow.Set(float64(inWindow))
}

// RecordModelLoad counts a load attempt by result.
func RecordModelLoad(model string, ok bool) {
	result := "error"
	if ok {
		result = "ok"
	}
	globalManager.modelLoads.WithLabelValues(model, result).Inc()
}

// SetModelLoaded updates whether a model is serving.
func SetModelLoaded(model string, loaded bool) {
	v := 0.0
	if loaded {
		v = 1
	}
	globalManager.modelLoaded.WithLabelValues(model).Set(v)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error response for an endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap allocation gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records a GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
