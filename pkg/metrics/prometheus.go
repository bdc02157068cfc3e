// Package metrics provides Prometheus metrics for the trustscore scorer.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector used by the scorer.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	scoreBuckets     []float64
	registry         prometheus.Registerer

	// Scoring
	repositoriesScored prometheus.Counter
	netScore           prometheus.Histogram
	netScoreLatency    prometheus.Histogram
	metricLatency      *prometheus.HistogramVec
	metricFailures     *prometheus.CounterVec

	// Text clarity collaborator
	clarityRequests *prometheus.CounterVec

	// Batch pipeline
	queueSize   prometheus.Gauge
	workerCount prometheus.Gauge
	queueErrors *prometheus.CounterVec

	// Fetch collaborators
	fetchRequests *prometheus.CounterVec
	fetchLatency  *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "trustscore",
		subsystem:        "scorer",
		histogramBuckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000, 5000, 30000},
		scoreBuckets:     prometheus.LinearBuckets(0.1, 0.1, 10),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.repositoriesScored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "repositories_scored_total",
		Help:      "Total number of score records produced",
	})

	m.netScore = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "net_score",
		Help:      "Distribution of net scores",
		Buckets:   m.scoreBuckets,
	})

	m.netScoreLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "net_score_latency_milliseconds",
		Help:      "Time spent in the net score aggregation step",
		Buckets:   m.histogramBuckets,
	})

	m.metricLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "metric_latency_milliseconds",
			Help:      "Per-metric computation latency",
			Buckets:   m.histogramBuckets,
		},
		[]string{"metric"},
	)

	m.metricFailures = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "metric_failures_total",
			Help:      "Metrics that failed and were recorded as 0",
		},
		[]string{"metric", "reason"},
	)

	m.clarityRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "clarity_requests_total",
			Help:      "Calls to the text clarity evaluator by outcome",
		},
		[]string{"evaluator", "outcome"},
	)

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Descriptors waiting to be scored",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Number of scoring workers",
	})

	m.queueErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "queue_errors_total",
			Help:      "Rejected enqueue attempts by reason",
		},
		[]string{"reason"},
	)

	m.fetchRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "fetch_requests_total",
			Help:      "Registry API requests by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	m.fetchLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "fetch_latency_milliseconds",
			Help:      "Registry API request latency",
			Buckets:   m.histogramBuckets,
		},
		[]string{"source"},
	)

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// RecordRepositoryScored counts a finished record and observes its net score.
func RecordRepositoryScored(netScore, aggregationMs float64) {
	globalManager.repositoriesScored.Inc()
	globalManager.netScore.Observe(netScore)
	globalManager.netScoreLatency.Observe(aggregationMs)
}

// RecordMetricLatency observes one metric's computation time.
func RecordMetricLatency(metric string, latencyMs float64) {
	globalManager.metricLatency.WithLabelValues(metric).Observe(latencyMs)
}

// RecordMetricFailure counts a metric that was isolated and zeroed.
func RecordMetricFailure(metric, reason string) {
	globalManager.metricFailures.WithLabelValues(metric, reason).Inc()
}

// RecordClarityRequest counts a clarity evaluator call.
func RecordClarityRequest(evaluator, outcome string) {
	globalManager.clarityRequests.WithLabelValues(evaluator, outcome).Inc()
}

// UpdateQueueSize sets the current queue backlog.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateWorkerCount sets the number of running workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordQueueError counts a rejected enqueue.
func RecordQueueError(reason string) {
	globalManager.queueErrors.WithLabelValues(reason).Inc()
}

// RecordFetch counts a registry request and observes its latency.
func RecordFetch(source, outcome string, latencyMs float64) {
	globalManager.fetchRequests.WithLabelValues(source, outcome).Inc()
	globalManager.fetchLatency.WithLabelValues(source).Observe(latencyMs)
}

// RecordHTTPRequest increments the HTTP requests counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Millis converts a duration to fractional milliseconds.
func Millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
