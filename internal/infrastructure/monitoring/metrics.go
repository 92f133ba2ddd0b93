// Package monitoring wires Prometheus metrics for the HTTP surface, the
// execution engine, and the batch scheduler.
package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus collector this service registers.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Single-graph run metrics
	RunsTotal   *prometheus.CounterVec
	RunDuration *prometheus.HistogramVec
	RunsActive  prometheus.Gauge

	// Batch metrics
	BatchesTotal    *prometheus.CounterVec
	BatchDuration   *prometheus.HistogramVec
	BatchesActive   prometheus.Gauge
	GraphsInBatch   *prometheus.CounterVec
	SchedulerQueued *prometheus.GaugeVec

	// Node execution metrics
	NodesExecutedTotal *prometheus.CounterVec
	NodeDuration       *prometheus.HistogramVec
	NodesSkippedTotal  *prometheus.CounterVec

	// Generation backend metrics
	BackendRequestsTotal   *prometheus.CounterVec
	BackendRequestDuration *prometheus.HistogramVec
	BackendErrors          *prometheus.CounterVec

	// Event bus metrics
	EventsPublishedTotal *prometheus.CounterVec

	// Database metrics
	DBQueriesTotal  *prometheus.CounterVec
	DBQueryDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers every collector under namespace (default
// "mediagraph").
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "mediagraph"
	}

	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		RunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of single-graph runs started",
			},
			[]string{"graph_id"},
		),
		RunDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Single-graph run duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
			},
			[]string{"status"},
		),
		RunsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "runs_active",
				Help:      "Number of currently active single-graph runs",
			},
		),

		BatchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batches_total",
				Help:      "Total number of batches started",
			},
			[]string{"experiment_id"},
		),
		BatchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "batch_duration_seconds",
				Help:      "Batch duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
			},
			[]string{"status"},
		),
		BatchesActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "batches_active",
				Help:      "Number of currently active batches",
			},
		),
		GraphsInBatch: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batch_graphs_total",
				Help:      "Total number of per-graph outcomes within batches",
			},
			[]string{"status"},
		),
		SchedulerQueued: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "scheduler_queued_nodes",
				Help:      "Number of nodes currently ready but waiting on a type concurrency slot",
			},
			[]string{"node_type"},
		),

		NodesExecutedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nodes_executed_total",
				Help:      "Total number of nodes executed",
			},
			[]string{"node_type", "status"},
		),
		NodeDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "node_duration_seconds",
				Help:      "Node execution duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"node_type"},
		),
		NodesSkippedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nodes_skipped_total",
				Help:      "Total number of nodes skipped because their cached result was still fresh",
			},
			[]string{"node_type"},
		),

		BackendRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "backend_requests_total",
				Help:      "Total number of generation backend requests",
			},
			[]string{"provider", "operation", "status"},
		),
		BackendRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "backend_request_duration_seconds",
				Help:      "Generation backend request duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
			},
			[]string{"provider", "operation"},
		),
		BackendErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "backend_errors_total",
				Help:      "Total number of generation backend errors",
			},
			[]string{"provider", "operation"},
		),

		EventsPublishedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_published_total",
				Help:      "Total number of published events: run/batch stream events and graph domain events",
			},
			[]string{"event_type"},
		),

		DBQueriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "db_queries_total",
				Help:      "Total number of database queries",
			},
			[]string{"operation"},
		),
		DBQueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "db_query_duration_seconds",
				Help:      "Database query duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordHTTPRequest records one HTTP request/response cycle.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordRunStarted records a new single-graph run.
func (m *Metrics) RecordRunStarted(graphID string) {
	m.RunsTotal.WithLabelValues(graphID).Inc()
	m.RunsActive.Inc()
}

// RecordRunFinished records a single-graph run's terminal status.
func (m *Metrics) RecordRunFinished(status string, duration time.Duration) {
	m.RunDuration.WithLabelValues(status).Observe(duration.Seconds())
	m.RunsActive.Dec()
}

// RecordBatchStarted records a new batch.
func (m *Metrics) RecordBatchStarted(experimentID string) {
	m.BatchesTotal.WithLabelValues(experimentID).Inc()
	m.BatchesActive.Inc()
}

// RecordBatchFinished records a batch's terminal status.
func (m *Metrics) RecordBatchFinished(status string, duration time.Duration) {
	m.BatchDuration.WithLabelValues(status).Observe(duration.Seconds())
	m.BatchesActive.Dec()
}

// RecordGraphOutcome records one graph's outcome within a batch.
func (m *Metrics) RecordGraphOutcome(status string) {
	m.GraphsInBatch.WithLabelValues(status).Inc()
}

// RecordNodeExecution records a node's execution (run or skip).
func (m *Metrics) RecordNodeExecution(nodeType, status string, duration time.Duration) {
	m.NodesExecutedTotal.WithLabelValues(nodeType, status).Inc()
	m.NodeDuration.WithLabelValues(nodeType).Observe(duration.Seconds())
}

// RecordNodeSkipped records a node whose cached result was reused.
func (m *Metrics) RecordNodeSkipped(nodeType string) {
	m.NodesSkippedTotal.WithLabelValues(nodeType).Inc()
}

// RecordBackendRequest records one call to a generation backend.
func (m *Metrics) RecordBackendRequest(provider, operation, status string, duration time.Duration) {
	m.BackendRequestsTotal.WithLabelValues(provider, operation, status).Inc()
	m.BackendRequestDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
	if status != "ok" {
		m.BackendErrors.WithLabelValues(provider, operation).Inc()
	}
}

// RecordEventPublished records one published event: a run/batch stream event
// (from the eventstream sinks) or a graph domain event (from the domain
// event bus subscribers wired in cmd/server).
func (m *Metrics) RecordEventPublished(eventType string) {
	m.EventsPublishedTotal.WithLabelValues(eventType).Inc()
}

// RecordDBQuery records one database query.
func (m *Metrics) RecordDBQuery(operation string, duration time.Duration) {
	m.DBQueriesTotal.WithLabelValues(operation).Inc()
	m.DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
