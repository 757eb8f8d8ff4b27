// Package metrics provides Prometheus metrics collection.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements the MetricsCollector port using Prometheus.
type Collector struct {
	geometryCounter   *prometheus.CounterVec
	retryCounter      prometheus.Counter
	geometryDuration  prometheus.Histogram
	runDuration       prometheus.Histogram
	runRecords        prometheus.Gauge
	runDropped        prometheus.Gauge
	storageOperations *prometheus.CounterVec
}

// NewCollector creates a new Prometheus metrics collector.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "terrasample"
	}

	return &Collector{
		geometryCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "geometries_total",
				Help:      "Total number of geometry extraction outcomes",
			},
			[]string{"outcome"},
		),

		retryCounter: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "retries_total",
				Help:      "Total number of geometry extraction retries",
			},
		),

		geometryDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "geometry_duration_seconds",
				Help:      "Per-geometry extraction duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),

		runDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Whole run duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 14),
			},
		),

		runRecords: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "run_records",
				Help:      "Number of records produced by the last run",
			},
		),

		runDropped: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "run_dropped",
				Help:      "Number of geometries dropped by the last run",
			},
		),

		storageOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_operations_total",
				Help:      "Total number of storage operations",
			},
			[]string{"operation", "status"},
		),
	}
}

// IncGeometry records the outcome of one geometry attempt.
func (c *Collector) IncGeometry(outcome string) {
	c.geometryCounter.WithLabelValues(outcome).Inc()
}

// IncRetry increments the retry counter.
func (c *Collector) IncRetry() {
	c.retryCounter.Inc()
}

// ObserveGeometryDuration records one geometry's extraction duration.
func (c *Collector) ObserveGeometryDuration(duration time.Duration) {
	c.geometryDuration.Observe(duration.Seconds())
}

// ObserveRunDuration records a whole run's duration.
func (c *Collector) ObserveRunDuration(duration time.Duration) {
	c.runDuration.Observe(duration.Seconds())
}

// SetRunTotals records the record and drop counts of the last run.
func (c *Collector) SetRunTotals(records, dropped int) {
	c.runRecords.Set(float64(records))
	c.runDropped.Set(float64(dropped))
}

// IncStorageOperations increments storage operation counter.
func (c *Collector) IncStorageOperations(operation string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	c.storageOperations.WithLabelValues(operation, status).Inc()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
