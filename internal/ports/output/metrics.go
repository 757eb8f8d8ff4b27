package output

import "time"

// MetricsCollector defines the secondary port for metrics collection.
type MetricsCollector interface {
	// IncGeometry records the outcome of one geometry attempt.
	IncGeometry(outcome string)

	// IncRetry increments the retry counter.
	IncRetry()

	// ObserveGeometryDuration records one geometry's extraction duration.
	ObserveGeometryDuration(duration time.Duration)

	// ObserveRunDuration records a whole run's duration.
	ObserveRunDuration(duration time.Duration)

	// SetRunTotals records the record and drop counts of the last run.
	SetRunTotals(records, dropped int)

	// IncStorageOperations increments storage operation counter.
	IncStorageOperations(operation string, success bool)
}

// Geometry outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeRetried = "retried"
	OutcomeDropped = "dropped"
)

// NoOpMetrics is a no-op implementation of MetricsCollector.
type NoOpMetrics struct{}

// IncGeometry implements MetricsCollector.
func (n *NoOpMetrics) IncGeometry(_ string) {}

// IncRetry implements MetricsCollector.
func (n *NoOpMetrics) IncRetry() {}

// ObserveGeometryDuration implements MetricsCollector.
func (n *NoOpMetrics) ObserveGeometryDuration(_ time.Duration) {}

// ObserveRunDuration implements MetricsCollector.
func (n *NoOpMetrics) ObserveRunDuration(_ time.Duration) {}

// SetRunTotals implements MetricsCollector.
func (n *NoOpMetrics) SetRunTotals(_, _ int) {}

// IncStorageOperations implements MetricsCollector.
func (n *NoOpMetrics) IncStorageOperations(_ string, _ bool) {}
