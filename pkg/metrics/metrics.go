// Package metrics provides Prometheus instrumentation for LakeGen pipelines.
// Metrics are labeled by dataset, table and writer format so a single
// registry can track several concurrent generation runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RowsGenerated counts rows produced by generators, per dataset and table.
	RowsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lakegen",
			Name:      "rows_generated_total",
			Help:      "Total number of rows produced by dataset generators",
		},
		[]string{"dataset", "table"},
	)

	// BatchesWritten counts batches handed to a writer, per table and format.
	BatchesWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lakegen",
			Name:      "batches_written_total",
			Help:      "Total number of batches persisted by writers",
		},
		[]string{"table", "format"},
	)

	// FilesCommitted counts part files committed at their final path.
	FilesCommitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lakegen",
			Name:      "files_committed_total",
			Help:      "Total number of data files committed by writers",
		},
		[]string{"table", "format"},
	)

	// BytesWritten counts bytes persisted to storage.
	BytesWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lakegen",
			Name:      "bytes_written_total",
			Help:      "Total bytes persisted to object storage",
		},
		[]string{"table", "format"},
	)

	// WriteDuration tracks per-batch write latency.
	WriteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lakegen",
			Name:      "write_duration_seconds",
			Help:      "Latency of writer batch commits",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16),
		},
		[]string{"table", "format"},
	)

	// PipelineErrors counts errors surfaced by pipeline runs.
	PipelineErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lakegen",
			Name:      "pipeline_errors_total",
			Help:      "Total number of pipeline failures by error type",
		},
		[]string{"dataset", "error_type"},
	)
)

// Timer measures a single operation duration.
type Timer struct {
	start time.Time
}

// NewTimer starts a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveWrite stops the timer and records the duration against the
// write-duration histogram for the given table and format.
func (t *Timer) ObserveWrite(table, format string) time.Duration {
	d := time.Since(t.start)
	WriteDuration.WithLabelValues(table, format).Observe(d.Seconds())
	return d
}
