// Package pipeline drives a dataset generator against a table writer. It
// owns the single logical pass over every table: validate the generator,
// stream its batches, validate each batch against the declared schema,
// forward it to the writer and report progress. One batch is fully written
// before the next is requested; there is no internal concurrency.
package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/ajitpratap0/lakegen/pkg/dataset/core"
	"github.com/ajitpratap0/lakegen/pkg/errors"
	"github.com/ajitpratap0/lakegen/pkg/logger"
	"github.com/ajitpratap0/lakegen/pkg/metrics"
)

// Progress is reported after each batch commit. Counters increase
// monotonically within a run.
type Progress struct {
	Table        string
	BatchRows    int
	TableRows    int64
	TotalRows    int64
	TableBatches int64
}

// ProgressFunc receives progress updates. Callback panics and errors do
// not abort generation; observability is best effort.
type ProgressFunc func(Progress)

// Result summarizes a completed run.
type Result struct {
	RowsByTable map[string]int64
	TotalRows   int64
}

// Option configures a run.
type Option func(*options)

type options struct {
	tables   []string
	progress ProgressFunc
}

// WithTables restricts the run to a subset of the generator's tables, in
// the given order.
func WithTables(tables ...string) Option {
	return func(o *options) { o.tables = tables }
}

// WithProgress installs a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(o *options) { o.progress = fn }
}

// WriteDataset generates every table and streams the batches to the
// writer. The generator is validated before any writer method is invoked.
// On failure the run aborts as a whole: already-committed partition files
// remain valid and queryable, but the dataset must not be treated as
// complete. The writer is closed on success and on failure.
func WriteDataset(ctx context.Context, gen core.Generator, writer core.Writer, opts ...Option) (*Result, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	log := logger.Get().With(
		zap.String("dataset", gen.Name()),
		zap.String("format", writer.Format()),
	)

	if err := gen.Validate(); err != nil {
		metrics.PipelineErrors.WithLabelValues(gen.Name(), errors.GetType(err)).Inc()
		return nil, err
	}

	tables := o.tables
	if len(tables) == 0 {
		tables = gen.Tables()
	}

	log.Info("starting dataset run",
		zap.Strings("tables", tables),
		zap.String("output", writer.OutputURI()))

	result := &Result{RowsByTable: make(map[string]int64, len(tables))}
	runErr := writeTables(ctx, gen, writer, tables, &o, result, log)

	closeErr := writer.Close(ctx)
	if runErr != nil {
		metrics.PipelineErrors.WithLabelValues(gen.Name(), errors.GetType(runErr)).Inc()
		return nil, runErr
	}
	if closeErr != nil {
		metrics.PipelineErrors.WithLabelValues(gen.Name(), errors.GetType(closeErr)).Inc()
		return nil, closeErr
	}

	log.Info("dataset run complete", zap.Int64("total_rows", result.TotalRows))
	return result, nil
}

func writeTables(ctx context.Context, gen core.Generator, writer core.Writer, tables []string, o *options, result *Result, log *zap.Logger) error {
	for _, table := range tables {
		if err := writeTable(ctx, gen, writer, table, o, result, log); err != nil {
			return err
		}
	}
	return nil
}

func writeTable(ctx context.Context, gen core.Generator, writer core.Writer, table string, o *options, result *Result, log *zap.Logger) error {
	sch, err := gen.Schema(table)
	if err != nil {
		return err
	}
	spec := gen.PartitionSpec(table)

	// The stream gets its own cancellable context so an early return from
	// the batch loop releases the producer goroutine instead of leaving it
	// blocked on a send nobody receives.
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := gen.Batches(streamCtx, table)
	if err != nil {
		return err
	}

	var tableBatches int64
	for batch := range stream.Batches {
		// Cancellation is honored between batches, never mid-batch, so
		// every committed file stays valid.
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := sch.Validate(batch); err != nil {
			return err
		}

		timer := metrics.NewTimer()
		if err := writer.Write(ctx, table, sch, spec, batch); err != nil {
			return err
		}
		timer.ObserveWrite(table, writer.Format())

		rows := int64(batch.Rows())
		result.RowsByTable[table] += rows
		result.TotalRows += rows
		tableBatches++
		metrics.RowsGenerated.WithLabelValues(gen.Name(), table).Add(float64(rows))

		if o.progress != nil {
			reportProgress(o.progress, Progress{
				Table:        table,
				BatchRows:    batch.Rows(),
				TableRows:    result.RowsByTable[table],
				TotalRows:    result.TotalRows,
				TableBatches: tableBatches,
			}, log)
		}
	}

	if err := <-stream.Errors; err != nil {
		return err
	}

	log.Info("table written",
		zap.String("table", table),
		zap.Int64("rows", result.RowsByTable[table]),
		zap.Int64("batches", tableBatches))
	return nil
}

// reportProgress shields the run from a misbehaving callback.
func reportProgress(fn ProgressFunc, p Progress, log *zap.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn("progress callback panicked", zap.Any("panic", r))
		}
	}()
	fn(p)
}
