// Package core defines the contracts between dataset generators, table
// writers and the pipeline. Generators produce named logical tables as
// batch streams; writers persist batches to a storage/catalog target. The
// set of generators and writers is closed and registered by name in the
// registry package.
package core

import (
	"context"

	"github.com/ajitpratap0/lakegen/pkg/models"
	"github.com/ajitpratap0/lakegen/pkg/partition"
	"github.com/ajitpratap0/lakegen/pkg/schema"
)

// BatchStream is a finite stream of batches for one table. Batches is
// closed when the stream is exhausted; a produce-side failure is delivered
// on Errors. The stream is restartable only by re-invoking
// Generator.Batches: for a fixed seed, two independent invocations produce
// identical batch sequences.
type BatchStream struct {
	Batches <-chan *models.Batch
	Errors  <-chan error
}

// Generator produces a fixed set of logical tables as in-memory batches.
//
// A table whose PartitionSpec is nil is a master table: a low-cardinality
// reference table written once as a whole. Every other table is
// transactional: a time-series table whose rows carry partition value
// columns and are laid out per partition.
//
// Generators must be deterministic: the same configuration and seed yield
// byte-identical batches across invocations. Foreign keys emitted in
// transactional tables always reference rows present in the corresponding
// master table of the same run.
type Generator interface {
	// Name returns the registered generator name.
	Name() string
	// Tables returns the logical table names this generator produces, in
	// generation order (master tables first).
	Tables() []string
	// Schema returns the declared schema for a table. It is stable for the
	// lifetime of the instance.
	Schema(table string) (*schema.Schema, error)
	// PartitionSpec returns the partition layout for a table, or nil for
	// master tables.
	PartitionSpec(table string) *partition.Spec
	// Batches streams the table's rows. The stream is finite and bounded
	// by the configured date range.
	Batches(ctx context.Context, table string) (*BatchStream, error)
	// Validate checks the generator configuration. It is called before any
	// batch is produced or any writer is touched.
	Validate() error
}

// Writer persists batches of named tables to a destination. A writer
// instance is owned by a single pipeline run and is not safe for
// concurrent use; parallel runs must use separate instances with disjoint
// output roots.
type Writer interface {
	// Write persists one batch. For master tables (spec == nil) the batch
	// is written whole to the table's fixed location; writing the same
	// master table again within a run overwrites it. For transactional
	// tables rows are grouped by partition key and emitted as part files
	// capped at the configured row target.
	Write(ctx context.Context, table string, sch *schema.Schema, spec *partition.Spec, batch *models.Batch) error
	// Close releases writer resources. It is called exactly once per run,
	// on success and on failure.
	Close(ctx context.Context) error
	// OutputURI returns the configured destination root, used for
	// diagnostics and tests.
	OutputURI() string
	// Format returns the registered writer format name.
	Format() string
}

// Produce runs fn on a goroutine and exposes emitted batches as a
// BatchStream. Emission stops when fn returns or ctx is cancelled; a
// non-nil error from fn is delivered on the stream's error channel.
// Generators use this helper so cancellation and channel lifecycle stay in
// one place.
func Produce(ctx context.Context, fn func(ctx context.Context, emit func(*models.Batch) error) error) *BatchStream {
	batches := make(chan *models.Batch, 1)
	errs := make(chan error, 1)

	emit := func(b *models.Batch) error {
		select {
		case batches <- b:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	go func() {
		defer close(batches)
		if err := fn(ctx, emit); err != nil {
			errs <- err
		}
		close(errs)
	}()

	return &BatchStream{Batches: batches, Errors: errs}
}
