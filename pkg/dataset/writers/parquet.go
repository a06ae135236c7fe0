package writers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ajitpratap0/lakegen/pkg/config"
	"github.com/ajitpratap0/lakegen/pkg/dataset/core"
	"github.com/ajitpratap0/lakegen/pkg/logger"
	"github.com/ajitpratap0/lakegen/pkg/metrics"
	"github.com/ajitpratap0/lakegen/pkg/models"
	"github.com/ajitpratap0/lakegen/pkg/partition"
	"github.com/ajitpratap0/lakegen/pkg/schema"
	"github.com/ajitpratap0/lakegen/pkg/storage"
)

// ParquetName is the registered format name of the plain parquet writer.
const ParquetName = "parquet"

// ParquetWriter lays tables out as parquet datasets: master tables as a
// single file at <table>/<table>.parquet, transactional tables as
// hive-partitioned directories of part-NNNNN.parquet files.
type ParquetWriter struct {
	store   storage.ObjectStore
	opts    config.WriterOptions
	counter *partCounters
	logger  *zap.Logger
	uri     string
}

// NewParquet creates a parquet writer over the resolved object store.
func NewParquet(ctx context.Context, outputURI string, cfg *config.WriterConfig) (*ParquetWriter, error) {
	if err := cfg.Options.Validate(); err != nil {
		return nil, err
	}
	store, err := storage.Resolve(ctx, outputURI, cfg.S3)
	if err != nil {
		return nil, err
	}
	return &ParquetWriter{
		store:   store,
		opts:    cfg.Options,
		counter: newPartCounters(),
		logger:  logger.Get().With(zap.String("writer", ParquetName)),
		uri:     store.URI(""),
	}, nil
}

// Write persists one batch.
func (w *ParquetWriter) Write(ctx context.Context, table string, sch *schema.Schema, spec *partition.Spec, batch *models.Batch) error {
	if spec == nil {
		return w.writeMaster(ctx, table, sch, batch)
	}
	return w.writePartitioned(ctx, table, sch, spec, batch)
}

// writeMaster writes the whole batch to the table's fixed location.
// Writing the same master table again within a run overwrites it.
func (w *ParquetWriter) writeMaster(ctx context.Context, table string, sch *schema.Schema, batch *models.Batch) error {
	if batch.Rows() == 0 {
		return nil
	}
	data, err := EncodeParquet(sch, batch.Records, w.opts.Compression)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("%s/%s.parquet", table, table)
	if err := w.store.Put(ctx, key, data); err != nil {
		return err
	}
	w.observe(table, len(data), 1)
	return nil
}

func (w *ParquetWriter) writePartitioned(ctx context.Context, table string, sch *schema.Schema, spec *partition.Spec, batch *models.Batch) error {
	groups, err := groupByPartition(spec, batch)
	if err != nil {
		return err
	}
	files := 0
	bytes := 0
	for _, g := range groups {
		for _, chunk := range splitRows(g.Rows, w.opts.FileRowsTarget) {
			data, err := EncodeParquet(sch, chunk, w.opts.Compression)
			if err != nil {
				return err
			}
			idx := w.counter.Next(table, g.Path)
			key := fmt.Sprintf("%s/%s/part-%05d.parquet", table, g.Path, idx)
			if err := w.store.Put(ctx, key, data); err != nil {
				return err
			}
			files++
			bytes += len(data)
		}
	}
	w.observe(table, bytes, files)
	return nil
}

func (w *ParquetWriter) observe(table string, bytes, files int) {
	metrics.BatchesWritten.WithLabelValues(table, ParquetName).Inc()
	metrics.FilesCommitted.WithLabelValues(table, ParquetName).Add(float64(files))
	metrics.BytesWritten.WithLabelValues(table, ParquetName).Add(float64(bytes))
	w.logger.Debug("batch written",
		zap.String("table", table),
		zap.Int("files", files),
		zap.Int("bytes", bytes))
}

// Close releases writer resources. The parquet writer holds none beyond
// the object store handle.
func (w *ParquetWriter) Close(ctx context.Context) error { return nil }

// OutputURI returns the destination root.
func (w *ParquetWriter) OutputURI() string { return w.uri }

// Format returns the writer format name.
func (w *ParquetWriter) Format() string { return ParquetName }

var _ core.Writer = (*ParquetWriter)(nil)
