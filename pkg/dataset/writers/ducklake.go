package writers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ajitpratap0/lakegen/pkg/catalog"
	"github.com/ajitpratap0/lakegen/pkg/config"
	"github.com/ajitpratap0/lakegen/pkg/dataset/core"
	"github.com/ajitpratap0/lakegen/pkg/errors"
	"github.com/ajitpratap0/lakegen/pkg/logger"
	"github.com/ajitpratap0/lakegen/pkg/metrics"
	"github.com/ajitpratap0/lakegen/pkg/models"
	"github.com/ajitpratap0/lakegen/pkg/partition"
	"github.com/ajitpratap0/lakegen/pkg/schema"
	"github.com/ajitpratap0/lakegen/pkg/storage"
)

// DuckLakeName is the registered format name of the DuckLake writer.
const DuckLakeName = "ducklake"

// DuckLakeWriter lays tables out for DuckLake attachment: dimension
// (master) tables as numbered <table>-NNNNN.parquet files, transactional
// tables as hive-partitioned part files, with every table registered in
// the SQL catalog the lake is attached through.
type DuckLakeWriter struct {
	store      storage.ObjectStore
	opts       config.WriterOptions
	cat        catalog.Catalog
	counter    *partCounters
	dimCounter map[string]int
	registered map[string]bool
	logger     *zap.Logger
	uri        string
}

// NewDuckLake creates a DuckLake writer. A catalog configuration is
// required.
func NewDuckLake(ctx context.Context, outputURI string, cfg *config.WriterConfig) (*DuckLakeWriter, error) {
	if err := cfg.Options.Validate(); err != nil {
		return nil, err
	}
	if cfg.Catalog == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "ducklake writer requires a catalog configuration")
	}
	store, err := storage.Resolve(ctx, outputURI, cfg.S3)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.Open(ctx, cfg.Catalog)
	if err != nil {
		return nil, err
	}
	return &DuckLakeWriter{
		store:      store,
		opts:       cfg.Options,
		cat:        cat,
		counter:    newPartCounters(),
		dimCounter: make(map[string]int),
		registered: make(map[string]bool),
		logger:     logger.Get().With(zap.String("writer", DuckLakeName)),
		uri:        store.URI(""),
	}, nil
}

// Write persists one batch and registers the table on first contact.
func (w *DuckLakeWriter) Write(ctx context.Context, table string, sch *schema.Schema, spec *partition.Spec, batch *models.Batch) error {
	if !w.registered[table] {
		if err := w.cat.RegisterTable(ctx, table, w.store.URI(table), DuckLakeName, spec); err != nil {
			return err
		}
		w.registered[table] = true
	}
	if batch.Rows() == 0 {
		return nil
	}

	if spec == nil {
		return w.writeDimension(ctx, table, sch, batch)
	}
	return w.writePartitioned(ctx, table, sch, spec, batch)
}

// writeDimension writes the whole batch as the next numbered dimension
// file for the table.
func (w *DuckLakeWriter) writeDimension(ctx context.Context, table string, sch *schema.Schema, batch *models.Batch) error {
	data, err := EncodeParquet(sch, batch.Records, w.opts.Compression)
	if err != nil {
		return err
	}
	idx := w.dimCounter[table]
	key := fmt.Sprintf("%s/%s-%05d.parquet", table, table, idx)
	if err := w.store.Put(ctx, key, data); err != nil {
		return err
	}
	w.dimCounter[table] = idx + 1
	w.observe(table, len(data), 1)
	return nil
}

func (w *DuckLakeWriter) writePartitioned(ctx context.Context, table string, sch *schema.Schema, spec *partition.Spec, batch *models.Batch) error {
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

func (w *DuckLakeWriter) observe(table string, bytes, files int) {
	metrics.BatchesWritten.WithLabelValues(table, DuckLakeName).Inc()
	metrics.FilesCommitted.WithLabelValues(table, DuckLakeName).Add(float64(files))
	metrics.BytesWritten.WithLabelValues(table, DuckLakeName).Add(float64(bytes))
}

// Close releases the catalog connection.
func (w *DuckLakeWriter) Close(ctx context.Context) error {
	w.cat.Close()
	return nil
}

// OutputURI returns the destination root.
func (w *DuckLakeWriter) OutputURI() string { return w.uri }

// Format returns the writer format name.
func (w *DuckLakeWriter) Format() string { return DuckLakeName }

var _ core.Writer = (*DuckLakeWriter)(nil)
