package writers

import (
	"bytes"
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

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

// JSONLName is the registered format name of the JSON Lines writer.
const JSONLName = "jsonl"

// JSONLWriter lays tables out as newline-delimited JSON, optionally gzip
// or zstd compressed. Layout mirrors the parquet writer: master tables as
// a single file, transactional tables as hive-partitioned part files.
// Snappy has no JSONL container format, so the parquet default falls back
// to no compression here.
type JSONLWriter struct {
	store   storage.ObjectStore
	opts    config.WriterOptions
	counter *partCounters
	ext     string
	logger  *zap.Logger
	uri     string
}

// NewJSONL creates a JSONL writer over the resolved object store.
func NewJSONL(ctx context.Context, outputURI string, cfg *config.WriterConfig) (*JSONLWriter, error) {
	if err := cfg.Options.Validate(); err != nil {
		return nil, err
	}
	store, err := storage.Resolve(ctx, outputURI, cfg.S3)
	if err != nil {
		return nil, err
	}

	ext := ".jsonl"
	switch cfg.Options.Compression {
	case "gzip":
		ext = ".jsonl.gz"
	case "zstd":
		ext = ".jsonl.zst"
	}

	return &JSONLWriter{
		store:   store,
		opts:    cfg.Options,
		counter: newPartCounters(),
		ext:     ext,
		logger:  logger.Get().With(zap.String("writer", JSONLName)),
		uri:     store.URI(""),
	}, nil
}

// Write persists one batch.
func (w *JSONLWriter) Write(ctx context.Context, table string, sch *schema.Schema, spec *partition.Spec, batch *models.Batch) error {
	if batch.Rows() == 0 {
		return nil
	}

	if spec == nil {
		data, err := w.encode(sch, batch.Records)
		if err != nil {
			return err
		}
		key := fmt.Sprintf("%s/%s%s", table, table, w.ext)
		if err := w.store.Put(ctx, key, data); err != nil {
			return err
		}
		w.observe(table, len(data), 1)
		return nil
	}

	groups, err := groupByPartition(spec, batch)
	if err != nil {
		return err
	}
	files := 0
	written := 0
	for _, g := range groups {
		for _, chunk := range splitRows(g.Rows, w.opts.FileRowsTarget) {
			data, err := w.encode(sch, chunk)
			if err != nil {
				return err
			}
			idx := w.counter.Next(table, g.Path)
			key := fmt.Sprintf("%s/%s/part-%05d%s", table, g.Path, idx, w.ext)
			if err := w.store.Put(ctx, key, data); err != nil {
				return err
			}
			files++
			written += len(data)
		}
	}
	w.observe(table, written, files)
	return nil
}

// encode renders rows as JSON lines in schema column order and applies
// the configured compression.
func (w *JSONLWriter) encode(sch *schema.Schema, rows []*models.Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, row := range rows {
		out := make(map[string]interface{}, len(sch.Fields))
		for _, f := range sch.Fields {
			v, _ := row.Get(f.Name)
			if t, ok := v.(time.Time); ok {
				if f.Type == schema.FieldTypeDate {
					out[f.Name] = t.Format("2006-01-02")
				} else {
					out[f.Name] = t.Format(time.RFC3339)
				}
				continue
			}
			out[f.Name] = v
		}
		if err := enc.Encode(out); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeWrite, "failed to encode jsonl row")
		}
	}
	return w.compress(buf.Bytes())
}

func (w *JSONLWriter) compress(data []byte) ([]byte, error) {
	switch w.opts.Compression {
	case "gzip":
		var out bytes.Buffer
		gw := gzip.NewWriter(&out)
		if _, err := gw.Write(data); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeWrite, "gzip compression failed")
		}
		if err := gw.Close(); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeWrite, "gzip compression failed")
		}
		return out.Bytes(), nil
	case "zstd":
		zw, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeWrite, "zstd compression failed")
		}
		out := zw.EncodeAll(data, nil)
		_ = zw.Close()
		return out, nil
	default:
		return data, nil
	}
}

func (w *JSONLWriter) observe(table string, bytes, files int) {
	metrics.BatchesWritten.WithLabelValues(table, JSONLName).Inc()
	metrics.FilesCommitted.WithLabelValues(table, JSONLName).Add(float64(files))
	metrics.BytesWritten.WithLabelValues(table, JSONLName).Add(float64(bytes))
}

// Close releases writer resources.
func (w *JSONLWriter) Close(ctx context.Context) error { return nil }

// OutputURI returns the destination root.
func (w *JSONLWriter) OutputURI() string { return w.uri }

// Format returns the writer format name.
func (w *JSONLWriter) Format() string { return JSONLName }

var _ core.Writer = (*JSONLWriter)(nil)
