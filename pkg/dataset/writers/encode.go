// Package writers implements the table-format writers: parquet, delta,
// iceberg, ducklake and jsonl. All parquet-based formats share the Arrow
// encoding in this file; each format adds its own layout and metadata on
// top. Writers register themselves with the registry from init().
package writers

import (
	"bytes"
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/ajitpratap0/lakegen/pkg/errors"
	"github.com/ajitpratap0/lakegen/pkg/models"
	"github.com/ajitpratap0/lakegen/pkg/schema"
)

// arrowType maps a schema field type to its Arrow equivalent.
func arrowType(t schema.FieldType) (arrow.DataType, error) {
	switch t {
	case schema.FieldTypeString:
		return arrow.BinaryTypes.String, nil
	case schema.FieldTypeInt:
		return arrow.PrimitiveTypes.Int64, nil
	case schema.FieldTypeFloat:
		return arrow.PrimitiveTypes.Float64, nil
	case schema.FieldTypeBool:
		return arrow.FixedWidthTypes.Boolean, nil
	case schema.FieldTypeDate:
		return arrow.FixedWidthTypes.Date32, nil
	case schema.FieldTypeDatetime:
		return arrow.FixedWidthTypes.Timestamp_us, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeSchema, "unsupported field type %q", string(t))
	}
}

// ArrowSchema converts a table schema to its Arrow representation,
// preserving declaration order.
func ArrowSchema(sch *schema.Schema) (*arrow.Schema, error) {
	fields := make([]arrow.Field, len(sch.Fields))
	for i, f := range sch.Fields {
		dt, err := arrowType(f.Type)
		if err != nil {
			return nil, err
		}
		fields[i] = arrow.Field{Name: f.Name, Type: dt, Nullable: f.Nullable}
	}
	return arrow.NewSchema(fields, nil), nil
}

// buildRecord converts rows to an Arrow record following the schema's
// column order.
func buildRecord(mem memory.Allocator, arrowSch *arrow.Schema, sch *schema.Schema, rows []*models.Record) (arrow.Record, error) {
	builder := array.NewRecordBuilder(mem, arrowSch)
	defer builder.Release()

	for i, f := range sch.Fields {
		if err := appendColumn(builder.Field(i), f, rows); err != nil {
			return nil, err
		}
	}
	return builder.NewRecord(), nil
}

func appendColumn(b array.Builder, f schema.Field, rows []*models.Record) error {
	for _, row := range rows {
		v, ok := row.Get(f.Name)
		if !ok || v == nil {
			b.AppendNull()
			continue
		}
		switch fb := b.(type) {
		case *array.StringBuilder:
			s, ok := v.(string)
			if !ok {
				return typeMismatch(f.Name, "string", v)
			}
			fb.Append(s)
		case *array.Int64Builder:
			n, ok := asInt64(v)
			if !ok {
				return typeMismatch(f.Name, "integer", v)
			}
			fb.Append(n)
		case *array.Float64Builder:
			x, ok := asFloat64(v)
			if !ok {
				return typeMismatch(f.Name, "float", v)
			}
			fb.Append(x)
		case *array.BooleanBuilder:
			bv, ok := v.(bool)
			if !ok {
				return typeMismatch(f.Name, "bool", v)
			}
			fb.Append(bv)
		case *array.Date32Builder:
			t, ok := v.(time.Time)
			if !ok {
				return typeMismatch(f.Name, "date", v)
			}
			fb.Append(arrow.Date32FromTime(t))
		case *array.TimestampBuilder:
			t, ok := v.(time.Time)
			if !ok {
				return typeMismatch(f.Name, "datetime", v)
			}
			fb.Append(arrow.Timestamp(t.UnixMicro()))
		default:
			return errors.Newf(errors.ErrorTypeSchema,
				"column %q: unsupported arrow builder %T", f.Name, b)
		}
	}
	return nil
}

func typeMismatch(column, want string, got interface{}) error {
	return errors.New(errors.ErrorTypeSchema,
		fmt.Sprintf("column %q: expected %s, got %T", column, want, got))
}

func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int16:
		return int64(n), true
	case int8:
		return int64(n), true
	default:
		return 0, false
	}
}

func asFloat64(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	default:
		return 0, false
	}
}

func parquetCodec(compression string) (compress.Compression, error) {
	switch compression {
	case "snappy", "":
		return compress.Codecs.Snappy, nil
	case "zstd":
		return compress.Codecs.Zstd, nil
	case "gzip":
		return compress.Codecs.Gzip, nil
	case "none", "uncompressed":
		return compress.Codecs.Uncompressed, nil
	default:
		return compress.Codecs.Uncompressed,
			errors.Newf(errors.ErrorTypeConfig, "unsupported compression %q", compression)
	}
}

// EncodeParquet serializes rows to a parquet file in memory. The rows must
// already have passed schema validation.
func EncodeParquet(sch *schema.Schema, rows []*models.Record, compression string) ([]byte, error) {
	arrowSch, err := ArrowSchema(sch)
	if err != nil {
		return nil, err
	}
	codec, err := parquetCodec(compression)
	if err != nil {
		return nil, err
	}

	mem := memory.NewGoAllocator()
	rec, err := buildRecord(mem, arrowSch, sch, rows)
	if err != nil {
		return nil, err
	}
	defer rec.Release()

	var buf bytes.Buffer
	props := parquet.NewWriterProperties(parquet.WithCompression(codec))
	w, err := pqarrow.NewFileWriter(arrowSch, &buf, props, pqarrow.DefaultWriterProps())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeWrite, "failed to open parquet writer")
	}
	if err := w.Write(rec); err != nil {
		_ = w.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeWrite, "failed to encode parquet batch")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeWrite, "failed to finalize parquet file")
	}
	return buf.Bytes(), nil
}
