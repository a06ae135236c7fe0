package writers

import (
	"context"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
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

// DeltaName is the registered format name of the Delta Lake writer.
const DeltaName = "delta"

// DeltaWriter lays each table out as a Delta Lake table: parquet data
// files plus a _delta_log commit journal. Every Write call is one commit;
// the first commit of a table carries the protocol and metaData actions.
// Master table rewrites emit remove actions for the files of the previous
// commit, giving overwrite semantics.
type DeltaWriter struct {
	store   storage.ObjectStore
	opts    config.WriterOptions
	counter *partCounters
	tables  map[string]*deltaTable
	logger  *zap.Logger
	uri     string
}

type deltaTable struct {
	version     int64
	masterFiles []string
}

type deltaAction struct {
	Protocol *deltaProtocol `json:"protocol,omitempty"`
	MetaData *deltaMetaData `json:"metaData,omitempty"`
	Add      *deltaAdd      `json:"add,omitempty"`
	Remove   *deltaRemove   `json:"remove,omitempty"`
}

type deltaProtocol struct {
	MinReaderVersion int `json:"minReaderVersion"`
	MinWriterVersion int `json:"minWriterVersion"`
}

type deltaMetaData struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Format           deltaFormat       `json:"format"`
	SchemaString     string            `json:"schemaString"`
	PartitionColumns []string          `json:"partitionColumns"`
	Configuration    map[string]string `json:"configuration"`
	CreatedTime      int64             `json:"createdTime"`
}

type deltaFormat struct {
	Provider string            `json:"provider"`
	Options  map[string]string `json:"options"`
}

type deltaAdd struct {
	Path             string            `json:"path"`
	PartitionValues  map[string]string `json:"partitionValues"`
	Size             int64             `json:"size"`
	ModificationTime int64             `json:"modificationTime"`
	DataChange       bool              `json:"dataChange"`
}

type deltaRemove struct {
	Path              string `json:"path"`
	DeletionTimestamp int64  `json:"deletionTimestamp"`
	DataChange        bool   `json:"dataChange"`
}

// NewDelta creates a Delta Lake writer over the resolved object store.
func NewDelta(ctx context.Context, outputURI string, cfg *config.WriterConfig) (*DeltaWriter, error) {
	if err := cfg.Options.Validate(); err != nil {
		return nil, err
	}
	store, err := storage.Resolve(ctx, outputURI, cfg.S3)
	if err != nil {
		return nil, err
	}
	return &DeltaWriter{
		store:   store,
		opts:    cfg.Options,
		counter: newPartCounters(),
		tables:  make(map[string]*deltaTable),
		logger:  logger.Get().With(zap.String("writer", DeltaName)),
		uri:     store.URI(""),
	}, nil
}

// Write persists one batch as a single Delta commit.
func (w *DeltaWriter) Write(ctx context.Context, table string, sch *schema.Schema, spec *partition.Spec, batch *models.Batch) error {
	if batch.Rows() == 0 {
		return nil
	}

	state, known := w.tables[table]
	if !known {
		state = &deltaTable{}
		w.tables[table] = state
	}

	var actions []deltaAction
	if !known {
		schemaString, err := deltaSchemaString(sch)
		if err != nil {
			return err
		}
		actions = append(actions,
			deltaAction{Protocol: &deltaProtocol{MinReaderVersion: 1, MinWriterVersion: 2}},
			deltaAction{MetaData: &deltaMetaData{
				ID:               uuid.NewString(),
				Name:             table,
				Format:           deltaFormat{Provider: "parquet", Options: map[string]string{}},
				SchemaString:     schemaString,
				PartitionColumns: partitionColumnNames(spec),
				Configuration:    map[string]string{},
				CreatedTime:      time.Now().UnixMilli(),
			}},
		)
	}

	now := time.Now().UnixMilli()
	bytesWritten := 0
	files := 0

	if spec == nil {
		// Master table rewrite: retract the previous commit's files.
		for _, path := range state.masterFiles {
			actions = append(actions, deltaAction{Remove: &deltaRemove{
				Path: path, DeletionTimestamp: now, DataChange: true,
			}})
		}
		state.masterFiles = nil

		idx := w.counter.Next(table, "")
		path := fmt.Sprintf("part-%05d.parquet", idx)
		data, err := EncodeParquet(sch, batch.Records, w.opts.Compression)
		if err != nil {
			return err
		}
		if err := w.store.Put(ctx, table+"/"+path, data); err != nil {
			return err
		}
		state.masterFiles = append(state.masterFiles, path)
		actions = append(actions, deltaAction{Add: &deltaAdd{
			Path:             path,
			PartitionValues:  map[string]string{},
			Size:             int64(len(data)),
			ModificationTime: now,
			DataChange:       true,
		}})
		bytesWritten += len(data)
		files++
	} else {
		groups, err := groupByPartition(spec, batch)
		if err != nil {
			return err
		}
		for _, g := range groups {
			values := partitionValuesFromPath(g.Path)
			for _, chunk := range splitRows(g.Rows, w.opts.FileRowsTarget) {
				data, err := EncodeParquet(sch, chunk, w.opts.Compression)
				if err != nil {
					return err
				}
				idx := w.counter.Next(table, g.Path)
				path := fmt.Sprintf("%s/part-%05d.parquet", g.Path, idx)
				if err := w.store.Put(ctx, table+"/"+path, data); err != nil {
					return err
				}
				actions = append(actions, deltaAction{Add: &deltaAdd{
					Path:             path,
					PartitionValues:  values,
					Size:             int64(len(data)),
					ModificationTime: now,
					DataChange:       true,
				}})
				bytesWritten += len(data)
				files++
			}
		}
	}

	if err := w.commit(ctx, table, state, actions); err != nil {
		return err
	}

	metrics.BatchesWritten.WithLabelValues(table, DeltaName).Inc()
	metrics.FilesCommitted.WithLabelValues(table, DeltaName).Add(float64(files))
	metrics.BytesWritten.WithLabelValues(table, DeltaName).Add(float64(bytesWritten))
	w.logger.Debug("delta commit written",
		zap.String("table", table),
		zap.Int64("version", state.version-1),
		zap.Int("files", files))
	return nil
}

// commit serializes the actions as newline-delimited JSON into the next
// numbered log entry. The data files are already durable, so the log
// object's atomic Put is the commit point.
func (w *DeltaWriter) commit(ctx context.Context, table string, state *deltaTable, actions []deltaAction) error {
	var sb strings.Builder
	for _, a := range actions {
		line, err := json.Marshal(a)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeWrite, "failed to encode delta action")
		}
		sb.Write(line)
		sb.WriteByte('\n')
	}

	key := fmt.Sprintf("%s/_delta_log/%020d.json", table, state.version)
	if err := w.store.Put(ctx, key, []byte(sb.String())); err != nil {
		return err
	}
	state.version++
	return nil
}

// Close releases writer resources.
func (w *DeltaWriter) Close(ctx context.Context) error { return nil }

// OutputURI returns the destination root.
func (w *DeltaWriter) OutputURI() string { return w.uri }

// Format returns the writer format name.
func (w *DeltaWriter) Format() string { return DeltaName }

func partitionColumnNames(spec *partition.Spec) []string {
	if spec == nil {
		return []string{}
	}
	cols := make([]string, len(spec.Columns))
	for i, c := range spec.Columns {
		cols[i] = string(c)
	}
	return cols
}

// partitionValuesFromPath decomposes a rendered partition path back into
// the column=value pairs Delta stores on each add action.
func partitionValuesFromPath(path string) map[string]string {
	values := make(map[string]string)
	for _, part := range strings.Split(path, "/") {
		if col, val, ok := strings.Cut(part, "="); ok {
			values[col] = val
		}
	}
	return values
}

// deltaSchemaString renders the table schema in the Spark struct JSON form
// Delta metadata carries.
func deltaSchemaString(sch *schema.Schema) (string, error) {
	type sparkField struct {
		Name     string                 `json:"name"`
		Type     string                 `json:"type"`
		Nullable bool                   `json:"nullable"`
		Metadata map[string]interface{} `json:"metadata"`
	}
	type sparkStruct struct {
		Type   string       `json:"type"`
		Fields []sparkField `json:"fields"`
	}

	out := sparkStruct{Type: "struct", Fields: make([]sparkField, len(sch.Fields))}
	for i, f := range sch.Fields {
		var t string
		switch f.Type {
		case schema.FieldTypeString:
			t = "string"
		case schema.FieldTypeInt:
			t = "long"
		case schema.FieldTypeFloat:
			t = "double"
		case schema.FieldTypeBool:
			t = "boolean"
		case schema.FieldTypeDate:
			t = "date"
		case schema.FieldTypeDatetime:
			t = "timestamp"
		default:
			return "", errors.Newf(errors.ErrorTypeSchema, "unsupported field type %q", string(f.Type))
		}
		out.Fields[i] = sparkField{
			Name:     f.Name,
			Type:     t,
			Nullable: f.Nullable,
			Metadata: map[string]interface{}{},
		}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeWrite, "failed to encode delta schema")
	}
	return string(data), nil
}

var _ core.Writer = (*DeltaWriter)(nil)
