package writers

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/lakegen/pkg/config"
	"github.com/ajitpratap0/lakegen/pkg/models"
	"github.com/ajitpratap0/lakegen/pkg/partition"
	"github.com/ajitpratap0/lakegen/pkg/schema"
)

func masterSchema() *schema.Schema {
	return schema.New("customers",
		schema.Field{Name: "customer_id", Type: schema.FieldTypeInt},
		schema.Field{Name: "name", Type: schema.FieldTypeString},
		schema.Field{Name: "signup_date", Type: schema.FieldTypeDate},
		schema.Field{Name: "score", Type: schema.FieldTypeFloat, Nullable: true},
	)
}

func masterBatch(n int) *models.Batch {
	batch := models.NewBatch("customers", n)
	for i := 1; i <= n; i++ {
		batch.Append(models.NewRecord().
			Set("customer_id", int64(i)).
			Set("name", "cust").
			Set("signup_date", partition.Date(2024, time.January, 1)).
			Set("score", 0.5))
	}
	return batch
}

func eventSchema(spec *partition.Spec) *schema.Schema {
	base := schema.New("events",
		schema.Field{Name: "event_id", Type: schema.FieldTypeInt},
		schema.Field{Name: "ts", Type: schema.FieldTypeDatetime},
	)
	return base.WithFields(spec.Fields()...)
}

func eventBatch(spec *partition.Spec, day time.Time, startID int64, n int) *models.Batch {
	batch := models.NewBatch("events", n)
	for i := 0; i < n; i++ {
		rec := models.NewRecord().
			Set("event_id", startID+int64(i)).
			Set("ts", day.Add(time.Duration(i)*time.Second))
		spec.SetValues(rec, day)
		batch.Append(rec)
	}
	return batch
}

func listFiles(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		require.NoError(t, err)
		if !d.IsDir() {
			rel, err := filepath.Rel(root, path)
			require.NoError(t, err)
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	require.NoError(t, err)
	return files
}

func TestParquetWriterMaster(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	cfg := config.NewWriterConfig()
	w, err := NewParquet(ctx, dir, &cfg)
	require.NoError(t, err)
	assert.Equal(t, ParquetName, w.Format())

	require.NoError(t, w.Write(ctx, "customers", masterSchema(), nil, masterBatch(10)))
	require.NoError(t, w.Close(ctx))

	files := listFiles(t, dir)
	require.Equal(t, []string{"customers/customers.parquet"}, files)

	t.Run("rewrite overwrites in place", func(t *testing.T) {
		first, err := os.Stat(filepath.Join(dir, "customers", "customers.parquet"))
		require.NoError(t, err)

		require.NoError(t, w.Write(ctx, "customers", masterSchema(), nil, masterBatch(3)))
		assert.Len(t, listFiles(t, dir), 1)

		second, err := os.Stat(filepath.Join(dir, "customers", "customers.parquet"))
		require.NoError(t, err)
		assert.NotEqual(t, first.Size(), second.Size())
	})

	t.Run("empty batch writes nothing", func(t *testing.T) {
		require.NoError(t, w.Write(ctx, "products", masterSchema(), nil, models.NewBatch("products", 0)))
		assert.Len(t, listFiles(t, dir), 1)
	})
}

func TestParquetWriterPartitioned(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	cfg := config.NewWriterConfig()
	cfg.Options.FileRowsTarget = 2
	w, err := NewParquet(ctx, dir, &cfg)
	require.NoError(t, err)

	spec := ymdSpec(t)
	sch := eventSchema(spec)
	day1 := partition.Date(2024, time.March, 5)
	day2 := partition.Date(2024, time.March, 6)

	// 5 rows for day one split into 2+2+1, 2 rows for day two.
	require.NoError(t, w.Write(ctx, "events", sch, spec, eventBatch(spec, day1, 1, 5)))
	require.NoError(t, w.Write(ctx, "events", sch, spec, eventBatch(spec, day2, 6, 2)))

	files := listFiles(t, dir)
	assert.Equal(t, []string{
		"events/year=2024/month=03/day=05/part-00000.parquet",
		"events/year=2024/month=03/day=05/part-00001.parquet",
		"events/year=2024/month=03/day=05/part-00002.parquet",
		"events/year=2024/month=03/day=06/part-00000.parquet",
	}, files)

	t.Run("later batches continue part numbering", func(t *testing.T) {
		require.NoError(t, w.Write(ctx, "events", sch, spec, eventBatch(spec, day2, 8, 1)))
		assert.Contains(t, listFiles(t, dir),
			"events/year=2024/month=03/day=06/part-00001.parquet")
	})
}

func TestParquetCompressionValidated(t *testing.T) {
	cfg := config.NewWriterConfig()
	cfg.Options.Compression = "lzma"
	_, err := NewParquet(context.Background(), t.TempDir(), &cfg)
	assert.Error(t, err)
}

func TestEncodeParquetNullable(t *testing.T) {
	sch := masterSchema()
	batch := masterBatch(2)
	batch.Records[1].Set("score", nil)

	data, err := EncodeParquet(sch, batch.Records, "snappy")
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	// Parquet magic bytes frame the file.
	assert.Equal(t, "PAR1", string(data[:4]))
	assert.Equal(t, "PAR1", string(data[len(data)-4:]))
}
