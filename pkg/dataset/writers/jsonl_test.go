package writers

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/lakegen/pkg/config"
	"github.com/ajitpratap0/lakegen/pkg/partition"
)

func decodeLines(t *testing.T, data []byte) []map[string]interface{} {
	t.Helper()
	var rows []map[string]interface{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		var row map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &row))
		rows = append(rows, row)
	}
	require.NoError(t, scanner.Err())
	return rows
}

func TestJSONLWriterMaster(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	cfg := config.NewWriterConfig()
	cfg.Options.Compression = "none"
	w, err := NewJSONL(ctx, dir, &cfg)
	require.NoError(t, err)
	assert.Equal(t, JSONLName, w.Format())

	require.NoError(t, w.Write(ctx, "customers", masterSchema(), nil, masterBatch(3)))

	data, err := os.ReadFile(filepath.Join(dir, "customers", "customers.jsonl"))
	require.NoError(t, err)

	rows := decodeLines(t, data)
	require.Len(t, rows, 3)
	assert.Equal(t, float64(1), rows[0]["customer_id"])
	assert.Equal(t, "cust", rows[0]["name"])
	// Dates are rendered as YYYY-MM-DD.
	assert.Equal(t, "2024-01-01", rows[0]["signup_date"])
}

func TestJSONLWriterPartitioned(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	cfg := config.NewWriterConfig()
	cfg.Options.Compression = "none"
	cfg.Options.FileRowsTarget = 2
	w, err := NewJSONL(ctx, dir, &cfg)
	require.NoError(t, err)

	spec := ymdSpec(t)
	sch := eventSchema(spec)
	day := partition.Date(2024, time.March, 5)
	require.NoError(t, w.Write(ctx, "events", sch, spec, eventBatch(spec, day, 1, 3)))

	files := listFiles(t, dir)
	assert.Equal(t, []string{
		"events/year=2024/month=03/day=05/part-00000.jsonl",
		"events/year=2024/month=03/day=05/part-00001.jsonl",
	}, files)

	data, err := os.ReadFile(filepath.Join(dir, "events", "year=2024", "month=03", "day=05", "part-00000.jsonl"))
	require.NoError(t, err)
	rows := decodeLines(t, data)
	require.Len(t, rows, 2)
	// Datetimes are rendered as RFC 3339.
	assert.Equal(t, "2024-03-05T00:00:00Z", rows[0]["ts"])
}

func TestJSONLCompression(t *testing.T) {
	ctx := context.Background()

	t.Run("gzip", func(t *testing.T) {
		dir := t.TempDir()
		cfg := config.NewWriterConfig()
		cfg.Options.Compression = "gzip"
		w, err := NewJSONL(ctx, dir, &cfg)
		require.NoError(t, err)

		require.NoError(t, w.Write(ctx, "customers", masterSchema(), nil, masterBatch(2)))

		data, err := os.ReadFile(filepath.Join(dir, "customers", "customers.jsonl.gz"))
		require.NoError(t, err)

		gr, err := gzip.NewReader(bytes.NewReader(data))
		require.NoError(t, err)
		var out bytes.Buffer
		_, err = out.ReadFrom(gr)
		require.NoError(t, err)
		assert.Len(t, decodeLines(t, out.Bytes()), 2)
	})

	t.Run("zstd", func(t *testing.T) {
		dir := t.TempDir()
		cfg := config.NewWriterConfig()
		cfg.Options.Compression = "zstd"
		w, err := NewJSONL(ctx, dir, &cfg)
		require.NoError(t, err)

		require.NoError(t, w.Write(ctx, "customers", masterSchema(), nil, masterBatch(2)))

		data, err := os.ReadFile(filepath.Join(dir, "customers", "customers.jsonl.zst"))
		require.NoError(t, err)

		zr, err := zstd.NewReader(bytes.NewReader(data))
		require.NoError(t, err)
		defer zr.Close()
		var out bytes.Buffer
		_, err = out.ReadFrom(zr.IOReadCloser())
		require.NoError(t, err)
		assert.Len(t, decodeLines(t, out.Bytes()), 2)
	})

	t.Run("snappy falls back to plain jsonl", func(t *testing.T) {
		dir := t.TempDir()
		cfg := config.NewWriterConfig()
		w, err := NewJSONL(ctx, dir, &cfg)
		require.NoError(t, err)

		require.NoError(t, w.Write(ctx, "customers", masterSchema(), nil, masterBatch(1)))
		assert.Equal(t, []string{"customers/customers.jsonl"}, listFiles(t, dir))
	})
}
