package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterOptionsValidate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		opts := NewWriterOptions()
		assert.NoError(t, opts.Validate())
		assert.Equal(t, DefaultFileRowsTarget, opts.FileRowsTarget)
		assert.Equal(t, DefaultCompression, opts.Compression)
	})

	t.Run("rejects non-positive file rows target", func(t *testing.T) {
		opts := NewWriterOptions()
		opts.FileRowsTarget = 0
		assert.Error(t, opts.Validate())
	})

	t.Run("rejects unknown compression", func(t *testing.T) {
		opts := NewWriterOptions()
		opts.Compression = "brotli"
		err := opts.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "brotli")
	})

	t.Run("accepts every supported codec", func(t *testing.T) {
		for _, codec := range []string{"snappy", "zstd", "gzip", "none", "uncompressed"} {
			opts := NewWriterOptions()
			opts.Compression = codec
			assert.NoError(t, opts.Validate(), codec)
		}
	})
}

func TestS3ConfigValidate(t *testing.T) {
	t.Run("nil passes", func(t *testing.T) {
		var cfg *S3Config
		assert.NoError(t, cfg.Validate())
	})

	t.Run("complete config passes", func(t *testing.T) {
		cfg := &S3Config{URI: "s3://bucket/prefix", Key: "k", Secret: "s"}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("requires s3 scheme", func(t *testing.T) {
		cfg := &S3Config{URI: "http://bucket", Key: "k", Secret: "s"}
		assert.Error(t, cfg.Validate())
	})

	t.Run("requires credentials", func(t *testing.T) {
		cfg := &S3Config{URI: "s3://bucket"}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "key and secret")
	})
}

func TestS3RegionOrDefault(t *testing.T) {
	var nilCfg *S3Config
	assert.Equal(t, "us-east-1", nilCfg.RegionOrDefault())
	assert.Equal(t, "us-east-1", (&S3Config{}).RegionOrDefault())
	assert.Equal(t, "eu-central-1", (&S3Config{Region: "eu-central-1"}).RegionOrDefault())
}

func TestCatalogConfigValidate(t *testing.T) {
	t.Run("nil passes", func(t *testing.T) {
		var cfg *CatalogConfig
		assert.NoError(t, cfg.Validate())
	})

	t.Run("postgres passes", func(t *testing.T) {
		cfg := &CatalogConfig{Kind: "postgres", URI: "postgres://u:p@h/db"}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("kind and uri required together", func(t *testing.T) {
		assert.Error(t, (&CatalogConfig{Kind: "postgres"}).Validate())
		assert.Error(t, (&CatalogConfig{URI: "postgres://u:p@h/db"}).Validate())
	})

	t.Run("unknown kind rejected", func(t *testing.T) {
		cfg := &CatalogConfig{Kind: "hive", URI: "thrift://h"}
		assert.Error(t, cfg.Validate())
	})
}

func TestWriterConfigValidate(t *testing.T) {
	cfg := NewWriterConfig()
	assert.NoError(t, cfg.Validate())

	cfg.S3 = &S3Config{URI: "s3://bucket"}
	assert.Error(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	t.Run("env substitution", func(t *testing.T) {
		t.Setenv("LAKEGEN_TEST_SECRET", "hunter2")

		path := filepath.Join(t.TempDir(), "writer.yaml")
		content := `
options:
  file_rows_target: 1000
  compression: zstd
s3:
  uri: s3://bucket/data
  key: admin
  secret: ${LAKEGEN_TEST_SECRET}
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		var cfg WriterConfig
		require.NoError(t, Load(path, &cfg))
		assert.Equal(t, 1000, cfg.Options.FileRowsTarget)
		assert.Equal(t, "zstd", cfg.Options.Compression)
		require.NotNil(t, cfg.S3)
		assert.Equal(t, "hunter2", cfg.S3.Secret)
	})

	t.Run("missing file", func(t *testing.T) {
		var cfg WriterConfig
		assert.Error(t, Load(filepath.Join(t.TempDir(), "absent.yaml"), &cfg))
	})
}
