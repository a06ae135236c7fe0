// Package config defines the configuration surface shared by writers and
// the CLI: writer tuning options, S3-compatible storage settings and catalog
// connections. Generator parameters live with each generator; this package
// only carries what every writer understands.
//
// All structures are immutable after construction by convention: they are
// populated once from flags or a YAML file and then passed read-only into
// factories.
package config

import (
	"strings"

	"github.com/ajitpratap0/lakegen/pkg/errors"
)

// DefaultFileRowsTarget is the per-file row cap applied when the caller
// does not set one.
const DefaultFileRowsTarget = 250_000

// DefaultCompression is the codec used when the caller does not set one.
const DefaultCompression = "snappy"

// WriterOptions are format-independent writer tuning parameters.
type WriterOptions struct {
	// FileRowsTarget caps the number of rows in a single output part file.
	FileRowsTarget int `yaml:"file_rows_target" json:"file_rows_target"`
	// Compression selects the codec: snappy, zstd, gzip or none.
	Compression string `yaml:"compression" json:"compression"`
}

// NewWriterOptions returns writer options with defaults applied.
func NewWriterOptions() WriterOptions {
	return WriterOptions{
		FileRowsTarget: DefaultFileRowsTarget,
		Compression:    DefaultCompression,
	}
}

// Validate checks writer option invariants.
func (o WriterOptions) Validate() error {
	if o.FileRowsTarget <= 0 {
		return errors.New(errors.ErrorTypeConfig, "file_rows_target must be positive")
	}
	switch o.Compression {
	case "snappy", "zstd", "gzip", "none", "uncompressed":
	default:
		return errors.Newf(errors.ErrorTypeConfig,
			"unsupported compression %q (valid: snappy, zstd, gzip, none)", o.Compression)
	}
	return nil
}

// S3Config holds S3-compatible object storage settings. Endpoint and
// credentials are passed through to the AWS SDK unmodified.
type S3Config struct {
	// URI is the bucket root, e.g. "s3://bucket/prefix".
	URI string `yaml:"uri" json:"uri"`
	// Key is the access key ID.
	Key string `yaml:"key" json:"key"`
	// Secret is the secret access key.
	Secret string `yaml:"secret" json:"secret"`
	// Endpoint overrides the AWS endpoint for MinIO-style deployments.
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	// Region defaults to us-east-1.
	Region string `yaml:"region" json:"region"`
	// UsePathStyle forces path-style addressing, required by most
	// S3-compatible stores.
	UsePathStyle bool `yaml:"use_path_style" json:"use_path_style"`
}

// Validate checks that the S3 configuration is complete.
func (c *S3Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.URI == "" {
		return errors.New(errors.ErrorTypeConfig, "s3 uri is required")
	}
	if !strings.HasPrefix(c.URI, "s3://") {
		return errors.Newf(errors.ErrorTypeConfig, "s3 uri must start with s3://, got %q", c.URI)
	}
	if c.Key == "" || c.Secret == "" {
		return errors.New(errors.ErrorTypeConfig, "s3 key and secret are required when s3 uri is set")
	}
	return nil
}

// RegionOrDefault returns the configured region or us-east-1.
func (c *S3Config) RegionOrDefault() string {
	if c == nil || c.Region == "" {
		return "us-east-1"
	}
	return c.Region
}

// CatalogConfig holds the connection for catalog-backed table formats
// (iceberg, ducklake). The URI and namespace are passed through to the
// catalog unmodified.
type CatalogConfig struct {
	// Kind names the catalog backend. Only "postgres" is supported.
	Kind string `yaml:"kind" json:"kind"`
	// URI is the connection string, e.g. "postgres://user:pw@host/db".
	URI string `yaml:"uri" json:"uri"`
	// Namespace is the logical namespace tables are registered under.
	Namespace string `yaml:"namespace" json:"namespace"`
}

// Validate checks that the catalog configuration is complete.
func (c *CatalogConfig) Validate() error {
	if c == nil {
		return nil
	}
	if c.Kind == "" || c.URI == "" {
		return errors.New(errors.ErrorTypeConfig, "catalog kind and uri must be provided together")
	}
	if c.Kind != "postgres" {
		return errors.Newf(errors.ErrorTypeConfig, "unsupported catalog kind %q (valid: postgres)", c.Kind)
	}
	return nil
}

// WriterConfig bundles everything a writer factory needs besides the
// output URI.
type WriterConfig struct {
	Options WriterOptions  `yaml:"options" json:"options"`
	S3      *S3Config      `yaml:"s3,omitempty" json:"s3,omitempty"`
	Catalog *CatalogConfig `yaml:"catalog,omitempty" json:"catalog,omitempty"`
}

// NewWriterConfig returns a writer config with default options.
func NewWriterConfig() WriterConfig {
	return WriterConfig{Options: NewWriterOptions()}
}

// Validate validates all sections.
func (c WriterConfig) Validate() error {
	if err := c.Options.Validate(); err != nil {
		return err
	}
	if err := c.S3.Validate(); err != nil {
		return err
	}
	return c.Catalog.Validate()
}
