// Package catalog registers lakehouse tables in an external SQL catalog.
// Catalog-backed writers (iceberg, ducklake) record every table's location,
// format and partition columns so query engines can discover them. The only
// supported backend is PostgreSQL via pgx.
package catalog

import (
	"context"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ajitpratap0/lakegen/pkg/config"
	"github.com/ajitpratap0/lakegen/pkg/errors"
	"github.com/ajitpratap0/lakegen/pkg/logger"
	"github.com/ajitpratap0/lakegen/pkg/partition"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS lakegen_tables (
	id             BIGSERIAL PRIMARY KEY,
	table_name     TEXT UNIQUE NOT NULL,
	location       TEXT NOT NULL,
	format         TEXT NOT NULL,
	partition_spec TEXT
)`

// Catalog tracks table locations for catalog-backed table formats.
type Catalog interface {
	// RegisterTable upserts the table's location, format and partition
	// columns. Re-registering an existing table overwrites its entry.
	RegisterTable(ctx context.Context, table, location, format string, spec *partition.Spec) error
	// Location returns the registered location for a table, or "" when the
	// table is unknown.
	Location(ctx context.Context, table string) (string, error)
	// Close releases the catalog connection.
	Close()
}

// sqlCatalog implements Catalog over a PostgreSQL connection pool.
type sqlCatalog struct {
	pool      *pgxpool.Pool
	namespace string
	logger    *zap.Logger
}

// Open connects to the configured catalog and ensures the registry table
// exists.
func Open(ctx context.Context, cfg *config.CatalogConfig) (Catalog, error) {
	if cfg == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "catalog configuration is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, cfg.URI)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeCatalog, "failed to connect to catalog")
	}

	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeCatalog, "failed to initialize catalog schema")
	}

	return &sqlCatalog{
		pool:      pool,
		namespace: cfg.Namespace,
		logger:    logger.Get().With(zap.String("component", "sql_catalog")),
	}, nil
}

func (c *sqlCatalog) RegisterTable(ctx context.Context, table, location, format string, spec *partition.Spec) error {
	var serialized *string
	if spec != nil {
		cols := make([]string, len(spec.Columns))
		for i, col := range spec.Columns {
			cols[i] = string(col)
		}
		data, err := json.Marshal(cols)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeCatalog, "failed to serialize partition spec")
		}
		s := string(data)
		serialized = &s
	}

	_, err := c.pool.Exec(ctx, `
		INSERT INTO lakegen_tables (table_name, location, format, partition_spec)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (table_name)
		DO UPDATE SET location = $2, format = $3, partition_spec = $4`,
		c.qualified(table), location, format, serialized)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeCatalog, "failed to register table").
			WithDetail("table", table).
			WithDetail("location", location)
	}

	c.logger.Info("table registered",
		zap.String("table", c.qualified(table)),
		zap.String("location", location),
		zap.String("format", format))
	return nil
}

func (c *sqlCatalog) Location(ctx context.Context, table string) (string, error) {
	var location string
	err := c.pool.QueryRow(ctx,
		`SELECT location FROM lakegen_tables WHERE table_name = $1`,
		c.qualified(table)).Scan(&location)
	if err == pgx.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeCatalog, "failed to look up table").
			WithDetail("table", table)
	}
	return location, nil
}

func (c *sqlCatalog) Close() {
	c.pool.Close()
}

func (c *sqlCatalog) qualified(table string) string {
	if c.namespace == "" {
		return table
	}
	return c.namespace + "." + table
}
