package writers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/lakegen/pkg/config"
	"github.com/ajitpratap0/lakegen/pkg/errors"
)

// Full iceberg and ducklake write paths need a reachable postgres catalog
// and are covered by integration runs; here we pin down the configuration
// contract.

func TestIcebergRequiresCatalog(t *testing.T) {
	cfg := config.NewWriterConfig()
	_, err := NewIceberg(context.Background(), t.TempDir(), &cfg)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	assert.Contains(t, err.Error(), "catalog")
}

func TestDuckLakeRequiresCatalog(t *testing.T) {
	cfg := config.NewWriterConfig()
	_, err := NewDuckLake(context.Background(), t.TempDir(), &cfg)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	assert.Contains(t, err.Error(), "catalog")
}

func TestDeltaSchemaString(t *testing.T) {
	s, err := deltaSchemaString(masterSchema())
	require.NoError(t, err)
	assert.Contains(t, s, `"type":"struct"`)
	assert.Contains(t, s, `"customer_id"`)
	assert.Contains(t, s, `"date"`)
	// Nullable columns keep their flag.
	assert.Contains(t, s, `"nullable":true`)
}
