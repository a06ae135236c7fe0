package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(ErrorTypeConfig, "bad option")
	assert.Equal(t, ErrorTypeConfig, err.Type)
	assert.Contains(t, err.Error(), "bad option")
}

func TestNewf(t *testing.T) {
	err := Newf(ErrorTypeNotFound, "unknown table %q", "orders")
	assert.Contains(t, err.Error(), `"orders"`)
}

func TestWrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(cause, ErrorTypeStorage, "failed to write object")

	assert.Equal(t, ErrorTypeStorage, err.Type)
	assert.Contains(t, err.Error(), "failed to write object")
	assert.ErrorIs(t, err, cause)
}

func TestWithDetail(t *testing.T) {
	err := New(ErrorTypeWrite, "commit failed").
		WithDetail("table", "orders").
		WithDetail("version", 3)

	assert.Equal(t, "orders", err.Details["table"])
	assert.Equal(t, 3, err.Details["version"])
}

func TestIsType(t *testing.T) {
	err := New(ErrorTypeSchema, "column mismatch")
	assert.True(t, IsType(err, ErrorTypeSchema))
	assert.False(t, IsType(err, ErrorTypeConfig))
	assert.False(t, IsType(stderrors.New("plain"), ErrorTypeSchema))
	assert.False(t, IsType(nil, ErrorTypeSchema))
}

func TestGetType(t *testing.T) {
	assert.Equal(t, "catalog", GetType(New(ErrorTypeCatalog, "x")))
	assert.Equal(t, "internal", GetType(stderrors.New("plain")))

	t.Run("wrapped typed error", func(t *testing.T) {
		inner := New(ErrorTypeStorage, "put failed")
		outer := Wrap(inner, ErrorTypeWrite, "batch failed")
		assert.Equal(t, "write", GetType(outer))
	})
}

func TestIsRetryable(t *testing.T) {
	retryable := []ErrorType{ErrorTypeWrite, ErrorTypeStorage, ErrorTypeCatalog}
	for _, typ := range retryable {
		assert.True(t, IsRetryable(New(typ, "x")), string(typ))
	}

	terminal := []ErrorType{ErrorTypeConfig, ErrorTypeSchema, ErrorTypeNotFound, ErrorTypeInternal}
	for _, typ := range terminal {
		assert.False(t, IsRetryable(New(typ, "x")), string(typ))
	}

	assert.False(t, IsRetryable(stderrors.New("plain")))
	assert.False(t, IsRetryable(nil))
}

func TestStackCaptured(t *testing.T) {
	err := New(ErrorTypeInternal, "boom")
	require.NotEmpty(t, err.Stack)
	assert.Contains(t, err.Stack[0].Function, "TestStackCaptured")
}
