// Package storage abstracts the object stores writers persist to. Two
// implementations exist: a local filesystem store and an S3-compatible
// store. Keys are slash-separated paths relative to the store root; parent
// directories/prefixes are created as needed.
//
// Both stores commit atomically per object: the local store writes to a
// temporary name and renames, the S3 store relies on single-object PUT
// visibility. A failed Put never leaves a partial object at its final key.
package storage

import (
	"context"
	"strings"

	"github.com/ajitpratap0/lakegen/pkg/config"
	"github.com/ajitpratap0/lakegen/pkg/errors"
)

// ObjectStore persists immutable objects under slash-separated keys.
type ObjectStore interface {
	// Put writes data at key, replacing any existing object. The object is
	// either fully visible at key or absent; never partial.
	Put(ctx context.Context, key string, data []byte) error
	// List returns all keys under the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
	// Delete removes the object at key. Deleting a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error
	// URI returns the full destination URI for a key, for diagnostics.
	URI(key string) string
}

// Resolve returns the object store for the output location. An s3://
// output URI or a non-nil S3 configuration selects the S3 store; anything
// else is treated as a local directory, created if absent.
func Resolve(ctx context.Context, output string, s3cfg *config.S3Config) (ObjectStore, error) {
	if output == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "output must be a non-empty path or URI")
	}

	if s3cfg != nil {
		if err := s3cfg.Validate(); err != nil {
			return nil, err
		}
		return newS3Store(ctx, output, s3cfg)
	}

	if strings.HasPrefix(output, "s3://") {
		return nil, errors.New(errors.ErrorTypeConfig,
			"s3 output requires s3 credentials configuration")
	}

	return newLocalStore(output)
}
