package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ajitpratap0/lakegen/pkg/errors"
)

// localStore writes objects under a root directory. Puts go to a
// temporary sibling first and are renamed into place, so readers never
// observe a half-written file at its final path.
type localStore struct {
	root string
}

func newLocalStore(root string) (*localStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeStorage, "failed to resolve output path")
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeStorage, "failed to create output directory")
	}
	return &localStore{root: abs}, nil
}

func (s *localStore) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Wrap(err, errors.ErrorTypeStorage, "failed to create parent directory").
			WithDetail("key", key)
	}

	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, errors.ErrorTypeStorage, "failed to write object").
			WithDetail("key", key)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, errors.ErrorTypeStorage, "failed to commit object").
			WithDetail("key", key)
	}
	return nil
}

func (s *localStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var keys []string
	base := filepath.Join(s.root, filepath.FromSlash(prefix))
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(filepath.Join(s.root, filepath.FromSlash(key)), base) {
			keys = append(keys, key)
		}
		return nil
	})
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeStorage, "failed to list objects").
			WithDetail("prefix", prefix)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *localStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, errors.ErrorTypeStorage, "failed to delete object").
			WithDetail("key", key)
	}
	return nil
}

func (s *localStore) URI(key string) string {
	if key == "" {
		return s.root
	}
	return fmt.Sprintf("%s/%s", s.root, key)
}
