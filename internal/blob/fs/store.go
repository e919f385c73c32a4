// Package fs implements blob.Store on the local filesystem. Buckets map to
// directories under a root; writes go through a temp file and rename so a
// reader never observes a partially written object.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/kailas-cloud/reposcout/internal/blob"
)

// Compile-time check: Store implements blob.Store.
var _ blob.Store = (*Store)(nil)

// Store implements blob.Store over a directory tree.
type Store struct {
	root string
}

// NewStore creates a store rooted at the given directory, creating it if needed.
func NewStore(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create root %s: %w", root, err)
	}
	return &Store{root: root}, nil
}

// Get retrieves an object.
func (s *Store) Get(_ context.Context, bucket, key string) ([]byte, error) {
	data, err := os.ReadFile(s.objectPath(bucket, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, blob.ErrNotFound
		}
		return nil, &blob.Error{Op: blob.OpGet, Err: err}
	}
	return data, nil
}

// Put stores an object atomically via temp file + rename.
func (s *Store) Put(_ context.Context, bucket, key string, data []byte) error {
	path := s.objectPath(bucket, key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &blob.Error{Op: blob.OpPut, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return &blob.Error{Op: blob.OpPut, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &blob.Error{Op: blob.OpPut, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &blob.Error{Op: blob.OpPut, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &blob.Error{Op: blob.OpPut, Err: err}
	}
	return nil
}

// Exists reports whether an object is present.
func (s *Store) Exists(_ context.Context, bucket, key string) (bool, error) {
	_, err := os.Stat(s.objectPath(bucket, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, &blob.Error{Op: blob.OpExists, Err: err}
	}
	return true, nil
}

// Ping verifies the root directory is reachable.
func (s *Store) Ping(_ context.Context) error {
	if _, err := os.Stat(s.root); err != nil {
		return &blob.Error{Op: blob.OpPing, Err: err}
	}
	return nil
}

// Close is a no-op for the filesystem store.
func (s *Store) Close() {}

// WaitForReady checks the root once; the filesystem needs no warmup.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

func (s *Store) objectPath(bucket, key string) string {
	return filepath.Join(s.root, bucket, filepath.FromSlash(key))
}
