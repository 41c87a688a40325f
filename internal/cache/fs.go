package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FSStore implements Store with one file per key under a root directory.
type FSStore struct {
	root string
}

// NewFSStore creates the root directory if needed and returns a store over it.
func NewFSStore(root string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &FSStore{root: root}, nil
}

// path maps a key to its file. Keys are hex digests (see Key), so they are
// always safe as file names.
func (s *FSStore) path(key string) string {
	return filepath.Join(s.root, key)
}

// Get returns the cached value for key, if present.
func (s *FSStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return value, true, nil
}

// Put stores value under key atomically: write to a temp file in the same
// directory, then rename over the final path. A racing reader sees either
// nothing or a complete entry, never a partial write.
func (s *FSStore) Put(ctx context.Context, key string, value []byte) error {
	// Write-once: an existing entry is already the answer for this key.
	if _, err := os.Stat(s.path(key)); err == nil {
		return nil
	}

	tmp, err := os.CreateTemp(s.root, key+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp cache file: %w", err)
	}

	if err := os.Rename(tmpName, s.path(key)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to commit cache entry: %w", err)
	}
	return nil
}
