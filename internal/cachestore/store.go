// Package cachestore implements the content-addressed response caches that
// make repeated runs offline-replayable.
package cachestore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"go.uber.org/zap"
)

var invalidKeyChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Store is a directory of raw response bodies, one file per key. Each key is
// derived deterministically from its query, so concurrent writers never
// target the same key with different content; an overlapping duplicate write
// is idempotent and needs no locking.
type Store struct {
	dir    string
	logger *zap.Logger
}

// New returns a store rooted at dir, creating it if needed.
func New(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", dir, err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Get returns the cached body for key, or found=false on a miss.
func (s *Store) Get(key string) (body []byte, found bool, err error) {
	body, err = os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache entry %s: %w", key, err)
	}
	return body, true, nil
}

// Put stores the body verbatim under key.
func (s *Store) Put(key string, body []byte) error {
	if err := os.WriteFile(s.path(key), body, 0o600); err != nil {
		return fmt.Errorf("write cache entry %s: %w", key, err)
	}
	return nil
}

// GetOrFill returns the cached body for key, calling fill and persisting its
// result on a miss. fill errors are returned without touching the cache, so
// failed responses are never replayed.
func (s *Store) GetOrFill(key string, fill func() ([]byte, error)) ([]byte, error) {
	body, found, err := s.Get(key)
	if err != nil {
		return nil, err
	}
	if found {
		s.logger.Debug("using cached file", zap.String("key", key))
		return body, nil
	}

	body, err = fill()
	if err != nil {
		return nil, err
	}
	if err := s.Put(key, body); err != nil {
		return nil, err
	}
	return body, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, invalidKeyChars.ReplaceAllString(key, "_"))
}
