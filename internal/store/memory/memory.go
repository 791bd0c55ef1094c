// Package memory provides an in-memory artifact store used in tests and
// single-process tooling.
package memory

import (
	"context"
	"sync"

	"github.com/utafrali/storefront-sync/internal/store"
)

// Store is an in-memory implementation of store.Store. Safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	files map[string][]byte

	// FailWrites lists paths whose writes should fail, for fault injection.
	FailWrites map[string]error
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{files: make(map[string][]byte)}
}

// Write stores a copy of data under path.
func (s *Store) Write(_ context.Context, path string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.FailWrites[path]; err != nil {
		return err
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	s.files[path] = buf
	return nil
}

// Read returns the artifact at path, or store.ErrNotExist.
func (s *Store) Read(_ context.Context, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.files[path]
	if !ok {
		return nil, store.ErrNotExist
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

// Exists reports whether an artifact is present at path.
func (s *Store) Exists(_ context.Context, path string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.files[path]
	return ok, nil
}

// Paths returns the stored artifact paths in no particular order.
func (s *Store) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := make([]string, 0, len(s.files))
	for p := range s.files {
		paths = append(paths, p)
	}
	return paths
}
