// Package memory keeps stored files in-memory for tests and dry runs.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
)

// BlobStore stores file content in a map keyed by locator.
type BlobStore struct {
	mu     sync.RWMutex
	data   map[string][]byte
	writes int
}

// NewBlobStore creates a new in-memory store.
func NewBlobStore() *BlobStore {
	return &BlobStore{
		data: make(map[string][]byte),
	}
}

// Exists reports whether locator has been written.
func (s *BlobStore) Exists(_ context.Context, locator string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[locator]
	return ok, nil
}

// Write persists a copy of data.
func (s *BlobStore) Write(_ context.Context, locator string, data []byte) error {
	if strings.TrimSpace(locator) == "" {
		return fmt.Errorf("path is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[locator] = append([]byte(nil), data...)
	s.writes++
	return nil
}

// List returns the locators directly under dir ending in ext, sorted.
func (s *BlobStore) List(_ context.Context, dir string, ext string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dir = path.Clean(dir)
	var locators []string
	for locator := range s.data {
		if path.Dir(locator) != dir {
			continue
		}
		if ext != "" && path.Ext(locator) != ext {
			continue
		}
		locators = append(locators, locator)
	}
	sort.Strings(locators)
	return locators, nil
}

// Open returns a reader over a copy of the stored content.
func (s *BlobStore) Open(_ context.Context, locator string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[locator]
	if !ok {
		return nil, fmt.Errorf("open %s: not found", locator)
	}
	return io.NopCloser(bytes.NewReader(append([]byte(nil), data...))), nil
}

// Get returns the stored content for locator.
func (s *BlobStore) Get(locator string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[locator]
	return data, ok
}

// Writes returns how many Write calls succeeded.
func (s *BlobStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}
