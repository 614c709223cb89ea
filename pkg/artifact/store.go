// Package artifact handles the files workers leave behind: the only
// channel between a worker and the collector. The Store interface
// keeps merge logic testable without a real filesystem.
package artifact

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Store lists and reads artifacts from one directory-like namespace.
// Artifacts have exactly one writer each and stores never mutate them.
type Store interface {
	// List returns artifact names matching a glob pattern, sorted
	List(pattern string) ([]string, error)
	// Open opens an artifact for reading
	Open(name string) (io.ReadCloser, error)
	// Exists reports whether an artifact is present
	Exists(name string) (bool, error)
}

// FSStore is a directory-backed artifact store
type FSStore struct {
	dir string
}

// NewFSStore creates a store over the given directory
func NewFSStore(dir string) *FSStore {
	return &FSStore{dir: dir}
}

// Dir returns the backing directory
func (s *FSStore) Dir() string {
	return s.dir
}

// List returns base names of files in the directory matching pattern
func (s *FSStore) List(pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("bad artifact pattern %q: %w", pattern, err)
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, filepath.Base(m))
	}
	sort.Strings(names)
	return names, nil
}

// Open opens an artifact file for reading
func (s *FSStore) Open(name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact %s: %w", name, err)
	}
	return f, nil
}

// Exists reports whether the named artifact file is present
func (s *FSStore) Exists(name string) (bool, error) {
	_, err := os.Stat(filepath.Join(s.dir, name))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// MemStore is an in-memory artifact store for tests
type MemStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemStore creates an empty in-memory store
func NewMemStore() *MemStore {
	return &MemStore{files: make(map[string][]byte)}
}

// Put stores an artifact under the given name
func (s *MemStore) Put(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = data
}

// List returns stored names matching a glob pattern, sorted
func (s *MemStore) List(pattern string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var names []string
	for name := range s.files {
		ok, err := filepath.Match(pattern, name)
		if err != nil {
			return nil, fmt.Errorf("bad artifact pattern %q: %w", pattern, err)
		}
		if ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Open returns a reader over the stored bytes
func (s *MemStore) Open(name string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.files[name]
	if !ok {
		return nil, fmt.Errorf("artifact %s not found", name)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Exists reports whether the named artifact is stored
func (s *MemStore) Exists(name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.files[name]
	return ok, nil
}
