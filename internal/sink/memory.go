package sink

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"hrestore/internal/hr"
)

// MemorySink is an in-memory implementation of hr.Sink, useful for testing.
// This implementation is safe for concurrent use.
type MemorySink struct {
	name    string
	files   map[string][]byte
	modTime map[string]time.Time
	mu      sync.RWMutex
}

// NewMemorySink creates a new in-memory sink with the given name.
func NewMemorySink(name string) *MemorySink {
	return &MemorySink{
		name:    name,
		files:   make(map[string][]byte),
		modTime: make(map[string]time.Time),
	}
}

// Put stores the content under relativePath, replacing any previous entry.
func (m *MemorySink) Put(relativePath string, r io.Reader, size int64, modTime time.Time) error {
	if err := hr.ValidateRelativePath(relativePath); err != nil {
		return err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[relativePath] = data
	m.modTime[relativePath] = modTime
	return nil
}

// Describe returns the sink name.
func (m *MemorySink) Describe() string {
	return "memory:" + m.name
}

// Get returns the stored content for relativePath.
func (m *MemorySink) Get(relativePath string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[relativePath]
	return data, ok
}

// ModTime returns the modification time recorded for relativePath.
func (m *MemorySink) ModTime(relativePath string) time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.modTime[relativePath]
}

// Paths returns the stored relative paths in sorted order.
func (m *MemorySink) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

var _ hr.Sink = (*MemorySink)(nil)
