package output

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned when no artifacts were written for a run.
var ErrNotFound = errors.New("run artifacts not found")

// MemoryWriter is an in-process Writer useful for tests, examples and
// single-process prototypes. It keeps the artifacts of every run in a map
// guarded by an RWMutex. It does not enforce retention limits.
type MemoryWriter struct {
	mu   sync.RWMutex
	runs map[string]Artifacts // runID -> artifacts
	ids  []string
}

// NewMemoryWriter returns an empty MemoryWriter.
func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{runs: make(map[string]Artifacts)}
}

// Write stores (or overwrites) the artifacts of runID.
func (m *MemoryWriter) Write(_ context.Context, runID string, a Artifacts) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.runs[runID]; !exists {
		m.ids = append(m.ids, runID)
	}
	a.Missing = append([]string(nil), a.Missing...)
	m.runs[runID] = a
	return nil
}

// Get returns the artifacts of runID or ErrNotFound.
func (m *MemoryWriter) Get(runID string) (Artifacts, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.runs[runID]
	if !ok {
		return Artifacts{}, ErrNotFound
	}
	return a, nil
}

// RunIDs returns the written run IDs in first-write order. The slice is a
// snapshot and safe for caller mutation.
func (m *MemoryWriter) RunIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.ids...)
}
