// Package report defines persistence for per-partition run reports.
package report

import (
	"context"
	"sync"

	"github.com/opendatahub-br/dadosgov-harvester/internal/catalog"
)

// Store persists run summaries with their per-partition status rows.
type Store interface {
	StoreRun(ctx context.Context, summary catalog.RunSummary) error
	Close()
}

// NoOpStore discards run reports.
type NoOpStore struct{}

// StoreRun does nothing.
func (NoOpStore) StoreRun(context.Context, catalog.RunSummary) error { return nil }

// Close does nothing.
func (NoOpStore) Close() {}

// MemoryStore keeps run summaries in memory for tests and local runs.
type MemoryStore struct {
	mu   sync.Mutex
	runs []catalog.RunSummary
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// StoreRun appends the summary.
func (s *MemoryStore) StoreRun(_ context.Context, summary catalog.RunSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, summary)
	return nil
}

// Runs returns a copy of all stored summaries.
func (s *MemoryStore) Runs() []catalog.RunSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]catalog.RunSummary(nil), s.runs...)
}

// Close does nothing.
func (s *MemoryStore) Close() {}
