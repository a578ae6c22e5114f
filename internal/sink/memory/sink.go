// Package memory provides an in-memory result sink for tests and local runs.
package memory

import (
	"context"
	"sync"

	"github.com/opendatahub-br/dadosgov-harvester/internal/catalog"
)

// Sink accumulates written records in memory.
type Sink struct {
	mu      sync.Mutex
	records []catalog.DatasetRecord
}

// New returns an empty in-memory sink.
func New() *Sink {
	return &Sink{}
}

// WriteRecords appends the records and returns their count.
func (s *Sink) WriteRecords(_ context.Context, records []catalog.DatasetRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	return len(records), nil
}

// Records returns a copy of everything written so far.
func (s *Sink) Records() []catalog.DatasetRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]catalog.DatasetRecord(nil), s.records...)
}

// Close does nothing.
func (s *Sink) Close() error { return nil }
