package harvest

import (
	"sync"

	"github.com/opendatahub-br/dadosgov-harvester/internal/catalog"
)

// Accumulator merges records across partitions, keyed by dataset identity.
// Insertion is write-once per key: the first writer wins and no value is
// ever overwritten. It is the only mutable state shared between concurrent
// fetch tasks and is safe for concurrent use.
type Accumulator struct {
	mu      sync.Mutex
	records map[catalog.DatasetID]catalog.DatasetRecord
	order   []catalog.DatasetID
	drained bool
}

// NewAccumulator returns an empty accumulator for one harvest run.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		records: make(map[catalog.DatasetID]catalog.DatasetRecord),
	}
}

// Offer inserts the record if its ID has not been seen. It returns true on
// insertion and false for duplicates, unkeyed records, and offers arriving
// after Drain.
func (a *Accumulator) Offer(rec catalog.DatasetRecord) bool {
	if rec.ID == "" {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.drained {
		return false
	}
	if _, seen := a.records[rec.ID]; seen {
		return false
	}
	a.records[rec.ID] = rec
	a.order = append(a.order, rec.ID)
	return true
}

// Len reports how many unique records have been accumulated so far.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.records)
}

// Drain returns every accumulated record in first-seen order and clears the
// accumulator. It may be called exactly once; a second call returns
// ErrDrained, which callers treat as a fatal lifecycle violation.
func (a *Accumulator) Drain() ([]catalog.DatasetRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.drained {
		return nil, ErrDrained
	}
	a.drained = true
	out := make([]catalog.DatasetRecord, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.records[id])
	}
	a.records = nil
	a.order = nil
	return out, nil
}
