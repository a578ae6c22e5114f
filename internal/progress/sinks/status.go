package sinks

import (
	"context"
	"sync"
	"time"

	"github.com/opendatahub-br/dadosgov-harvester/internal/catalog"
	"github.com/opendatahub-br/dadosgov-harvester/internal/progress"
)

// Snapshot is a point-in-time view of the current (or last) harvest run,
// served by the status endpoint.
type Snapshot struct {
	RunID          string                                            `json:"run_id"`
	Running        bool                                              `json:"running"`
	Started        time.Time                                         `json:"started_at"`
	Finished       time.Time                                         `json:"finished_at,omitzero"`
	PagesFetched   int                                               `json:"pages_fetched"`
	RecordsSeen    int                                               `json:"records_seen"`
	UniqueRecords  int                                               `json:"unique_records"`
	PartitionsDone int                                               `json:"partitions_done"`
	Partitions     map[catalog.PartitionKey]catalog.PartitionStatus `json:"partitions"`
}

// StatusSink maintains an in-memory snapshot of run progress for the HTTP
// status endpoint. It is safe for concurrent use.
type StatusSink struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewStatusSink returns an empty status tracker.
func NewStatusSink() *StatusSink {
	return &StatusSink{}
}

// Consume folds the batch into the snapshot.
func (s *StatusSink) Consume(_ context.Context, batch []progress.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, evt := range batch {
		switch evt.Stage {
		case progress.StageRunStart:
			s.snap = Snapshot{
				RunID:      evt.RunID,
				Running:    true,
				Started:    evt.TS,
				Partitions: make(map[catalog.PartitionKey]catalog.PartitionStatus),
			}
		case progress.StagePageDone:
			s.snap.PagesFetched++
			s.snap.RecordsSeen += evt.Records
			s.snap.UniqueRecords += evt.Unique
		case progress.StagePartitionDone:
			if s.snap.Partitions == nil {
				s.snap.Partitions = make(map[catalog.PartitionKey]catalog.PartitionStatus)
			}
			s.snap.Partitions[evt.Partition] = evt.Status
			s.snap.PartitionsDone++
		case progress.StageRunDone:
			s.snap.Running = false
			s.snap.Finished = evt.TS
		}
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *StatusSink) Close(context.Context) error {
	return nil
}

// Current returns a copy of the tracked snapshot.
func (s *StatusSink) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.snap
	if s.snap.Partitions != nil {
		snap.Partitions = make(map[catalog.PartitionKey]catalog.PartitionStatus, len(s.snap.Partitions))
		for k, v := range s.snap.Partitions {
			snap.Partitions[k] = v
		}
	}
	return snap
}
