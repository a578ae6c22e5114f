// Package progress defines the event structures emitted during a harvest run.
package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/opendatahub-br/dadosgov-harvester/internal/catalog"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageRunStart       Stage = "RUN_START"
	StageRunDone        Stage = "RUN_DONE"
	StagePartitionStart Stage = "PARTITION_START"
	StagePartitionDone  Stage = "PARTITION_DONE"
	StagePageDone       Stage = "PAGE_DONE"
)

// Event captures a single component of harvest progress.
type Event struct {
	// RunID uniquely identifies a harvest run.
	RunID string
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which lifecycle or fetch milestone occurred.
	Stage Stage
	// Partition scopes page and partition events to one key.
	Partition catalog.PartitionKey
	// Offset is the page offset for PAGE_DONE events.
	Offset int
	// Records is the record count delta carried by the event.
	Records int
	// Unique is the new-to-the-run record count carried by the event.
	Unique int
	// Status is the terminal state for PARTITION_DONE events.
	Status catalog.PartitionStatus
	// Dur captures execution latency for pages, partitions, and runs.
	Dur time.Duration
	// Note lets emitters attach low-volume debug context (e.g. error text).
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == "" {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone:
	case StagePartitionStart:
		if e.Partition == "" {
			return errors.New("partition start requires a partition key")
		}
	case StagePartitionDone:
		if e.Partition == "" {
			return errors.New("partition done requires a partition key")
		}
		if e.Status == "" {
			return errors.New("partition done requires a status")
		}
	case StagePageDone:
		if e.Partition == "" {
			return errors.New("page done requires a partition key")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}
