// Package catalog defines the data model shared across the harvester:
// dataset records, partition keys, and per-run reporting structures.
package catalog

import (
	"encoding/json"
	"time"
)

// DatasetID uniquely identifies a dataset within the portal.
type DatasetID string

// PartitionKey is a license category value used to scope one search query
// below the portal's result-window ceiling.
type PartitionKey string

// DatasetRecord is the full metadata document for one dataset, kept opaque.
// Only the first-observed document for a given DatasetID is retained; later
// duplicates from overlapping partitions are discarded, not merged.
type DatasetRecord struct {
	ID DatasetID `json:"id"`
	// Partition is the key under which this record was first observed.
	Partition PartitionKey `json:"partition"`
	// Raw is the metadata document exactly as returned by the portal.
	Raw json.RawMessage `json:"raw"`
}

// PartitionStatus is the terminal state of one partition fetch.
type PartitionStatus string

// Partition fetch outcomes recorded in the run report.
const (
	// PartitionSucceeded means the partition returned a short final page.
	PartitionSucceeded PartitionStatus = "success"
	// PartitionPartial means pagination stopped at the result-window
	// ceiling before a short page was seen; coverage is known-incomplete.
	PartitionPartial PartitionStatus = "partial"
	// PartitionFailed means the retry budget was exhausted on some page.
	// Records produced before the failure are still kept.
	PartitionFailed PartitionStatus = "failed"
)

// PartitionReport summarizes the outcome of fetching one partition.
type PartitionReport struct {
	Partition      PartitionKey    `json:"partition"`
	Status         PartitionStatus `json:"status"`
	RecordsFetched int             `json:"records_fetched"`
	RecordsNew     int             `json:"records_new"`
	Pages          int             `json:"pages"`
	ErrorText      string          `json:"error_text,omitempty"`
	Started        time.Time       `json:"started_at"`
	Finished       time.Time       `json:"finished_at"`
}

// RunSummary is the final report for one harvest run.
type RunSummary struct {
	RunID          string            `json:"run_id"`
	Started        time.Time         `json:"started_at"`
	Finished       time.Time         `json:"finished_at"`
	UniqueRecords  int               `json:"unique_records"`
	RecordsWritten int               `json:"records_written"`
	Partitions     []PartitionReport `json:"partitions"`
}

// Failed reports how many partitions ended in the failed state.
func (s RunSummary) Failed() int {
	return s.countStatus(PartitionFailed)
}

// Partial reports how many partitions stopped at the result-window ceiling.
func (s RunSummary) Partial() int {
	return s.countStatus(PartitionPartial)
}

func (s RunSummary) countStatus(status PartitionStatus) int {
	n := 0
	for _, p := range s.Partitions {
		if p.Status == status {
			n++
		}
	}
	return n
}
