package harvest

import (
	"context"
	"time"

	"github.com/opendatahub-br/dadosgov-harvester/internal/catalog"
)

// SearchPage is one page of search results. Total carries the portal's
// advisory catalog total; exhaustion is always decided by comparing the
// returned count against the requested page size, never by Total.
type SearchPage struct {
	Records []catalog.DatasetRecord
	Total   int
}

// SearchClient issues one search request scoped to a partition key.
type SearchClient interface {
	Search(ctx context.Context, key catalog.PartitionKey, offset, limit int) (SearchPage, error)
}

// Enumerator discovers the partition keys to harvest. An enumeration
// failure is fatal; the crawl cannot proceed without at least one key.
type Enumerator interface {
	Enumerate(ctx context.Context) ([]catalog.PartitionKey, error)
}

// RetryPolicy decides whether a failed page fetch is retried and how long
// to back off before the next attempt.
type RetryPolicy interface {
	ShouldRetry(err error, attempt int) bool
	Backoff(attempt int) time.Duration
}

// ResultSink persists the deduplicated record set at the end of a run and
// returns the number of records written.
type ResultSink interface {
	WriteRecords(ctx context.Context, records []catalog.DatasetRecord) (int, error)
}

// ReportStore persists the per-partition status report for a run.
type ReportStore interface {
	StoreRun(ctx context.Context, summary catalog.RunSummary) error
}

// Publisher pushes run-completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
