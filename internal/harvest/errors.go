package harvest

import (
	"errors"
	"fmt"

	"github.com/opendatahub-br/dadosgov-harvester/internal/catalog"
)

// ErrNoPartitions is returned when enumeration yields an empty key set.
// This is fatal: the crawl aborts before any fetch work starts.
var ErrNoPartitions = errors.New("no partitions to harvest")

// ErrDrained is returned when the accumulator is drained more than once.
// It indicates a lifecycle bug in the caller and aborts the run.
var ErrDrained = errors.New("accumulator already drained")

// EnumerationError wraps a failure to discover partition keys.
type EnumerationError struct {
	Err error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("enumerate partitions: %v", e.Err)
}

func (e *EnumerationError) Unwrap() error { return e.Err }

// FetchError records the terminal failure of one partition page after the
// retry budget is exhausted. It is reported, not fatal: sibling partitions
// keep running and records already produced are retained.
type FetchError struct {
	Partition catalog.PartitionKey
	Offset    int
	Attempts  int
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch partition %q at offset %d after %d attempts: %v",
		e.Partition, e.Offset, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
