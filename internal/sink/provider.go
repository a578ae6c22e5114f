// Package sink defines the result sink provider interface and a no-op
// implementation. Concrete providers live in subpackages.
package sink

import (
	"context"

	"github.com/opendatahub-br/dadosgov-harvester/internal/catalog"
)

// Provider persists the deduplicated record set of one run and returns the
// number of records written. The core treats file format, naming, and
// directory layout as the provider's business.
type Provider interface {
	WriteRecords(ctx context.Context, records []catalog.DatasetRecord) (int, error)
	Close() error
}

// NoOpProvider discards all records. Useful for dry runs and tests.
type NoOpProvider struct{}

// WriteRecords reports every record as written without persisting anything.
func (NoOpProvider) WriteRecords(_ context.Context, records []catalog.DatasetRecord) (int, error) {
	return len(records), nil
}

// Close does nothing.
func (NoOpProvider) Close() error { return nil }
