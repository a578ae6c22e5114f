package portal

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/opendatahub-br/dadosgov-harvester/internal/catalog"
	"github.com/opendatahub-br/dadosgov-harvester/internal/harvest"
)

// DefaultLicenses is the hand-maintained list of license categories known to
// partition the bulk of the catalog. The set is acknowledged to be
// incomplete: datasets carrying no recognized license stay unreachable.
var DefaultLicenses = []catalog.PartitionKey{
	"cc-by",
	"cc-zero",
	"odc-odbl",
	"odc-pddl",
}

// StaticEnumerator returns a fixed, hand-maintained partition key list.
type StaticEnumerator struct {
	keys []catalog.PartitionKey
}

// NewStaticEnumerator copies the provided keys; nil falls back to
// DefaultLicenses.
func NewStaticEnumerator(keys []catalog.PartitionKey) *StaticEnumerator {
	if keys == nil {
		keys = DefaultLicenses
	}
	return &StaticEnumerator{keys: append([]catalog.PartitionKey(nil), keys...)}
}

// Enumerate returns the configured keys in order.
func (e *StaticEnumerator) Enumerate(context.Context) ([]catalog.PartitionKey, error) {
	if len(e.keys) == 0 {
		return nil, harvest.ErrNoPartitions
	}
	return append([]catalog.PartitionKey(nil), e.keys...), nil
}

// FacetEnumerator derives the partition key set by probing the portal with a
// one-record query per candidate license and keeping those with matches.
// A probe failure is fatal: without a trustworthy key set the crawl cannot
// proceed.
type FacetEnumerator struct {
	client     *Client
	candidates []catalog.PartitionKey
	logger     *zap.Logger
}

// NewFacetEnumerator builds an enumerator over the candidate keys; nil falls
// back to DefaultLicenses.
func NewFacetEnumerator(client *Client, candidates []catalog.PartitionKey, logger *zap.Logger) *FacetEnumerator {
	if candidates == nil {
		candidates = DefaultLicenses
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FacetEnumerator{
		client:     client,
		candidates: append([]catalog.PartitionKey(nil), candidates...),
		logger:     logger,
	}
}

// Enumerate probes each candidate and returns, in candidate order, the keys
// whose advisory totals are positive. Totals above the result-window ceiling
// are logged up front so the coverage gap is visible before fetching starts.
func (e *FacetEnumerator) Enumerate(ctx context.Context) ([]catalog.PartitionKey, error) {
	keys := make([]catalog.PartitionKey, 0, len(e.candidates))
	for _, key := range e.candidates {
		page, err := e.client.Search(ctx, key, 0, 1)
		if err != nil {
			return nil, fmt.Errorf("probe license %q: %w", key, err)
		}
		if page.Total <= 0 {
			e.logger.Info("skipping empty license partition", zap.String("partition", string(key)))
			continue
		}
		if page.Total > harvest.ResultWindowCeiling {
			e.logger.Warn("license total exceeds result window ceiling",
				zap.String("partition", string(key)),
				zap.Int("total", page.Total),
			)
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return nil, harvest.ErrNoPartitions
	}
	return keys, nil
}
