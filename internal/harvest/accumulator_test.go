package harvest

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opendatahub-br/dadosgov-harvester/internal/catalog"
)

func record(id string, partition catalog.PartitionKey) catalog.DatasetRecord {
	return catalog.DatasetRecord{
		ID:        catalog.DatasetID(id),
		Partition: partition,
		Raw:       json.RawMessage(fmt.Sprintf(`{"id":%q,"licenca":%q}`, id, partition)),
	}
}

func TestAccumulatorFirstWriterWins(t *testing.T) {
	t.Parallel()

	acc := NewAccumulator()
	require.True(t, acc.Offer(record("ds-1", "cc-by")))
	require.False(t, acc.Offer(record("ds-1", "cc-zero")))
	require.Equal(t, 1, acc.Len())

	records, err := acc.Drain()
	require.NoError(t, err)
	require.Len(t, records, 1)
	// The first-observed metadata is retained, never merged or replaced.
	require.Equal(t, catalog.PartitionKey("cc-by"), records[0].Partition)
}

func TestAccumulatorRejectsUnkeyedRecords(t *testing.T) {
	t.Parallel()

	acc := NewAccumulator()
	require.False(t, acc.Offer(catalog.DatasetRecord{Raw: json.RawMessage(`{}`)}))
	require.Equal(t, 0, acc.Len())
}

func TestAccumulatorDrainPreservesFirstSeenOrder(t *testing.T) {
	t.Parallel()

	acc := NewAccumulator()
	for _, id := range []string{"c", "a", "b"} {
		require.True(t, acc.Offer(record(id, "cc-by")))
	}
	require.False(t, acc.Offer(record("a", "cc-zero")))

	records, err := acc.Drain()
	require.NoError(t, err)
	got := make([]string, 0, len(records))
	for _, rec := range records {
		got = append(got, string(rec.ID))
	}
	require.Equal(t, []string{"c", "a", "b"}, got)
}

func TestAccumulatorDrainIsSingleUse(t *testing.T) {
	t.Parallel()

	acc := NewAccumulator()
	require.True(t, acc.Offer(record("ds-1", "cc-by")))

	_, err := acc.Drain()
	require.NoError(t, err)

	_, err = acc.Drain()
	require.ErrorIs(t, err, ErrDrained)

	// Offers after drain are ignored rather than corrupting state.
	require.False(t, acc.Offer(record("ds-2", "cc-by")))
}

func TestAccumulatorConcurrentOffersInsertExactlyOnce(t *testing.T) {
	t.Parallel()

	acc := NewAccumulator()
	const workers = 16
	const ids = 200

	var inserted int64
	var mu sync.Mutex
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(partition int) {
			defer wg.Done()
			key := catalog.PartitionKey(fmt.Sprintf("part-%d", partition))
			local := int64(0)
			for i := 0; i < ids; i++ {
				if acc.Offer(record(fmt.Sprintf("ds-%d", i), key)) {
					local++
				}
			}
			mu.Lock()
			inserted += local
			mu.Unlock()
		}(w)
	}
	wg.Wait()

	// Every ID was offered by all workers but inserted exactly once.
	require.Equal(t, int64(ids), inserted)
	require.Equal(t, ids, acc.Len())
}
