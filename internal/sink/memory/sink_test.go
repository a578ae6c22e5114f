package memory

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opendatahub-br/dadosgov-harvester/internal/catalog"
)

func TestSinkAccumulatesAcrossWrites(t *testing.T) {
	t.Parallel()

	sink := New()

	first := []catalog.DatasetRecord{{ID: "ds-1", Raw: json.RawMessage(`{"id":"ds-1"}`)}}
	second := []catalog.DatasetRecord{
		{ID: "ds-2", Raw: json.RawMessage(`{"id":"ds-2"}`)},
		{ID: "ds-3", Raw: json.RawMessage(`{"id":"ds-3"}`)},
	}

	n, err := sink.WriteRecords(context.Background(), first)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = sink.WriteRecords(context.Background(), second)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	records := sink.Records()
	require.Len(t, records, 3)
	require.Equal(t, catalog.DatasetID("ds-1"), records[0].ID)
	require.Equal(t, catalog.DatasetID("ds-3"), records[2].ID)
}

func TestRecordsReturnsCopy(t *testing.T) {
	t.Parallel()

	sink := New()
	_, err := sink.WriteRecords(context.Background(), []catalog.DatasetRecord{{ID: "ds-1"}})
	require.NoError(t, err)

	got := sink.Records()
	got[0].ID = "mutated"
	require.Equal(t, catalog.DatasetID("ds-1"), sink.Records()[0].ID)
}
