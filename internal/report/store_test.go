package report

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opendatahub-br/dadosgov-harvester/internal/catalog"
)

func TestMemoryStoreKeepsRunsInOrder(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	require.NoError(t, store.StoreRun(context.Background(), catalog.RunSummary{RunID: "run-1"}))
	require.NoError(t, store.StoreRun(context.Background(), catalog.RunSummary{RunID: "run-2"}))

	runs := store.Runs()
	require.Len(t, runs, 2)
	require.Equal(t, "run-1", runs[0].RunID)
	require.Equal(t, "run-2", runs[1].RunID)
}

func TestMemoryStoreRunsReturnsCopy(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	require.NoError(t, store.StoreRun(context.Background(), catalog.RunSummary{RunID: "run-1"}))

	runs := store.Runs()
	runs[0].RunID = "mutated"
	require.Equal(t, "run-1", store.Runs()[0].RunID)
}

func TestNoOpStoreDiscardsRuns(t *testing.T) {
	t.Parallel()

	var store Store = NoOpStore{}
	require.NoError(t, store.StoreRun(context.Background(), catalog.RunSummary{RunID: "run-1"}))
	store.Close()
}
