package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/opendatahub-br/dadosgov-harvester/internal/catalog"
)

type collectSink struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

func (s *collectSink) Consume(_ context.Context, batch []Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, batch...)
	return nil
}

func (s *collectSink) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *collectSink) snapshot() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func validEvent(stage Stage) Event {
	evt := Event{
		RunID: "run-1",
		TS:    time.Now().UTC(),
		Stage: stage,
	}
	switch stage {
	case StagePartitionStart, StagePageDone:
		evt.Partition = catalog.PartitionKey("cc-by")
	case StagePartitionDone:
		evt.Partition = catalog.PartitionKey("cc-by")
		evt.Status = catalog.PartitionSucceeded
	}
	return evt
}

func TestHubDeliversEventsToAllSinks(t *testing.T) {
	t.Parallel()

	first := &collectSink{}
	second := &collectSink{}
	hub := NewHub(Config{MaxBatchWait: 10 * time.Millisecond}, first, second)

	hub.Emit(validEvent(StageRunStart))
	hub.Emit(validEvent(StagePageDone))
	hub.Emit(validEvent(StageRunDone))

	require.NoError(t, hub.Close(context.Background()))

	require.Len(t, first.snapshot(), 3)
	require.Len(t, second.snapshot(), 3)
	require.True(t, first.closed)
	require.True(t, second.closed)
}

func TestHubFlushesWhenBatchFills(t *testing.T) {
	t.Parallel()

	sink := &collectSink{}
	hub := NewHub(Config{MaxBatchEvents: 4, MaxBatchWait: time.Hour}, sink)
	defer hub.Close(context.Background())

	for i := 0; i < 4; i++ {
		hub.Emit(validEvent(StagePageDone))
	}

	require.Eventually(t, func() bool {
		return len(sink.snapshot()) == 4
	}, time.Second, 5*time.Millisecond)
}

func TestHubDiscardsInvalidEvents(t *testing.T) {
	t.Parallel()

	sink := &collectSink{}
	hub := NewHub(Config{}, sink)

	hub.Emit(Event{Stage: StageRunStart})                                           // missing run id and timestamp
	hub.Emit(Event{RunID: "run-1", TS: time.Now(), Stage: Stage("BOGUS")})          // unknown stage
	hub.Emit(Event{RunID: "run-1", TS: time.Now(), Stage: StagePartitionDone})      // missing partition/status
	hub.Emit(Event{RunID: "run-1", TS: time.Now(), Stage: StageRunDone, Dur: -1})   // negative duration

	require.NoError(t, hub.Close(context.Background()))
	require.Empty(t, sink.snapshot())
}

func TestHubEmitAfterCloseIsIgnored(t *testing.T) {
	t.Parallel()

	sink := &collectSink{}
	hub := NewHub(Config{}, sink)
	require.NoError(t, hub.Close(context.Background()))

	hub.Emit(validEvent(StageRunStart))
	require.Empty(t, sink.snapshot())
}

func TestHubCloseDrainsBufferedEvents(t *testing.T) {
	t.Parallel()

	sink := &collectSink{}
	hub := NewHub(Config{MaxBatchWait: time.Hour}, sink)

	for i := 0; i < 100; i++ {
		hub.Emit(validEvent(StagePageDone))
	}
	require.NoError(t, hub.Close(context.Background()))

	require.Len(t, sink.snapshot(), 100)
}

func TestNilHubIsSafe(t *testing.T) {
	t.Parallel()

	var hub *Hub
	hub.Emit(validEvent(StageRunStart))
	require.NoError(t, hub.Close(context.Background()))
}

func TestEventValidate(t *testing.T) {
	t.Parallel()

	for _, stage := range []Stage{StageRunStart, StageRunDone, StagePartitionStart, StagePartitionDone, StagePageDone} {
		require.NoError(t, validEvent(stage).Validate(), "stage %s", stage)
	}

	require.Error(t, Event{TS: time.Now(), Stage: StageRunStart}.Validate())
	require.Error(t, Event{RunID: "run-1", Stage: StageRunStart}.Validate())
	require.Error(t, Event{RunID: "run-1", TS: time.Now(), Stage: StagePageDone}.Validate())
}
