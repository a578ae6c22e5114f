package progress

import "context"

// Sink consumes batches of progress events. Implementations must be safe for
// repeated calls, honor ctx deadlines, and may be invoked concurrently.
type Sink interface {
	Consume(ctx context.Context, batch []Event) error
	Close(ctx context.Context) error
}

// Emitter publishes individual events; Hub satisfies this interface so fetch
// tasks can remain agnostic about how events are buffered or fanned out.
type Emitter interface {
	Emit(evt Event)
}

// NopEmitter discards every event. It stands in when progress reporting is
// not wired, keeping emit call sites unconditional.
type NopEmitter struct{}

// Emit drops the event.
func (NopEmitter) Emit(Event) {}
