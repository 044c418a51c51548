package progress

import "context"

// Sink consumes progress events. Implementations must be safe for repeated
// calls and honor ctx deadlines during Close.
type Sink interface {
	Consume(ctx context.Context, evt Event)
	Close(ctx context.Context) error
}

// Emitter publishes individual events; Hub satisfies this interface so the
// engine and dispatcher stay agnostic about how events are delivered.
type Emitter interface {
	Emit(evt Event)
}
