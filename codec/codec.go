package codec

import "github.com/c360/streamkit/message"

// InboundQueue is the decoder's view of its inbound message buffer: an
// ordered queue of pending units owned by the pipeline. Peek and RemoveFront
// are split so a unit is only consumed once the stage knows it can make
// progress with it.
type InboundQueue interface {
	// Peek returns the front unit without removing it.
	// Returns false if the queue is empty.
	Peek() (message.Message, bool)

	// RemoveFront removes the front unit. Callers peek first; removing
	// from an empty queue is a no-op.
	RemoveFront()

	// IsEmpty returns true if no units are queued.
	IsEmpty() bool
}

// Sink is the next stage's input as seen by a decoder. Forwarding is
// strictly non-blocking: a full sink refuses the unit and the stage retries
// on a later invocation.
type Sink interface {
	// TryForward offers a unit to the sink. Returns false when the sink
	// has no capacity; the unit is NOT consumed and remains owned by the
	// caller. Re-forwarding the most recently delivered unit (an
	// incomplete unit being retried under the same ID) must be treated
	// as an in-place update, not a duplicate delivery.
	TryForward(message.Message) bool

	// IsComplete reports whether a just-forwarded unit is fully formed.
	// An incomplete unit stays in the stage's pending slot and is offered
	// again on later invocations until it reports complete.
	IsComplete(message.Message) bool

	// NotifyUpdated signals the downstream stage that new units are
	// available. Stages batch this: one call per invocation regardless
	// of how many units were forwarded.
	NotifyUpdated()
}

// Context is a stage's view of the pipeline it is attached to, handed to
// every stage invocation by the scheduler.
type Context interface {
	// Inbound returns the stage's inbound queue.
	Inbound() InboundQueue

	// Sink returns the downstream sink.
	Sink() Sink

	// ReportFailure delivers a failure to the pipeline's failure path.
	// It never returns a value: failures are observable only through the
	// failure path, not through stage return values.
	ReportFailure(error)
}

// DecodeFunc converts one accepted inbound unit. The tri-state Result
// distinguishes a produced output, a pass-through of the input itself, and
// "need more input" for aggregating decoders. Errors are contained by the
// stage: the failed unit is skipped and the loop continues.
type DecodeFunc func(ctx Context, msg message.Message) (Result, error)

// ReleaseFunc frees the resources of a consumed inbound unit. It is called
// exactly once per consumed unit whose result was not a pass-through, after
// the produced output's forwarding attempt, even when decoding failed.
type ReleaseFunc func(msg message.Message) error

// ReleaseCapability is the default ReleaseFunc: it releases the unit via
// the message.Releasable capability when present, otherwise does nothing.
func ReleaseCapability(msg message.Message) error {
	if r, ok := message.Capability[message.Releasable](msg); ok {
		return r.Release()
	}
	return nil
}
