package message

// Behavioral Interfaces
//
// This file defines PURE structural behavioral interfaces that messages or
// their payloads can optionally implement to expose additional capabilities.
// Pipeline stages discover these capabilities at runtime through type
// assertions:
//
//	if c, ok := msg.(Completable); ok && !c.Complete() {
//	    // unit is still being assembled, keep it visible downstream
//	}
//
// A capability is looked up on the message first and falls back to its
// payload, so either level may carry the implementation.

// Completable reports whether a unit is fully formed or still being
// assembled from streaming sub-parts. A unit that does not implement
// Completable is complete by definition.
//
// The decoder keeps an incomplete unit in its pending slot after forwarding
// it, so the same unit stays visible to downstream consumers across
// invocations until it reports complete.
type Completable interface {
	// Complete returns true once the unit represents a finished value.
	Complete() bool
}

// Releasable frees resources held by a unit, for example a reference count
// on a pooled backing buffer. The decoder releases every consumed input
// exactly once unless the transform passed the input through unchanged, in
// which case ownership moved downstream.
type Releasable interface {
	// Release frees the unit's resources. Implementations must tolerate
	// being the only release call for the unit; double release is a bug in
	// the caller.
	Release() error
}

// Expandable marks a container unit holding multiple sub-units. When a
// decoder produces an Expandable unit, each sub-unit is forwarded
// individually, in order. If forwarding stalls mid-sequence the remainder
// is retried on the next invocation rather than dropped.
type Expandable interface {
	// Expand returns the contained sub-units in delivery order.
	Expand() []Message
}

// Capability looks up a behavioral interface on a message, falling back to
// its payload. Usage:
//
//	if r, ok := message.Capability[Releasable](msg); ok {
//	    _ = r.Release()
//	}
func Capability[T any](msg Message) (T, bool) {
	if c, ok := any(msg).(T); ok {
		return c, true
	}
	if msg != nil {
		if c, ok := any(msg.Payload()).(T); ok {
			return c, true
		}
	}
	var zero T
	return zero, false
}
