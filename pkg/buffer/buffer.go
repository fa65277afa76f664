// Package buffer provides generic, thread-safe bounded buffers with
// configurable overflow policies.
//
// Buffers are the concrete queue container between pipeline stages: each
// stage drains its inbound buffer and forwards into the next stage's buffer.
// TryWrite is the backpressure primitive - it rejects without consuming the
// item when the buffer is full, letting a cooperative producer pause and
// retry on its next invocation instead of blocking.
//
// All buffer implementations are thread-safe and always collect statistics
// for observability. Prometheus metrics can be optionally enabled via the
// WithMetrics() functional option.
package buffer

// Buffer represents a generic bounded buffer. The buffer is parameterized
// by item type T for type safety.
type Buffer[T any] interface {
	// Write adds an item to the buffer. When the buffer is full the
	// behavior depends on the overflow policy; under Reject the write
	// fails with a buffer-full error.
	Write(item T) error

	// TryWrite adds an item if capacity is available. Returns false when
	// the buffer is full or closed; the item is NOT consumed and remains
	// owned by the caller. This never drops and never blocks, regardless
	// of overflow policy.
	TryWrite(item T) bool

	// Read retrieves and removes one item from the buffer.
	// Returns the item and true if successful, zero value and false if buffer is empty.
	Read() (T, bool)

	// Peek retrieves one item without removing it from the buffer.
	// Returns the item and true if successful, zero value and false if buffer is empty.
	Peek() (T, bool)

	// Size returns the current number of items in the buffer.
	Size() int

	// Capacity returns the maximum number of items the buffer can hold.
	Capacity() int

	// IsFull returns true if the buffer is at maximum capacity.
	IsFull() bool

	// IsEmpty returns true if the buffer contains no items.
	IsEmpty() bool

	// Clear removes all items from the buffer.
	Clear()

	// Stats returns buffer statistics (always available for observability).
	Stats() *Statistics

	// Close shuts down the buffer and releases any resources.
	Close() error
}

// OverflowPolicy defines how Write behaves when the buffer is at capacity.
type OverflowPolicy int

const (
	// Reject refuses the new item, surfacing backpressure to the writer.
	Reject OverflowPolicy = iota

	// DropOldest removes the oldest item to make room for new items.
	DropOldest

	// DropNewest drops new items when the buffer is full.
	DropNewest
)

// String returns a human-readable representation of the overflow policy.
func (p OverflowPolicy) String() string {
	switch p {
	case Reject:
		return "Reject"
	case DropOldest:
		return "DropOldest"
	case DropNewest:
		return "DropNewest"
	default:
		return "Unknown"
	}
}

// DropCallback is called when an item is dropped due to overflow policy.
// It receives the item that was dropped.
type DropCallback[T any] func(item T)

// NewRing creates a new ring buffer with the specified capacity and options.
// Stats are always collected; metrics are optional via WithMetrics().
// Returns an error if metrics registration fails when metrics are requested.
func NewRing[T any](capacity int, options ...Option[T]) (Buffer[T], error) {
	opts := applyOptions(options...)
	return newRing(capacity, opts)
}
