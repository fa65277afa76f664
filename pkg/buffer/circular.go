package buffer

import (
	"sync"

	"github.com/c360/streamkit/errors"
)

// ring is a thread-safe circular buffer with configurable overflow policies.
type ring[T any] struct {
	mu       sync.RWMutex
	items    []T
	capacity int
	size     int
	head     int // next write position
	tail     int // next read position
	stats    *Statistics
	metrics  *bufferMetrics
	opts     *bufferOptions[T]
	closed   bool
}

// newRing creates a new ring buffer instance.
// Returns an error if metrics registration fails when requested.
func newRing[T any](capacity int, opts *bufferOptions[T]) (*ring[T], error) {
	if capacity <= 0 {
		capacity = 1 // Minimum capacity
	}

	// Stats are always initialized - observability is not optional
	stats := NewStatistics()

	var metrics *bufferMetrics
	if opts.metricsReg != nil && opts.metricsPrefix != "" {
		var err error
		metrics, err = newBufferMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return nil, errors.WrapTransient(err, "buffer", "newRing", "metrics registration")
		}
	}

	return &ring[T]{
		items:    make([]T, capacity),
		capacity: capacity,
		stats:    stats,
		metrics:  metrics,
		opts:     opts,
	}, nil
}

// Write adds an item to the buffer according to the overflow policy.
func (r *ring[T]) Write(item T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errors.WrapInvalid(errors.ErrBufferClosed, "Buffer", "Write", "write to closed buffer")
	}

	if r.size == r.capacity {
		switch r.opts.overflowPolicy {
		case Reject:
			r.stats.Reject()
			if r.metrics != nil {
				r.metrics.recordReject()
			}
			return errors.WrapTransient(errors.ErrBufferFull, "Buffer", "Write", "no capacity")

		case DropOldest:
			droppedItem := r.items[r.tail]
			r.tail = (r.tail + 1) % r.capacity
			r.size--

			r.stats.Drop()
			if r.metrics != nil {
				r.metrics.recordDrop()
			}

			if r.opts.dropCallback != nil {
				// run the callback outside the lock to avoid deadlock
				defer r.opts.dropCallback(droppedItem)
			}

		case DropNewest:
			r.stats.Drop()
			if r.metrics != nil {
				r.metrics.recordDrop()
			}

			if r.opts.dropCallback != nil {
				defer r.opts.dropCallback(item)
			}
			return nil
		}
	}

	r.push(item)
	return nil
}

// TryWrite adds an item if there is capacity. It never drops, never blocks
// and never surfaces an error: false means "no capacity, item not consumed".
func (r *ring[T]) TryWrite(item T) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.size == r.capacity {
		r.stats.Reject()
		if r.metrics != nil {
			r.metrics.recordReject()
		}
		return false
	}

	r.push(item)
	return true
}

// push appends the item. Caller must hold the lock and have verified capacity.
func (r *ring[T]) push(item T) {
	r.items[r.head] = item
	r.head = (r.head + 1) % r.capacity
	r.size++

	r.stats.Write()
	r.stats.UpdateSize(int64(r.size))
	if r.metrics != nil {
		r.metrics.recordWrite(r.size, r.capacity)
	}
}

// Read retrieves and removes one item from the buffer.
func (r *ring[T]) Read() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var zero T

	if r.size == 0 {
		return zero, false
	}

	item := r.items[r.tail]
	r.items[r.tail] = zero // clear for GC
	r.tail = (r.tail + 1) % r.capacity
	r.size--

	r.stats.Read()
	r.stats.UpdateSize(int64(r.size))
	if r.metrics != nil {
		r.metrics.recordRead(r.size, r.capacity)
	}

	return item, true
}

// Peek retrieves one item without removing it from the buffer.
func (r *ring[T]) Peek() (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var zero T

	if r.size == 0 {
		return zero, false
	}

	r.stats.Peek()
	if r.metrics != nil {
		r.metrics.recordPeek()
	}

	return r.items[r.tail], true
}

// Size returns the current number of items in the buffer.
func (r *ring[T]) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

// Capacity returns the maximum number of items the buffer can hold.
func (r *ring[T]) Capacity() int {
	return r.capacity // immutable, no lock needed
}

// IsFull returns true if the buffer is at maximum capacity.
func (r *ring[T]) IsFull() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size == r.capacity
}

// IsEmpty returns true if the buffer contains no items.
func (r *ring[T]) IsEmpty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size == 0
}

// Clear removes all items from the buffer.
func (r *ring[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	var zero T

	if r.opts.dropCallback != nil {
		itemsToDrop := make([]T, r.size)
		for i := 0; i < r.size; i++ {
			idx := (r.tail + i) % r.capacity
			itemsToDrop[i] = r.items[idx]
		}
		// callbacks run outside the lock to avoid deadlock
		defer func() {
			for _, item := range itemsToDrop {
				r.opts.dropCallback(item)
			}
		}()
	}

	for i := 0; i < r.capacity; i++ {
		r.items[i] = zero
	}

	r.head = 0
	r.tail = 0
	r.size = 0

	r.stats.UpdateSize(0)
	if r.metrics != nil {
		r.metrics.updateSize(0, r.capacity)
	}
}

// Stats returns buffer statistics (always available for observability).
func (r *ring[T]) Stats() *Statistics {
	return r.stats
}

// Close shuts down the buffer. Items still queued remain readable; further
// writes fail.
func (r *ring[T]) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	return nil
}
