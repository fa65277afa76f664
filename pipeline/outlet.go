package pipeline

import (
	"sync"

	"github.com/c360/streamkit/message"
)

// Outlet is the terminal consumer of a pipeline: everything the last stage
// forwards ends up here. TryConsume follows the same non-blocking contract
// as the inter-stage queues: return false to refuse the unit and have the
// pipeline retry it later.
//
// An incomplete unit may be offered more than once under the same ID as it
// is assembled; the final offer carries the complete unit.
type Outlet interface {
	TryConsume(msg message.Message) bool
}

// OutletFunc adapts a function to the Outlet interface.
type OutletFunc func(msg message.Message) bool

// TryConsume implements Outlet.
func (f OutletFunc) TryConsume(msg message.Message) bool {
	return f(msg)
}

// CollectorOutlet is an Outlet that accumulates consumed units in memory,
// de-duplicating repeat offers of the same unit ID. Used in tests and small
// tools; not intended for unbounded streams.
type CollectorOutlet struct {
	mu    sync.Mutex
	units []message.Message
	index map[string]int
}

// NewCollectorOutlet creates an empty collector.
func NewCollectorOutlet() *CollectorOutlet {
	return &CollectorOutlet{index: make(map[string]int)}
}

// TryConsume implements Outlet. It never refuses.
func (c *CollectorOutlet) TryConsume(msg message.Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i, ok := c.index[msg.ID()]; ok {
		c.units[i] = msg
		return true
	}
	c.index[msg.ID()] = len(c.units)
	c.units = append(c.units, msg)
	return true
}

// Units returns the consumed units in first-delivery order.
func (c *CollectorOutlet) Units() []message.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]message.Message, len(c.units))
	copy(out, c.units)
	return out
}

// Len returns the number of distinct units consumed.
func (c *CollectorOutlet) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.units)
}
