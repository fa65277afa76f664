package pipeline

import (
	"github.com/c360/streamkit/message"
	"github.com/c360/streamkit/metric"
)

// unitComplete consults the Completable capability: a unit that does not
// expose it is complete by definition.
func unitComplete(msg message.Message) bool {
	if c, ok := message.Capability[message.Completable](msg); ok {
		return c.Complete()
	}
	return true
}

// bufferSink connects a stage to its successor's inbound queue. Forwarding
// is a TryWrite into that queue; a repeat offer of the most recently
// delivered incomplete unit (same ID) is an in-place update of the unit
// already queued downstream, not a second delivery.
//
// Sinks are touched only from the pipeline's dispatch sequence, so the
// incomplete-unit bookkeeping needs no locking.
type bufferSink struct {
	p        *Pipeline
	stage    string
	next     *inboundQueue
	nextName string

	metrics  *metric.Metrics
	pipeline string

	// ID of the last delivered unit that was still incomplete, empty when
	// none is outstanding
	incompleteID string
}

func (s *bufferSink) TryForward(msg message.Message) bool {
	if msg == nil {
		return false
	}

	if s.incompleteID != "" && msg.ID() == s.incompleteID {
		// the queued unit is the same value; the upstream stage mutated
		// it in place, so there is nothing to enqueue
		if unitComplete(msg) {
			s.incompleteID = ""
		}
		if s.metrics != nil {
			s.metrics.RecordUnitForwarded(s.pipeline, s.stage, "updated")
		}
		return true
	}

	if !s.next.buf.TryWrite(msg) {
		if s.metrics != nil {
			s.metrics.RecordBackpressure(s.pipeline, s.stage)
		}
		return false
	}

	if !unitComplete(msg) {
		s.incompleteID = msg.ID()
	}
	if s.metrics != nil {
		s.metrics.RecordUnitForwarded(s.pipeline, s.stage, "delivered")
	}
	return true
}

func (s *bufferSink) IsComplete(msg message.Message) bool {
	if !unitComplete(msg) {
		return false
	}
	if s.incompleteID != "" && msg.ID() == s.incompleteID {
		s.incompleteID = ""
	}
	return true
}

func (s *bufferSink) NotifyUpdated() {
	s.p.markDirty(s.nextName)
}

// outletSink terminates the pipeline at the configured Outlet. There is no
// downstream queue, so in-place updates of an incomplete unit are offered
// to the outlet again under the same ID.
type outletSink struct {
	outlet   Outlet
	stage    string
	metrics  *metric.Metrics
	pipeline string
}

func (s *outletSink) TryForward(msg message.Message) bool {
	if msg == nil {
		return false
	}
	if !s.outlet.TryConsume(msg) {
		if s.metrics != nil {
			s.metrics.RecordBackpressure(s.pipeline, s.stage)
		}
		return false
	}
	if s.metrics != nil {
		s.metrics.RecordUnitForwarded(s.pipeline, s.stage, "delivered")
	}
	return true
}

func (s *outletSink) IsComplete(msg message.Message) bool {
	return unitComplete(msg)
}

func (s *outletSink) NotifyUpdated() {}
