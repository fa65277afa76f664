package pipeline

import (
	"github.com/c360/streamkit/message"
	"github.com/c360/streamkit/metric"
	"github.com/c360/streamkit/pkg/buffer"
)

// inboundQueue adapts a ring buffer to the stage-facing queue contract.
// Peek and RemoveFront split consumption so a stage only takes a unit off
// the queue once it knows it can make progress with it.
type inboundQueue struct {
	buf      buffer.Buffer[message.Message]
	metrics  *metric.Metrics
	pipeline string
	stage    string

	// onConsume reschedules the upstream stage when capacity frees, so a
	// producer parked on this queue retries its pending output; nil for
	// the inlet queue
	onConsume func()
}

func (q *inboundQueue) Peek() (message.Message, bool) {
	return q.buf.Peek()
}

func (q *inboundQueue) RemoveFront() {
	if _, ok := q.buf.Read(); !ok {
		return
	}
	if q.metrics != nil {
		q.metrics.RecordUnitReceived(q.pipeline, q.stage)
	}
	if q.onConsume != nil {
		q.onConsume()
	}
}

func (q *inboundQueue) IsEmpty() bool {
	return q.buf.IsEmpty()
}
