package codec

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/c360/streamkit/errors"
	"github.com/c360/streamkit/message"
	"github.com/c360/streamkit/metric"
)

// Decoder is a pipeline stage that converts inbound units into outbound
// units via a user-supplied DecodeFunc.
//
// A Decoder owns exactly one piece of cross-invocation state: the pending
// output. At most one produced outbound unit is undelivered at any time,
// held either because the downstream sink had no capacity or because the
// unit is incomplete and must stay visible downstream while it is being
// assembled. No new input is examined while the pending output exists.
//
// Decoders are confined to a single cooperative sequence per pipeline
// instance and hold no locks; they must not be invoked concurrently.
type Decoder struct {
	name     string
	accepted TypeSet
	decode   DecodeFunc
	release  ReleaseFunc
	logger   *slog.Logger
	metrics  *decoderMetrics

	// pending output state; queue and inflight always belong to the same
	// produced outbound unit (queue holds its not-yet-accepted sub-units,
	// inflight its forwarded-but-incomplete sub-unit)
	queue    []message.Message
	inflight message.Message
}

// DecoderOption configures Decoder construction.
type DecoderOption func(*Decoder)

// WithAcceptedTypes fixes the accepted-type set. Units of other types pass
// through to the downstream sink unchanged. Without this option (or with an
// empty list) every unit is accepted for decoding.
func WithAcceptedTypes(types ...message.Type) DecoderOption {
	return func(d *Decoder) {
		d.accepted = NewTypeSet(types...)
	}
}

// WithReleaseFunc overrides the resource-release hook applied to consumed
// inputs. The default releases via the message.Releasable capability.
func WithReleaseFunc(fn ReleaseFunc) DecoderOption {
	return func(d *Decoder) {
		if fn != nil {
			d.release = fn
		}
	}
}

// WithLogger sets the stage logger.
func WithLogger(logger *slog.Logger) DecoderOption {
	return func(d *Decoder) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDecoder creates a decoder stage around the given transform.
// The registry may be nil, in which case metrics are disabled.
func NewDecoder(
	name string, decode DecodeFunc, registry *metric.MetricsRegistry, opts ...DecoderOption,
) (*Decoder, error) {
	if name == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Decoder", "NewDecoder",
			"stage name required")
	}
	if decode == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Decoder", "NewDecoder",
			"decode function required")
	}

	d := &Decoder{
		name:    name,
		decode:  decode,
		release: ReleaseCapability,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(d)
	}

	metrics, err := newDecoderMetrics(registry, name)
	if err != nil {
		d.logger.Error("Failed to initialize decoder metrics",
			"component", name,
			"error", err)
		metrics = nil // continue without metrics
	}
	d.metrics = metrics

	return d, nil
}

// Name returns the stage name.
func (d *Decoder) Name() string {
	return d.name
}

// Accepted returns the stage's accepted-type set.
func (d *Decoder) Accepted() TypeSet {
	return d.accepted
}

// HasPending reports whether an undelivered output is held.
func (d *Decoder) HasPending() bool {
	return d.inflight != nil || len(d.queue) > 0
}

// InboundUpdated is the decode loop, invoked by the pipeline whenever new
// inbound units may be available (or downstream capacity may have freed).
//
// The loop drains the inbound queue: non-accepted units are forwarded
// unchanged, accepted units are decoded and their outputs forwarded. It
// stops when input is exhausted, downstream refuses a unit, or a forwarded
// unit is incomplete. One batched NotifyUpdated covers all loop deliveries
// of the invocation.
func (d *Decoder) InboundUpdated(ctx Context) {
	if !d.flushPartial(ctx) {
		// pending output still undelivered; no input this invocation
		return
	}

	in := ctx.Inbound()
	sink := ctx.Sink()
	notify := false

	for {
		msg, ok := in.Peek()
		if !ok {
			break
		}

		if !d.accepted.Accepts(msg) {
			// Not ours: hand it to the next stage untouched. On
			// rejection the unit stays at the front of the queue
			// for the next invocation.
			if !sink.TryForward(msg) {
				d.recordBackpressure()
				break
			}
			in.RemoveFront()
			notify = true
			d.metrics.recordResult(d.name, "filtered")
			continue
		}

		in.RemoveFront()

		stop, delivered := d.processUnit(ctx, sink, msg)
		if delivered {
			notify = true
		}
		if stop {
			break
		}
	}

	if notify {
		sink.NotifyUpdated()
	}
}

// processUnit decodes one consumed unit and forwards the outcome.
// Returns stop=true when the loop must pause (output went to the pending
// slot) and delivered=true when at least one unit reached the sink.
func (d *Decoder) processUnit(ctx Context, sink Sink, msg message.Message) (stop, delivered bool) {
	free := true
	defer func() {
		// the consumed input is released exactly once, even on decode
		// failure; a pass-through transfers ownership downstream instead
		if free {
			if err := d.release(msg); err != nil {
				d.reportFailure(ctx, errors.Wrap(err, d.name, "release", "free inbound unit"))
			}
		}
	}()

	start := time.Now()
	res, err := d.safeDecode(ctx, msg)
	d.metrics.recordDecodeDuration(d.name, time.Since(start))

	if err != nil {
		d.metrics.recordResult(d.name, "error")
		d.reportFailure(ctx, err)
		return false, false
	}

	var units []message.Message

	switch {
	case res.IsNeedMore():
		// aggregator consumed the input, nothing to emit yet
		d.metrics.recordResult(d.name, "need-more")
		return false, false

	case res.IsPassThrough():
		free = false
		units = []message.Message{msg}
		d.metrics.recordResult(d.name, "passthrough")

	default:
		out := res.Message()
		if out == nil {
			d.reportFailure(ctx, errors.WrapInvalid(errors.ErrDecodeFailed, d.name, "decode",
				"produced nil unit"))
			return false, false
		}
		// a container output is unfolded into its sub-units
		if exp, ok := message.Capability[message.Expandable](out); ok {
			units = exp.Expand()
		} else {
			units = []message.Message{out}
		}
		d.metrics.recordResult(d.name, "decoded")
	}

	return d.deliver(sink, units)
}

// deliver forwards units in order. A refused or incomplete unit parks the
// remainder in the pending slot and stops the loop.
func (d *Decoder) deliver(sink Sink, units []message.Message) (stop, delivered bool) {
	for i, u := range units {
		if !sink.TryForward(u) {
			d.recordBackpressure()
			d.queue = units[i:]
			d.setPendingGauge()
			return true, i > 0
		}
		delivered = true
		if !sink.IsComplete(u) {
			d.inflight = u
			d.queue = units[i+1:]
			d.setPendingGauge()
			return true, true
		}
	}
	return false, delivered
}

// flushPartial retries the pending output from earlier invocations.
// Returns true when the slot is clear and new input may be processed.
// Progress is signaled downstream immediately, even when the slot stays
// occupied by an incomplete unit.
func (d *Decoder) flushPartial(ctx Context) bool {
	if !d.HasPending() {
		return true
	}

	sink := ctx.Sink()
	progressed := false

	// the forwarded-but-incomplete unit is re-offered first; the sink
	// treats the repeat offer as an in-place update of the same unit
	if d.inflight != nil {
		if !sink.TryForward(d.inflight) {
			d.recordBackpressure()
			return false
		}
		progressed = true
		if sink.IsComplete(d.inflight) {
			d.inflight = nil
		}
	}

	if d.inflight == nil {
		for len(d.queue) > 0 {
			u := d.queue[0]
			if !sink.TryForward(u) {
				d.recordBackpressure()
				break
			}
			progressed = true
			d.queue = d.queue[1:]
			if !sink.IsComplete(u) {
				d.inflight = u
				break
			}
		}
		if len(d.queue) == 0 {
			d.queue = nil
		}
	}

	if progressed {
		sink.NotifyUpdated()
	}

	d.setPendingGauge()
	return !d.HasPending()
}

// Deactivated is invoked when the pipeline link goes inactive. The pending
// output gets one final flush attempt; whatever remains is dropped and
// released, never leaked.
func (d *Decoder) Deactivated(ctx Context) {
	d.flushPartial(ctx)
	d.clearPending(ctx)
}

// Removed is invoked when the stage is taken out of the pipeline. Same
// contract as Deactivated: flush once, then clear unconditionally.
func (d *Decoder) Removed(ctx Context) {
	d.flushPartial(ctx)
	d.clearPending(ctx)
}

// clearPending drops any remaining pending output, releasing held resources.
func (d *Decoder) clearPending(ctx Context) {
	if !d.HasPending() {
		d.setPendingGauge()
		return
	}

	dropped := len(d.queue)
	if d.inflight != nil {
		dropped++
	}
	d.logger.Debug("Dropping undelivered output on teardown",
		"component", d.name,
		"units", dropped)

	if d.inflight != nil {
		d.releaseDropped(ctx, d.inflight)
		d.inflight = nil
	}
	for _, u := range d.queue {
		d.releaseDropped(ctx, u)
	}
	d.queue = nil
	d.setPendingGauge()
}

func (d *Decoder) releaseDropped(ctx Context, msg message.Message) {
	if r, ok := message.Capability[message.Releasable](msg); ok {
		if err := r.Release(); err != nil {
			d.reportFailure(ctx, errors.Wrap(err, d.name, "clearPending", "release dropped unit"))
		}
	}
}

// safeDecode invokes the transform inside the exception boundary: panics
// surface as decode errors instead of unwinding the pipeline.
func (d *Decoder) safeDecode(ctx Context, msg message.Message) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = NeedMoreInput()
			err = fmt.Errorf("%w: panic: %v", errors.ErrDecodeFailed, r)
		}
	}()
	return d.decode(ctx, msg)
}

// reportFailure classifies and reports a failure without stopping the loop.
// Decode-domain failures pass through as-is; anything else is wrapped as a
// decode failure with the original cause preserved.
func (d *Decoder) reportFailure(ctx Context, err error) {
	if !errors.IsInvalid(err) {
		err = errors.WrapInvalid(err, d.name, "decode", "unexpected failure")
	}

	d.metrics.recordError(d.name, errors.Classify(err).String())
	d.logger.Debug("Decode failure",
		"component", d.name,
		"error", err)

	ctx.ReportFailure(err)
}

func (d *Decoder) recordBackpressure() {
	d.metrics.recordBackpressure(d.name)
}

func (d *Decoder) setPendingGauge() {
	d.metrics.setPendingOccupied(d.name, d.HasPending())
}
