package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/streamkit/codec"
	"github.com/c360/streamkit/errors"
	"github.com/c360/streamkit/message"
)

var (
	frameType = message.Type{Domain: "net", Category: "frame", Version: "v1"}
	eventType = message.Type{Domain: "app", Category: "event", Version: "v1"}
)

const (
	waitFor = 2 * time.Second
	tick    = 10 * time.Millisecond
)

func frameMsg(data string) *message.BaseMessage {
	return message.NewBaseMessage(frameType, message.NewRawPayload([]byte(data)), "test")
}

func eventMsg(name string) *message.BaseMessage {
	return message.NewBaseMessage(eventType,
		&message.GenericJSONPayload{Data: map[string]any{"name": name}}, "test")
}

func eventName(msg message.Message) string {
	p, ok := msg.Payload().(*message.GenericJSONPayload)
	if !ok {
		return ""
	}
	name, _ := p.Data["name"].(string)
	return name
}

// decodeFrames lifts the raw bytes into an event unit.
func decodeFrames(_ codec.Context, msg message.Message) (codec.Result, error) {
	raw, ok := msg.Payload().(*message.RawPayload)
	if !ok {
		return codec.NeedMoreInput(), errors.ErrInvalidData
	}
	return codec.Produced(eventMsg(string(raw.Bytes))), nil
}

func newFramePipeline(t *testing.T, out Outlet, opts ...Option) *Pipeline {
	t.Helper()

	stage, err := codec.NewDecoder("frames", decodeFrames, nil,
		codec.WithAcceptedTypes(frameType))
	require.NoError(t, err)

	p, err := New("test", append(opts, WithOutlet(out))...)
	require.NoError(t, err)
	require.NoError(t, p.AddStage(stage))
	require.NoError(t, p.Initialize())
	return p
}

func TestPipelineLifecycle(t *testing.T) {
	collector := NewCollectorOutlet()
	p := newFramePipeline(t, collector)

	assert.Equal(t, StateInitialized, p.State())

	require.NoError(t, p.Start(context.Background()))
	assert.Equal(t, StateStarted, p.State())

	// double start is rejected
	err := p.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrAlreadyStarted)

	require.NoError(t, p.Feed(frameMsg("a")))
	require.NoError(t, p.Feed(frameMsg("b")))

	require.Eventually(t, func() bool { return collector.Len() == 2 }, waitFor, tick)

	require.NoError(t, p.Stop(time.Second))
	assert.Equal(t, StateStopped, p.State())

	err = p.Feed(frameMsg("c"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNotStarted)
}

func TestPipelinePreservesOrder(t *testing.T) {
	collector := NewCollectorOutlet()
	p := newFramePipeline(t, collector)
	require.NoError(t, p.Start(context.Background()))
	defer func() { _ = p.Stop(time.Second) }()

	inputs := []string{"one", "two", "three", "four", "five"}
	for _, in := range inputs {
		require.NoError(t, p.Feed(frameMsg(in)))
	}

	require.Eventually(t, func() bool { return collector.Len() == len(inputs) }, waitFor, tick)

	var got []string
	for _, u := range collector.Units() {
		got = append(got, eventName(u))
	}
	assert.Equal(t, inputs, got)
}

func TestPipelineNonAcceptedUnitsPassThrough(t *testing.T) {
	collector := NewCollectorOutlet()
	p := newFramePipeline(t, collector)
	require.NoError(t, p.Start(context.Background()))
	defer func() { _ = p.Stop(time.Second) }()

	foreign := eventMsg("already-decoded")
	require.NoError(t, p.Feed(frameMsg("a")))
	require.NoError(t, p.Feed(foreign))

	require.Eventually(t, func() bool { return collector.Len() == 2 }, waitFor, tick)

	units := collector.Units()
	assert.Equal(t, "a", eventName(units[0]))
	assert.Equal(t, foreign.ID(), units[1].ID())
}

func TestPipelineChainsStages(t *testing.T) {
	// frames -> events -> enriched events
	enrich := func(_ codec.Context, msg message.Message) (codec.Result, error) {
		return codec.Produced(eventMsg(eventName(msg) + "!")), nil
	}

	stage1, err := codec.NewDecoder("frames", decodeFrames, nil,
		codec.WithAcceptedTypes(frameType))
	require.NoError(t, err)
	stage2, err := codec.NewDecoder("enrich", enrich, nil,
		codec.WithAcceptedTypes(eventType))
	require.NoError(t, err)

	collector := NewCollectorOutlet()
	p, err := New("test", WithOutlet(collector))
	require.NoError(t, err)
	require.NoError(t, p.AddStage(stage1))
	require.NoError(t, p.AddStage(stage2))
	require.NoError(t, p.Initialize())
	require.NoError(t, p.Start(context.Background()))
	defer func() { _ = p.Stop(time.Second) }()

	require.NoError(t, p.Feed(frameMsg("a")))
	require.NoError(t, p.Feed(frameMsg("b")))

	require.Eventually(t, func() bool { return collector.Len() == 2 }, waitFor, tick)
	assert.Equal(t, "a!", eventName(collector.Units()[0]))
	assert.Equal(t, "b!", eventName(collector.Units()[1]))
}

func TestPipelineBackpressureFromOutlet(t *testing.T) {
	var open atomic.Bool
	collector := NewCollectorOutlet()
	gated := OutletFunc(func(msg message.Message) bool {
		if !open.Load() {
			return false
		}
		return collector.TryConsume(msg)
	})

	p := newFramePipeline(t, gated, WithQueueCapacity(8))
	require.NoError(t, p.Start(context.Background()))
	defer func() { _ = p.Stop(time.Second) }()

	for _, in := range []string{"a", "b", "c"} {
		require.NoError(t, p.Feed(frameMsg(in)))
	}

	// the outlet refuses everything; nothing is lost, nothing arrives
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, collector.Len())

	open.Store(true)
	p.OutletReady()

	require.Eventually(t, func() bool { return collector.Len() == 3 }, waitFor, tick)
	var got []string
	for _, u := range collector.Units() {
		got = append(got, eventName(u))
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestPipelineFeedBackpressure(t *testing.T) {
	refuse := OutletFunc(func(message.Message) bool { return false })
	p := newFramePipeline(t, refuse, WithQueueCapacity(1))
	require.NoError(t, p.Start(context.Background()))
	defer func() { _ = p.Stop(time.Second) }()

	// with the outlet refusing and a single-slot inlet, feeding must
	// eventually surface a transient buffer-full error
	var feedErr error
	require.Eventually(t, func() bool {
		feedErr = p.Feed(frameMsg("x"))
		return feedErr != nil
	}, waitFor, tick)
	assert.ErrorIs(t, feedErr, errors.ErrBufferFull)
	assert.True(t, errors.IsTransient(feedErr))
}

func TestPipelineRemoveStage(t *testing.T) {
	tag := func(_ codec.Context, msg message.Message) (codec.Result, error) {
		return codec.Produced(eventMsg(eventName(msg) + "-tagged")), nil
	}

	stage1, err := codec.NewDecoder("frames", decodeFrames, nil,
		codec.WithAcceptedTypes(frameType))
	require.NoError(t, err)
	stage2, err := codec.NewDecoder("tagger", tag, nil,
		codec.WithAcceptedTypes(eventType))
	require.NoError(t, err)

	collector := NewCollectorOutlet()
	p, err := New("test", WithOutlet(collector))
	require.NoError(t, err)
	require.NoError(t, p.AddStage(stage1))
	require.NoError(t, p.AddStage(stage2))
	require.NoError(t, p.Initialize())
	require.NoError(t, p.Start(context.Background()))
	defer func() { _ = p.Stop(time.Second) }()

	require.NoError(t, p.Feed(frameMsg("a")))
	require.Eventually(t, func() bool { return collector.Len() == 1 }, waitFor, tick)
	assert.Equal(t, "a-tagged", eventName(collector.Units()[0]))

	require.NoError(t, p.Remove("tagger"))

	err = p.Remove("tagger")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrStageNotFound)

	// traffic now skips the tagging step
	require.NoError(t, p.Feed(frameMsg("b")))
	require.Eventually(t, func() bool { return collector.Len() == 2 }, waitFor, tick)
	assert.Equal(t, "b", eventName(collector.Units()[1]))
}

func TestPipelineRemoveOnlyStageRefused(t *testing.T) {
	p := newFramePipeline(t, NewCollectorOutlet())
	require.NoError(t, p.Start(context.Background()))
	defer func() { _ = p.Stop(time.Second) }()

	err := p.Remove("frames")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}

// assemblyMessage is an event whose completeness is flipped externally,
// standing in for a unit assembled across multiple inputs.
type assemblyMessage struct {
	*message.BaseMessage
	complete atomic.Bool
}

func (a *assemblyMessage) Complete() bool {
	return a.complete.Load()
}

func TestPipelineIncompleteUnitHoldsInput(t *testing.T) {
	asm := &assemblyMessage{BaseMessage: eventMsg("assembly")}

	var produced atomic.Bool
	decode := func(_ codec.Context, msg message.Message) (codec.Result, error) {
		if produced.CompareAndSwap(false, true) {
			return codec.Produced(asm), nil
		}
		return decodeFrames(nil, msg)
	}
	stage, err := codec.NewDecoder("assembler", decode, nil,
		codec.WithAcceptedTypes(frameType))
	require.NoError(t, err)

	collector := NewCollectorOutlet()
	p, err := New("test", WithOutlet(collector))
	require.NoError(t, err)
	require.NoError(t, p.AddStage(stage))
	require.NoError(t, p.Initialize())
	require.NoError(t, p.Start(context.Background()))
	defer func() { _ = p.Stop(time.Second) }()

	require.NoError(t, p.Feed(frameMsg("first")))
	require.NoError(t, p.Feed(frameMsg("second")))

	// the incomplete unit reaches the outlet but holds back later input
	require.Eventually(t, func() bool { return collector.Len() == 1 }, waitFor, tick)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, collector.Len())

	asm.complete.Store(true)
	p.OutletReady()

	require.Eventually(t, func() bool { return collector.Len() == 2 }, waitFor, tick)
	units := collector.Units()
	assert.Equal(t, asm.ID(), units[0].ID())
	assert.Equal(t, "second", eventName(units[1]))
}

// relayStage forwards everything untouched by accepting a type nobody
// produces.
func relayStage(t *testing.T, name string) *codec.Decoder {
	t.Helper()
	stage, err := codec.NewDecoder(name, decodeFrames, nil,
		codec.WithAcceptedTypes(message.Type{Domain: "none", Category: "none", Version: "v1"}))
	require.NoError(t, err)
	return stage
}

// newAssemblyChain builds assembler -> relay -> tail where the assembler
// produces one incomplete unit and keeps it in flight. The returned counter
// reports how often the outlet was offered that unit.
func newAssemblyChain(t *testing.T) (*Pipeline, func() int) {
	t.Helper()

	asm := &assemblyMessage{BaseMessage: eventMsg("assembly")}

	var produced atomic.Bool
	decode := func(_ codec.Context, msg message.Message) (codec.Result, error) {
		if produced.CompareAndSwap(false, true) {
			return codec.Produced(asm), nil
		}
		return decodeFrames(nil, msg)
	}
	assembler, err := codec.NewDecoder("assembler", decode, nil,
		codec.WithAcceptedTypes(frameType))
	require.NoError(t, err)

	var mu sync.Mutex
	offers := make(map[string]int)
	outlet := OutletFunc(func(msg message.Message) bool {
		mu.Lock()
		offers[msg.ID()]++
		mu.Unlock()
		return true
	})

	p, err := New("test", WithOutlet(outlet))
	require.NoError(t, err)
	require.NoError(t, p.AddStage(assembler))
	require.NoError(t, p.AddStage(relayStage(t, "relay")))
	require.NoError(t, p.AddStage(relayStage(t, "tail")))
	require.NoError(t, p.Initialize())

	asmOffers := func() int {
		mu.Lock()
		defer mu.Unlock()
		return offers[asm.ID()]
	}
	return p, asmOffers
}

func TestPipelineRemoveKeepsInFlightUnitSingleDelivery(t *testing.T) {
	p, asmOffers := newAssemblyChain(t)
	require.NoError(t, p.Start(context.Background()))
	defer func() { _ = p.Stop(time.Second) }()

	require.NoError(t, p.Feed(frameMsg("seed")))
	require.Eventually(t, func() bool { return asmOffers() == 1 }, waitFor, tick)

	// removing an unrelated downstream stage must not forget that the
	// in-flight unit already travelled the chain
	require.NoError(t, p.Remove("tail"))

	// waking the assembler re-offers the in-flight unit; that is an
	// in-place update, not a second delivery
	require.NoError(t, p.Feed(frameMsg("later")))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, asmOffers())
}

func TestPipelineRemoveSuccessorKeepsInFlightUnitSingleDelivery(t *testing.T) {
	p, asmOffers := newAssemblyChain(t)
	require.NoError(t, p.Start(context.Background()))
	defer func() { _ = p.Stop(time.Second) }()

	require.NoError(t, p.Feed(frameMsg("seed")))
	require.Eventually(t, func() bool { return asmOffers() == 1 }, waitFor, tick)

	// the assembler's direct successor goes away; the rebuilt link must
	// still know the in-flight unit is already downstream
	require.NoError(t, p.Remove("relay"))

	require.NoError(t, p.Feed(frameMsg("later")))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, asmOffers())
}

func TestPipelineStopDeliversParkedOutput(t *testing.T) {
	var open atomic.Bool
	collector := NewCollectorOutlet()
	gated := OutletFunc(func(msg message.Message) bool {
		if !open.Load() {
			return false
		}
		return collector.TryConsume(msg)
	})

	frames, err := codec.NewDecoder("frames", decodeFrames, nil,
		codec.WithAcceptedTypes(frameType))
	require.NoError(t, err)

	p, err := New("test", WithOutlet(gated), WithQueueCapacity(1))
	require.NoError(t, err)
	require.NoError(t, p.AddStage(frames))
	require.NoError(t, p.AddStage(relayStage(t, "relay")))
	require.NoError(t, p.Initialize())
	require.NoError(t, p.Start(context.Background()))

	for _, in := range []string{"one", "two", "three"} {
		require.Eventually(t, func() bool { return p.Feed(frameMsg(in)) == nil }, waitFor, tick)
	}

	// everything parks against the closed outlet
	time.Sleep(50 * time.Millisecond)
	require.Zero(t, collector.Len())

	// the outlet opens but nothing wakes the pipeline; shutdown still
	// walks queued input and parked output out through the chain
	open.Store(true)
	require.NoError(t, p.Stop(time.Second))

	var got []string
	for _, u := range collector.Units() {
		got = append(got, eventName(u))
	}
	assert.Equal(t, []string{"one", "two", "three"}, got)
}

func TestPipelineRemoveReportsDisplacedDrop(t *testing.T) {
	refuse := OutletFunc(func(message.Message) bool { return false })

	var mu sync.Mutex
	var failures []error
	handler := func(_ string, err error) {
		mu.Lock()
		failures = append(failures, err)
		mu.Unlock()
	}

	frames, err := codec.NewDecoder("frames", decodeFrames, nil,
		codec.WithAcceptedTypes(frameType))
	require.NoError(t, err)

	p, err := New("test", WithOutlet(refuse), WithQueueCapacity(1),
		WithFailureHandler(handler))
	require.NoError(t, err)
	require.NoError(t, p.AddStage(frames))
	require.NoError(t, p.AddStage(relayStage(t, "relay")))
	require.NoError(t, p.AddStage(relayStage(t, "tail")))
	require.NoError(t, p.Initialize())
	require.NoError(t, p.Start(context.Background()))
	defer func() { _ = p.Stop(time.Second) }()

	for _, in := range []string{"a", "b", "c"} {
		require.Eventually(t, func() bool { return p.Feed(frameMsg(in)) == nil }, waitFor, tick)
	}
	time.Sleep(50 * time.Millisecond)

	// the tail's queue is full, so the relay's queued unit has nowhere
	// to go when the relay disappears
	require.NoError(t, p.Remove("relay"))

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, failures)
	assert.ErrorIs(t, failures[0], errors.ErrBufferFull)
	assert.True(t, errors.IsTransient(failures[0]))
}
