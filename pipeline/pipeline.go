package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/c360/streamkit/codec"
	"github.com/c360/streamkit/errors"
	"github.com/c360/streamkit/message"
	"github.com/c360/streamkit/metric"
	"github.com/c360/streamkit/pkg/buffer"
)

const defaultQueueCapacity = 64

// FailureHandler receives failures reported by stages. It runs on the
// pipeline's dispatch sequence and must not block.
type FailureHandler func(stage string, err error)

// Pipeline owns an ordered chain of stages, the bounded queues between
// them, and the single dispatch sequence that drives them. All stage
// invocations happen from one goroutine, so stages need no internal
// locking; external entry points (Feed, Remove, Stop) serialize against
// dispatch via the pipeline mutex.
//
// Lifecycle follows Pattern A: Initialize() wires the stage chain,
// Start(ctx) launches the dispatch loop, Stop(timeout) shuts it down and
// gives every stage a final flush.
type Pipeline struct {
	name      string
	logger    *slog.Logger
	registry  *metric.MetricsRegistry
	metrics   *metric.Metrics
	onFailure FailureHandler
	capacity  int

	mu      sync.Mutex
	state   State
	entries []*stageEntry
	outlet  Outlet

	wake   chan struct{}
	done   chan struct{}
	cancel context.CancelFunc
}

type stageEntry struct {
	stage   Stage
	inbound *inboundQueue
	ctx     *stageContext

	// dirty marks the stage for the next dispatch pass; guarded by the
	// pipeline mutex
	dirty bool
}

// stageContext is the per-stage codec.Context handed to every invocation.
type stageContext struct {
	p       *Pipeline
	stage   string
	inbound *inboundQueue
	sink    codec.Sink
}

func (c *stageContext) Inbound() codec.InboundQueue { return c.inbound }
func (c *stageContext) Sink() codec.Sink            { return c.sink }
func (c *stageContext) ReportFailure(err error)     { c.p.reportFailure(c.stage, err) }

// Option configures Pipeline construction.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetricsRegistry enables metrics for the pipeline, its queues, and any
// stage that shares the registry.
func WithMetricsRegistry(registry *metric.MetricsRegistry) Option {
	return func(p *Pipeline) {
		p.registry = registry
	}
}

// WithFailureHandler overrides the failure path consumer. The default logs
// each failure at warn level.
func WithFailureHandler(h FailureHandler) Option {
	return func(p *Pipeline) {
		if h != nil {
			p.onFailure = h
		}
	}
}

// WithQueueCapacity sets the capacity of every inter-stage queue.
func WithQueueCapacity(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.capacity = n
		}
	}
}

// WithOutlet sets the terminal consumer. Required before Initialize.
func WithOutlet(o Outlet) Option {
	return func(p *Pipeline) {
		p.outlet = o
	}
}

// New creates a pipeline with no stages. Add stages with AddStage, then
// Initialize and Start.
func New(name string, opts ...Option) (*Pipeline, error) {
	if name == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Pipeline", "New",
			"pipeline name required")
	}

	p := &Pipeline{
		name:     name,
		logger:   slog.Default(),
		capacity: defaultQueueCapacity,
		state:    StateCreated,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.onFailureDefault()
	if p.registry != nil {
		p.metrics = p.registry.CoreMetrics()
	}
	return p, nil
}

func (p *Pipeline) onFailureDefault() {
	if p.onFailure != nil {
		return
	}
	p.onFailure = func(stage string, err error) {
		p.logger.Warn("Stage failure",
			"pipeline", p.name,
			"stage", stage,
			"class", errors.Classify(err).String(),
			"error", err)
	}
}

// Name returns the pipeline name.
func (p *Pipeline) Name() string {
	return p.name
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// AddStage appends a stage to the chain. Stages run in the order added.
// Must be called before Initialize.
func (p *Pipeline) AddStage(stage Stage) error {
	if stage == nil || stage.Name() == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Pipeline", "AddStage",
			"stage with a name required")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateCreated {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Pipeline", "AddStage",
			"stages are fixed after Initialize")
	}
	for _, e := range p.entries {
		if e.stage.Name() == stage.Name() {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Pipeline", "AddStage",
				"duplicate stage name "+stage.Name())
		}
	}

	p.entries = append(p.entries, &stageEntry{stage: stage})
	return nil
}

// Initialize allocates the inter-stage queues and wires each stage to its
// successor. Setup only; nothing runs until Start.
func (p *Pipeline) Initialize() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateCreated {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Pipeline", "Initialize",
			"already initialized")
	}
	if len(p.entries) == 0 {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Pipeline", "Initialize",
			"at least one stage required")
	}
	if p.outlet == nil {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Pipeline", "Initialize",
			"outlet required")
	}

	for _, e := range p.entries {
		name := e.stage.Name()
		buf, err := buffer.NewRing[message.Message](p.capacity,
			buffer.WithMetrics[message.Message](p.registry, p.name+"."+name))
		if err != nil {
			p.state = StateFailed
			return errors.Wrap(err, "Pipeline", "Initialize", "create stage queue")
		}
		e.inbound = &inboundQueue{
			buf:      buf,
			metrics:  p.metrics,
			pipeline: p.name,
			stage:    name,
		}
	}
	p.linkStages()

	p.state = StateInitialized
	p.logger.Info("Pipeline initialized",
		"pipeline", p.name,
		"stages", len(p.entries),
		"queue_capacity", p.capacity)
	return nil
}

// linkStages rebuilds each stage's context and sink from the current entry
// order. Called under the pipeline mutex.
func (p *Pipeline) linkStages() {
	for i, e := range p.entries {
		name := e.stage.Name()

		if i == 0 {
			e.inbound.onConsume = nil
		} else {
			prev := p.entries[i-1].stage.Name()
			e.inbound.onConsume = func() { p.markDirty(prev) }
		}

		var sink codec.Sink
		if i+1 < len(p.entries) {
			next := p.entries[i+1]
			rebuilt := &bufferSink{
				p:        p,
				stage:    name,
				next:     next.inbound,
				nextName: next.stage.Name(),
				metrics:  p.metrics,
				pipeline: p.name,
			}
			// a relink must not forget which incomplete unit the
			// successor already holds, or the next re-offer would
			// enqueue a second copy
			if e.ctx != nil {
				if old, ok := e.ctx.sink.(*bufferSink); ok && old.next == next.inbound {
					rebuilt.incompleteID = old.incompleteID
				}
			}
			sink = rebuilt
		} else {
			sink = &outletSink{
				outlet:   p.outlet,
				stage:    name,
				metrics:  p.metrics,
				pipeline: p.name,
			}
		}
		e.ctx = &stageContext{p: p, stage: name, inbound: e.inbound, sink: sink}
	}
}

// Start launches the dispatch loop. The context bounds the pipeline's
// lifetime; cancellation stops dispatch without the final stage flush (use
// Stop for a graceful shutdown).
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case StateStarted:
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Pipeline", "Start", "already running")
	case StateInitialized:
	default:
		return errors.WrapInvalid(errors.ErrNotStarted, "Pipeline", "Start",
			"initialize before starting")
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.state = StateStarted

	if p.metrics != nil {
		for _, e := range p.entries {
			p.metrics.StageStatus.WithLabelValues(p.name, e.stage.Name()).Set(1)
		}
	}

	go p.run(runCtx)

	p.logger.Info("Pipeline started", "pipeline", p.name)
	return nil
}

// Stop shuts the pipeline down: the dispatch loop exits, every stage gets a
// final flush via Deactivated, and the queues close. Returns a transient
// error when the dispatch loop does not exit within the timeout.
func (p *Pipeline) Stop(timeout time.Duration) error {
	p.mu.Lock()
	if p.state != StateStarted {
		p.mu.Unlock()
		return errors.WrapInvalid(errors.ErrNotStarted, "Pipeline", "Stop", "not running")
	}
	cancel := p.cancel
	p.mu.Unlock()

	cancel()

	select {
	case <-p.done:
	case <-time.After(timeout):
		return errors.WrapTransient(errors.ErrShuttingDown, "Pipeline", "Stop",
			"dispatch loop did not exit within timeout")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// one last dispatch pass so queued input and parked output can still
	// reach the outlet while it accepts, then the final flush, upstream
	// first; dispatching after each flush lets late output travel the
	// remaining chain before downstream stages deactivate. Whatever
	// cannot be delivered is released.
	for _, e := range p.entries {
		e.dirty = true
	}
	p.dispatchLocked()
	for _, e := range p.entries {
		e.stage.Deactivated(e.ctx)
		p.dispatchLocked()
	}
	for _, e := range p.entries {
		p.drainAbandoned(e)
		if err := e.inbound.buf.Close(); err != nil {
			p.logger.Warn("Failed to close stage queue",
				"pipeline", p.name,
				"stage", e.stage.Name(),
				"error", err)
		}
		if p.metrics != nil {
			p.metrics.StageStatus.WithLabelValues(p.name, e.stage.Name()).Set(2)
		}
	}

	p.state = StateStopped
	p.logger.Info("Pipeline stopped", "pipeline", p.name)
	return nil
}

// drainAbandoned releases units left in a queue at shutdown so pooled
// resources are returned.
func (p *Pipeline) drainAbandoned(e *stageEntry) {
	for {
		msg, ok := e.inbound.buf.Read()
		if !ok {
			return
		}
		if r, capOK := message.Capability[message.Releasable](msg); capOK {
			if err := r.Release(); err != nil {
				p.reportFailure(e.stage.Name(),
					errors.Wrap(err, "Pipeline", "Stop", "release abandoned unit"))
			}
		}
	}
}

// Feed offers a unit to the first stage's queue. It never blocks: a full
// queue surfaces as a transient buffer-full error and the unit stays owned
// by the caller.
func (p *Pipeline) Feed(msg message.Message) error {
	if msg == nil {
		return errors.WrapInvalid(errors.ErrInvalidData, "Pipeline", "Feed", "nil unit")
	}

	p.mu.Lock()
	if p.state != StateStarted {
		p.mu.Unlock()
		return errors.WrapInvalid(errors.ErrNotStarted, "Pipeline", "Feed", "pipeline not running")
	}
	first := p.entries[0]
	if !first.inbound.buf.TryWrite(msg) {
		p.mu.Unlock()
		return errors.WrapTransient(errors.ErrBufferFull, "Pipeline", "Feed",
			"inlet queue full")
	}
	first.dirty = true
	p.mu.Unlock()

	p.signalWake()
	return nil
}

// OutletReady tells the pipeline that the outlet, having previously refused
// units, can accept again. The last stage is rescheduled to retry its
// pending output.
func (p *Pipeline) OutletReady() {
	p.mu.Lock()
	if p.state == StateStarted && len(p.entries) > 0 {
		p.entries[len(p.entries)-1].dirty = true
	}
	p.mu.Unlock()
	p.signalWake()
}

// Remove takes a named stage out of a running pipeline. The stage gets its
// flush-then-clear via Removed, its queued input moves to the successor (or
// the outlet path), and the chain is relinked around the gap.
func (p *Pipeline) Remove(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateStarted && p.state != StateInitialized {
		return errors.WrapInvalid(errors.ErrNotStarted, "Pipeline", "Remove", "pipeline not running")
	}
	if len(p.entries) == 1 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Pipeline", "Remove",
			"cannot remove the only stage")
	}

	idx := -1
	for i, e := range p.entries {
		if e.stage.Name() == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return errors.WrapInvalid(errors.ErrStageNotFound, "Pipeline", "Remove", name)
	}

	e := p.entries[idx]
	e.stage.Removed(e.ctx)

	// the predecessor's sink is rebuilt against a different queue, so its
	// incomplete-unit bookkeeping has to survive the relink by hand; it is
	// dropped if the queued copy itself cannot migrate
	var predIncomplete string
	if idx > 0 {
		if old, ok := p.entries[idx-1].ctx.sink.(*bufferSink); ok {
			predIncomplete = old.incompleteID
		}
	}

	p.entries = append(p.entries[:idx], p.entries[idx+1:]...)

	// queued input that the removed stage never saw skips ahead to the
	// stage that now occupies its slot; at the tail it has nowhere to go
	if idx < len(p.entries) {
		succ := p.entries[idx]
		for {
			msg, ok := e.inbound.buf.Read()
			if !ok {
				break
			}
			if !succ.inbound.buf.TryWrite(msg) {
				if msg.ID() == predIncomplete {
					predIncomplete = ""
				}
				p.dropDisplaced(name, msg)
				continue
			}
		}
		succ.dirty = true
	} else {
		p.drainAbandoned(e)
		predIncomplete = ""
	}

	p.linkStages()

	if predIncomplete != "" {
		if rebuilt, ok := p.entries[idx-1].ctx.sink.(*bufferSink); ok {
			rebuilt.incompleteID = predIncomplete
		}
	}

	if err := e.inbound.buf.Close(); err != nil {
		p.logger.Warn("Failed to close removed stage queue",
			"pipeline", p.name, "stage", name, "error", err)
	}
	if p.metrics != nil {
		p.metrics.StageStatus.WithLabelValues(p.name, name).Set(2)
	}

	p.logger.Info("Stage removed", "pipeline", p.name, "stage", name)
	p.signalWake()
	return nil
}

// dropDisplaced releases a unit that could not move to the successor queue
// during stage removal. The loss itself goes through the failure path so it
// is visible to operators, not just the release error.
func (p *Pipeline) dropDisplaced(stage string, msg message.Message) {
	p.reportFailure(stage, errors.WrapTransient(errors.ErrBufferFull, "Pipeline", "Remove",
		"successor queue full, dropping displaced unit "+msg.ID()))
	if r, ok := message.Capability[message.Releasable](msg); ok {
		if err := r.Release(); err != nil {
			p.reportFailure(stage, errors.Wrap(err, "Pipeline", "Remove", "release displaced unit"))
		}
	}
}

// run is the dispatch loop: drain all dirty stages to quiescence, then
// sleep until woken.
func (p *Pipeline) run(ctx context.Context) {
	defer close(p.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.wake:
		}
		p.dispatch()
	}
}

// dispatch invokes dirty stages in chain order until a full pass makes no
// progress. Stages re-dirty their neighbors through markDirty while the
// mutex is held by this same call, so the rescan sees their updates.
func (p *Pipeline) dispatch() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dispatchLocked()
}

func (p *Pipeline) dispatchLocked() {
	for {
		progressed := false
		for _, e := range p.entries {
			if !e.dirty {
				continue
			}
			e.dirty = false
			start := time.Now()
			e.stage.InboundUpdated(e.ctx)
			if p.metrics != nil {
				p.metrics.RecordProcessingDuration(p.name, e.stage.Name(), time.Since(start))
			}
			progressed = true
		}
		if !progressed {
			return
		}
	}
}

// markDirty schedules a stage for the current or next dispatch. Called with
// the pipeline mutex held (sinks run inside dispatch).
func (p *Pipeline) markDirty(name string) {
	for _, e := range p.entries {
		if e.stage.Name() == name {
			e.dirty = true
			return
		}
	}
}

func (p *Pipeline) signalWake() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *Pipeline) reportFailure(stage string, err error) {
	if err == nil {
		return
	}
	if p.metrics != nil {
		p.metrics.RecordFailure(p.name, stage, errors.Classify(err).String())
	}
	p.onFailure(stage, err)
}
