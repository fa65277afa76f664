package pipeline

import (
	"github.com/c360/streamkit/codec"
)

// Stage is a processing element the pipeline schedules. codec.Decoder is
// the primary implementation; anything honoring the cooperative contract
// (non-blocking, invoked from the pipeline's single dispatch sequence) can
// be a stage.
type Stage interface {
	// Name returns the stage's unique name within the pipeline.
	Name() string

	// InboundUpdated is invoked when the stage's inbound queue may have
	// new units, or downstream capacity may have freed. It must not block.
	InboundUpdated(ctx codec.Context)

	// Deactivated is invoked once when the pipeline shuts down. The stage
	// flushes what it can and releases the rest.
	Deactivated(ctx codec.Context)

	// Removed is invoked once when the stage is taken out of a running
	// pipeline. Same flush-then-clear contract as Deactivated.
	Removed(ctx codec.Context)
}

// State represents the current lifecycle state of a pipeline
type State int

const (
	// StateCreated indicates the pipeline was created but not initialized
	StateCreated State = iota
	// StateInitialized indicates the pipeline was initialized but not started
	StateInitialized
	// StateStarted indicates the pipeline is running
	StateStarted
	// StateStopped indicates the pipeline was stopped
	StateStopped
	// StateFailed indicates the pipeline failed during a lifecycle operation
	StateFailed
)

// String returns a string representation of the pipeline state
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateInitialized:
		return "initialized"
	case StateStarted:
		return "started"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
