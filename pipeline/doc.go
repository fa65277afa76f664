// Package pipeline assembles decoder stages into a running chain.
//
// A Pipeline owns an ordered list of stages, a bounded ring buffer in front
// of each, and a terminal Outlet behind the last. Units enter through Feed,
// travel stage to stage through the queues, and leave through the Outlet.
//
// Scheduling is cooperative and single-threaded: one dispatch goroutine
// invokes stages in chain order, a stage runs until its input is exhausted
// or downstream refuses a unit, and signals (new input, freed capacity,
// outlet readiness) mark stages for the next dispatch pass. No stage ever
// blocks another; backpressure propagates upstream as refused forwards
// until it surfaces at Feed as a transient buffer-full error.
//
// Lifecycle follows the Initialize/Start/Stop pattern. Stop runs a last
// dispatch pass so deliverable units still reach the outlet, gives every
// stage a final flush via Deactivated, then releases whatever units remain
// queued. Stages can be removed from a running pipeline with Remove, which
// applies the same flush-then-clear contract and relinks the chain.
package pipeline
