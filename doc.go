// Package streamkit provides building blocks for chained, single-threaded
// message-processing pipelines.
//
// The central piece is the codec package: a generic message-to-message
// decoder stage that sits between "inbound units available" and "decoded
// units delivered downstream". The stage handles everything around a
// user-supplied transform function:
//
//   - Type filtering: units whose type is not accepted pass through
//     unchanged, in order.
//   - Backpressure: when the next stage has no capacity the loop pauses
//     without consuming input and resumes on the next invocation.
//   - Partial output: an output the downstream could not fully accept, or
//     that is still being assembled, is held in a single pending slot and
//     retried before any new input is examined.
//   - Failure containment: transform failures are reported to the pipeline
//     failure path and never terminate the stage.
//   - Cleanup: deactivation and removal flush the pending slot exactly once
//     and then clear it, so no unit is leaked.
//
// Supporting packages:
//
//   - message: the unit model (typed messages, payloads, capability
//     interfaces discovered via type assertion)
//   - pipeline: ordered stage chaining with buffer-backed queues and a
//     cooperative scheduler
//   - pkg/buffer: bounded generic ring buffer with overflow policies
//   - errors: classified error handling
//   - metric: Prometheus metrics registry and HTTP exposition
//   - config: YAML pipeline configuration
//
// Pipelines in streamkit are cooperative and single-threaded per instance:
// stages never block and never spawn goroutines of their own. Scheduling is
// driven by the pipeline, which re-invokes a stage when new input arrives or
// downstream capacity frees up.
package streamkit
