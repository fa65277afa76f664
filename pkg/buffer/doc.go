// Package buffer provides generic, thread-safe bounded buffers used as the
// queue container between pipeline stages.
//
// # Overview
//
// The Buffer[T] interface is a FIFO ring with peek support and a fixed
// capacity. Two write paths exist:
//
//   - Write applies the configured overflow policy when full: Reject
//     (default, returns a transient buffer-full error), DropOldest, or
//     DropNewest.
//   - TryWrite is the backpressure primitive used by cooperative pipeline
//     stages: when the buffer is full it returns false without consuming
//     the item, never drops and never blocks. The producer keeps ownership
//     and retries on its next invocation.
//
// There is deliberately no blocking write mode. StreamKit pipelines are
// cooperative and single-threaded per instance; a stage that cannot make
// progress returns control and is re-invoked later.
//
// # Observability
//
// Statistics are always collected (writes, reads, peeks, rejects, drops,
// size high-water mark). Prometheus export is optional:
//
//	buf, err := buffer.NewRing[message.Message](64,
//	    buffer.WithMetrics[message.Message](registry, "frame-decoder-inbound"))
//
// # Usage
//
//	buf, err := buffer.NewRing[int](16)
//	if err != nil { ... }
//	defer buf.Close()
//
//	if !buf.TryWrite(42) {
//	    // downstream full: keep the item and retry later
//	}
package buffer
