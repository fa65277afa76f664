// Package retry provides exponential backoff retry for transient failures.
//
// # Overview
//
// This package offers a minimal retry mechanism with exponential backoff.
// Retryability follows the error classification in the errors package:
// transient errors (full queues, closed buffers, shutdown in progress) are
// retried, invalid and fatal errors fail the call immediately.
//
// # Core Functions
//
//   - Do: Execute function with retry and exponential backoff
//   - DoWithResult: Execute function with retry, returns both result and error
//
// # Configuration Presets
//
//   - DefaultConfig(): 3 attempts, 100ms-5s delay (normal operations)
//   - Backpressure(): 100 attempts, 5ms-250ms delay (riding out a full queue)
//
// # Usage Examples
//
// Feeding a pipeline whose inlet may be full:
//
//	err := retry.Do(ctx, retry.Backpressure(), func() error {
//	    return p.Feed(frame)
//	})
//
// Custom configuration:
//
//	cfg := retry.Config{
//	    MaxAttempts:  5,
//	    InitialDelay: 200 * time.Millisecond,
//	    MaxDelay:     10 * time.Second,
//	    Multiplier:   2.0,
//	    AddJitter:    true,
//	}
//	err := retry.Do(ctx, cfg, operation)
//
// # Context Cancellation
//
// All retry operations respect context cancellation and stop immediately
// when the context is cancelled, during execution or during backoff delay.
//
// # Thread Safety
//
// All functions are safe for concurrent use. The jitter mechanism uses a
// thread-safe random source to avoid contention.
package retry
