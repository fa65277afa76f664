// Package codec implements the message-to-message decoder stage for
// StreamKit pipelines.
//
// A Decoder wraps a user-supplied DecodeFunc and drives it against the
// stage's inbound queue whenever the pipeline signals that input or
// downstream capacity may be available. Each decode invocation yields a
// tri-state Result:
//
//   - Produced(msg): an outbound unit to forward. A unit with the
//     Expandable capability is unfolded and its sub-units forwarded in
//     order.
//   - PassThrough(): the input is forwarded downstream unchanged, with
//     ownership transferred rather than released.
//   - NeedMoreInput(): the input was consumed (aggregated) but nothing is
//     ready to emit yet.
//
// Units whose type is outside the decoder's accepted TypeSet bypass the
// transform and flow downstream untouched.
//
// The decoder never blocks. When the downstream sink refuses a unit, or a
// forwarded unit remains incomplete, the undelivered output parks in the
// stage's single pending slot and the decode loop stops; the next
// invocation retries the pending output before touching new input.
// Consumed inputs are released exactly once via the configured ReleaseFunc,
// decode panics surface as reported decode failures, and teardown
// (Deactivated, Removed) flushes the pending slot once and then releases
// whatever could not be delivered.
package codec
