package codec

import "github.com/c360/streamkit/message"

// resultKind discriminates the tri-state decode result.
type resultKind int

const (
	kindNeedMore resultKind = iota
	kindPassThrough
	kindProduced
)

// String returns a human-readable representation of the result kind.
func (k resultKind) String() string {
	switch k {
	case kindNeedMore:
		return "need-more-input"
	case kindPassThrough:
		return "pass-through"
	case kindProduced:
		return "produced"
	default:
		return "unknown"
	}
}

// Result is the outcome of one DecodeFunc invocation.
//
// Three outcomes exist:
//
//   - Produced(out): the decoder emitted a new unit; the consumed input is
//     released after out's forwarding attempt.
//   - PassThrough(): the input itself travels downstream unchanged;
//     ownership transfers with it, so the input is NOT released.
//   - NeedMoreInput(): the decoder buffered the input internally (an
//     aggregator) and has nothing to emit yet.
//
// An explicit pass-through marker replaces output==input identity
// comparison: ownership transfer is stated, not inferred.
type Result struct {
	kind resultKind
	msg  message.Message
}

// Produced returns a Result carrying a newly decoded unit.
func Produced(msg message.Message) Result {
	return Result{kind: kindProduced, msg: msg}
}

// PassThrough returns a Result signaling the input unit itself moves
// downstream unchanged.
func PassThrough() Result {
	return Result{kind: kindPassThrough}
}

// NeedMoreInput returns a Result signaling the decoder consumed the input
// but needs more before it can emit.
func NeedMoreInput() Result {
	return Result{kind: kindNeedMore}
}

// IsProduced reports whether the result carries a produced unit.
func (r Result) IsProduced() bool {
	return r.kind == kindProduced
}

// IsPassThrough reports whether the input passes through unchanged.
func (r Result) IsPassThrough() bool {
	return r.kind == kindPassThrough
}

// IsNeedMore reports whether the decoder is waiting for more input.
func (r Result) IsNeedMore() bool {
	return r.kind == kindNeedMore
}

// Message returns the produced unit, or nil for non-produced results.
func (r Result) Message() message.Message {
	return r.msg
}

// String returns the result's kind for logging.
func (r Result) String() string {
	return r.kind.String()
}
