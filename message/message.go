package message

// Message represents the core message interface for StreamKit pipelines.
// Messages are the fundamental unit of data flow, carrying typed payloads
// with metadata through ordered processing stages.
//
// Design principles:
//   - Infrastructure-agnostic: Messages contain only data, no routing or storage logic
//   - Behavioral capabilities: Messages expose optional abilities through -able interfaces
//   - Flexible metadata: Meta interface allows different metadata implementations
//   - Content-addressable: Hash method enables deduplication and referencing
//
// Example:
//
//	msg := NewBaseMessage(
//	    Type{Domain: "net", Category: "frame", Version: "v1"},
//	    framePayload,
//	    "udp-reader"
//	)
type Message interface {
	// ID returns a unique identifier for this message instance.
	// Typically a UUID, this ID is immutable and globally unique.
	ID() string

	// Type returns structured type information used for filtering and decoding.
	// The type contains domain, category, and version information.
	Type() Type

	// Payload returns the message payload that may implement behavioral interfaces.
	// Payloads expose capabilities like Completable, Releasable, Expandable.
	Payload() Payload

	// Meta returns metadata about the message lifecycle and origin.
	// Includes creation time, receipt time, and source component information.
	Meta() Meta

	// Hash returns a content-based hash for deduplication and storage.
	// The hash is computed from the message type and payload data.
	Hash() string

	// Validate performs comprehensive validation of the message.
	// Checks message type validity, payload presence, and payload-specific validation.
	Validate() error
}
