// Package message defines the unit of data that flows through StreamKit
// pipelines.
//
// # Core Types
//
// Message is the stage-boundary interface: a unique ID, a structured Type
// (domain.category.version), a Payload, and lifecycle Meta. BaseMessage is
// the standard immutable implementation with UUID identifiers and a JSON
// wire format.
//
// Type is a three-part semantic descriptor with a dotted Key() notation.
// Pipeline stages filter on Type: a decoder configured with an
// accepted-type set compares the Key of each inbound unit against the set.
//
// # Capabilities
//
// Optional behavioral interfaces are discovered at runtime via type
// assertion on the message or its payload (use Capability):
//
//   - Completable: the unit is still being assembled from sub-parts
//   - Releasable: the unit holds releasable resources (pooled buffers)
//   - Expandable: the unit is a container of sub-units forwarded in order
//
// # Well-Known Payloads
//
//   - GenericJSONPayload (core.json.v1): arbitrary JSON data
//   - RawPayload (core.raw.v1): reference-counted opaque bytes
//   - Composite (core.composite.v1): an Expandable container message
package message
