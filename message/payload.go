package message

import "encoding/json"

// Payload represents the data carried by a message.
// All message payloads must implement this interface to provide
// schema information, validation, and serialization capabilities.
//
// Payloads may also implement behavioral interfaces (Completable,
// Releasable, Expandable) to expose additional capabilities that
// are discovered at runtime.
//
// Example implementation:
//
//	type PositionPayload struct {
//	    DeviceID  string  `json:"device_id"`
//	    Latitude  float64 `json:"latitude"`
//	    Longitude float64 `json:"longitude"`
//	}
//
//	func (p *PositionPayload) Schema() Type {
//	    return Type{Domain: "telemetry", Category: "position", Version: "v1"}
//	}
//
//	func (p *PositionPayload) Validate() error {
//	    if p.DeviceID == "" {
//	        return errors.New("device ID is required")
//	    }
//	    return nil
//	}
//
//	func (p *PositionPayload) MarshalJSON() ([]byte, error) {
//	    type Alias PositionPayload
//	    return json.Marshal((*Alias)(p))
//	}
//
//	func (p *PositionPayload) UnmarshalJSON(data []byte) error {
//	    type Alias PositionPayload
//	    return json.Unmarshal(data, (*Alias)(p))
//	}
type Payload interface {
	// Schema returns the Type that defines this payload's structure.
	// This enables type-safe filtering throughout the system.
	Schema() Type

	// Validate checks the payload data for correctness.
	// Returns nil if valid, or an error describing the validation failure.
	Validate() error

	// JSON serialization using standard Go interfaces.
	// Payloads must implement json.Marshaler and json.Unmarshaler
	// for deterministic serialization.
	json.Marshaler
	json.Unmarshaler
}
