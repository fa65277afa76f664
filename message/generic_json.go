package message

import (
	"encoding/json"

	"github.com/c360/streamkit/errors"
)

// GenericJSONType is the well-known type of GenericJSONPayload.
var GenericJSONType = Type{Domain: "core", Category: "json", Version: "v1"}

// GenericJSONPayload provides a simple, explicitly flexible payload type
// for testing, prototyping, and basic data processing flows.
//
// This is an intentional, well-known type (core.json.v1) designed for:
//   - Rapid prototyping of pipelines
//   - Integration testing
//   - Basic JSON data processing (filter, map, decode)
//
// Stages that work with GenericJSON explicitly declare they accept
// "core.json.v1", providing type safety while maintaining flexibility for
// arbitrary JSON structures.
type GenericJSONPayload struct {
	// Data contains the JSON payload as a map.
	Data map[string]any `json:"data"`
}

// Schema returns the well-known GenericJSON type.
func (p *GenericJSONPayload) Schema() Type {
	return GenericJSONType
}

// Validate checks that the payload carries data.
func (p *GenericJSONPayload) Validate() error {
	if p.Data == nil {
		return errors.WrapInvalid(errors.ErrInvalidData, "GenericJSONPayload", "Validate",
			"data cannot be nil")
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p *GenericJSONPayload) MarshalJSON() ([]byte, error) {
	type alias GenericJSONPayload
	return json.Marshal((*alias)(p))
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *GenericJSONPayload) UnmarshalJSON(data []byte) error {
	type alias GenericJSONPayload
	return json.Unmarshal(data, (*alias)(p))
}
