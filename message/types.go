package message

import (
	"fmt"
	"strings"

	"github.com/c360/streamkit/errors"
)

// Keyable interface represents types that can be converted to semantic keys
// using dotted notation. Semantic keys are what pipeline stages match on when
// deciding whether a unit is decodable.
type Keyable interface {
	// Key returns the dotted notation representation of this semantic type.
	// Examples: "net.frame.v1", "telemetry.position.v2"
	Key() string
}

// Type provides structured type information for messages.
// It enables type-safe filtering and decoding by clearly identifying
// the domain, category, and version of each message.
//
// Type constants should be defined in domain packages to maintain
// clear ownership and avoid coupling. This package only provides the
// type definition itself.
//
// Example definition in a domain package:
//
//	var FrameMessage = message.Type{
//	    Domain:   "net",
//	    Category: "frame",
//	    Version:  "v1",
//	}
type Type struct {
	// Domain identifies the business or system domain.
	// Examples: "net", "telemetry", "core"
	Domain string `json:"domain" yaml:"domain"`

	// Category identifies the specific message type within the domain.
	// Examples: "frame", "position", "heartbeat"
	Category string `json:"category" yaml:"category"`

	// Version identifies the schema version.
	// Format: "v1", "v2", etc. Enables schema evolution.
	Version string `json:"version" yaml:"version"`
}

// Key returns the dotted notation representation: "domain.category.version"
// This implements the Keyable interface for unified semantic keys.
func (mt Type) Key() string {
	return fmt.Sprintf("%s.%s.%s", mt.Domain, mt.Category, mt.Version)
}

// String returns the same as Key() for backwards compatibility
func (mt Type) String() string {
	return mt.Key()
}

// IsValid checks if the Type has all required fields populated
// with non-empty values.
func (mt Type) IsValid() bool {
	return mt.Domain != "" && mt.Category != "" && mt.Version != ""
}

// Equal compares two Type instances for equality.
// Returns true if all fields (Domain, Category, Version) are identical.
func (mt Type) Equal(other Type) bool {
	return mt.Domain == other.Domain &&
		mt.Category == other.Category &&
		mt.Version == other.Version
}

// ParseType creates a Type from dotted string format.
// Expects exactly 3 non-empty parts: domain.category.version
// Returns an error if the format is invalid.
func ParseType(s string) (Type, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Type{}, errors.WrapInvalid(errors.ErrInvalidData, "Type", "ParseType",
			fmt.Sprintf("expected 3 parts, got %d", len(parts)))
	}

	for i, part := range parts {
		if part == "" {
			return Type{}, errors.WrapInvalid(errors.ErrInvalidData, "Type", "ParseType",
				fmt.Sprintf("part %d is empty", i+1))
		}
	}

	return Type{
		Domain:   parts[0],
		Category: parts[1],
		Version:  parts[2],
	}, nil
}
