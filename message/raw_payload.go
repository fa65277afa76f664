package message

import (
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/c360/streamkit/errors"
)

// RawType is the well-known type of RawPayload.
var RawType = Type{Domain: "core", Category: "raw", Version: "v1"}

// RawPayload carries opaque bytes, typically a frame lifted straight off a
// transport before any decoding. It maintains an explicit reference count so
// pooled backing storage can be reclaimed deterministically; the decoder's
// release hook decrements the count via the Releasable capability.
type RawPayload struct {
	// Bytes is the raw frame content.
	Bytes []byte `json:"bytes"`

	refs atomic.Int32
}

// NewRawPayload creates a RawPayload holding b with a reference count of one.
func NewRawPayload(b []byte) *RawPayload {
	p := &RawPayload{Bytes: b}
	p.refs.Store(1)
	return p
}

// Schema returns the well-known raw type.
func (p *RawPayload) Schema() Type {
	return RawType
}

// Validate checks that the payload still owns its content.
func (p *RawPayload) Validate() error {
	if p.refs.Load() <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidData, "RawPayload", "Validate",
			"payload already released")
	}
	return nil
}

// Retain increments the reference count, for callers that hand the payload
// to more than one owner.
func (p *RawPayload) Retain() {
	p.refs.Add(1)
}

// Refs returns the current reference count.
func (p *RawPayload) Refs() int {
	return int(p.refs.Load())
}

// Release decrements the reference count. Releasing below zero reports a
// double release.
func (p *RawPayload) Release() error {
	if n := p.refs.Add(-1); n < 0 {
		return errors.WrapInvalid(
			fmt.Errorf("reference count dropped to %d", n),
			"RawPayload", "Release", "double release")
	} else if n == 0 {
		p.Bytes = nil
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p *RawPayload) MarshalJSON() ([]byte, error) {
	type alias struct {
		Bytes []byte `json:"bytes"`
	}
	return json.Marshal(alias{Bytes: p.Bytes})
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *RawPayload) UnmarshalJSON(data []byte) error {
	type alias struct {
		Bytes []byte `json:"bytes"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	p.Bytes = a.Bytes
	p.refs.Store(1)
	return nil
}
