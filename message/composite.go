package message

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/c360/streamkit/errors"
)

// CompositeType is the well-known type of Composite messages.
var CompositeType = Type{Domain: "core", Category: "composite", Version: "v1"}

// Composite is a container message holding multiple sub-messages. It
// implements the Expandable capability, so a pipeline sink receiving a
// Composite forwards its sub-messages individually and in order.
//
// Decoders that split one inbound frame into several outbound units return
// a Composite as their produced result.
type Composite struct {
	id   string
	subs []Message
	meta Meta
}

// NewComposite creates a Composite from the given sub-messages.
func NewComposite(source string, subs ...Message) *Composite {
	return &Composite{
		id:   uuid.New().String(),
		subs: subs,
		meta: NewDefaultMeta(time.Now(), source),
	}
}

// ID returns the unique composite identifier.
func (c *Composite) ID() string {
	return c.id
}

// Type returns the well-known composite type.
func (c *Composite) Type() Type {
	return CompositeType
}

// Payload returns a payload view over the contained sub-messages.
func (c *Composite) Payload() Payload {
	return &compositePayload{subs: c.subs}
}

// Meta returns the composite metadata.
func (c *Composite) Meta() Meta {
	return c.meta
}

// Expand returns the contained sub-messages in delivery order.
// This implements the Expandable capability.
func (c *Composite) Expand() []Message {
	return c.subs
}

// Len returns the number of contained sub-messages.
func (c *Composite) Len() int {
	return len(c.subs)
}

// Hash combines the hashes of all sub-messages.
func (c *Composite) Hash() string {
	h := sha256.New()
	for _, sub := range c.subs {
		h.Write([]byte(sub.Hash()))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Validate checks the composite carries at least one valid sub-message.
func (c *Composite) Validate() error {
	if len(c.subs) == 0 {
		return errors.WrapInvalid(errors.ErrInvalidData, "Composite", "Validate",
			"composite must contain at least one sub-message")
	}
	for i, sub := range c.subs {
		if sub == nil {
			return errors.WrapInvalid(errors.ErrInvalidData, "Composite", "Validate",
				fmt.Sprintf("sub-message %d is nil", i))
		}
		if err := sub.Validate(); err != nil {
			return errors.WrapInvalid(err, "Composite", "Validate",
				fmt.Sprintf("sub-message %d invalid", i))
		}
	}
	return nil
}

// compositePayload adapts the sub-message list to the Payload interface.
type compositePayload struct {
	subs []Message
}

func (p *compositePayload) Schema() Type {
	return CompositeType
}

func (p *compositePayload) Validate() error {
	if len(p.subs) == 0 {
		return errors.WrapInvalid(errors.ErrInvalidData, "compositePayload", "Validate",
			"empty composite")
	}
	return nil
}

func (p *compositePayload) MarshalJSON() ([]byte, error) {
	out := make([]json.RawMessage, 0, len(p.subs))
	for _, sub := range p.subs {
		data, err := json.Marshal(sub)
		if err != nil {
			return nil, errors.WrapInvalid(err, "compositePayload", "MarshalJSON", "sub-message marshal")
		}
		out = append(out, data)
	}
	return json.Marshal(out)
}

func (p *compositePayload) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.WrapInvalid(err, "compositePayload", "UnmarshalJSON", "composite decode")
	}
	p.subs = make([]Message, 0, len(raw))
	for _, r := range raw {
		var m BaseMessage
		if err := json.Unmarshal(r, &m); err != nil {
			return errors.WrapInvalid(err, "compositePayload", "UnmarshalJSON", "sub-message decode")
		}
		p.subs = append(p.subs, &m)
	}
	return nil
}
