package message

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBaseMessage(t *testing.T) {
	payload := &GenericJSONPayload{Data: map[string]any{"value": 42.0}}
	msg := NewBaseMessage(GenericJSONType, payload, "test-source")

	assert.NotEmpty(t, msg.ID())
	assert.Equal(t, GenericJSONType, msg.Type())
	assert.Equal(t, payload, msg.Payload())
	assert.Equal(t, "test-source", msg.Meta().Source())
	require.NoError(t, msg.Validate())
}

func TestBaseMessageOptions(t *testing.T) {
	payload := &GenericJSONPayload{Data: map[string]any{}}
	past := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)

	msg := NewBaseMessage(GenericJSONType, payload, "test-source",
		WithTime(past), WithID("fixed-id"))

	assert.Equal(t, "fixed-id", msg.ID())
	assert.True(t, past.Equal(msg.Meta().CreatedAt()))
}

func TestBaseMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		msg     *BaseMessage
		wantErr bool
	}{
		{
			"valid",
			NewBaseMessage(GenericJSONType, &GenericJSONPayload{Data: map[string]any{}}, "src"),
			false,
		},
		{
			"invalid type",
			NewBaseMessage(Type{Domain: "net"}, &GenericJSONPayload{Data: map[string]any{}}, "src"),
			true,
		},
		{
			"nil payload",
			NewBaseMessage(GenericJSONType, nil, "src"),
			true,
		},
		{
			"invalid payload",
			NewBaseMessage(GenericJSONType, &GenericJSONPayload{}, "src"),
			true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.msg.Validate()
			if test.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBaseMessageHashDeterministic(t *testing.T) {
	payload := &GenericJSONPayload{Data: map[string]any{"value": 1.0}}
	a := NewBaseMessage(GenericJSONType, payload, "src")
	b := NewBaseMessage(GenericJSONType, payload, "other-src")

	// Hash covers type and payload only, not identity or metadata
	assert.NotEmpty(t, a.Hash())
	assert.Equal(t, a.Hash(), b.Hash())
}

func TestBaseMessageJSONRoundTrip(t *testing.T) {
	payload := &GenericJSONPayload{Data: map[string]any{"sensor": "temp-001", "value": 23.5}}
	msg := NewBaseMessage(GenericJSONType, payload, "udp-reader")

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded BaseMessage
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, msg.ID(), decoded.ID())
	assert.Equal(t, msg.Type(), decoded.Type())
	assert.Equal(t, "udp-reader", decoded.Meta().Source())

	got, ok := decoded.Payload().(*GenericJSONPayload)
	require.True(t, ok)
	assert.Equal(t, "temp-001", got.Data["sensor"])
	assert.Equal(t, 23.5, got.Data["value"])
}

func TestBaseMessageUnmarshalUnknownType(t *testing.T) {
	wire := `{"id":"x","type":{"domain":"custom","category":"thing","version":"v1"},"payload":{},"meta":{}}`

	var decoded BaseMessage
	assert.Error(t, json.Unmarshal([]byte(wire), &decoded))
}

func TestRawPayloadRelease(t *testing.T) {
	p := NewRawPayload([]byte("frame"))
	require.Equal(t, 1, p.Refs())
	require.NoError(t, p.Validate())

	p.Retain()
	assert.Equal(t, 2, p.Refs())

	require.NoError(t, p.Release())
	require.NoError(t, p.Release())
	assert.Equal(t, 0, p.Refs())
	assert.Nil(t, p.Bytes)
	assert.Error(t, p.Validate())

	// one release too many
	assert.Error(t, p.Release())
}

func TestCapabilityLookup(t *testing.T) {
	raw := NewBaseMessage(RawType, NewRawPayload([]byte("x")), "src")

	// Releasable found on the payload
	r, ok := Capability[Releasable](raw)
	require.True(t, ok)
	assert.NoError(t, r.Release())

	// Expandable found on the message itself
	comp := NewComposite("src",
		NewBaseMessage(GenericJSONType, &GenericJSONPayload{Data: map[string]any{}}, "src"))
	e, ok := Capability[Expandable](comp)
	require.True(t, ok)
	assert.Len(t, e.Expand(), 1)

	// Absent capability
	_, ok = Capability[Completable](raw)
	assert.False(t, ok)
}

func TestCompositeValidate(t *testing.T) {
	sub := NewBaseMessage(GenericJSONType, &GenericJSONPayload{Data: map[string]any{}}, "src")

	assert.NoError(t, NewComposite("src", sub).Validate())
	assert.Error(t, NewComposite("src").Validate())
	assert.Error(t, NewComposite("src", nil).Validate())
}

func TestCompositeExpandOrder(t *testing.T) {
	first := NewBaseMessage(GenericJSONType, &GenericJSONPayload{Data: map[string]any{"n": 1.0}}, "src")
	second := NewBaseMessage(GenericJSONType, &GenericJSONPayload{Data: map[string]any{"n": 2.0}}, "src")

	comp := NewComposite("src", first, second)
	subs := comp.Expand()
	require.Len(t, subs, 2)
	assert.Equal(t, first.ID(), subs[0].ID())
	assert.Equal(t, second.ID(), subs[1].ID())
	assert.Equal(t, 2, comp.Len())
	assert.Equal(t, CompositeType, comp.Type())
}
