package main

import (
	"encoding/json"

	"github.com/c360/streamkit/codec"
	"github.com/c360/streamkit/errors"
	"github.com/c360/streamkit/message"
)

// Built-in codecs available to stage configuration.
func init() {
	codec.MustRegisterCodec("json-lines", decodeJSONLine)
	codec.MustRegisterCodec("passthrough", decodePassthrough)
}

// decodeJSONLine parses a raw frame as a JSON object and lifts it into a
// generic JSON unit.
func decodeJSONLine(_ codec.Context, msg message.Message) (codec.Result, error) {
	raw, ok := msg.Payload().(*message.RawPayload)
	if !ok {
		return codec.NeedMoreInput(), errors.WrapInvalid(errors.ErrInvalidData,
			"json-lines", "decode", "expected raw frame payload")
	}

	var data map[string]any
	if err := json.Unmarshal(raw.Bytes, &data); err != nil {
		return codec.NeedMoreInput(), errors.WrapInvalid(err,
			"json-lines", "decode", "parse json frame")
	}

	out := message.NewBaseMessage(message.GenericJSONType,
		&message.GenericJSONPayload{Data: data}, appName)
	return codec.Produced(out), nil
}

// decodePassthrough forwards every unit unchanged; useful as a placeholder
// stage in configuration.
func decodePassthrough(_ codec.Context, _ message.Message) (codec.Result, error) {
	return codec.PassThrough(), nil
}
