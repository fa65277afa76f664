package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeKey(t *testing.T) {
	mt := Type{Domain: "net", Category: "frame", Version: "v1"}

	assert.Equal(t, "net.frame.v1", mt.Key())
	assert.Equal(t, mt.Key(), mt.String())
}

func TestTypeIsValid(t *testing.T) {
	tests := []struct {
		name  string
		mt    Type
		valid bool
	}{
		{"complete", Type{Domain: "net", Category: "frame", Version: "v1"}, true},
		{"missing domain", Type{Category: "frame", Version: "v1"}, false},
		{"missing category", Type{Domain: "net", Version: "v1"}, false},
		{"missing version", Type{Domain: "net", Category: "frame"}, false},
		{"empty", Type{}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.valid, test.mt.IsValid())
		})
	}
}

func TestTypeEqual(t *testing.T) {
	a := Type{Domain: "net", Category: "frame", Version: "v1"}
	b := Type{Domain: "net", Category: "frame", Version: "v1"}
	c := Type{Domain: "net", Category: "frame", Version: "v2"}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestParseType(t *testing.T) {
	mt, err := ParseType("telemetry.position.v2")
	require.NoError(t, err)
	assert.Equal(t, Type{Domain: "telemetry", Category: "position", Version: "v2"}, mt)

	invalid := []struct {
		name  string
		input string
	}{
		{"too few parts", "net.frame"},
		{"too many parts", "a.b.c.d"},
		{"empty part", "net..v1"},
		{"empty string", ""},
	}

	for _, test := range invalid {
		t.Run(test.name, func(t *testing.T) {
			_, err := ParseType(test.input)
			assert.Error(t, err)
		})
	}
}
