package timestamp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToUnixMsRoundTrip(t *testing.T) {
	ref := time.Date(2023, 1, 15, 12, 30, 45, 123000000, time.UTC)

	ms := ToUnixMs(ref)
	assert.Equal(t, int64(1673785845123), ms)
	assert.True(t, ref.Equal(FromUnixMs(ms)))

	assert.Equal(t, int64(0), ToUnixMs(time.Time{}))
	assert.True(t, FromUnixMs(0).IsZero())
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "2023-01-15T12:30:45Z", Format(1673785845123))
	assert.Equal(t, "", Format(0))
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected int64
	}{
		{"nil", nil, 0},
		{"zero int64", int64(0), 0},
		{"unix seconds", int64(1673784645), 1673784645000},
		{"unix milliseconds", int64(1673784645123), 1673784645123},
		{"float seconds", float64(1673784645), 1673784645000},
		{"rfc3339 string", "2023-01-15T12:30:45Z", 1673785845000},
		{"numeric string", "1673784645", 1673784645000},
		{"empty string", "", 0},
		{"garbage string", "not a time", 0},
		{"unsupported type", struct{}{}, 0},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, Parse(test.input))
		})
	}
}

func TestParseTime(t *testing.T) {
	ref := time.Date(2023, 1, 15, 12, 30, 45, 0, time.UTC)
	assert.Equal(t, ToUnixMs(ref), Parse(ref))
	assert.Equal(t, ToUnixMs(ref), Parse(&ref))

	var nilTime *time.Time
	assert.Equal(t, int64(0), Parse(nilTime))
}

func TestIsZero(t *testing.T) {
	assert.True(t, IsZero(0))
	assert.False(t, IsZero(1))
}
