package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/streamkit/message"
)

func TestCodecRegistry(t *testing.T) {
	fn := func(_ Context, _ message.Message) (Result, error) {
		return PassThrough(), nil
	}

	require.NoError(t, RegisterCodec("registry-test-a", fn))
	require.NoError(t, RegisterCodec("registry-test-b", fn))

	got, ok := LookupCodec("registry-test-a")
	require.True(t, ok)
	assert.NotNil(t, got)

	_, ok = LookupCodec("registry-test-unknown")
	assert.False(t, ok)

	names := CodecNames()
	assert.Contains(t, names, "registry-test-a")
	assert.Contains(t, names, "registry-test-b")
	assert.IsIncreasing(t, names)
}

func TestRegisterCodecRejectsDuplicatesAndNil(t *testing.T) {
	fn := func(_ Context, _ message.Message) (Result, error) {
		return PassThrough(), nil
	}

	require.NoError(t, RegisterCodec("registry-test-dup", fn))
	assert.Error(t, RegisterCodec("registry-test-dup", fn))
	assert.Error(t, RegisterCodec("", fn))
	assert.Error(t, RegisterCodec("registry-test-nil", nil))
}
