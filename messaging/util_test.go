package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReorderGUIDSwapsFirstThreeFields(t *testing.T) {
	// Data1=0x01020304, Data2=0x0506, Data3=0x0708, Data4=the rest, all
	// stored little-endian on disk per §3.
	onDisk := []byte{0x04, 0x03, 0x02, 0x01, 0x06, 0x05, 0x08, 0x07, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}
	want := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}
	assert.Equal(t, want, reorderGUID(onDisk))
}

func TestReorderGUIDRoundTripsThroughEntryID(t *testing.T) {
	raw := make([]byte, 24)
	// Bytes 0-3 are the reserved flags, which Bytes always writes as zero.
	for i := 4; i < len(raw); i++ {
		raw[i] = byte(i)
	}
	id, err := ParseEntryID(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, id.Bytes())
}

func TestDecodeUTF16LEString(t *testing.T) {
	// "Hi" in UTF-16LE.
	raw := []byte{'H', 0x00, 'i', 0x00}
	assert.Equal(t, "Hi", decodeUTF16LEString(raw))
}

func TestDecodeUTF16LEStringEmpty(t *testing.T) {
	assert.Equal(t, "", decodeUTF16LEString(nil))
}
