package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEntryIDRejectsWrongSize(t *testing.T) {
	_, err := ParseEntryID(make([]byte, 23))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidEntryID)
}

func TestParseEntryIDDecodesNID(t *testing.T) {
	raw := make([]byte, 24)
	// Flags (bytes 0-3) reserved, provider uid bytes 4-20 left zero,
	// NID little-endian in bytes 20-24.
	raw[20] = 0x22
	raw[21] = 0x01
	id, err := ParseEntryID(raw)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x122), uint32(id.NID))
}

func TestEntryIDBytesRoundTrip(t *testing.T) {
	raw := make([]byte, 24)
	for i := 4; i < 24; i++ {
		raw[i] = byte(i * 3)
	}
	id, err := ParseEntryID(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, id.Bytes())
}
