package messaging

import (
	"encoding/binary"
	"unicode/utf16"
)

// reorderGUID converts a GUID's on-disk little-endian Data1/Data2/Data3
// layout into the big-endian byte order uuid.FromBytes expects.
func reorderGUID(raw []byte) []byte {
	out := make([]byte, 16)
	out[0], out[1], out[2], out[3] = raw[3], raw[2], raw[1], raw[0]
	out[4], out[5] = raw[5], raw[4]
	out[6], out[7] = raw[7], raw[6]
	copy(out[8:], raw[8:16])
	return out
}

func decodeUTF16LEString(raw []byte) string {
	u16 := make([]uint16, len(raw)/2)
	for i := range u16 {
		u16[i] = binary.LittleEndian.Uint16(raw[i*2 : i*2+2])
	}
	return string(utf16.Decode(u16))
}
