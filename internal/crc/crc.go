// Package crc implements the CRC-32 variant shared by the NDB header/page
// trailer checksum and the Compressed-RTF stream checksum: the ordinary
// reflected CRC-32 polynomial, but with no pre- or post-inversion — the
// running value starts at the caller-supplied seed (zero for a fresh
// computation) and is returned as-is.
package crc

// polynomial is the standard reflected CRC-32 polynomial (the same one
// hash/crc32.IEEE uses); PST reuses the familiar table but skips the
// customary ^0xFFFFFFFF bracketing.
const polynomial = 0xEDB88320

var table = buildTable()

func buildTable() [256]uint32 {
	var t [256]uint32
	for i := range t {
		v := uint32(i)
		for range 8 {
			if v&1 != 0 {
				v = (v >> 1) ^ polynomial
			} else {
				v >>= 1
			}
		}
		t[i] = v
	}
	return t
}

// Compute folds data into seed using the shared NDB/RTF CRC-32 variant.
// Passing seed 0 starts a fresh checksum, matching every call site in the
// format (header CRCs and the RTF stream CRC are always seeded at zero).
func Compute(seed uint32, data []byte) uint32 {
	crc := seed
	for _, b := range data {
		crc = table[byte(crc)^b] ^ (crc >> 8)
	}
	return crc
}
