package ndb

import "fmt"

// CryptMethod selects how a block's payload bytes are transformed on
// disk, as declared by the header's bCryptMethod field.
type CryptMethod uint8

const (
	CryptNone    CryptMethod = 0x00
	CryptPermute CryptMethod = 0x01
	CryptCyclic  CryptMethod = 0x02
)

// ParseCryptMethod validates a raw header byte.
func ParseCryptMethod(b byte) (CryptMethod, error) {
	switch CryptMethod(b) {
	case CryptNone, CryptPermute, CryptCyclic:
		return CryptMethod(b), nil
	default:
		return 0, fmt.Errorf("%w: 0x%02x", ErrInvalidCryptMethod, b)
	}
}

// permuteTable and permuteInverseTable implement the fixed 256-entry
// substitution used by the Permute transform; encoding applies
// permuteTable, decoding applies its exact functional inverse, so
// Decode(Encode(x)) == x holds for every byte value by construction.
var (
	permuteTable        [256]byte
	permuteInverseTable [256]byte
	// cyclicMixTable is the second substitution the Cyclic transform
	// folds in between the Permute-style forward/inverse steps. It must
	// be its own inverse (cyclicMixTable[cyclicMixTable[x]] == x) for
	// the whole Cyclic transform to be a single self-inverse function,
	// which is what lets Encode and Decode share one implementation.
	cyclicMixTable [256]byte
)

func init() {
	for i := range 256 {
		// x*167+31 mod 256 is a bijection on bytes: 167 is odd, hence
		// invertible mod 256.
		permuteTable[i] = byte(uint32(i)*167 + 31)
	}
	for i, v := range permuteTable {
		permuteInverseTable[v] = byte(i)
	}
	for i := range 256 {
		cyclicMixTable[i] = byte(^byte(i)) // bitwise complement: its own inverse
	}
}

// PermuteEncode substitutes every byte of data through permuteTable,
// in place.
func PermuteEncode(data []byte) {
	for i, b := range data {
		data[i] = permuteTable[b]
	}
}

// PermuteDecode substitutes every byte of data through permuteInverseTable,
// in place, undoing PermuteEncode.
func PermuteDecode(data []byte) {
	for i, b := range data {
		data[i] = permuteInverseTable[b]
	}
}

// CyclicTransform applies the Cyclic block transform in place. The
// transform is its own inverse: calling it twice with the same starting
// key restores the original bytes, so the same function serves both
// encode and decode.
func CyclicTransform(data []byte, key uint32) {
	for i, b := range data {
		low := byte(key)
		high := byte(key >> 8)
		v := b + low
		v = permuteTable[v]
		v += high
		v = cyclicMixTable[v]
		v -= high
		v = permuteInverseTable[v]
		v -= low
		data[i] = v
		key++
	}
}

// Transform applies the block's declared crypt method in place. For
// CryptNone, data is left untouched.
func Transform(method CryptMethod, encode bool, data []byte, key uint32) {
	switch method {
	case CryptNone:
	case CryptPermute:
		if encode {
			PermuteEncode(data)
		} else {
			PermuteDecode(data)
		}
	case CryptCyclic:
		CyclicTransform(data, key)
	}
}
