package ltp

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
	"unicode/utf16"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"
)

// PropertyType is the ptype half of a property tag: what shape of value
// a PropertyValue holds.
type PropertyType uint16

// The property types this module knows: 15 scalar MAPI types, 12
// multi-valued (MV) counterparts, and PtServerID/PtRestriction, which
// decode as raw bytes.
const (
	PtInteger16      PropertyType = 0x0002
	PtInteger32      PropertyType = 0x0003
	PtFloating32     PropertyType = 0x0004
	PtFloating64     PropertyType = 0x0005
	PtCurrency       PropertyType = 0x0006
	PtFloatingTime   PropertyType = 0x0007
	PtErrorCode      PropertyType = 0x000A
	PtBoolean        PropertyType = 0x000B
	PtObject         PropertyType = 0x000D
	PtInteger64      PropertyType = 0x0014
	PtString8        PropertyType = 0x001E
	PtString         PropertyType = 0x001F
	PtTime           PropertyType = 0x0040
	PtGUID           PropertyType = 0x0048
	PtBinary         PropertyType = 0x0102

	PtMultiInteger16    PropertyType = 0x1002
	PtMultiInteger32    PropertyType = 0x1003
	PtMultiFloating32   PropertyType = 0x1004
	PtMultiFloating64   PropertyType = 0x1005
	PtMultiCurrency     PropertyType = 0x1006
	PtMultiFloatingTime PropertyType = 0x1007
	PtMultiInteger64    PropertyType = 0x1014
	PtMultiString8      PropertyType = 0x101E
	PtMultiString       PropertyType = 0x101F
	PtMultiTime         PropertyType = 0x1040
	PtMultiGUID         PropertyType = 0x1048
	PtMultiBinary       PropertyType = 0x1102

	PtServerID    PropertyType = 0x00FB
	PtRestriction PropertyType = 0x00FD
)

// IsMultiValued reports whether t is one of the MV_ variants (bit 0x1000
// set).
func (t PropertyType) IsMultiValued() bool { return t&0x1000 != 0 }

// PropertyValue is a decoded MAPI property: a type tag plus a Go value
// of the shape that type implies (int16/int32/float32/float64/int64 for
// the numeric scalars, bool, ObjectRef, []byte for binary, string for
// string8 and unicode strings, time.Time, uuid.UUID, or a []any of the
// scalar form for the fixed-width MultiX variants). The variable-width
// MultiString8, MultiString and MultiBinary are not decoded: DecodeScalar
// returns ErrUnsupportedPropertyType for them.
type PropertyValue struct {
	Type  PropertyType
	Value any
}

// ObjectRef is the decoded value of a PtObject property: the heap
// resolves to an (NID, ulSize) pair naming another node whose data tree
// holds the property's actual payload (an embedded message, or the raw
// bytes of a by-reference attachment's storage).
type ObjectRef struct {
	NID  uint32
	Size uint32
}

// CodePageDecoder decodes an 8-bit ANSI string into Go's native UTF-8,
// the extension point mentioned by the format's ANSI dialect. The
// default is Windows-1252, the code page Outlook itself defaults to.
type CodePageDecoder func(raw []byte) (string, error)

// DefaultCodePageDecoder decodes raw as Windows-1252.
func DefaultCodePageDecoder(raw []byte) (string, error) {
	out, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("codepage decode: %w", err)
	}
	return string(out), nil
}

// DecodeScalar decodes raw bytes of the given PropertyType into a
// PropertyValue. decodeString8 is consulted for PtString8 (and inside
// PtMultiString8) payloads; pass nil to use DefaultCodePageDecoder.
func DecodeScalar(t PropertyType, raw []byte, decodeString8 CodePageDecoder) (PropertyValue, error) {
	if decodeString8 == nil {
		decodeString8 = DefaultCodePageDecoder
	}
	if t.IsMultiValued() {
		return decodeMulti(t, raw, decodeString8)
	}

	switch t {
	case PtInteger16:
		return PropertyValue{t, int16(binary.LittleEndian.Uint16(raw))}, nil
	case PtInteger32, PtErrorCode:
		return PropertyValue{t, int32(binary.LittleEndian.Uint32(raw))}, nil
	case PtObject:
		ref := ObjectRef{NID: binary.LittleEndian.Uint32(raw)}
		if len(raw) >= 8 {
			ref.Size = binary.LittleEndian.Uint32(raw[4:8])
		}
		return PropertyValue{t, ref}, nil
	case PtFloating32:
		return PropertyValue{t, float32FromBits(binary.LittleEndian.Uint32(raw))}, nil
	case PtFloating64, PtFloatingTime:
		return PropertyValue{t, float64FromBits(binary.LittleEndian.Uint64(raw))}, nil
	case PtCurrency, PtInteger64:
		return PropertyValue{t, int64(binary.LittleEndian.Uint64(raw))}, nil
	case PtBoolean:
		return PropertyValue{t, raw[0] != 0}, nil
	case PtString8:
		s, err := decodeString8(raw)
		if err != nil {
			return PropertyValue{}, err
		}
		return PropertyValue{t, s}, nil
	case PtString:
		return PropertyValue{t, decodeUTF16LE(raw)}, nil
	case PtTime:
		return PropertyValue{t, filetimeToTime(binary.LittleEndian.Uint64(raw))}, nil
	case PtGUID:
		id, err := uuid.FromBytes(reorderGUID(raw))
		if err != nil {
			return PropertyValue{}, fmt.Errorf("guid property: %w", err)
		}
		return PropertyValue{t, id}, nil
	case PtBinary, PtServerID, PtRestriction:
		return PropertyValue{t, append([]byte(nil), raw...)}, nil
	default:
		return PropertyValue{}, fmt.Errorf("%w: 0x%04x", ErrUnsupportedPropertyType, t)
	}
}

func decodeMulti(t PropertyType, raw []byte, decodeString8 CodePageDecoder) (PropertyValue, error) {
	scalar := t &^ 0x1000
	count := binary.LittleEndian.Uint32(raw)
	values := make([]any, 0, count)

	// Variable-width element types (strings, binary, guid-sized runs)
	// are framed as an offset table followed by the elements; fixed-
	// width scalar types are framed as a flat packed array. We only need
	// the fixed-width layout for the scalar numeric types actually
	// produced by this decoder's call sites (property context values).
	elemSize, fixed := fixedElementSize(scalar)
	if !fixed {
		return PropertyValue{}, fmt.Errorf("%w: variable-width multi-value 0x%04x", ErrUnsupportedPropertyType, t)
	}
	body := raw[4:]
	for i := uint32(0); i < count; i++ {
		off := i * uint32(elemSize)
		if off+uint32(elemSize) > uint32(len(body)) {
			break
		}
		elem, err := DecodeScalar(scalar, body[off:off+uint32(elemSize)], decodeString8)
		if err != nil {
			return PropertyValue{}, err
		}
		values = append(values, elem.Value)
	}
	return PropertyValue{t, values}, nil
}

func fixedElementSize(t PropertyType) (int, bool) {
	switch t {
	case PtInteger16:
		return 2, true
	case PtInteger32, PtFloating32, PtErrorCode, PtObject:
		return 4, true
	case PtFloating64, PtCurrency, PtFloatingTime, PtInteger64, PtTime:
		return 8, true
	case PtGUID:
		return 16, true
	default:
		return 0, false
	}
}

func float32FromBits(b uint32) float32 {
	return math.Float32frombits(b)
}

func float64FromBits(b uint64) float64 {
	return math.Float64frombits(b)
}

func decodeUTF16LE(raw []byte) string {
	u16 := make([]uint16, len(raw)/2)
	for i := range u16 {
		u16[i] = binary.LittleEndian.Uint16(raw[i*2 : i*2+2])
	}
	return string(utf16.Decode(u16))
}

// filetimeEpochOffset is the number of 100ns intervals between the FILETIME
// epoch (1601-01-01) and the Unix epoch (1970-01-01).
const filetimeEpochOffset = 116444736000000000

func filetimeToTime(ft uint64) time.Time {
	unix100ns := int64(ft) - filetimeEpochOffset
	return time.Unix(0, unix100ns*100).UTC()
}

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
