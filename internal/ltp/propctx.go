package ltp

import (
	"encoding/binary"
	"fmt"
)

// PropertyTag is the 32-bit (propID<<16 | propType) key identifying one
// property slot.
type PropertyTag uint32

// NewPropertyTag packs a property id and type into a tag.
func NewPropertyTag(id uint16, t PropertyType) PropertyTag {
	return PropertyTag(uint32(id)<<16 | uint32(t))
}

// ID returns the 16-bit property id half of the tag.
func (t PropertyTag) ID() uint16 { return uint16(t >> 16) }

// Type returns the property-type half of the tag.
func (t PropertyTag) Type() PropertyType { return PropertyType(t) }

// pcRecord is the fixed 8-byte PC leaf value: the property's own type
// (the only place the type is stored when the BTH key is the 2-byte
// property id), and either the literal value (if it fits in 4 bytes) or a heap id /
// sub-node reference to the out-of-line payload.
type pcRecord struct {
	Type      PropertyType
	ValueOrID uint32
}

// PropertyContext decodes a node's Property Context: a BTH of property
// tags to either inline values or heap-id/sub-node references to
// out-of-line values (strings, binary, multi-value arrays).
type PropertyContext struct {
	bth           *BTH
	heap          *Heap
	decodeString8 CodePageDecoder
	resolveNID    func(nid uint32) ([]byte, error)
}

// OpenPropertyContext parses the PC rooted at heap's BTH. resolveNID
// resolves a property's sub-node reference (when its value indirects
// through the node's sub-node tree rather than the heap) to raw bytes;
// pass nil if the node has no sub-node tree.
func OpenPropertyContext(heap *Heap, bthRoot HeapID, decodeString8 CodePageDecoder, resolveNID func(uint32) ([]byte, error)) (*PropertyContext, error) {
	bth, err := OpenBTH(heap, bthRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPropContext, err)
	}
	return &PropertyContext{bth: bth, heap: heap, decodeString8: decodeString8, resolveNID: resolveNID}, nil
}

// Get decodes the value stored for id, returning ErrMissingProperty if
// absent.
func (pc *PropertyContext) Get(id uint16) (PropertyValue, error) {
	entries, err := pc.bth.All()
	if err != nil {
		return PropertyValue{}, err
	}
	for _, e := range entries {
		tag := pc.tagOf(e)
		if tag.ID() != id {
			continue
		}
		return pc.decode(tag, e.Value)
	}
	return PropertyValue{}, fmt.Errorf("%w: id 0x%04x", ErrMissingProperty, id)
}

// All decodes every property this context holds.
func (pc *PropertyContext) All() (map[uint16]PropertyValue, error) {
	entries, err := pc.bth.All()
	if err != nil {
		return nil, err
	}
	out := make(map[uint16]PropertyValue, len(entries))
	for _, e := range entries {
		tag := pc.tagOf(e)
		v, err := pc.decode(tag, e.Value)
		if err != nil {
			return nil, err
		}
		out[tag.ID()] = v
	}
	return out, nil
}

// tagOf rebuilds the property tag of one BTH entry. A 2-byte key holds
// only the property id, with the property type in the first two bytes
// of the value; a 4-byte key is the packed tag itself.
func (pc *PropertyContext) tagOf(e BTHEntry) PropertyTag {
	if pc.bth.header.KeySize == 2 && len(e.Value) >= 2 {
		return NewPropertyTag(uint16(e.Key), PropertyType(binary.LittleEndian.Uint16(e.Value[0:2])))
	}
	return PropertyTag(e.Key)
}

func (pc *PropertyContext) decode(tag PropertyTag, raw []byte) (PropertyValue, error) {
	if len(raw) < 4 {
		return PropertyValue{}, fmt.Errorf("%w: short pc record", ErrCorruptPropContext)
	}
	valueOrID := binary.LittleEndian.Uint32(raw[len(raw)-4:])
	t := tag.Type()

	if fitsInline(t) {
		return DecodeScalar(t, raw[len(raw)-4:], pc.decodeString8)
	}

	payload, err := pc.resolveIndirect(valueOrID)
	if err != nil {
		return PropertyValue{}, err
	}
	return DecodeScalar(t, payload, pc.decodeString8)
}

// fitsInline reports whether t's 4-byte PC/TC value field holds the
// datum itself rather than a heap-id/sub-node reference to an
// out-of-line payload. Object is a *fixed-wide heap scalar*: its value
// field is always a heap id pointing at an (NID, size) pair, never the
// literal value, so it is deliberately absent from this list.
func fitsInline(t PropertyType) bool {
	switch t {
	case PtInteger16, PtInteger32, PtFloating32, PtErrorCode, PtBoolean:
		return true
	default:
		return false
	}
}

// resolveIndirect follows a PC value reference: if its low 5 bits are
// zero it's a HeapID into this node's own heap, otherwise it's a NID
// into the node's sub-node tree.
func (pc *PropertyContext) resolveIndirect(ref uint32) ([]byte, error) {
	if ref&0x1F == 0 {
		return pc.heap.Get(HeapID(ref))
	}
	if pc.resolveNID == nil {
		return nil, fmt.Errorf("%w: sub-node reference but no resolver", ErrCorruptPropContext)
	}
	return pc.resolveNID(ref)
}
