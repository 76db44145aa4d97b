package messaging

import (
	"encoding/binary"
	"fmt"

	"github.com/dolthub/maphash"
	"github.com/google/uuid"

	"github.com/pstkit/pst/internal/ltp"
	"github.com/pstkit/pst/internal/ndb"
	"github.com/pstkit/pst/internal/node"
)

// Well-known property-set GUIDs referenced by a named-property entry's
// low-order wGuidIndex values 0 and 1, which never appear literally in
// the GUID stream.
var (
	psMapi          = uuid.MustParse("00020328-0000-0000-C000-000000000046")
	psPublicStrings = uuid.MustParse("00020329-0000-0000-C000-000000000046")
)

// NamedPropertyKey identifies a named property: a property-set GUID plus
// either a numeric id (Name == "") or a Unicode name.
type NamedPropertyKey struct {
	GUID uuid.UUID
	ID   uint32
	Name string
}

type namedPropertyEntry struct {
	key    NamedPropertyKey
	propID uint16
}

// NamedPropertyMap resolves named properties (the GUID/entry/string
// streams stored under ndb.NIDNameToIDMap) to their runtime 16-bit
// property ids (0x8000-0xFFFE) and back.
type NamedPropertyMap struct {
	hasher   maphash.Hasher[NamedPropertyKey]
	byKey    map[uint64][]namedPropertyEntry
	byPropID map[uint16]NamedPropertyKey
}

// OpenNamedPropertyMap decodes the store-wide named property index.
func OpenNamedPropertyMap(store *node.Store, decodeString8 ltp.CodePageDecoder) (*NamedPropertyMap, error) {
	n, err := store.Open(ndb.NIDNameToIDMap)
	if err != nil {
		return nil, err
	}
	pc, err := n.PropertyContext(decodeString8)
	if err != nil {
		return nil, err
	}

	guidStream, err := propBytes(pc, 0x0002)
	if err != nil {
		return nil, err
	}
	entryStream, err := propBytes(pc, 0x0003)
	if err != nil {
		return nil, err
	}
	stringStream, err := propBytes(pc, 0x0004)
	if err != nil {
		return nil, err
	}

	guids := make([]uuid.UUID, len(guidStream)/16)
	for i := range guids {
		g, err := uuid.FromBytes(reorderGUID(guidStream[i*16 : i*16+16]))
		if err != nil {
			return nil, fmt.Errorf("%w: guid stream: %v", ErrCorruptNamedPropertyMap, err)
		}
		guids[i] = g
	}

	m := &NamedPropertyMap{
		hasher:   maphash.NewHasher[NamedPropertyKey](),
		byKey:    make(map[uint64][]namedPropertyEntry),
		byPropID: make(map[uint16]NamedPropertyKey),
	}

	const entrySize = 8
	for off := 0; off+entrySize <= len(entryStream); off += entrySize {
		rec := entryStream[off : off+entrySize]
		dwID := binary.LittleEndian.Uint32(rec[0:4])
		wGuid := binary.LittleEndian.Uint16(rec[4:6])
		wPropIdx := binary.LittleEndian.Uint16(rec[6:8])
		isString := wGuid&0x1 != 0
		guidIndex := wGuid >> 1

		var g uuid.UUID
		switch guidIndex {
		case 0:
			g = psMapi
		case 1:
			g = psPublicStrings
		default:
			idx := int(guidIndex) - 2
			if idx < 0 || idx >= len(guids) {
				return nil, fmt.Errorf("%w: guid index %d", ErrCorruptNamedPropertyMap, guidIndex)
			}
			g = guids[idx]
		}

		propID := uint16(0x8000) + wPropIdx
		key := NamedPropertyKey{GUID: g}
		if isString {
			name, err := readNameString(stringStream, dwID)
			if err != nil {
				return nil, err
			}
			key.Name = name
		} else {
			key.ID = dwID
		}

		m.add(key, propID)
	}

	return m, nil
}

func (m *NamedPropertyMap) add(key NamedPropertyKey, propID uint16) {
	h := m.hasher.Hash(key)
	m.byKey[h] = append(m.byKey[h], namedPropertyEntry{key: key, propID: propID})
	m.byPropID[propID] = key
}

// Resolve returns the runtime property id registered for key.
func (m *NamedPropertyMap) Resolve(key NamedPropertyKey) (uint16, error) {
	h := m.hasher.Hash(key)
	for _, e := range m.byKey[h] {
		if e.key == key {
			return e.propID, nil
		}
	}
	return 0, fmt.Errorf("%w: %+v", ErrNamedPropertyNotFound, key)
}

// Name returns the named-property key registered for a runtime property
// id (only ids in the named-property range, 0x8000-0xFFFE, resolve).
func (m *NamedPropertyMap) Name(propID uint16) (NamedPropertyKey, error) {
	key, ok := m.byPropID[propID]
	if !ok {
		return NamedPropertyKey{}, fmt.Errorf("%w: id 0x%04x", ErrNamedPropertyNotFound, propID)
	}
	return key, nil
}

func readNameString(stream []byte, offset uint32) (string, error) {
	if int(offset)+4 > len(stream) {
		return "", fmt.Errorf("%w: string offset %d", ErrCorruptNamedPropertyMap, offset)
	}
	length := binary.LittleEndian.Uint32(stream[offset : offset+4])
	start := int(offset) + 4
	end := start + int(length)
	if end > len(stream) {
		return "", fmt.Errorf("%w: string length %d", ErrCorruptNamedPropertyMap, length)
	}
	return decodeUTF16LEString(stream[start:end]), nil
}

func propBytes(pc *ltp.PropertyContext, id uint16) ([]byte, error) {
	v, err := pc.Get(id)
	if err != nil {
		return nil, err
	}
	b, ok := v.Value.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: property 0x%04x is not binary", ErrCorruptNamedPropertyMap, id)
	}
	return b, nil
}
