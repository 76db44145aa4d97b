package messaging

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/pstkit/pst/internal/ltp"
	"github.com/pstkit/pst/internal/ndb"
	"github.com/pstkit/pst/internal/node"
)

// Store is the message store façade: the root PC rooted at
// ndb.NIDMessageStore, whose properties locate the IPM subtree, the
// wastebasket and the search-results "finder" folder, plus a record key
// every EntryID this store hands out is stamped with.
type Store struct {
	nodes         *node.Store
	decodeString8 ltp.CodePageDecoder
	properties    map[uint16]ltp.PropertyValue
	namedProps    *NamedPropertyMap
}

// OpenStore decodes the message store's property context.
func OpenStore(nodes *node.Store, decodeString8 ltp.CodePageDecoder) (*Store, error) {
	n, err := nodes.Open(ndb.NIDMessageStore)
	if err != nil {
		return nil, fmt.Errorf("open store node: %w", err)
	}
	pc, err := n.PropertyContext(decodeString8)
	if err != nil {
		return nil, fmt.Errorf("store property context: %w", err)
	}
	props, err := pc.All()
	if err != nil {
		return nil, err
	}
	return &Store{nodes: nodes, decodeString8: decodeString8, properties: props}, nil
}

// Properties returns every property the store's PC holds, keyed by
// property id.
func (s *Store) Properties() map[uint16]ltp.PropertyValue { return s.properties }

// Get returns one property by id, or ErrMissingProperty via ltp.
func (s *Store) Get(id uint16) (ltp.PropertyValue, error) {
	v, ok := s.properties[id]
	if !ok {
		return ltp.PropertyValue{}, fmt.Errorf("%w: id 0x%04x", ltp.ErrMissingProperty, id)
	}
	return v, nil
}

func stringProperty(v ltp.PropertyValue) (string, error) {
	switch s := v.Value.(type) {
	case string:
		return s, nil
	default:
		return "", fmt.Errorf("%w: expected string, got %T", ltp.ErrWrongPropertyType, s)
	}
}

func binaryProperty(v ltp.PropertyValue) ([]byte, error) {
	b, ok := v.Value.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: expected binary, got %T", ltp.ErrWrongPropertyType, v.Value)
	}
	return b, nil
}

// DisplayName is the store's PidTagDisplayName.
func (s *Store) DisplayName() (string, error) {
	v, err := s.Get(PidTagDisplayName)
	if err != nil {
		return "", err
	}
	return stringProperty(v)
}

// RecordKey is the store's PidTagRecordKey: every EntryID this store
// hands out (folder and message alike) carries this value as its
// provider UID, and OpenFolder/OpenMessage check incoming EntryIDs
// against it before dereferencing their NID.
func (s *Store) RecordKey() ([]byte, error) {
	v, err := s.Get(PidTagRecordKey)
	if err != nil {
		return nil, err
	}
	return binaryProperty(v)
}

// MatchesRecordKey reports whether id's provider UID matches this
// store's record key.
func (s *Store) MatchesRecordKey(id EntryID) (bool, error) {
	key, err := s.RecordKey()
	if err != nil {
		return false, err
	}
	guidBytes, err := id.ProviderUID.MarshalBinary()
	if err != nil {
		return false, err
	}
	if len(key) != 16 {
		return false, nil
	}
	want := reorderGUID(guidBytes)
	for i := range want {
		if want[i] != key[i] {
			return false, nil
		}
	}
	return true, nil
}

func (s *Store) entryIDProperty(id uint16) (EntryID, error) {
	v, err := s.Get(id)
	if err != nil {
		return EntryID{}, err
	}
	b, err := binaryProperty(v)
	if err != nil {
		return EntryID{}, err
	}
	return ParseEntryID(b)
}

// IPMSubTreeEntryID is the EntryID of the visible folder hierarchy's
// root, PidTagIpmSubTreeEntryID.
func (s *Store) IPMSubTreeEntryID() (EntryID, error) {
	return s.entryIDProperty(PidTagIpmSubTreeEntryID)
}

// WastebasketEntryID is the EntryID of the Deleted Items folder.
func (s *Store) WastebasketEntryID() (EntryID, error) {
	return s.entryIDProperty(PidTagIpmWastebasketEntryID)
}

// FinderEntryID is the EntryID of the search-results folder.
func (s *Store) FinderEntryID() (EntryID, error) {
	return s.entryIDProperty(PidTagFinderEntryID)
}

// NamedPropertyMap lazily decodes and caches the store-wide named
// property index.
func (s *Store) NamedPropertyMap() (*NamedPropertyMap, error) {
	if s.namedProps != nil {
		return s.namedProps, nil
	}
	m, err := OpenNamedPropertyMap(s.nodes, s.decodeString8)
	if err != nil {
		return nil, err
	}
	s.namedProps = m
	return m, nil
}

// EntryIDFor builds the EntryID a folder or message nid would be handed
// out under by this store: the store's own record key as provider UID,
// paired with nid. Hierarchy and contents table rows only carry the bare
// NID (PtrRowID); a caller walking those tables uses this to turn a row
// into something OpenFolder/OpenMessage accepts.
func (s *Store) EntryIDFor(nid ndb.NodeID) (EntryID, error) {
	key, err := s.RecordKey()
	if err != nil {
		return EntryID{}, err
	}
	if len(key) != 16 {
		return EntryID{}, fmt.Errorf("%w: record key is %d bytes", ErrInvalidEntryID, len(key))
	}
	id, err := uuid.FromBytes(reorderGUID(key))
	if err != nil {
		return EntryID{}, fmt.Errorf("%w: record key: %v", ErrInvalidEntryID, err)
	}
	return EntryID{ProviderUID: id, NID: nid}, nil
}

// SearchUpdateQueue decodes the store-wide search-update queue.
func (s *Store) SearchUpdateQueue() (*SearchUpdateQueue, error) {
	return OpenSearchUpdateQueue(s.nodes)
}

// openNode resolves entryID through this store's node store after
// confirming it belongs here.
func (s *Store) openNode(id EntryID) (*node.Node, error) {
	ok, err := s.MatchesRecordKey(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrEntryIDWrongStore
	}
	return s.nodes.Open(id.NID)
}
