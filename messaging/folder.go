package messaging

import (
	"fmt"

	"github.com/pstkit/pst/internal/ltp"
	"github.com/pstkit/pst/internal/ndb"
)

// Folder is the façade over a folder node's property context plus its
// three sibling table contexts (hierarchy, contents, associated
// contents), which share the folder NID's index but carry their own
// node-id types.
type Folder struct {
	store      *Store
	properties map[uint16]ltp.PropertyValue
	hierarchy  *ltp.TableContext
	contents   *ltp.TableContext
	associated *ltp.TableContext
}

// OpenFolder resolves entryID to a normal or search folder, validates it
// against the store's record key, and decodes its PC and three tables.
func (s *Store) OpenFolder(entryID EntryID) (*Folder, error) {
	switch entryID.NID.Type() {
	case ndb.NodeIDTypeNormalFolder, ndb.NodeIDTypeSearchFolder:
	default:
		return nil, fmt.Errorf("%w: nid type 0x%02x", ErrNotAFolder, entryID.NID.Type())
	}
	n, err := s.openNode(entryID)
	if err != nil {
		return nil, err
	}
	pc, err := n.PropertyContext(s.decodeString8)
	if err != nil {
		return nil, err
	}
	props, err := pc.All()
	if err != nil {
		return nil, err
	}

	hierarchy, err := s.openTable(entryID.NID.WithType(ndb.NodeIDTypeHierarchyTable))
	if err != nil {
		return nil, fmt.Errorf("hierarchy table: %w", err)
	}
	contents, err := s.openTable(entryID.NID.WithType(ndb.NodeIDTypeContentsTable))
	if err != nil {
		return nil, fmt.Errorf("contents table: %w", err)
	}
	associated, err := s.openTable(entryID.NID.WithType(ndb.NodeIDTypeAssociatedContentsTable))
	if err != nil {
		return nil, fmt.Errorf("associated contents table: %w", err)
	}

	return &Folder{
		store:      s,
		properties: props,
		hierarchy:  hierarchy,
		contents:   contents,
		associated: associated,
	}, nil
}

func (s *Store) openTable(nid ndb.NodeID) (*ltp.TableContext, error) {
	n, err := s.nodes.Open(nid)
	if err != nil {
		return nil, err
	}
	return n.TableContext(s.decodeString8)
}

// Store returns the folder's owning store.
func (f *Folder) Store() *Store { return f.store }

// Properties returns every property the folder's PC holds.
func (f *Folder) Properties() map[uint16]ltp.PropertyValue { return f.properties }

// DisplayName is PidTagDisplayName.
func (f *Folder) DisplayName() (string, error) {
	v, ok := f.properties[PidTagDisplayName]
	if !ok {
		return "", fmt.Errorf("%w: display name", ltp.ErrMissingProperty)
	}
	return stringProperty(v)
}

// ContentCount is PidTagContentCount.
func (f *Folder) ContentCount() (int32, error) {
	v, ok := f.properties[PidTagContentCount]
	if !ok {
		return 0, fmt.Errorf("%w: content count", ltp.ErrMissingProperty)
	}
	n, ok2 := v.Value.(int32)
	if !ok2 {
		return 0, fmt.Errorf("%w: content count", ltp.ErrWrongPropertyType)
	}
	return n, nil
}

// UnreadCount is PidTagContentUnreadCount.
func (f *Folder) UnreadCount() (int32, error) {
	v, ok := f.properties[PidTagContentUnreadCount]
	if !ok {
		return 0, fmt.Errorf("%w: unread count", ltp.ErrMissingProperty)
	}
	n, ok2 := v.Value.(int32)
	if !ok2 {
		return 0, fmt.Errorf("%w: unread count", ltp.ErrWrongPropertyType)
	}
	return n, nil
}

// HasSubfolders is PidTagSubfolders.
func (f *Folder) HasSubfolders() (bool, error) {
	v, ok := f.properties[PidTagSubfolders]
	if !ok {
		return false, fmt.Errorf("%w: has subfolders", ltp.ErrMissingProperty)
	}
	b, ok2 := v.Value.(bool)
	if !ok2 {
		return false, fmt.Errorf("%w: has subfolders", ltp.ErrWrongPropertyType)
	}
	return b, nil
}

// HierarchyTable lists this folder's subfolders.
func (f *Folder) HierarchyTable() *ltp.TableContext { return f.hierarchy }

// ContentsTable lists this folder's ordinary messages.
func (f *Folder) ContentsTable() *ltp.TableContext { return f.contents }

// AssociatedTable lists this folder's hidden/configuration messages.
func (f *Folder) AssociatedTable() *ltp.TableContext { return f.associated }
