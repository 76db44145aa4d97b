// Package ndb implements the Node Database layer of a PST file: the
// header and root, the 512-byte paged storage, the node and block
// B-trees, block decryption, and data-tree/sub-node-tree reassembly.
package ndb

import "fmt"

// NodeIDType identifies the kind of object a NID names. It occupies the
// low 5 bits of a NodeID.
type NodeIDType uint8

// Node id type constants, from the fixed nidType enumeration.
const (
	NodeIDTypeHeapNode                NodeIDType = 0x00
	NodeIDTypeInternal                NodeIDType = 0x01
	NodeIDTypeNormalFolder            NodeIDType = 0x02
	NodeIDTypeSearchFolder            NodeIDType = 0x03
	NodeIDTypeNormalMessage           NodeIDType = 0x04
	NodeIDTypeAttachment              NodeIDType = 0x05
	NodeIDTypeSearchUpdateQueue       NodeIDType = 0x06
	NodeIDTypeSearchCriteria          NodeIDType = 0x07
	NodeIDTypeAssociatedMessage       NodeIDType = 0x08
	NodeIDTypeContentsTableIndex      NodeIDType = 0x0A
	NodeIDTypeReceiveFolderTable      NodeIDType = 0x0B
	NodeIDTypeOutgoingQueueTable      NodeIDType = 0x0C
	NodeIDTypeHierarchyTable          NodeIDType = 0x0D
	NodeIDTypeContentsTable           NodeIDType = 0x0E
	NodeIDTypeAssociatedContentsTable NodeIDType = 0x0F
	NodeIDTypeSearchContentsTable     NodeIDType = 0x10
	NodeIDTypeAttachmentTable         NodeIDType = 0x11
	NodeIDTypeRecipientTable          NodeIDType = 0x12
	NodeIDTypeSearchTableIndex        NodeIDType = 0x13
	NodeIDTypeListsTablesProperties   NodeIDType = 0x1F
)

// MaxNodeIndex is the largest index a 27-bit NID index field can hold.
const MaxNodeIndex uint32 = 1<<27 - 1

// NodeID identifies a node in the node B-tree: a 5-bit type tag packed
// with a 27-bit index, stored little-endian as a u32.
type NodeID uint32

// NewNodeID packs idType and index into a NodeID, returning
// ErrInvalidNodeIndex if index does not fit in 27 bits.
func NewNodeID(idType NodeIDType, index uint32) (NodeID, error) {
	if index > MaxNodeIndex {
		return 0, fmt.Errorf("%w: %d", ErrInvalidNodeIndex, index)
	}
	return NodeID(uint32(idType)&0x1F | index<<5), nil
}

// Type returns the node id type.
func (n NodeID) Type() NodeIDType { return NodeIDType(n & 0x1F) }

// Index returns the 27-bit node index.
func (n NodeID) Index() uint32 { return uint32(n) >> 5 }

// WithType returns the NID sharing this one's index but a different
// type, the relationship a folder's hierarchy/contents/associated
// tables and a message's recipient/attachment tables have with their
// owning object's NID.
func (n NodeID) WithType(t NodeIDType) NodeID {
	id, _ := NewNodeID(t, n.Index())
	return id
}

func (n NodeID) String() string {
	return fmt.Sprintf("NID(type=0x%02x, index=0x%x)", n.Type(), n.Index())
}

// Well-known fixed node ids, valid in every PST file regardless of
// dialect. Values are the raw packed NID, not type+index pairs — several
// of these predate the type enumeration they nominally carry.
const (
	NIDMessageStore              NodeID = 0x21
	NIDNameToIDMap               NodeID = 0x61
	NIDNormalFolderTemplate      NodeID = 0xA1
	NIDSearchFolderTemplate      NodeID = 0xC1
	NIDRootFolder                NodeID = 0x122
	NIDSearchManagementQueue     NodeID = 0x1E1
	NIDSearchActivityList        NodeID = 0x201
	NIDReserved1                 NodeID = 0x241
	NIDSearchDomainObject        NodeID = 0x261
	NIDSearchGathererQueue       NodeID = 0x281
	NIDSearchGathererDescriptor  NodeID = 0x2A1
	NIDReserved2                 NodeID = 0x2E1
	NIDReserved3                 NodeID = 0x301
	NIDSearchGathererFolderQueue NodeID = 0x321
)
