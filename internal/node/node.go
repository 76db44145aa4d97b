// Package node glues the ndb and ltp layers together: given a node id it
// reassembles that node's data tree and sub-node tree, and hands back a
// Heap plus a resolver for properties that indirect through the
// sub-node tree rather than the heap.
package node

import (
	"fmt"
	"io"

	"github.com/pstkit/pst/internal/ltp"
	"github.com/pstkit/pst/internal/ndb"
)

// Store opens nodes against one PST file's node and block B-trees.
type Store struct {
	r      io.ReaderAt
	header *ndb.Header
}

// NewStore returns a Store reading against r using header's B-tree roots
// and crypt method.
func NewStore(r io.ReaderAt, header *ndb.Header) *Store {
	return &Store{r: r, header: header}
}

// Node is one opened node: its B-tree entry, its reassembled data, and
// (lazily walked) sub-node list.
type Node struct {
	store    *Store
	Entry    ndb.NodeBTreeEntry
	Data     []byte
	bounds   []int
	subNodes []ndb.SubNodeEntry
}

// Open reads nid's B-tree entry, data tree and sub-node tree.
func (s *Store) Open(nid ndb.NodeID) (*Node, error) {
	entry, err := ndb.FindNode(s.r, s.header.Dialect, s.header.Root.NodeBTree, nid)
	if err != nil {
		return nil, err
	}
	return s.openEntry(entry)
}

func (s *Store) openEntry(entry ndb.NodeBTreeEntry) (*Node, error) {
	var size uint16
	if entry.Data.Block != 0 {
		blkEntry, err := ndb.FindBlock(s.r, s.header.Dialect, s.header.Root.BlockBTree, entry.Data.Block)
		if err != nil {
			return nil, err
		}
		size = blkEntry.Size
	}

	data, bounds, err := ndb.ReadDataTreeBoundaries(s.r, s.header, entry, size)
	if err != nil {
		return nil, err
	}

	subNodes, err := ndb.ReadSubNodeTree(s.r, s.header, entry.SubNode)
	if err != nil {
		return nil, err
	}

	return &Node{store: s, Entry: entry, Data: data, bounds: bounds, subNodes: subNodes}, nil
}

// Heap opens this node's data as a Heap-on-Node.
func (n *Node) Heap() (*ltp.Heap, error) {
	return ltp.OpenHeap(n.Data, n.bounds)
}

// SubNode opens one of this node's sub-nodes by its sub-node NID,
// descending into its own data tree and (recursively reachable) sub-node
// tree.
func (n *Node) SubNode(nid ndb.NodeID) (*Node, error) {
	for _, sn := range n.subNodes {
		if sn.NID == nid {
			entry := ndb.NodeBTreeEntry{NID: sn.NID, Data: sn.Data, SubNode: sn.SubNode}
			return n.store.openEntry(entry)
		}
	}
	return nil, fmt.Errorf("%w: sub-node nid 0x%x", ndb.ErrBTreeEntryNotFound, nid)
}

// ResolveSubNode implements the ltp resolver signature property and
// table contexts use to fetch a value that indirects through the node's
// sub-node tree: ref's low 5 bits pack a NodeIDType, the rest a 27-bit
// sub-node index.
func (n *Node) ResolveSubNode(ref uint32) ([]byte, error) {
	nid := ndb.NodeID(ref)
	sn, err := n.SubNode(nid)
	if err != nil {
		return nil, err
	}
	return sn.Data, nil
}

// PropertyContext opens this node's data as a Property Context.
func (n *Node) PropertyContext(decodeString8 ltp.CodePageDecoder) (*ltp.PropertyContext, error) {
	heap, err := n.Heap()
	if err != nil {
		return nil, err
	}
	rootID, err := heap.RootID()
	if err != nil {
		return nil, err
	}
	return ltp.OpenPropertyContext(heap, rootID, decodeString8, n.ResolveSubNode)
}

// TableContext opens this node's data as a Table Context.
func (n *Node) TableContext(decodeString8 ltp.CodePageDecoder) (*ltp.TableContext, error) {
	heap, err := n.Heap()
	if err != nil {
		return nil, err
	}
	rootID, err := heap.RootID()
	if err != nil {
		return nil, err
	}
	return ltp.OpenTableContext(heap, rootID, decodeString8, n.ResolveSubNode)
}
