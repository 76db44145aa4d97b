package ndb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// btPageHeader is the fixed 4-byte footer (cEnt, cEntMax, cbEnt, cLevel)
// at the end of every BTPAGE's 496-byte data region.
type btPageHeader struct {
	EntryCount    uint8
	MaxEntryCount uint8
	EntrySize     uint8
	Level         uint8
}

func readBTPageHeader(data []byte) btPageHeader {
	n := len(data)
	return btPageHeader{
		EntryCount:    data[n-4],
		MaxEntryCount: data[n-3],
		EntrySize:     data[n-2],
		Level:         data[n-1],
	}
}

// NodeBTreeEntry is a leaf record of the node B-tree: the node id, the
// BREF of its data block, the BREF of its sub-node block (zero if none),
// and its parent folder's NID (used by search folders).
type NodeBTreeEntry struct {
	NID       NodeID
	Data      BlockRef
	SubNode   BlockRef
	ParentNID NodeID
}

// BlockBTreeEntry is a leaf record of the block B-tree: a block's BREF,
// its encoded byte size, and its reference count.
type BlockBTreeEntry struct {
	Ref       BlockRef
	Size      uint16
	RefCount  uint16
}

// branchEntry is an internal BTENTRY: the lowest key reachable under
// child and the BREF of child.
type branchEntry struct {
	Key   uint64
	Child BlockRef
}

// FindNode walks the node B-tree rooted at root looking for nid,
// returning ErrBTreeEntryNotFound if absent.
func FindNode(r io.ReaderAt, d Dialect, root BlockRef, nid NodeID) (NodeBTreeEntry, error) {
	_, data, err := ReadPage(r, d, root)
	if err != nil {
		return NodeBTreeEntry{}, err
	}
	hdr := readBTPageHeader(data)
	if hdr.Level == 0 {
		entries, err := decodeNodeLeaves(d, data, hdr)
		if err != nil {
			return NodeBTreeEntry{}, err
		}
		for _, e := range entries {
			if e.NID == nid {
				return e, nil
			}
		}
		return NodeBTreeEntry{}, fmt.Errorf("%w: nid 0x%x", ErrBTreeEntryNotFound, nid)
	}

	branches, err := decodeBranches(d, data, hdr)
	if err != nil {
		return NodeBTreeEntry{}, err
	}
	child, ok := descend(branches, uint64(nid))
	if !ok {
		return NodeBTreeEntry{}, fmt.Errorf("%w: nid 0x%x", ErrBTreeEntryNotFound, nid)
	}
	return FindNode(r, d, child, nid)
}

// FindBlock walks the block B-tree rooted at root looking for bid.
func FindBlock(r io.ReaderAt, d Dialect, root BlockRef, bid BlockID) (BlockBTreeEntry, error) {
	_, data, err := ReadPage(r, d, root)
	if err != nil {
		return BlockBTreeEntry{}, err
	}
	hdr := readBTPageHeader(data)
	if hdr.Level == 0 {
		entries, err := decodeBlockLeaves(d, data, hdr)
		if err != nil {
			return BlockBTreeEntry{}, err
		}
		for _, e := range entries {
			if e.Ref.Block == bid {
				return e, nil
			}
		}
		return BlockBTreeEntry{}, fmt.Errorf("%w: bid 0x%x", ErrBTreeEntryNotFound, bid)
	}

	branches, err := decodeBranches(d, data, hdr)
	if err != nil {
		return BlockBTreeEntry{}, err
	}
	child, ok := descend(branches, uint64(bid))
	if !ok {
		return BlockBTreeEntry{}, fmt.Errorf("%w: bid 0x%x", ErrBTreeEntryNotFound, bid)
	}
	return FindBlock(r, d, child, bid)
}

// descend picks the last branch whose key is <= target, the standard
// B-tree descent rule for these "lowest key under this child" indexes.
func descend(branches []branchEntry, target uint64) (BlockRef, bool) {
	var best *branchEntry
	for i := range branches {
		if branches[i].Key <= target {
			best = &branches[i]
		}
	}
	if best == nil {
		return BlockRef{}, false
	}
	return best.Child, true
}

func decodeBranches(d Dialect, data []byte, hdr btPageHeader) ([]branchEntry, error) {
	entrySize := int(hdr.EntrySize)
	out := make([]branchEntry, 0, hdr.EntryCount)
	for i := 0; i < int(hdr.EntryCount); i++ {
		off := i * entrySize
		if off+entrySize > len(data) {
			break
		}
		r := bytes.NewReader(data[off : off+entrySize])
		keyBuf := make([]byte, d.BIDSize())
		if _, err := io.ReadFull(r, keyBuf); err != nil {
			return nil, err
		}
		key := widenLE(keyBuf)
		child, err := d.ReadBREF(r)
		if err != nil {
			return nil, err
		}
		out = append(out, branchEntry{Key: key, Child: child})
	}
	return out, nil
}

func decodeNodeLeaves(d Dialect, data []byte, hdr btPageHeader) ([]NodeBTreeEntry, error) {
	entrySize := int(hdr.EntrySize)
	out := make([]NodeBTreeEntry, 0, hdr.EntryCount)
	for i := 0; i < int(hdr.EntryCount); i++ {
		off := i * entrySize
		if off+entrySize > len(data) {
			break
		}
		r := bytes.NewReader(data[off : off+entrySize])
		nid, err := d.ReadNID(r)
		if err != nil {
			return nil, err
		}
		dataRef, err := d.ReadBREF(r)
		if err != nil {
			return nil, err
		}
		subRef, err := d.ReadBREF(r)
		if err != nil {
			return nil, err
		}
		parent, err := d.ReadNID(r)
		if err != nil {
			return nil, err
		}
		out = append(out, NodeBTreeEntry{NID: nid, Data: dataRef, SubNode: subRef, ParentNID: parent})
	}
	return out, nil
}

func decodeBlockLeaves(d Dialect, data []byte, hdr btPageHeader) ([]BlockBTreeEntry, error) {
	entrySize := int(hdr.EntrySize)
	out := make([]BlockBTreeEntry, 0, hdr.EntryCount)
	for i := 0; i < int(hdr.EntryCount); i++ {
		off := i * entrySize
		if off+entrySize > len(data) {
			break
		}
		r := bytes.NewReader(data[off : off+entrySize])
		ref, err := d.ReadBREF(r)
		if err != nil {
			return nil, err
		}
		var size, refCount uint16
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &refCount); err != nil {
			return nil, err
		}
		out = append(out, BlockBTreeEntry{Ref: ref, Size: size, RefCount: refCount})
	}
	return out, nil
}

func widenLE(b []byte) uint64 {
	var v uint64
	for i, x := range b {
		v |= uint64(x) << (8 * i)
	}
	return v
}
