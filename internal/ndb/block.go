package ndb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	set3 "github.com/TomTonic/Set3"

	"github.com/pstkit/pst/internal/crc"
	"github.com/pstkit/pst/internal/utils"
)

const (
	blockTypeData      = 0x01 // XBLOCK/XXBLOCK marker (cLevel>0 for XXBLOCK)
	blockTypeSubNode   = 0x02 // SLBLOCK/SIBLOCK marker
)

// ReadRawBlock reads the block named by ref, validates its trailer
// (signature and CRC against the declared size) and returns the decoded
// payload with the header's crypt method reversed. size is the
// BBTENTRY's declared cb (encoded byte length, excluding padding to the
// next 64-byte boundary).
func ReadRawBlock(r io.ReaderAt, h *Header, ref BlockRef, size uint16) ([]byte, error) {
	padded := (int(size) + 63) &^ 63
	if padded == 0 {
		padded = 64
	}
	total := padded + h.Dialect.BIDSize() + 8 // payload + trailer, trailer width as below
	if uint64(total) > utils.MaxBlockSize {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBlockType, total)
	}

	buf := make([]byte, total)
	if _, err := r.ReadAt(buf, int64(ref.Index)); err != nil {
		return nil, utils.WrapError("read block", err)
	}

	trailer := buf[padded:]
	tr := bytes.NewReader(trailer)
	var cb, sig uint16
	if err := binary.Read(tr, binary.LittleEndian, &cb); err != nil {
		return nil, err
	}
	if err := binary.Read(tr, binary.LittleEndian, &sig); err != nil {
		return nil, err
	}

	// BLOCKTRAILER field order is cb, wSig, dwCRC, bid regardless of
	// dialect; only the bid's width changes.
	var blockBID BlockID
	var blockCRC uint32
	if err := binary.Read(tr, binary.LittleEndian, &blockCRC); err != nil {
		return nil, err
	}
	if h.Dialect == DialectAnsi {
		bid, err := ReadAnsiBlockID(tr)
		if err != nil {
			return nil, err
		}
		blockBID, _ = NewBlockID(bid.IsInternal(), uint64(bid.Index()))
	} else {
		var err error
		blockBID, err = ReadBlockID(tr)
		if err != nil {
			return nil, err
		}
	}

	if cb != size {
		return nil, fmt.Errorf("%w: declared %d trailer %d", ErrBlockSignature, size, cb)
	}

	wantSig := ComputeSignature(uint32(ref.Index), uint32(ref.Block))
	if wantSig != sig {
		return nil, fmt.Errorf("%w: want 0x%04x got 0x%04x", ErrBlockSignature, wantSig, sig)
	}

	payload := append([]byte(nil), buf[:size]...)
	if want := crc.Compute(0, payload); want != blockCRC {
		return nil, fmt.Errorf("%w: want 0x%08x got 0x%08x", ErrBlockCRC, want, blockCRC)
	}

	// Internal blocks (XBLOCK/XXBLOCK/SLBLOCK/SIBLOCK) are never
	// encrypted, even when the header declares a crypt method; only
	// external (leaf) block payloads are transformed.
	if !blockBID.IsInternal() {
		Transform(h.CryptMethod, false, payload, uint32(blockBID))
	}
	return payload, nil
}

// ReadDataTree reassembles the (possibly multi-block) data belonging to
// one node, following XBLOCK/XXBLOCK chains as needed. entry.Data.Block
// == 0 means the node has no data (an empty leaf).
func ReadDataTree(r io.ReaderAt, h *Header, entry NodeBTreeEntry, declaredSize uint16) ([]byte, error) {
	data, _, err := ReadDataTreeBoundaries(r, h, entry, declaredSize)
	return data, err
}

// ReadDataTreeBoundaries is ReadDataTree plus the byte offset, within the
// returned slice, where each underlying leaf data block begins. The LTP
// heap parser needs these: a multi-block heap keeps a separate
// allocation table at the tail of each physical block, not one table
// over the logical concatenation.
func ReadDataTreeBoundaries(r io.ReaderAt, h *Header, entry NodeBTreeEntry, declaredSize uint16) ([]byte, []int, error) {
	if entry.Data.Block == 0 {
		return nil, nil, nil
	}
	raw, err := ReadRawBlock(r, h, entry.Data, declaredSize)
	if err != nil {
		return nil, nil, err
	}
	if len(raw) == 0 || raw[0] != blockTypeData {
		if entry.Data.Block.IsInternal() {
			return nil, nil, fmt.Errorf("%w: leaf data block 0x%x marked internal", ErrInvalidBlockRole, entry.Data.Block)
		}
		return raw, []int{0}, nil
	}
	if !entry.Data.Block.IsInternal() {
		return nil, nil, fmt.Errorf("%w: xblock root 0x%x marked external", ErrInvalidBlockRole, entry.Data.Block)
	}
	var boundaries []int
	out, err := readDataTreeBlock(r, h, raw, set3.EmptyWithCapacity[BlockID](8), &boundaries)
	return out, boundaries, err
}

// readDataTreeBlock descends an XBLOCK/XXBLOCK chain. seen tracks every
// BID visited on the current path with a Set3 (the same generic set the
// pack uses for child de-duplication in multi_map.go) so a chain that
// loops back on itself is caught as ErrCorruptDataTree instead of
// recursing forever; the format defines no cycles (§9), so a repeat BID
// is always corruption.
func readDataTreeBlock(r io.ReaderAt, h *Header, raw []byte, seen *set3.Set3[BlockID], boundaries *[]int) ([]byte, error) {
	cur := bytes.NewReader(raw)
	var btype, level byte
	if err := binary.Read(cur, binary.LittleEndian, &btype); err != nil {
		return nil, err
	}
	if err := binary.Read(cur, binary.LittleEndian, &level); err != nil {
		return nil, err
	}
	var count uint16
	if err := binary.Read(cur, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	var totalSize uint32
	if err := binary.Read(cur, binary.LittleEndian, &totalSize); err != nil {
		return nil, err
	}

	out := make([]byte, 0, totalSize)
	for i := uint16(0); i < count; i++ {
		bid, err := h.Dialect.ReadBID(cur)
		if err != nil {
			return nil, err
		}
		if seen.Contains(bid) {
			return nil, ErrCorruptDataTree
		}
		seen.Add(bid)

		entry, err := FindBlock(r, h.Dialect, h.Root.BlockBTree, bid)
		if err != nil {
			return nil, err
		}
		if level > 0 && !bid.IsInternal() {
			return nil, fmt.Errorf("%w: xblock child 0x%x marked external", ErrInvalidBlockRole, bid)
		}
		if level == 0 && bid.IsInternal() {
			return nil, fmt.Errorf("%w: leaf data block 0x%x marked internal", ErrInvalidBlockRole, bid)
		}
		childRaw, err := ReadRawBlock(r, h, entry.Ref, entry.Size)
		if err != nil {
			return nil, err
		}
		if level > 0 {
			nested, err := readDataTreeBlock(r, h, childRaw, seen, boundaries)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
		} else {
			*boundaries = append(*boundaries, len(out))
			out = append(out, childRaw...)
		}
	}
	return out, nil
}

// SubNodeEntry is one SLENTRY: a sub-node id paired with its own data
// BREF and (recursively) its own sub-node tree.
type SubNodeEntry struct {
	NID     NodeID
	Data    BlockRef
	SubNode BlockRef
}

// ReadSubNodeTree reassembles the sub-node list rooted at ref, following
// SIBLOCK/SLBLOCK chains.
func ReadSubNodeTree(r io.ReaderAt, h *Header, ref BlockRef) ([]SubNodeEntry, error) {
	if ref.Block == 0 {
		return nil, nil
	}
	if !ref.Block.IsInternal() {
		return nil, fmt.Errorf("%w: sub-node tree root 0x%x marked external", ErrInvalidBlockRole, ref.Block)
	}
	entry, err := FindBlock(r, h.Dialect, h.Root.BlockBTree, ref.Block)
	if err != nil {
		return nil, err
	}
	raw, err := ReadRawBlock(r, h, ref, entry.Size)
	if err != nil {
		return nil, err
	}
	return readSubNodeBlock(r, h, raw, set3.EmptyWithCapacity[BlockID](8))
}

func readSubNodeBlock(r io.ReaderAt, h *Header, raw []byte, seen *set3.Set3[BlockID]) ([]SubNodeEntry, error) {
	cur := bytes.NewReader(raw)
	var btype, level byte
	if err := binary.Read(cur, binary.LittleEndian, &btype); err != nil {
		return nil, err
	}
	if err := binary.Read(cur, binary.LittleEndian, &level); err != nil {
		return nil, err
	}
	var count uint16
	if err := binary.Read(cur, binary.LittleEndian, &count); err != nil {
		return nil, err
	}

	if level == 0 {
		out := make([]SubNodeEntry, 0, count)
		for i := uint16(0); i < count; i++ {
			nid, err := h.Dialect.ReadNID(cur)
			if err != nil {
				return nil, err
			}
			dataRef, err := h.Dialect.ReadBREF(cur)
			if err != nil {
				return nil, err
			}
			subRef, err := h.Dialect.ReadBREF(cur)
			if err != nil {
				return nil, err
			}
			out = append(out, SubNodeEntry{NID: nid, Data: dataRef, SubNode: subRef})
		}
		return out, nil
	}

	var all []SubNodeEntry
	for i := uint16(0); i < count; i++ {
		// SIENTRY: nidKey (ignored, just a lower-bound key) + BREF
		if _, err := h.Dialect.ReadNID(cur); err != nil {
			return nil, err
		}
		child, err := h.Dialect.ReadBREF(cur)
		if err != nil {
			return nil, err
		}
		if seen.Contains(child.Block) {
			return nil, ErrCorruptSubNodeTree
		}
		seen.Add(child.Block)

		entry, err := FindBlock(r, h.Dialect, h.Root.BlockBTree, child.Block)
		if err != nil {
			return nil, err
		}
		childRaw, err := ReadRawBlock(r, h, child, entry.Size)
		if err != nil {
			return nil, err
		}
		nested, err := readSubNodeBlock(r, h, childRaw, seen)
		if err != nil {
			return nil, err
		}
		all = append(all, nested...)
	}
	return all, nil
}
