// Package ltp implements the Lists, Tables and Properties layer built on
// top of an ndb node: the Heap-on-Node allocator, the BTree-on-Heap,
// Property Context and Table Context.
package ltp

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pstkit/pst/internal/utils"
)

// HeapID addresses one allocation inside a Heap-on-Node: an 11-bit
// 1-based allocation index within a data block, and a 16-bit index
// selecting which of the node's data-tree blocks holds that page. Index
// 0 is reserved (it marks "no value" in BTH/PC/TC records) and always
// resolves to ErrInvalidHeapAddress.
type HeapID uint32

// NewHeapID packs a 1-based allocation index and a block index.
func NewHeapID(allocIndex uint16, blockIndex uint16) HeapID {
	return HeapID(uint32(allocIndex&0x7FF)<<5 | uint32(blockIndex)<<16)
}

// AllocIndex returns the 11-bit, 1-based allocation index. Zero means
// the heap id is the sentinel "no value".
func (h HeapID) AllocIndex() uint16 { return uint16(h>>5) & 0x7FF }

// BlockIndex returns the 16-bit data-block index.
func (h HeapID) BlockIndex() uint16 { return uint16(h >> 16) }

// IsNone reports whether this is the reserved "no value" heap id.
func (h HeapID) IsNone() bool { return h.AllocIndex() == 0 }

// heapPageHeader holds the leading fields of the HNHDR at the start of a
// heap's first data block: signature, table type and the allocation-table
// offset. The root id and fill-level bitmap that follow them are not
// part of this struct.
type heapPageHeader struct {
	Signature     byte
	TableType     byte
	FirstFreeByte uint16
}

const heapSignature = 0xEC

// Heap decodes a Heap-on-Node over the (already reassembled) bytes of
// one or more data-tree blocks belonging to a node.
type Heap struct {
	blocks    [][]byte // one entry per data-tree block, HNHDR/HNPAGE framed
	tableType byte
}

// OpenHeap parses the heap framing across already-reassembled node data.
// blockBoundaries gives the byte offset within data where each
// data-tree block begins (the heap allocation map is local to each
// block).
func OpenHeap(data []byte, blockBoundaries []int) (*Heap, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: heap too short", ErrCorruptHeap)
	}
	if data[0] != heapSignature {
		return nil, fmt.Errorf("%w: bad hn signature 0x%02x", ErrCorruptHeap, data[0])
	}

	boundaries := blockBoundaries
	if len(boundaries) == 0 {
		boundaries = []int{0, len(data)}
	} else {
		boundaries = append(append([]int{}, boundaries...), len(data))
	}

	blocks := make([][]byte, 0, len(boundaries)-1)
	for i := 0; i+1 < len(boundaries); i++ {
		blocks = append(blocks, data[boundaries[i]:boundaries[i+1]])
	}

	return &Heap{blocks: blocks, tableType: data[1]}, nil
}

// TableType returns the bClientSig byte identifying what the heap holds
// (a BTH, a Property Context or a Table Context signature).
func (h *Heap) TableType() byte { return h.tableType }

// RootID returns the heap's hidUserRoot: the HeapID of the BTH, PC or TC
// header this heap was built to hold, found at offset 4 of the heap's
// first block.
func (h *Heap) RootID() (HeapID, error) {
	if len(h.blocks) == 0 || len(h.blocks[0]) < 8 {
		return 0, fmt.Errorf("%w: heap root id truncated", ErrCorruptHeap)
	}
	return HeapID(binary.LittleEndian.Uint32(h.blocks[0][4:8])), nil
}

// allocTable returns the (count+1)-entry allocation-offset table for
// block n, parsed from that block's trailer region, and the block's raw
// bytes.
func (h *Heap) allocTable(blockIndex uint16) ([]uint16, []byte, error) {
	if int(blockIndex) >= len(h.blocks) {
		return nil, nil, fmt.Errorf("%w: block index %d", ErrInvalidHeapAddress, blockIndex)
	}
	block := h.blocks[blockIndex]
	if len(block) < 4 {
		return nil, nil, fmt.Errorf("%w: block too short", ErrCorruptHeap)
	}

	var pageHeaderSize int
	if blockIndex == 0 {
		pageHeaderSize = 32 // HNHDR: sig/type/ibHnpm + root id + fill level bitmap
	} else {
		pageHeaderSize = 2 // HNPAGEHDR: just ibHnpm
	}
	if pageHeaderSize > len(block) {
		pageHeaderSize = len(block)
	}

	var ibHnpm uint16
	if blockIndex == 0 {
		binary.Read(bytes.NewReader(block[2:4]), binary.LittleEndian, &ibHnpm)
	} else {
		binary.Read(bytes.NewReader(block[0:2]), binary.LittleEndian, &ibHnpm)
	}
	if int(ibHnpm) > len(block) || ibHnpm == 0 {
		return nil, block, nil
	}

	tailR := bytes.NewReader(block[ibHnpm:])
	var count uint16
	if err := binary.Read(tailR, binary.LittleEndian, &count); err != nil {
		return nil, block, nil
	}
	offsets := make([]uint16, 0, count+1)
	for i := uint16(0); i <= count; i++ {
		var off uint16
		if err := binary.Read(tailR, binary.LittleEndian, &off); err != nil {
			break
		}
		offsets = append(offsets, off)
	}
	return offsets, block, nil
}

// Get returns the bytes stored at id. Allocation index 0 (the sentinel
// "no value" id) is rejected as ErrInvalidHeapAddress.
func (h *Heap) Get(id HeapID) ([]byte, error) {
	if id.IsNone() {
		return nil, fmt.Errorf("%w: heap id 0 is reserved", ErrInvalidHeapAddress)
	}
	offsets, block, err := h.allocTable(id.BlockIndex())
	if err != nil {
		return nil, err
	}
	idx := int(id.AllocIndex()) - 1
	if idx < 0 || idx+1 >= len(offsets) {
		return nil, fmt.Errorf("%w: alloc index %d in block %d", ErrInvalidHeapAddress, id.AllocIndex(), id.BlockIndex())
	}
	start, end := offsets[idx], offsets[idx+1]
	if int(end) > len(block) || start > end {
		return nil, fmt.Errorf("%w: bad allocation bounds", utils.WrapError("heap", ErrCorruptHeap))
	}
	return block[start:end], nil
}
