package ndb

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxUnicodeBlockIndex is the largest index a Unicode BID's 62-bit index
// field can hold.
const MaxUnicodeBlockIndex uint64 = 1<<62 - 1

// BlockID identifies a block in the block B-tree of a Unicode-dialect
// store: a 1-bit "internal" flag packed with a 62-bit index, stored
// little-endian as a u64. Bit 1 (0x2) carries the internal flag; bit 0
// is reserved and always zero.
type BlockID uint64

// NewBlockID packs isInternal and index into a BlockID.
func NewBlockID(isInternal bool, index uint64) (BlockID, error) {
	if index > MaxUnicodeBlockIndex {
		return 0, fmt.Errorf("%w: %d", ErrInvalidBlockIndex, index)
	}
	id := index << 2
	if isInternal {
		id |= 0x2
	}
	return BlockID(id), nil
}

// IsInternal reports whether the block is an internal index block
// (XBLOCK/XXBLOCK/SLBLOCK/SIBLOCK) rather than one holding raw node data.
func (b BlockID) IsInternal() bool { return b&0x2 == 0x2 }

// Index returns the 62-bit block index.
func (b BlockID) Index() uint64 { return uint64(b) >> 2 }

// ReadBlockID reads a little-endian Unicode BID.
func ReadBlockID(r io.Reader) (BlockID, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return BlockID(binary.LittleEndian.Uint64(buf[:])), nil
}

// WriteTo writes the BID little-endian.
func (b BlockID) WriteTo(w io.Writer) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(b))
	_, err := w.Write(buf[:])
	return err
}

// MaxAnsiBlockIndex is the largest index an ANSI BID's 30-bit index field
// can hold.
const MaxAnsiBlockIndex uint32 = 1<<30 - 1

// AnsiBlockID is the 32-bit BID used by ANSI-dialect (pre-Unicode) stores.
type AnsiBlockID uint32

// NewAnsiBlockID packs isInternal and index into an AnsiBlockID.
func NewAnsiBlockID(isInternal bool, index uint32) (AnsiBlockID, error) {
	if index > MaxAnsiBlockIndex {
		return 0, fmt.Errorf("%w: %d", ErrInvalidBlockIndex, index)
	}
	id := index << 2
	if isInternal {
		id |= 0x2
	}
	return AnsiBlockID(id), nil
}

// IsInternal reports whether the block holds internal metadata.
func (b AnsiBlockID) IsInternal() bool { return b&0x2 == 0x2 }

// Index returns the 30-bit block index.
func (b AnsiBlockID) Index() uint32 { return uint32(b) >> 2 }

// ReadAnsiBlockID reads a little-endian ANSI BID.
func ReadAnsiBlockID(r io.Reader) (AnsiBlockID, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return AnsiBlockID(binary.LittleEndian.Uint32(buf[:])), nil
}

// WriteTo writes the BID little-endian.
func (b AnsiBlockID) WriteTo(w io.Writer) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(b))
	_, err := w.Write(buf[:])
	return err
}
