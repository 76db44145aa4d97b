package ndb

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Dialect selects the on-disk width of node/block identifiers and page
// layout constants. Every higher-level structure (BTree entries, heap
// ids, BREFs) is expressed in dialect-independent Go types (BlockID as a
// 64-bit value, widened from the 32-bit wire form when reading an ANSI
// file). Besides the identifier readers in this file, the header, page
// trailer and block trailer decoders also branch on Dialect, since those
// layouts differ between the two flavors.
type Dialect uint8

const (
	// DialectUnicode is the modern (post-2003, wVer=23) PST layout:
	// BIDs/IBs/BREFs are 64-bit. Each 512-byte page ends in a 16-byte
	// PAGETRAILER, leaving a 496-byte data region of which 488 bytes
	// are the B-tree entry area once BTPAGE's header fields and 4-byte
	// zero pad are stripped.
	DialectUnicode Dialect = iota
	// DialectAnsi is the legacy (wVer=14/15) PST layout: 32-bit
	// BIDs/IBs/BREFs. Each page ends in a 12-byte PAGETRAILER, leaving
	// a 500-byte data region of which 496 bytes are the entry area
	// (no zero-pad field on this dialect).
	DialectAnsi
)

// NdbVersion is the wVer header field identifying the dialect on disk.
type NdbVersion uint16

const (
	NdbVersionAnsi    NdbVersion = 15
	NdbVersionUnicode NdbVersion = 23
)

// ParseNdbVersion validates a raw wVer field and resolves its Dialect.
func ParseNdbVersion(v uint16) (NdbVersion, Dialect, error) {
	switch {
	case v == 14 || v == 15:
		return NdbVersionAnsi, DialectAnsi, nil
	case v == 23:
		return NdbVersionUnicode, DialectUnicode, nil
	default:
		return 0, 0, fmt.Errorf("%w: %d", ErrInvalidNDBVersion, v)
	}
}

// BREFSize is the on-disk size of one BREF (BID+IB) in this dialect.
func (d Dialect) BREFSize() int {
	if d == DialectAnsi {
		return 8
	}
	return 16
}

// BIDSize is the on-disk size of one BID in this dialect.
func (d Dialect) BIDSize() int {
	if d == DialectAnsi {
		return 4
	}
	return 8
}

// NIDSize is always 4: the node id width does not vary by dialect.
func (d Dialect) NIDSize() int { return 4 }

// ReadBID reads one BID at the dialect's native width and widens it to
// the unified 64-bit BlockID representation.
func (d Dialect) ReadBID(r io.Reader) (BlockID, error) {
	if d == DialectAnsi {
		id, err := ReadAnsiBlockID(r)
		if err != nil {
			return 0, err
		}
		widened, err := NewBlockID(id.IsInternal(), uint64(id.Index()))
		if err != nil {
			return 0, err
		}
		return widened, nil
	}
	return ReadBlockID(r)
}

// ReadBREF reads one BREF at the dialect's native width and widens it.
func (d Dialect) ReadBREF(r io.Reader) (BlockRef, error) {
	if d == DialectAnsi {
		ref, err := ReadAnsiBlockRef(r)
		if err != nil {
			return BlockRef{}, err
		}
		block, err := NewBlockID(ref.Block.IsInternal(), uint64(ref.Block.Index()))
		if err != nil {
			return BlockRef{}, err
		}
		return BlockRef{Block: block, Index: ByteIndex(ref.Index)}, nil
	}
	return ReadBlockRef(r)
}

// ReadNID reads one NID; width is dialect-independent.
func (d Dialect) ReadNID(r io.Reader) (NodeID, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return NodeID(binary.LittleEndian.Uint32(buf[:])), nil
}
