package ndb

import (
	"encoding/binary"
	"io"
)

// ByteIndex is a plain byte offset into the file, as stored in a Unicode
// BREF (64-bit).
type ByteIndex uint64

// ReadByteIndex reads a little-endian 64-bit byte offset.
func ReadByteIndex(r io.Reader) (ByteIndex, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return ByteIndex(binary.LittleEndian.Uint64(buf[:])), nil
}

// WriteTo writes the byte offset little-endian.
func (b ByteIndex) WriteTo(w io.Writer) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(b))
	_, err := w.Write(buf[:])
	return err
}

// AnsiByteIndex is the 32-bit byte offset used in an ANSI BREF.
type AnsiByteIndex uint32

// ReadAnsiByteIndex reads a little-endian 32-bit byte offset.
func ReadAnsiByteIndex(r io.Reader) (AnsiByteIndex, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return AnsiByteIndex(binary.LittleEndian.Uint32(buf[:])), nil
}

// WriteTo writes the byte offset little-endian.
func (b AnsiByteIndex) WriteTo(w io.Writer) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(b))
	_, err := w.Write(buf[:])
	return err
}

// BlockRef pairs a BID with the file offset of the block it names
// (Unicode dialect).
type BlockRef struct {
	Block BlockID
	Index ByteIndex
}

// ReadBlockRef reads a Unicode BREF (BID then IB, 16 bytes total).
func ReadBlockRef(r io.Reader) (BlockRef, error) {
	block, err := ReadBlockID(r)
	if err != nil {
		return BlockRef{}, err
	}
	index, err := ReadByteIndex(r)
	if err != nil {
		return BlockRef{}, err
	}
	return BlockRef{Block: block, Index: index}, nil
}

// WriteTo writes the BREF.
func (b BlockRef) WriteTo(w io.Writer) error {
	if err := b.Block.WriteTo(w); err != nil {
		return err
	}
	return b.Index.WriteTo(w)
}

// AnsiBlockRef pairs an AnsiBlockID with the file offset of the block it
// names (ANSI dialect).
type AnsiBlockRef struct {
	Block AnsiBlockID
	Index AnsiByteIndex
}

// ReadAnsiBlockRef reads an ANSI BREF (BID then IB, 8 bytes total).
func ReadAnsiBlockRef(r io.Reader) (AnsiBlockRef, error) {
	block, err := ReadAnsiBlockID(r)
	if err != nil {
		return AnsiBlockRef{}, err
	}
	index, err := ReadAnsiByteIndex(r)
	if err != nil {
		return AnsiBlockRef{}, err
	}
	return AnsiBlockRef{Block: block, Index: index}, nil
}

// WriteTo writes the BREF.
func (b AnsiBlockRef) WriteTo(w io.Writer) error {
	if err := b.Block.WriteTo(w); err != nil {
		return err
	}
	return b.Index.WriteTo(w)
}
