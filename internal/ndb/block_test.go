package ndb

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/pstkit/pst/internal/crc"
)

// buildExternalBlock assembles the bytes of one external (leaf) block
// holding payload at file offset index, with a correct trailer (no
// encryption) for the Unicode dialect. It returns the full backing file
// slice.
func buildExternalBlock(t *testing.T, index uint64, bid BlockID, payload []byte) []byte {
	t.Helper()
	size := len(payload)
	padded := (size + 63) &^ 63
	if padded == 0 {
		padded = 64
	}
	total := padded + 8 + 8 // payload + BID(8) + cb/sig/crc(8)
	file := make([]byte, int(index)+total)
	blk := file[index:]
	copy(blk, payload)

	trailer := blk[padded:]
	binary.LittleEndian.PutUint16(trailer[0:2], uint16(size))
	binary.LittleEndian.PutUint16(trailer[2:4], ComputeSignature(uint32(index), uint32(bid)))
	binary.LittleEndian.PutUint32(trailer[4:8], crc.Compute(0, payload))
	binary.LittleEndian.PutUint64(trailer[8:16], uint64(bid))
	return file
}

// buildBlockBTreeLeaf assembles a single-level block-B-tree leaf page at
// file offset index listing entries.
func buildBlockBTreeLeaf(t *testing.T, index uint64, selfBID BlockID, entries []BlockBTreeEntry) []byte {
	t.Helper()
	const entrySize = 16 + 2 + 2
	file := make([]byte, index+512)
	page := file[index:]
	body := page[:496]

	buf := &bytes.Buffer{}
	for _, e := range entries {
		e.Ref.WriteTo(buf)
		binary.Write(buf, binary.LittleEndian, e.Size)
		binary.Write(buf, binary.LittleEndian, e.RefCount)
	}
	copy(body, buf.Bytes())
	body[492] = byte(len(entries))
	body[493] = byte(496 / entrySize)
	body[494] = byte(entrySize)
	body[495] = 0

	trailer := page[496:512]
	trailer[0] = byte(PageTypeBlockBTree)
	trailer[1] = byte(PageTypeBlockBTree)
	binary.LittleEndian.PutUint16(trailer[2:4], ComputeSignature(uint32(index), uint32(selfBID)))
	binary.LittleEndian.PutUint32(trailer[4:8], crc.Compute(0, body))
	binary.LittleEndian.PutUint64(trailer[8:16], uint64(selfBID))
	return file
}

// mergeAt overlays src onto a copy of dst at byte offset off, growing
// dst as needed.
func mergeAt(dst []byte, off int, src []byte) []byte {
	need := off + len(src)
	if need > len(dst) {
		grown := make([]byte, need)
		copy(grown, dst)
		dst = grown
	}
	copy(dst[off:], src)
	return dst
}

func TestReadRawBlockRoundTrip(t *testing.T) {
	bid, _ := NewBlockID(false, 5)
	payload := []byte("hello world")
	file := buildExternalBlock(t, 0x200, bid, payload)

	h := &Header{Dialect: DialectUnicode, CryptMethod: CryptNone}
	r := bytes.NewReader(file)
	got, err := ReadRawBlock(r, h, BlockRef{Block: bid, Index: 0x200}, uint16(len(payload)))
	if err != nil {
		t.Fatalf("ReadRawBlock: %v", err)
	}
	if string(got) != "hello world" {
		t.Fatalf("got %q, want %q", got, "hello world")
	}
}

func TestReadRawBlockRejectsBadCRC(t *testing.T) {
	bid, _ := NewBlockID(false, 5)
	payload := []byte("hello world")
	file := buildExternalBlock(t, 0x200, bid, payload)
	file[0x200] ^= 0xFF

	h := &Header{Dialect: DialectUnicode, CryptMethod: CryptNone}
	r := bytes.NewReader(file)
	if _, err := ReadRawBlock(r, h, BlockRef{Block: bid, Index: 0x200}, uint16(len(payload))); err == nil {
		t.Fatal("expected ErrBlockCRC")
	}
}

// buildAnsiExternalBlock is buildExternalBlock for the ANSI dialect:
// the BLOCKTRAILER's bid field is 4 bytes (cb/sig/crc/bid, in that
// order, same as Unicode) rather than 8.
func buildAnsiExternalBlock(t *testing.T, index uint64, bid BlockID, payload []byte) []byte {
	t.Helper()
	size := len(payload)
	padded := (size + 63) &^ 63
	if padded == 0 {
		padded = 64
	}
	total := padded + 4 + 8 // payload + BID(4) + cb/sig/crc(8)
	file := make([]byte, int(index)+total)
	blk := file[index:]
	copy(blk, payload)

	trailer := blk[padded:]
	binary.LittleEndian.PutUint16(trailer[0:2], uint16(size))
	binary.LittleEndian.PutUint16(trailer[2:4], ComputeSignature(uint32(index), uint32(bid)))
	binary.LittleEndian.PutUint32(trailer[4:8], crc.Compute(0, payload))
	ansiBID, _ := NewAnsiBlockID(bid.IsInternal(), uint32(bid.Index()))
	binary.LittleEndian.PutUint32(trailer[8:12], uint32(ansiBID))
	return file
}

func TestReadRawBlockRoundTripAnsi(t *testing.T) {
	bid, _ := NewBlockID(false, 5)
	payload := []byte("hello world")
	file := buildAnsiExternalBlock(t, 0x200, bid, payload)

	h := &Header{Dialect: DialectAnsi, CryptMethod: CryptNone}
	r := bytes.NewReader(file)
	got, err := ReadRawBlock(r, h, BlockRef{Block: bid, Index: 0x200}, uint16(len(payload)))
	if err != nil {
		t.Fatalf("ReadRawBlock: %v", err)
	}
	if string(got) != "hello world" {
		t.Fatalf("got %q, want %q", got, "hello world")
	}
}

func TestReadRawBlockRoundTripCyclicCrypt(t *testing.T) {
	bid, _ := NewBlockID(false, 9)
	plain := []byte("secret payload!")
	encoded := append([]byte(nil), plain...)
	CyclicTransform(encoded, uint32(bid))

	file := buildExternalBlock(t, 0x300, bid, encoded)
	h := &Header{Dialect: DialectUnicode, CryptMethod: CryptCyclic}
	r := bytes.NewReader(file)
	got, err := ReadRawBlock(r, h, BlockRef{Block: bid, Index: 0x300}, uint16(len(plain)))
	if err != nil {
		t.Fatalf("ReadRawBlock: %v", err)
	}
	if string(got) != string(plain) {
		t.Fatalf("got %q, want %q", got, plain)
	}
}

func TestReadDataTreeSingleExternalBlock(t *testing.T) {
	dataBID, _ := NewBlockID(false, 1)
	payload := []byte("a single external block's worth of bytes")
	file := buildExternalBlock(t, 0x1000, dataBID, payload)

	btreeBID, _ := NewBlockID(true, 2)
	btreePage := buildBlockBTreeLeaf(t, 0x2000, btreeBID, []BlockBTreeEntry{
		{Ref: BlockRef{Block: dataBID, Index: 0x1000}, Size: uint16(len(payload)), RefCount: 1},
	})
	file = mergeAt(file, 0x2000, btreePage[0x2000:])

	h := &Header{
		Dialect:     DialectUnicode,
		CryptMethod: CryptNone,
		Root:        Root{BlockBTree: BlockRef{Block: btreeBID, Index: 0x2000}},
	}
	entry := NodeBTreeEntry{NID: NodeID(0x21), Data: BlockRef{Block: dataBID, Index: 0x1000}}

	r := bytes.NewReader(file)
	got, err := ReadDataTree(r, h, entry, uint16(len(payload)))
	if err != nil {
		t.Fatalf("ReadDataTree: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("got %q, want %q", got, payload)
	}
}

func TestReadDataTreeXBlockChain(t *testing.T) {
	leaf1BID, _ := NewBlockID(false, 10)
	leaf2BID, _ := NewBlockID(false, 11)
	xblockBID, _ := NewBlockID(true, 12)
	btreeBID, _ := NewBlockID(true, 13)

	p1 := []byte("first leaf bytes")
	p2 := []byte("second leaf bytes!!")

	file := buildExternalBlock(t, 0x1000, leaf1BID, p1)
	file = mergeAt(file, 0x1100, buildExternalBlock(t, 0x1100, leaf2BID, p2)[0x1100:])

	// XBLOCK: btype(1)=0x01, level=0 (children are leaf data blocks),
	// count=2, totalSize, then two BIDs.
	xbuf := &bytes.Buffer{}
	xbuf.WriteByte(0x01)
	xbuf.WriteByte(0x00)
	binary.Write(xbuf, binary.LittleEndian, uint16(2))
	binary.Write(xbuf, binary.LittleEndian, uint32(len(p1)+len(p2)))
	leaf1BID.WriteTo(xbuf)
	leaf2BID.WriteTo(xbuf)
	xblockPayload := xbuf.Bytes()

	file = mergeAt(file, 0x1200, buildExternalBlock(t, 0x1200, xblockBID, xblockPayload)[0x1200:])

	btreePage := buildBlockBTreeLeaf(t, 0x2000, btreeBID, []BlockBTreeEntry{
		{Ref: BlockRef{Block: leaf1BID, Index: 0x1000}, Size: uint16(len(p1)), RefCount: 1},
		{Ref: BlockRef{Block: leaf2BID, Index: 0x1100}, Size: uint16(len(p2)), RefCount: 1},
		{Ref: BlockRef{Block: xblockBID, Index: 0x1200}, Size: uint16(len(xblockPayload)), RefCount: 1},
	})
	file = mergeAt(file, 0x2000, btreePage[0x2000:])

	h := &Header{
		Dialect:     DialectUnicode,
		CryptMethod: CryptNone,
		Root:        Root{BlockBTree: BlockRef{Block: btreeBID, Index: 0x2000}},
	}
	entry := NodeBTreeEntry{NID: NodeID(0x122), Data: BlockRef{Block: xblockBID, Index: 0x1200}}

	r := bytes.NewReader(file)
	got, err := ReadDataTree(r, h, entry, uint16(len(xblockPayload)))
	if err != nil {
		t.Fatalf("ReadDataTree: %v", err)
	}
	want := string(p1) + string(p2)
	if string(got) != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
