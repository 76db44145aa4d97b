package ltp

import (
	"encoding/binary"
	"testing"
)

// buildHeapBlock assembles a single-block HNHDR-framed heap containing
// allocs in order, with an allocation-offset table following the data
// (the shape OpenHeap/Heap.Get expect). It returns the raw block bytes
// and the HeapID each allocation lives at (1-based index, block 0).
func buildHeapBlock(tableType byte, allocs [][]byte) ([]byte, []HeapID) {
	const headerLen = 32 // HNHDR: sig, type, ibHnpm, root id, fill-level bitmap

	offsets := make([]uint16, 0, len(allocs)+1)
	offsets = append(offsets, headerLen)
	cur := headerLen
	for _, a := range allocs {
		cur += len(a)
		offsets = append(offsets, uint16(cur))
	}
	allocTableOffset := cur
	total := cur + 2 + (len(allocs)+1)*2

	buf := make([]byte, total)
	buf[0] = heapSignature
	buf[1] = tableType
	binary.LittleEndian.PutUint16(buf[2:4], uint16(allocTableOffset))

	pos := headerLen
	for _, a := range allocs {
		copy(buf[pos:], a)
		pos += len(a)
	}

	binary.LittleEndian.PutUint16(buf[allocTableOffset:], uint16(len(allocs)))
	for i, off := range offsets {
		binary.LittleEndian.PutUint16(buf[allocTableOffset+2+i*2:], off)
	}

	ids := make([]HeapID, len(allocs))
	for i := range allocs {
		ids[i] = NewHeapID(uint16(i+1), 0)
	}
	return buf, ids
}

func TestHeapGet(t *testing.T) {
	data, ids := buildHeapBlock(0xBC, [][]byte{[]byte("AAAA"), []byte("BBBBBB")})

	heap, err := OpenHeap(data, nil)
	if err != nil {
		t.Fatalf("OpenHeap: %v", err)
	}
	if got := heap.TableType(); got != 0xBC {
		t.Fatalf("TableType() = 0x%02x, want 0xBC", got)
	}

	got, err := heap.Get(ids[0])
	if err != nil {
		t.Fatalf("Get(ids[0]): %v", err)
	}
	if string(got) != "AAAA" {
		t.Fatalf("Get(ids[0]) = %q, want %q", got, "AAAA")
	}

	got, err = heap.Get(ids[1])
	if err != nil {
		t.Fatalf("Get(ids[1]): %v", err)
	}
	if string(got) != "BBBBBB" {
		t.Fatalf("Get(ids[1]) = %q, want %q", got, "BBBBBB")
	}
}

func TestHeapGetRejectsNoneID(t *testing.T) {
	data, _ := buildHeapBlock(0xBC, [][]byte{[]byte("x")})
	heap, err := OpenHeap(data, nil)
	if err != nil {
		t.Fatalf("OpenHeap: %v", err)
	}
	if _, err := heap.Get(HeapID(0)); err == nil {
		t.Fatal("expected ErrInvalidHeapAddress for heap id 0")
	}
}

func TestHeapGetRejectsOutOfRangeAllocIndex(t *testing.T) {
	data, ids := buildHeapBlock(0xBC, [][]byte{[]byte("x")})
	_ = ids
	heap, err := OpenHeap(data, nil)
	if err != nil {
		t.Fatalf("OpenHeap: %v", err)
	}
	if _, err := heap.Get(NewHeapID(5, 0)); err == nil {
		t.Fatal("expected ErrInvalidHeapAddress for an out-of-range allocation index")
	}
}

func TestHeapRootID(t *testing.T) {
	data, ids := buildHeapBlock(0xBC, [][]byte{[]byte("root-payload")})
	binary.LittleEndian.PutUint32(data[4:8], uint32(ids[0]))

	heap, err := OpenHeap(data, nil)
	if err != nil {
		t.Fatalf("OpenHeap: %v", err)
	}
	root, err := heap.RootID()
	if err != nil {
		t.Fatalf("RootID: %v", err)
	}
	if root != ids[0] {
		t.Fatalf("RootID() = %v, want %v", root, ids[0])
	}
}

func TestOpenHeapRejectsBadSignature(t *testing.T) {
	if _, err := OpenHeap([]byte{0, 0, 0, 0}, nil); err == nil {
		t.Fatal("expected ErrCorruptHeap for a bad hn signature")
	}
}

func TestNewHeapIDPacking(t *testing.T) {
	id := NewHeapID(0x3FF, 0xBEEF)
	if got := id.AllocIndex(); got != 0x3FF {
		t.Fatalf("AllocIndex() = 0x%x, want 0x3FF", got)
	}
	if got := id.BlockIndex(); got != 0xBEEF {
		t.Fatalf("BlockIndex() = 0x%x, want 0xBEEF", got)
	}
	if id.IsNone() {
		t.Fatal("IsNone() = true for a non-zero allocation index")
	}
	if !NewHeapID(0, 0).IsNone() {
		t.Fatal("IsNone() = false for allocation index 0")
	}
}
