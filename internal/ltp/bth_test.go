package ltp

import (
	"encoding/binary"
	"sort"
	"testing"
)

// buildLeafBTH assembles a single-level (Levels==0) BTH: a BTHHEADER
// allocation plus one leaf-page allocation holding the given (key,
// value) pairs, each key 2 bytes and each value 4 bytes wide.
func buildLeafBTH(t *testing.T, entries map[uint16]uint32) *BTH {
	t.Helper()

	keys := make([]uint16, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	leaf := make([]byte, 0, len(entries)*6)
	for _, k := range keys {
		rec := make([]byte, 6)
		binary.LittleEndian.PutUint16(rec[0:2], k)
		binary.LittleEndian.PutUint32(rec[2:6], entries[k])
		leaf = append(leaf, rec...)
	}

	header := make([]byte, 8)
	header[0] = bthSignature
	header[1] = 2 // key size
	header[2] = 4 // value size
	header[3] = 0 // levels

	data, ids := buildHeapBlock(0xB5, [][]byte{header, leaf})
	// Patch the header allocation's root-id field (bytes 4:8) to point
	// at the leaf allocation.
	headerStart := 32
	binary.LittleEndian.PutUint32(data[headerStart+4:headerStart+8], uint32(ids[1]))

	heap, err := OpenHeap(data, nil)
	if err != nil {
		t.Fatalf("OpenHeap: %v", err)
	}
	bth, err := OpenBTH(heap, ids[0])
	if err != nil {
		t.Fatalf("OpenBTH: %v", err)
	}
	return bth
}

func TestBTHFind(t *testing.T) {
	bth := buildLeafBTH(t, map[uint16]uint32{1: 100, 2: 200, 42: 4242})

	v, err := bth.Find(1)
	if err != nil {
		t.Fatalf("Find(1): %v", err)
	}
	if got := binary.LittleEndian.Uint32(v); got != 100 {
		t.Fatalf("Find(1) = %d, want 100", got)
	}

	v, err = bth.Find(42)
	if err != nil {
		t.Fatalf("Find(42): %v", err)
	}
	if got := binary.LittleEndian.Uint32(v); got != 4242 {
		t.Fatalf("Find(42) = %d, want 4242", got)
	}
}

func TestBTHFindMissingKey(t *testing.T) {
	bth := buildLeafBTH(t, map[uint16]uint32{1: 100})
	if _, err := bth.Find(999); err != ErrBTHKeyNotFound {
		t.Fatalf("err = %v, want ErrBTHKeyNotFound", err)
	}
}

func TestBTHAllReturnsSortedEntries(t *testing.T) {
	bth := buildLeafBTH(t, map[uint16]uint32{5: 50, 1: 10, 3: 30})
	entries, err := bth.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}
	wantKeys := []uint64{1, 3, 5}
	for i, e := range entries {
		if e.Key != wantKeys[i] {
			t.Fatalf("entries[%d].Key = %d, want %d", i, e.Key, wantKeys[i])
		}
	}
}
