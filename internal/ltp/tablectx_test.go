package ltp

import (
	"encoding/binary"
	"testing"
)

// buildTableContext assembles a minimal single-row Table Context: a
// TCINFO with two columns (an inline int32 and a heap-ref binary), a
// one-row matrix with both existence bits set, and a row-index BTH
// mapping the row's id to row 0.
func buildTableContext(t *testing.T) *TableContext {
	t.Helper()

	const (
		idCol0 = 0x6001
		idCol1 = 0x6002
		rowID  = uint32(111)
	)

	// Allocation layout (indices fixed by buildHeapBlock's order):
	// 0 = TCINFO, 1 = row matrix, 2 = binary blob, 3 = row-index BTH
	// header, 4 = row-index BTH leaf.
	rowsID := NewHeapID(2, 0)
	blobID := NewHeapID(3, 0)
	bthHeaderID := NewHeapID(4, 0)

	blob := []byte{0xCA, 0xFE, 0xBA, 0xBE}

	row := make([]byte, 17)
	binary.LittleEndian.PutUint32(row[0:4], rowID)
	binary.LittleEndian.PutUint32(row[8:12], 424242) // col0: inline int32
	binary.LittleEndian.PutUint32(row[12:16], uint32(blobID))
	row[16] = 0xC0 // bits 0 and 1 set, MSB-first

	tcinfo := make([]byte, 22+2*8)
	tcinfo[0] = tcSignature
	tcinfo[1] = 2 // column count
	binary.LittleEndian.PutUint16(tcinfo[2:4], 16)  // rgib[0]: existence bitmap offset
	binary.LittleEndian.PutUint16(tcinfo[4:6], 0)   // rgib[1]: unused here
	binary.LittleEndian.PutUint16(tcinfo[6:8], 0)   // rgib[2]: unused here
	binary.LittleEndian.PutUint16(tcinfo[8:10], 17) // rgib[3]: row width
	binary.LittleEndian.PutUint32(tcinfo[10:14], uint32(bthHeaderID))
	binary.LittleEndian.PutUint32(tcinfo[14:18], uint32(rowsID))

	col0 := tcinfo[22:30]
	binary.LittleEndian.PutUint32(col0[0:4], uint32(NewPropertyTag(idCol0, PtInteger32)))
	binary.LittleEndian.PutUint16(col0[4:6], 8)
	col0[6] = 4
	col0[7] = 0

	col1 := tcinfo[30:38]
	binary.LittleEndian.PutUint32(col1[0:4], uint32(NewPropertyTag(idCol1, PtBinary)))
	binary.LittleEndian.PutUint16(col1[4:6], 12)
	col1[6] = 4
	col1[7] = 1

	bthLeaf := make([]byte, 8)
	binary.LittleEndian.PutUint32(bthLeaf[0:4], rowID)
	binary.LittleEndian.PutUint32(bthLeaf[4:8], 0)

	bthHeader := make([]byte, 8)
	bthHeader[0] = bthSignature
	bthHeader[1] = 4
	bthHeader[2] = 4
	bthHeader[3] = 0

	data, ids := buildHeapBlock(0x7C, [][]byte{tcinfo, row, blob, bthHeader, bthLeaf})
	binary.LittleEndian.PutUint32(data[32+4:32+8], uint32(ids[0]))
	// Patch the bth header's root id (allocation 3) to point at the leaf
	// (allocation 4), same pattern as buildLeafBTH.
	headerAllocStart := 32 + len(tcinfo) + len(row) + len(blob)
	binary.LittleEndian.PutUint32(data[headerAllocStart+4:headerAllocStart+8], uint32(ids[4]))

	heap, err := OpenHeap(data, nil)
	if err != nil {
		t.Fatalf("OpenHeap: %v", err)
	}
	tc, err := OpenTableContext(heap, ids[0], nil, nil)
	if err != nil {
		t.Fatalf("OpenTableContext: %v", err)
	}
	return tc
}

func TestTableContextRowCountAndID(t *testing.T) {
	tc := buildTableContext(t)
	if got := tc.RowCount(); got != 1 {
		t.Fatalf("RowCount() = %d, want 1", got)
	}
	id, err := tc.RowID(0)
	if err != nil {
		t.Fatalf("RowID(0): %v", err)
	}
	if id != 111 {
		t.Fatalf("RowID(0) = %d, want 111", id)
	}
}

func TestTableContextRowDecode(t *testing.T) {
	tc := buildTableContext(t)
	row, err := tc.Row(0)
	if err != nil {
		t.Fatalf("Row(0): %v", err)
	}
	v, ok := row[0x6001]
	if !ok {
		t.Fatal("Row(0) missing column 0x6001")
	}
	if v.Value.(int32) != 424242 {
		t.Fatalf("col0 value = %v, want 424242", v.Value)
	}
	v2, ok := row[0x6002]
	if !ok {
		t.Fatal("Row(0) missing column 0x6002")
	}
	got := v2.Value.([]byte)
	want := []byte{0xCA, 0xFE, 0xBA, 0xBE}
	if len(got) != len(want) {
		t.Fatalf("col1 value = %x, want %x", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("col1 value = %x, want %x", got, want)
		}
	}
}

func TestTableContextRowOutOfRange(t *testing.T) {
	tc := buildTableContext(t)
	if _, err := tc.Row(5); err == nil {
		t.Fatal("expected error for an out-of-range row index")
	}
}
