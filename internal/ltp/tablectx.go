package ltp

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const tcSignature = 0x7C

// TableColumn describes one column of a Table Context: the property
// tag it holds, its byte offset and width within a row, and its bit
// index into the row's existence bitmap.
type TableColumn struct {
	Tag      PropertyTag
	Offset   uint16
	Size     uint8
	BitIndex uint16
}

// TableContext decodes a node's Table Context: a row matrix with a
// fixed-width row plus an existence bitmap, indexed by a row-id BTH.
type TableContext struct {
	columns       []TableColumn
	rowWidth      uint16
	existenceOff  uint16
	rows          [][]byte
	rowIDs        []uint32
	decodeString8 CodePageDecoder
	resolveNID    func(uint32) ([]byte, error)
	heap          *Heap
}

// OpenTableContext parses the TCINFO at heap's tcInfoID (ordinarily
// heap.RootID()): its column descriptors, its row-index BTH (hidRowIndex)
// and the row matrix itself (hnidRows — a heap id when the matrix is
// small enough to live inline, otherwise a sub-node NID resolved through
// resolveNID).
func OpenTableContext(heap *Heap, tcInfoID HeapID, decodeString8 CodePageDecoder, resolveNID func(uint32) ([]byte, error)) (*TableContext, error) {
	raw, err := heap.Get(tcInfoID)
	if err != nil {
		return nil, err
	}
	if len(raw) < 22 || raw[0] != tcSignature {
		return nil, fmt.Errorf("%w: bad tcinfo signature", ErrCorruptTableContext)
	}

	colCount := raw[1]
	var rgib [4]uint16
	for i := range rgib {
		rgib[i] = binary.LittleEndian.Uint16(raw[2+i*2 : 4+i*2])
	}
	rowWidth := rgib[3]
	hidRowIndex := binary.LittleEndian.Uint32(raw[10:14])
	hnidRows := binary.LittleEndian.Uint32(raw[14:18])

	cols := make([]TableColumn, 0, colCount)
	descStart := 22
	for i := 0; i < int(colCount); i++ {
		off := descStart + i*8
		if off+8 > len(raw) {
			break
		}
		d := raw[off : off+8]
		tag := PropertyTag(binary.LittleEndian.Uint32(d[0:4]))
		ibData := binary.LittleEndian.Uint16(d[4:6])
		cbData := d[6]
		iBit := d[7]
		cols = append(cols, TableColumn{Tag: tag, Offset: ibData, Size: cbData, BitIndex: uint16(iBit)})
	}

	var rowIDs []uint32
	if hidRowIndex != 0 {
		rowIndex, err := OpenBTH(heap, HeapID(hidRowIndex))
		if err != nil {
			return nil, fmt.Errorf("%w: row index: %v", ErrCorruptTableContext, err)
		}
		entries, err := rowIndex.All()
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			rowIDs = append(rowIDs, uint32(e.Key))
		}
	}

	var rowsData []byte
	if hnidRows != 0 {
		if hnidRows&0x1F == 0 {
			rowsData, err = heap.Get(HeapID(hnidRows))
		} else if resolveNID != nil {
			rowsData, err = resolveNID(hnidRows)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row matrix: %v", ErrCorruptTableContext, err)
		}
	}

	var rows [][]byte
	for off := 0; off+int(rowWidth) <= len(rowsData); off += int(rowWidth) {
		rows = append(rows, rowsData[off:off+int(rowWidth)])
	}

	return &TableContext{
		columns:       cols,
		rowWidth:      rowWidth,
		existenceOff:  rgib[0],
		rows:          rows,
		rowIDs:        rowIDs,
		decodeString8: decodeString8,
		resolveNID:    resolveNID,
		heap:          heap,
	}, nil
}

// RowCount returns the number of rows currently decoded.
func (tc *TableContext) RowCount() int { return len(tc.rows) }

// RowID returns the dwRowID the row-index BTH associates with row i —
// for a hierarchy or contents table this is the child object's NID.
func (tc *TableContext) RowID(i int) (uint32, error) {
	if i < 0 || i >= len(tc.rowIDs) {
		return 0, fmt.Errorf("%w: row index %d", ErrCorruptTableContext, i)
	}
	return tc.rowIDs[i], nil
}

// Row decodes row i into a tag-to-value map, skipping columns whose
// existence bit is unset.
func (tc *TableContext) Row(i int) (map[uint16]PropertyValue, error) {
	if i < 0 || i >= len(tc.rows) {
		return nil, fmt.Errorf("%w: row index %d", ErrCorruptTableContext, i)
	}
	row := tc.rows[i]
	out := make(map[uint16]PropertyValue, len(tc.columns))
	for _, col := range tc.columns {
		if !tc.exists(row, col.BitIndex) {
			continue
		}
		if int(col.Offset)+int(col.Size) > len(row) {
			continue
		}
		raw := row[col.Offset : col.Offset+uint16(col.Size)]
		v, err := tc.decodeColumn(col, raw)
		if err != nil {
			return nil, err
		}
		out[col.Tag.ID()] = v
	}
	return out, nil
}

func (tc *TableContext) exists(row []byte, bit uint16) bool {
	byteOff := int(tc.existenceOff) + int(bit/8)
	if byteOff >= len(row) {
		return false
	}
	return row[byteOff]&(1<<(7-bit%8)) != 0
}

func (tc *TableContext) decodeColumn(col TableColumn, raw []byte) (PropertyValue, error) {
	if fitsInline(col.Tag.Type()) || col.Size <= 4 {
		padded := make([]byte, 4)
		copy(padded, raw)
		if fitsInline(col.Tag.Type()) {
			return DecodeScalar(col.Tag.Type(), padded, tc.decodeString8)
		}
	}
	ref := binary.LittleEndian.Uint32(padOrTrim(raw))
	if ref&0x1F == 0 {
		payload, err := tc.heap.Get(HeapID(ref))
		if err != nil {
			return PropertyValue{}, err
		}
		return DecodeScalar(col.Tag.Type(), payload, tc.decodeString8)
	}
	if tc.resolveNID == nil {
		return PropertyValue{}, fmt.Errorf("%w: sub-node column but no resolver", ErrCorruptTableContext)
	}
	payload, err := tc.resolveNID(ref)
	if err != nil {
		return PropertyValue{}, err
	}
	return DecodeScalar(col.Tag.Type(), payload, tc.decodeString8)
}

func padOrTrim(raw []byte) []byte {
	buf := bytes.NewBuffer(nil)
	buf.Write(raw)
	for buf.Len() < 4 {
		buf.WriteByte(0)
	}
	return buf.Bytes()[:4]
}
