package ndb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pstkit/pst/internal/crc"
)

// PageType is the ptype trailer field identifying what a 512-byte page
// holds.
type PageType uint8

const (
	PageTypeBlockBTree        PageType = 0x80
	PageTypeNodeBTree         PageType = 0x81
	PageTypeFreeMap           PageType = 0x82
	PageTypeAllocationPageMap PageType = 0x83
	PageTypeAllocationMap     PageType = 0x84
	PageTypeFreePageMap       PageType = 0x85
	PageTypeDensityList       PageType = 0x86
)

func parsePageType(b byte) (PageType, error) {
	switch PageType(b) {
	case PageTypeBlockBTree, PageTypeNodeBTree, PageTypeFreeMap,
		PageTypeAllocationPageMap, PageTypeAllocationMap,
		PageTypeFreePageMap, PageTypeDensityList:
		return PageType(b), nil
	default:
		return 0, fmt.Errorf("%w: 0x%02x", ErrUnsupportedBlockType, b)
	}
}

// hasSignature reports whether this page type carries a nonzero
// signature (BTree and density-list pages do; map pages do not).
func (t PageType) hasSignature() bool {
	switch t {
	case PageTypeBlockBTree, PageTypeNodeBTree, PageTypeDensityList:
		return true
	default:
		return false
	}
}

// PageTrailer is the PAGETRAILER at the tail of every 512-byte page: 16
// bytes on Unicode, 12 on ANSI.
type PageTrailer struct {
	Type      PageType
	Signature uint16
	CRC       uint32
	SelfBlock BlockID
}

// ReadPage reads and validates the 512-byte page at block, returning its
// trailer and the data region preceding it (496 bytes on Unicode, 500 on
// ANSI). Signature and CRC
// are checked against the page's own content and self block id, per
// §8's block-signature invariant.
func ReadPage(r io.ReaderAt, d Dialect, block BlockRef) (PageTrailer, []byte, error) {
	buf := make([]byte, 512)
	if _, err := r.ReadAt(buf, int64(block.Index)); err != nil {
		return PageTrailer{}, nil, fmt.Errorf("page at 0x%x: %w", block.Index, err)
	}

	// PAGETRAILER is ptype(1)+ptypeRepeat(1)+signature(2)+crc(4)+bid(dialect
	// width): 16 bytes on Unicode, 12 on ANSI, leaving a 496-byte
	// (Unicode) / 500-byte (ANSI) data region here. btree.go strips the
	// BTPAGE header fields (and, on Unicode, a 4-byte zero pad) from
	// that data to get the 488/496-byte entry area §3 describes.
	trailerSize := 8 + d.BIDSize()
	data := buf[:512-trailerSize]
	trailerBuf := buf[512-trailerSize:]
	tr := bytes.NewReader(trailerBuf)

	var typeBytes [2]byte
	if _, err := io.ReadFull(tr, typeBytes[:]); err != nil {
		return PageTrailer{}, nil, err
	}
	if typeBytes[0] != typeBytes[1] {
		return PageTrailer{}, nil, fmt.Errorf("%w: %02x != %02x", ErrPageTrailerType, typeBytes[0], typeBytes[1])
	}
	ptype, err := parsePageType(typeBytes[0])
	if err != nil {
		return PageTrailer{}, nil, err
	}

	var signature uint16
	if err := binary.Read(tr, binary.LittleEndian, &signature); err != nil {
		return PageTrailer{}, nil, err
	}
	var pageCRC uint32
	if err := binary.Read(tr, binary.LittleEndian, &pageCRC); err != nil {
		return PageTrailer{}, nil, err
	}
	selfBlock, err := d.ReadBID(tr)
	if err != nil {
		return PageTrailer{}, nil, err
	}

	if ptype.hasSignature() {
		want := ComputeSignature(uint32(block.Index), uint32(selfBlock))
		if want != signature {
			return PageTrailer{}, nil, fmt.Errorf("%w: want 0x%04x got 0x%04x", ErrPageSignature, want, signature)
		}
	}

	if want := crc.Compute(0, data); want != pageCRC {
		return PageTrailer{}, nil, fmt.Errorf("%w: want 0x%08x got 0x%08x", ErrPageCRC, want, pageCRC)
	}

	return PageTrailer{
		Type:      ptype,
		Signature: signature,
		CRC:       pageCRC,
		SelfBlock: selfBlock,
	}, data, nil
}

// DensityListEntry records the per-page free-slot count the density list
// tracks for one AMAP page.
type DensityListEntry struct {
	Page      uint32
	FreeSlots uint16
}

// DensityList holds the entries decoded from one density-list page: a read-only
// summary of allocation-map fill level, not required for message access
// but useful to callers inspecting store health.
type DensityList struct {
	Entries []DensityListEntry
}

// ReadDensityList decodes a single density-list page's entries.
func ReadDensityList(data []byte) (DensityList, error) {
	r := bytes.NewReader(data)
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return DensityList{}, err
	}
	// 4 reserved bytes
	if _, err := r.Seek(4, io.SeekCurrent); err != nil {
		return DensityList{}, err
	}
	entries := make([]DensityListEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		var packed uint32
		if err := binary.Read(r, binary.LittleEndian, &packed); err != nil {
			break
		}
		entries = append(entries, DensityListEntry{
			Page:      packed >> 20,
			FreeSlots: uint16(packed & 0xFFFFF),
		})
	}
	return DensityList{Entries: entries}, nil
}
