package ndb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pstkit/pst/internal/crc"
)

var headerMagic = [4]byte{'!', 'B', 'D', 'N'}
var headerMagicClient = [2]byte{'S', 'M'}

const headerSentinel byte = 0x80

const ndbClientVersion uint16 = 19
const ndbPlatformCreate byte = 0x01
const ndbPlatformAccess byte = 0x01

// Root is the ROOT structure embedded in the header: the size of the PST
// file's node data and the BREFs anchoring the node B-tree, the block
// B-tree and the AMap free-space scan.
type Root struct {
	FileEOF          uint64
	AMapLast         uint64
	AMapFree         uint64
	AMapFreeAll      uint64
	NodeBTree        BlockRef
	BlockBTree       BlockRef
	AMapIsValid      byte
	ReclaimedFlagsOK bool
}

// Header is the decoded NDB HEADER structure: format version, crypt
// method, the next free block/page ids and the Root.
type Header struct {
	Version     NdbVersion
	Dialect     Dialect
	CryptMethod CryptMethod
	NextPage    BlockID
	NextBlock   BlockID
	Root        Root
}

// unicodeCrcDataSize and ansiCrcDataSize are the sizes of the HEADER
// region covered by dwCRCPartial (and, for Unicode only, dwCRCFull):
// 516 bytes for Unicode, 504 for ANSI. The first 471 bytes of either
// region are covered by the partial CRC; ANSI has no full-CRC field at
// all, while Unicode checks the full region once wVer confirms the
// dialect. Total on-disk HEADER size is 564 bytes (Unicode: magic 4 +
// crcPartial 4 + crcData 516 + crcFull 4 + reserved3 36) or 512 bytes
// (ANSI: magic 4 + crcPartial 4 + crcData 504), per
// original_source/ndb/header.rs.
const (
	unicodeCrcDataSize = 516
	ansiCrcDataSize    = 504
	partialCrcSize     = 471
)

// ReadHeader decodes and validates a PST HEADER from the start of r.
// The two dialects share the leading dwMagic/dwCRCPartial/wMagicClient/
// wVer fields but otherwise diverge: Unicode adds a second, full-region
// CRC and an extra bidUnused field; ANSI has neither and stores
// bidNextB before bidNextP. Both layouts are read in full here rather
// than shimmed into a single shape, following the teacher's own
// per-format decode functions.
func ReadHeader(r io.ReaderAt) (*Header, error) {
	buf := make([]byte, 564)
	n, err := r.ReadAt(buf, 0)
	if err != nil && (err != io.EOF || n < 512) {
		return nil, fmt.Errorf("ndb header: %w", err)
	}

	var magic [4]byte
	copy(magic[:], buf[0:4])
	if magic != headerMagic {
		return nil, fmt.Errorf("%w: %x", ErrHeaderMagic, magic)
	}
	crcPartial := binary.LittleEndian.Uint32(buf[4:8])

	var magicClient [2]byte
	copy(magicClient[:], buf[8:10])
	if magicClient != headerMagicClient {
		return nil, fmt.Errorf("%w: client magic %x", ErrHeaderMagic, magicClient)
	}
	rawVersion := binary.LittleEndian.Uint16(buf[10:12])
	version, dialect, err := ParseNdbVersion(rawVersion)
	if err != nil {
		return nil, err
	}

	if dialect == DialectAnsi {
		return readAnsiHeader(buf, version, crcPartial)
	}
	if n < len(buf) {
		return nil, fmt.Errorf("ndb header: %w", io.ErrUnexpectedEOF)
	}
	return readUnicodeHeader(buf, version, crcPartial)
}

func readUnicodeHeader(buf []byte, version NdbVersion, crcPartial uint32) (*Header, error) {
	crcData := buf[8 : 8+unicodeCrcDataSize]
	if crcPartial != crc.Compute(0, crcData[:partialCrcSize]) {
		return nil, fmt.Errorf("%w: partial", ErrHeaderCRC)
	}

	crcFull := binary.LittleEndian.Uint32(buf[8+unicodeCrcDataSize : 8+unicodeCrcDataSize+4])
	if crcFull != crc.Compute(0, crcData) {
		return nil, fmt.Errorf("%w: full", ErrHeaderCRC)
	}

	fcur := bytes.NewReader(crcData)
	// wMagicClient, wVer already validated from buf directly.
	if _, err := fcur.Seek(4, io.SeekStart); err != nil {
		return nil, err
	}

	if err := checkClientVersionAndPlatform(fcur); err != nil {
		return nil, err
	}

	// dwReserved1, dwReserved2, bidUnused (8 bytes: Unicode BID width)
	if _, err := fcur.Seek(4+4+8, io.SeekCurrent); err != nil {
		return nil, err
	}

	nextPage, err := DialectUnicode.ReadBID(fcur)
	if err != nil {
		return nil, err
	}

	// dwUnique
	if _, err := fcur.Seek(4, io.SeekCurrent); err != nil {
		return nil, err
	}

	// rgnid[32]
	if _, err := fcur.Seek(32*4, io.SeekCurrent); err != nil {
		return nil, err
	}

	// qwUnused
	if _, err := fcur.Seek(8, io.SeekCurrent); err != nil {
		return nil, err
	}

	root, err := readRoot(fcur, DialectUnicode)
	if err != nil {
		return nil, err
	}

	// dwAlign
	if _, err := fcur.Seek(4, io.SeekCurrent); err != nil {
		return nil, err
	}

	// rgbFM, rgbFP (2x128 bytes) are skipped: not surfaced by this
	// reader.
	if _, err := fcur.Seek(2*128, io.SeekCurrent); err != nil {
		return nil, err
	}

	cryptMethod, err := readSentinelAndCrypt(fcur)
	if err != nil {
		return nil, err
	}

	// rgbReserved
	if _, err := fcur.Seek(2, io.SeekCurrent); err != nil {
		return nil, err
	}

	nextBlock, err := DialectUnicode.ReadBID(fcur)
	if err != nil {
		return nil, err
	}

	return &Header{
		Version:     version,
		Dialect:     DialectUnicode,
		CryptMethod: cryptMethod,
		NextPage:    nextPage,
		NextBlock:   nextBlock,
		Root:        root,
	}, nil
}

func readAnsiHeader(buf []byte, version NdbVersion, crcPartial uint32) (*Header, error) {
	crcData := buf[8 : 8+ansiCrcDataSize]
	if crcPartial != crc.Compute(0, crcData[:partialCrcSize]) {
		return nil, fmt.Errorf("%w: partial", ErrHeaderCRC)
	}
	// ANSI carries no dwCRCFull field at all: only the 471-byte partial
	// CRC covers this header.

	fcur := bytes.NewReader(crcData)
	if _, err := fcur.Seek(4, io.SeekStart); err != nil {
		return nil, err
	}

	if err := checkClientVersionAndPlatform(fcur); err != nil {
		return nil, err
	}

	// dwReserved1, dwReserved2
	if _, err := fcur.Seek(4+4, io.SeekCurrent); err != nil {
		return nil, err
	}

	nextBlock, err := DialectAnsi.ReadBID(fcur)
	if err != nil {
		return nil, err
	}
	nextPage, err := DialectAnsi.ReadBID(fcur)
	if err != nil {
		return nil, err
	}

	// dwUnique
	if _, err := fcur.Seek(4, io.SeekCurrent); err != nil {
		return nil, err
	}

	// rgnid[32]
	if _, err := fcur.Seek(32*4, io.SeekCurrent); err != nil {
		return nil, err
	}

	root, err := readRoot(fcur, DialectAnsi)
	if err != nil {
		return nil, err
	}

	// rgbFM, rgbFP (2x128 bytes)
	if _, err := fcur.Seek(2*128, io.SeekCurrent); err != nil {
		return nil, err
	}

	cryptMethod, err := readSentinelAndCrypt(fcur)
	if err != nil {
		return nil, err
	}

	// rgbReserved(2) + ullReserved/dwReserved(12, must be zero)
	reserved := make([]byte, 2+12)
	if _, err := io.ReadFull(fcur, reserved); err != nil {
		return nil, err
	}
	for _, b := range reserved[2:] {
		if b != 0 {
			return nil, fmt.Errorf("%w: ansi reserved bytes", ErrHeaderMagic)
		}
	}

	return &Header{
		Version:     version,
		Dialect:     DialectAnsi,
		CryptMethod: cryptMethod,
		NextPage:    nextPage,
		NextBlock:   nextBlock,
		Root:        root,
	}, nil
}

func checkClientVersionAndPlatform(r io.Reader) error {
	var clientVersion uint16
	if err := binary.Read(r, binary.LittleEndian, &clientVersion); err != nil {
		return err
	}
	if clientVersion != ndbClientVersion {
		return fmt.Errorf("%w: client version %d", ErrInvalidNDBVersion, clientVersion)
	}

	var platformCreate, platformAccess byte
	if err := binary.Read(r, binary.LittleEndian, &platformCreate); err != nil {
		return err
	}
	if platformCreate != ndbPlatformCreate {
		return fmt.Errorf("%w: platform create 0x%02x", ErrHeaderMagic, platformCreate)
	}
	if err := binary.Read(r, binary.LittleEndian, &platformAccess); err != nil {
		return err
	}
	if platformAccess != ndbPlatformAccess {
		return fmt.Errorf("%w: platform access 0x%02x", ErrHeaderMagic, platformAccess)
	}
	return nil
}

func readSentinelAndCrypt(r io.Reader) (CryptMethod, error) {
	var sentinel, cryptRaw byte
	if err := binary.Read(r, binary.LittleEndian, &sentinel); err != nil {
		return 0, err
	}
	if sentinel != headerSentinel {
		return 0, fmt.Errorf("%w: 0x%02x", ErrHeaderSentinel, sentinel)
	}
	if err := binary.Read(r, binary.LittleEndian, &cryptRaw); err != nil {
		return 0, err
	}
	return ParseCryptMethod(cryptRaw)
}

func readRoot(r io.Reader, d Dialect) (Root, error) {
	// dwReserved
	if _, err := io.CopyN(io.Discard, r, 4); err != nil {
		return Root{}, err
	}

	var fileEOF, amapLast, amapFree, amapFreeAll uint64
	if d == DialectAnsi {
		var v32 [4]uint32
		for i := range v32 {
			if err := binary.Read(r, binary.LittleEndian, &v32[i]); err != nil {
				return Root{}, err
			}
		}
		fileEOF, amapLast, amapFree, amapFreeAll = uint64(v32[0]), uint64(v32[1]), uint64(v32[2]), uint64(v32[3])
	} else {
		vals := []*uint64{&fileEOF, &amapLast, &amapFree, &amapFreeAll}
		for _, v := range vals {
			if err := binary.Read(r, binary.LittleEndian, v); err != nil {
				return Root{}, err
			}
		}
	}

	nodeBTree, err := d.ReadBREF(r)
	if err != nil {
		return Root{}, err
	}
	blockBTree, err := d.ReadBREF(r)
	if err != nil {
		return Root{}, err
	}

	var amapValid byte
	if err := binary.Read(r, binary.LittleEndian, &amapValid); err != nil {
		return Root{}, err
	}

	// bARVec/cARVec reserved fields
	if _, err := io.CopyN(io.Discard, r, 2); err != nil {
		return Root{}, err
	}

	return Root{
		FileEOF:          fileEOF,
		AMapLast:         amapLast,
		AMapFree:         amapFree,
		AMapFreeAll:      amapFreeAll,
		NodeBTree:        nodeBTree,
		BlockBTree:       blockBTree,
		AMapIsValid:      amapValid,
		ReclaimedFlagsOK: amapValid != 0,
	}, nil
}
