package rtf

import (
	"encoding/binary"
	"fmt"

	"github.com/pstkit/pst/internal/crc"
)

// Compression type magic values stored in a stream's 16-byte header.
const (
	magicCompressed   uint32 = 0x75465A4C // "LZFu"
	magicUncompressed uint32 = 0x414C454D // "MELA"
)

const headerSize = 16

// streamHeader is the fixed 16-byte header every compressed-RTF stream
// opens with: the size of what follows (compSize, counted from right
// after this field), the size of the content once decompressed, the
// compression type magic, and a CRC-32 of the compressed body (zero and
// meaningless when comp type is uncompressed).
type streamHeader struct {
	CompSize uint32
	RawSize  uint32
	CompType uint32
	CRC32    uint32
}

func readStreamHeader(data []byte) (streamHeader, error) {
	if len(data) < headerSize {
		return streamHeader{}, ErrShortHeader
	}
	h := streamHeader{
		CompSize: binary.LittleEndian.Uint32(data[0:4]),
		RawSize:  binary.LittleEndian.Uint32(data[4:8]),
		CompType: binary.LittleEndian.Uint32(data[8:12]),
		CRC32:    binary.LittleEndian.Uint32(data[12:16]),
	}
	if h.CompType != magicCompressed && h.CompType != magicUncompressed {
		return streamHeader{}, fmt.Errorf("%w: 0x%08x", ErrUnknownCompressionType, h.CompType)
	}
	// CompSize is measured from the byte after the CompSize field itself,
	// i.e. it covers RawSize+CompType+CRC32+body.
	if int(h.CompSize)+4 != len(data) {
		return streamHeader{}, ErrHeaderSizeMismatch
	}
	return h, nil
}

func (h streamHeader) writeTo(out []byte) {
	binary.LittleEndian.PutUint32(out[0:4], h.CompSize)
	binary.LittleEndian.PutUint32(out[4:8], h.RawSize)
	binary.LittleEndian.PutUint32(out[8:12], h.CompType)
	binary.LittleEndian.PutUint32(out[12:16], h.CRC32)
}

// DecompressRTF decodes a full compressed-RTF stream (header and body) into
// its original RTF bytes.
func DecompressRTF(data []byte) ([]byte, error) {
	h, err := readStreamHeader(data)
	if err != nil {
		return nil, err
	}
	body := data[headerSize:]
	if h.CompType == magicUncompressed {
		return append([]byte(nil), body...), nil
	}

	if crc.Compute(0, body) != h.CRC32 {
		return nil, ErrChecksumMismatch
	}

	out, err := decompressBody(body, int(h.RawSize))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// decompressBody runs the control-byte/token loop: each control byte's 8
// bits (LSB first) select, for the next 8 tokens, whether to copy one
// literal byte or read one 2-byte big-endian DictionaryReference.
// Decoding stops once rawSize output bytes have been produced or a
// reference reads back the dictionary's own current write offset (the
// end-of-stream sentinel a compressor may emit).
func decompressBody(body []byte, rawSize int) ([]byte, error) {
	dict := newTokenDictionary()
	out := make([]byte, 0, rawSize)
	pos := 0

	for pos < len(body) && len(out) < rawSize {
		control := body[pos]
		pos++
		for bit := 0; bit < 8 && pos <= len(body) && len(out) < rawSize; bit++ {
			isReference := control&(1<<uint(bit)) != 0
			if !isReference {
				if pos >= len(body) {
					return out, nil
				}
				b := body[pos]
				pos++
				dict.writeByte(b)
				out = append(out, b)
				continue
			}
			if pos+2 > len(body) {
				return nil, ErrTruncatedStream
			}
			ref := readDictionaryReference(body[pos : pos+2])
			pos += 2
			run := dict.readReference(ref)
			if run == nil {
				return out, nil
			}
			out = append(out, run...)
		}
	}
	return out, nil
}

// CompressRTF produces a full compressed-RTF stream (header plus LZ77 body)
// for rtfData.
func CompressRTF(rtfData []byte) ([]byte, error) {
	body, err := compressBody(rtfData)
	if err != nil {
		return nil, err
	}
	h := streamHeader{
		CompSize: uint32(len(body) + 12),
		RawSize:  uint32(len(rtfData)),
		CompType: magicCompressed,
		CRC32:    crc.Compute(0, body),
	}
	out := make([]byte, headerSize+len(body))
	h.writeTo(out)
	copy(out[headerSize:], body)
	return out, nil
}

// EncodeRTF wraps rtfData in a stream header declaring the
// "MELA" (uncompressed) compression type, copying rtfData verbatim as
// the body: a valid compressed-RTF stream a reader decodes as a no-op.
func EncodeRTF(rtfData []byte) []byte {
	h := streamHeader{
		CompSize: uint32(len(rtfData) + 12),
		RawSize:  uint32(len(rtfData)),
		CompType: magicUncompressed,
		CRC32:    0,
	}
	out := make([]byte, headerSize+len(rtfData))
	h.writeTo(out)
	copy(out[headerSize:], rtfData)
	return out
}

// compressBody runs the greedy longest-match loop over rtfData, emitting
// one control byte per 8 tokens followed by those tokens' literal bytes
// or 2-byte DictionaryReferences, and a final reference sentinel marking
// end of stream.
func compressBody(rtfData []byte) ([]byte, error) {
	dict := newTokenDictionary()
	out := make([]byte, 0, len(rtfData))

	var controlByte byte
	var tokens []byte
	bitCount := 0

	flush := func() {
		out = append(out, controlByte)
		out = append(out, tokens...)
		controlByte = 0
		tokens = tokens[:0]
		bitCount = 0
	}

	pos := 0
	for pos < len(rtfData) {
		ref, err := dict.findLongestMatch(rtfData[pos:])
		if err != nil {
			return nil, err
		}
		if ref == nil {
			tokens = append(tokens, rtfData[pos])
			pos++
		} else {
			controlByte |= 1 << uint(bitCount)
			b := make([]byte, 2)
			ref.writeTo(b)
			tokens = append(tokens, b...)
			pos += int(ref.length())
		}
		bitCount++
		if bitCount == 8 {
			flush()
		}
	}

	controlByte |= 1 << uint(bitCount)
	final := dict.finalReference()
	b := make([]byte, 2)
	final.writeTo(b)
	tokens = append(tokens, b...)
	flush()

	return out, nil
}
