// Package rtf implements the Compressed-RTF codec: a 4096-byte ring
// dictionary LZ77 scheme seeded with a fixed RTF preamble, used to store
// message bodies compactly.
package rtf

import "encoding/binary"

// initialDictionary is the fixed 207-byte RTF preamble every fresh
// dictionary starts pre-loaded with, letting the very first tokens of a
// real RTF body already match something.
var initialDictionary = []byte("{\\rtf1\\ansi\\mac\\deff0\\deftab720{\\fonttbl;}{\\f0\\fnil \\froman \\fswiss \\fmodern \\fscript \\fdecor MS Sans SerifSymbolArialTimes New RomanCourier{\\colortbl\\red0\\green0\\blue0\r\n\\par \\pard\\plain\\f0\\fs20\\b\\i\\u\\tab\\tx")

const dictionarySize = 4096

// tokenDictionary is the 4096-byte ring buffer both the compressor and
// decompressor maintain: every literal and every matched byte is written
// back into it, so later tokens can reference output the codec itself
// produced.
type tokenDictionary struct {
	buffer      [dictionarySize]byte
	size        int
	readOffset  int
	writeOffset int
}

func newTokenDictionary() *tokenDictionary {
	d := &tokenDictionary{}
	copy(d.buffer[:], initialDictionary)
	d.size = len(initialDictionary)
	d.writeOffset = len(initialDictionary)
	return d
}

func (d *tokenDictionary) writeByte(b byte) {
	d.buffer[d.writeOffset] = b
	if d.size < dictionarySize {
		d.size++
	}
	d.writeOffset = (d.writeOffset + 1) % dictionarySize
}

// readReference copies length bytes starting at ref's offset, writing
// each copied byte back into the dictionary as it goes (so a reference
// can legitimately run past the current write position, reading bytes
// it is itself in the middle of producing). Returns nil if ref's offset
// is exactly the current write offset: that is the end-of-stream
// sentinel a compressor emits as its final reference.
func (d *tokenDictionary) readReference(ref dictionaryReference) []byte {
	offset := int(ref.offset())
	if offset == d.writeOffset {
		return nil
	}
	length := int(ref.length())
	out := make([]byte, 0, length)
	for i := 0; i < length; i++ {
		b := d.buffer[offset]
		out = append(out, b)
		d.writeByte(b)
		offset = (offset + 1) % dictionarySize
	}
	return out
}

// dictionaryMatch is an in-progress candidate found while scanning for
// the longest match at one candidate offset.
type dictionaryMatch struct {
	offset uint16
	length uint16
}

// findLongestMatch scans every candidate start offset in the dictionary
// for the longest run of rtf bytes matching it, writing each byte that
// extends the best match found so far back into the dictionary as it
// scans (see tryMatch) — the same self-referential behavior
// readReference relies on, and the reason a match can legitimately
// exceed the dictionary's current fill level. Returns nil if no run of
// length >= 2 was found; rtf[0] is then in the dictionary once, as a
// literal.
func (d *tokenDictionary) findLongestMatch(rtfData []byte) (*dictionaryReference, error) {
	finalOffset := d.writeOffset % dictionarySize
	matchOffset := 0
	if d.size == dictionarySize {
		matchOffset = (d.writeOffset + 1) % dictionarySize
	}

	var best *dictionaryMatch
	bestLength := uint16(0)
	for {
		m, err := d.tryMatch(rtfData, matchOffset, bestLength)
		if err != nil {
			return nil, err
		}
		if m != nil && m.length > bestLength {
			best = m
			bestLength = m.length
		}
		matchOffset = (matchOffset + 1) % dictionarySize
		if matchOffset == finalOffset || bestLength >= 17 {
			break
		}
	}

	if best == nil {
		d.writeByte(rtfData[0])
		return nil, nil
	}
	if best.length < 2 {
		// tryMatch already wrote rtf[0] while scanning.
		return nil, nil
	}
	ref, err := newDictionaryReference(best.offset, uint8(best.length-2))
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

// tryMatch scans up to min(17, len(rtfData)) bytes starting at
// matchOffset. Every byte with a running match length greater than
// bestMatchLength is also written into the dictionary during the scan:
// this lets a later byte in the same run match against a dictionary
// state the scan itself just extended, which is how matches longer than
// the bytes physically present before the scan began become possible.
func (d *tokenDictionary) tryMatch(rtfData []byte, matchOffset int, bestMatchLength uint16) (*dictionaryMatch, error) {
	limit := len(rtfData)
	if limit > 17 {
		limit = 17
	}
	matchLength := uint16(0)
	offset := matchOffset
	for i := 0; i < limit; i++ {
		if d.buffer[offset] != rtfData[i] {
			break
		}
		matchLength++
		if matchLength > bestMatchLength {
			d.writeByte(rtfData[i])
		}
		offset = (offset + 1) % dictionarySize
	}
	if matchLength == 0 {
		return nil, nil
	}
	return &dictionaryMatch{offset: uint16(matchOffset), length: matchLength}, nil
}

// finalReference is the sentinel DictionaryReference a compressor emits
// to mark the end of its output: an offset equal to the current write
// position, with length()==2 (the minimum, carried as length_minus_2==0).
func (d *tokenDictionary) finalReference() dictionaryReference {
	ref, _ := newDictionaryReference(uint16(d.writeOffset), 0)
	return ref
}

// dictionaryReference packs a 12-bit dictionary offset and a 4-bit
// length-minus-2 into one big-endian uint16: length()-2 in the low
// nibble, offset in the high 12 bits.
type dictionaryReference uint16

func newDictionaryReference(offset uint16, lengthMinus2 uint8) (dictionaryReference, error) {
	if offset > 0x0FFF {
		return 0, ErrInvalidReferenceOffset
	}
	if lengthMinus2 > 0x0F {
		return 0, ErrInvalidReferenceLength
	}
	return dictionaryReference(uint16(lengthMinus2) | offset<<4), nil
}

func (r dictionaryReference) offset() uint16 { return uint16(r&0xFFF0) >> 4 }
func (r dictionaryReference) length() uint16 { return uint16(r&0x000F) + 2 }

func readDictionaryReference(b []byte) dictionaryReference {
	return dictionaryReference(binary.BigEndian.Uint16(b))
}

func (r dictionaryReference) writeTo(b []byte) {
	binary.BigEndian.PutUint16(b, uint16(r))
}
