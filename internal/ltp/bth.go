package ltp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
)

const bthSignature = 0xB5

// bthHeader is the BTHHEADER at the root of a BTree-on-Heap.
type bthHeader struct {
	KeySize   byte
	ValueSize byte
	Levels    byte
	RootID    HeapID
}

// BTH is a BTree-on-Heap: a fixed key/value-width B-tree whose pages are
// themselves heap allocations.
type BTH struct {
	heap   *Heap
	header bthHeader
}

// OpenBTH parses the BTHHEADER at rootID in heap.
func OpenBTH(heap *Heap, rootID HeapID) (*BTH, error) {
	raw, err := heap.Get(rootID)
	if err != nil {
		return nil, err
	}
	if len(raw) < 8 || raw[0] != bthSignature {
		return nil, fmt.Errorf("%w: bad bth signature", ErrCorruptBTH)
	}
	var rootHID uint32
	if err := binary.Read(bytes.NewReader(raw[4:8]), binary.LittleEndian, &rootHID); err != nil {
		return nil, err
	}
	return &BTH{
		heap: heap,
		header: bthHeader{
			KeySize:   raw[1],
			ValueSize: raw[2],
			Levels:    raw[3],
			RootID:    HeapID(rootHID),
		},
	}, nil
}

// Find returns the raw value bytes stored under key (a little-endian,
// KeySize-wide integer), or ErrBTHKeyNotFound.
func (b *BTH) Find(key uint64) ([]byte, error) {
	return b.find(b.header.RootID, b.header.Levels, key)
}

func (b *BTH) find(id HeapID, level byte, key uint64) ([]byte, error) {
	raw, err := b.heap.Get(id)
	if err != nil {
		return nil, err
	}
	ks := int(b.header.KeySize)
	vs := int(b.header.ValueSize)

	if level == 0 {
		stride := ks + vs
		for off := 0; off+stride <= len(raw); off += stride {
			k := widenLE(raw[off : off+ks])
			if k == key {
				return raw[off+ks : off+stride], nil
			}
		}
		return nil, ErrBTHKeyNotFound
	}

	stride := ks + 4 // intermediate BTH entries: key + child HID
	var childID HeapID
	found := false
	for off := 0; off+stride <= len(raw); off += stride {
		k := widenLE(raw[off : off+ks])
		if k <= key {
			var hid uint32
			binary.Read(bytes.NewReader(raw[off+ks:off+stride]), binary.LittleEndian, &hid)
			childID = HeapID(hid)
			found = true
		}
	}
	if !found {
		return nil, ErrBTHKeyNotFound
	}
	return b.find(childID, level-1, key)
}

// All decodes every leaf (key, value) pair in ascending key order. Used
// by Property Context and Table Context to enumerate their full index.
func (b *BTH) All() ([]BTHEntry, error) {
	entries, err := b.collect(b.header.RootID, b.header.Levels)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// BTHEntry is one decoded (key, value) leaf record.
type BTHEntry struct {
	Key   uint64
	Value []byte
}

func (b *BTH) collect(id HeapID, level byte) ([]BTHEntry, error) {
	raw, err := b.heap.Get(id)
	if err != nil {
		return nil, err
	}
	ks := int(b.header.KeySize)
	vs := int(b.header.ValueSize)

	if level == 0 {
		stride := ks + vs
		out := make([]BTHEntry, 0, len(raw)/max(stride, 1))
		for off := 0; off+stride <= len(raw); off += stride {
			out = append(out, BTHEntry{
				Key:   widenLE(raw[off : off+ks]),
				Value: raw[off+ks : off+stride],
			})
		}
		return out, nil
	}

	stride := ks + 4
	var all []BTHEntry
	for off := 0; off+stride <= len(raw); off += stride {
		var hid uint32
		binary.Read(bytes.NewReader(raw[off+ks:off+stride]), binary.LittleEndian, &hid)
		nested, err := b.collect(HeapID(hid), level-1)
		if err != nil {
			return nil, err
		}
		all = append(all, nested...)
	}
	return all, nil
}

func widenLE(b []byte) uint64 {
	var v uint64
	for i, x := range b {
		v |= uint64(x) << (8 * i)
	}
	return v
}
