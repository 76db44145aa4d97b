package ndb

import (
	"bytes"
	"testing"
)

func TestPermuteRoundTrip(t *testing.T) {
	data := make([]byte, 256)
	for i := range data {
		data[i] = byte(i)
	}
	original := append([]byte(nil), data...)

	PermuteEncode(data)
	if bytes.Equal(data, original) {
		t.Fatal("PermuteEncode did not change the data")
	}
	PermuteDecode(data)
	if !bytes.Equal(data, original) {
		t.Fatalf("PermuteDecode did not invert PermuteEncode: got %x want %x", data, original)
	}
}

func TestCyclicTransformIsSelfInverse(t *testing.T) {
	data := bytes.Repeat([]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}, 16)
	original := append([]byte(nil), data...)
	const key = 0x12345678

	CyclicTransform(data, key)
	if bytes.Equal(data, original) {
		t.Fatal("CyclicTransform did not change the data")
	}
	CyclicTransform(data, key)
	if !bytes.Equal(data, original) {
		t.Fatalf("applying CyclicTransform twice with the same key did not restore the original: got %x want %x", data, original)
	}
}

func TestTransformNoneIsNoOp(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	original := append([]byte(nil), data...)
	Transform(CryptNone, true, data, 0xFF)
	if !bytes.Equal(data, original) {
		t.Fatalf("CryptNone transform changed data: got %x want %x", data, original)
	}
}

func TestParseCryptMethod(t *testing.T) {
	for _, b := range []byte{0x00, 0x01, 0x02} {
		if _, err := ParseCryptMethod(b); err != nil {
			t.Errorf("ParseCryptMethod(0x%02x): %v", b, err)
		}
	}
	if _, err := ParseCryptMethod(0x03); err == nil {
		t.Fatal("expected ErrInvalidCryptMethod for 0x03")
	}
}
