package ltp

import (
	"encoding/binary"
	"errors"
	"testing"
	"time"
)

func TestDecodeScalarInteger16(t *testing.T) {
	raw := []byte{0x34, 0x12}
	v, err := DecodeScalar(PtInteger16, raw, nil)
	if err != nil {
		t.Fatalf("DecodeScalar: %v", err)
	}
	if got, ok := v.Value.(int16); !ok || got != 0x1234 {
		t.Fatalf("Value = %#v, want int16(0x1234)", v.Value)
	}
}

func TestDecodeScalarInteger32(t *testing.T) {
	raw := []byte{0x78, 0x56, 0x34, 0x12}
	v, err := DecodeScalar(PtInteger32, raw, nil)
	if err != nil {
		t.Fatalf("DecodeScalar: %v", err)
	}
	if got, ok := v.Value.(int32); !ok || got != 0x12345678 {
		t.Fatalf("Value = %#v, want int32(0x12345678)", v.Value)
	}
}

func TestDecodeScalarBoolean(t *testing.T) {
	v, err := DecodeScalar(PtBoolean, []byte{1, 0, 0, 0}, nil)
	if err != nil {
		t.Fatalf("DecodeScalar: %v", err)
	}
	if got, ok := v.Value.(bool); !ok || !got {
		t.Fatalf("Value = %#v, want bool(true)", v.Value)
	}

	v, err = DecodeScalar(PtBoolean, []byte{0, 0, 0, 0}, nil)
	if err != nil {
		t.Fatalf("DecodeScalar: %v", err)
	}
	if got := v.Value.(bool); got {
		t.Fatal("Value = true, want false")
	}
}

func TestDecodeScalarObject(t *testing.T) {
	raw := make([]byte, 8)
	binary.LittleEndian.PutUint32(raw[0:4], 0x00AB1234)
	binary.LittleEndian.PutUint32(raw[4:8], 512)

	v, err := DecodeScalar(PtObject, raw, nil)
	if err != nil {
		t.Fatalf("DecodeScalar: %v", err)
	}
	ref, ok := v.Value.(ObjectRef)
	if !ok {
		t.Fatalf("Value is %T, want ObjectRef", v.Value)
	}
	if ref.NID != 0x00AB1234 {
		t.Fatalf("ref.NID = 0x%x, want 0x00AB1234", ref.NID)
	}
	if ref.Size != 512 {
		t.Fatalf("ref.Size = %d, want 512", ref.Size)
	}
}

func TestDecodeScalarString8UsesDecoder(t *testing.T) {
	called := false
	decoder := func(raw []byte) (string, error) {
		called = true
		return "decoded", nil
	}
	v, err := DecodeScalar(PtString8, []byte("raw"), decoder)
	if err != nil {
		t.Fatalf("DecodeScalar: %v", err)
	}
	if !called {
		t.Fatal("custom decoder was not invoked")
	}
	if v.Value != "decoded" {
		t.Fatalf("Value = %#v, want \"decoded\"", v.Value)
	}
}

func TestDecodeScalarStringUTF16(t *testing.T) {
	raw := []byte{'h', 0, 'i', 0}
	v, err := DecodeScalar(PtString, raw, nil)
	if err != nil {
		t.Fatalf("DecodeScalar: %v", err)
	}
	if v.Value != "hi" {
		t.Fatalf("Value = %#v, want \"hi\"", v.Value)
	}
}

func TestDecodeScalarTime(t *testing.T) {
	// 2021-01-01T00:00:00Z in FILETIME (100ns ticks since 1601-01-01).
	want := time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)
	unixNanos := want.UnixNano()
	ft := uint64(unixNanos/100) + filetimeEpochOffset

	raw := make([]byte, 8)
	binary.LittleEndian.PutUint64(raw, ft)

	v, err := DecodeScalar(PtTime, raw, nil)
	if err != nil {
		t.Fatalf("DecodeScalar: %v", err)
	}
	got, ok := v.Value.(time.Time)
	if !ok {
		t.Fatalf("Value is %T, want time.Time", v.Value)
	}
	if !got.Equal(want) {
		t.Fatalf("Value = %v, want %v", got, want)
	}
}

func TestDecodeScalarBinary(t *testing.T) {
	raw := []byte{1, 2, 3, 4, 5}
	v, err := DecodeScalar(PtBinary, raw, nil)
	if err != nil {
		t.Fatalf("DecodeScalar: %v", err)
	}
	got, ok := v.Value.([]byte)
	if !ok {
		t.Fatalf("Value is %T, want []byte", v.Value)
	}
	if string(got) != string(raw) {
		t.Fatalf("Value = %v, want %v", got, raw)
	}
	// The decoded slice must be independent of raw.
	raw[0] = 0xFF
	if got[0] == 0xFF {
		t.Fatal("decoded binary aliases the input slice")
	}
}

func TestDecodeScalarMultiInteger32(t *testing.T) {
	raw := make([]byte, 4+4*3)
	binary.LittleEndian.PutUint32(raw[0:4], 3)
	binary.LittleEndian.PutUint32(raw[4:8], 10)
	binary.LittleEndian.PutUint32(raw[8:12], 20)
	binary.LittleEndian.PutUint32(raw[12:16], 30)

	v, err := DecodeScalar(PtMultiInteger32, raw, nil)
	if err != nil {
		t.Fatalf("DecodeScalar: %v", err)
	}
	values, ok := v.Value.([]any)
	if !ok {
		t.Fatalf("Value is %T, want []any", v.Value)
	}
	want := []int32{10, 20, 30}
	if len(values) != len(want) {
		t.Fatalf("len(values) = %d, want %d", len(values), len(want))
	}
	for i, w := range want {
		if got := values[i].(int32); got != w {
			t.Errorf("values[%d] = %d, want %d", i, got, w)
		}
	}
}

func TestDecodeScalarUnsupportedType(t *testing.T) {
	if _, err := DecodeScalar(PropertyType(0x9999), []byte{0, 0, 0, 0}, nil); !errors.Is(err, ErrUnsupportedPropertyType) {
		t.Fatalf("err = %v, want ErrUnsupportedPropertyType", err)
	}
}

func TestIsMultiValued(t *testing.T) {
	if PtInteger32.IsMultiValued() {
		t.Fatal("PtInteger32.IsMultiValued() = true, want false")
	}
	if !PtMultiInteger32.IsMultiValued() {
		t.Fatal("PtMultiInteger32.IsMultiValued() = false, want true")
	}
}
