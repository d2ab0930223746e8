package cbor

import (
	"encoding/hex"
	"errors"
	"math"
	"testing"
)

func encodeHex(t *testing.T, v Value) string {
	t.Helper()
	b, err := Encode(v)
	if err != nil {
		t.Fatalf("Encode(%s) failed: %v", Diagnostic(v), err)
	}
	return hex.EncodeToString(b)
}

// TestEncodeRFC8949AppendixA mirrors TestDecodeRFC8949AppendixA, checking
// that Encode reproduces the same preferred-serialization bytes RFC 8949
// Appendix A specifies for each example.
func TestEncodeRFC8949AppendixA(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		hex  string
	}{
		{"0", Unsigned(0), "00"},
		{"1", Unsigned(1), "01"},
		{"10", Unsigned(10), "0a"},
		{"23", Unsigned(23), "17"},
		{"24", Unsigned(24), "1818"},
		{"100", Unsigned(100), "1864"},
		{"1000", Unsigned(1000), "1903e8"},
		{"1000000", Unsigned(1000000), "1a000f4240"},
		{"1000000000000", Unsigned(1000000000000), "1b000000e8d4a51000"},
		{"-1", Negative(0), "20"},
		{"-10", Negative(9), "29"},
		{"-100", Negative(99), "3863"},
		{"-1000", Negative(999), "3903e7"},
		{"empty byte string", Bytes(nil), "40"},
		{"h'01020304'", Bytes([]byte{1, 2, 3, 4}), "4401020304"},
		{"empty text string", MustText(""), "60"},
		{"a", MustText("a"), "6161"},
		{"IETF", MustText("IETF"), "6449455446"},
		{"backslash quote", MustText("\"\\"), "62225c"},
		{"unicode u", MustText("ü"), "62c3bc"},
		{"empty array", Array(), "80"},
		{"[1,2,3]", Array(Unsigned(1), Unsigned(2), Unsigned(3)), "83010203"},
		{"empty map", Map(), "a0"},
		{"{1:2,3:4}", Map(MapEntry{Key: Unsigned(1), Value: Unsigned(2)}, MapEntry{Key: Unsigned(3), Value: Unsigned(4)}), "a201020304"},
		{"false", Bool(false), "f4"},
		{"true", Bool(true), "f5"},
		{"null", Null(), "f6"},
		{"undefined", Undefined(), "f7"},
		{"simple(16)", Simple(16), "f0"},
		{"simple(255)", Simple(255), "f8ff"},
		{"half 0.0", Half(0x0000), "f90000"},
		{"half 1.0", Half(0x3c00), "f93c00"},
		{"half 1.5", Half(0x3e00), "f93e00"},
		{"float 100000.0", Float(100000.0), "fa47c35000"},
		{"double 1.1", Double(1.1), "fb3ff199999999999a"},
		{"tag 1 epoch", Tag(1, Unsigned(1363896240)), "c11a514b67b0"},
		{"tag 32 uri", Tag(32, MustText("http://www.example.com")), "d82076687474703a2f2f7777772e6578616d706c652e636f6d"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := encodeHex(t, c.v); got != c.hex {
				t.Errorf("got %s, want %s", got, c.hex)
			}
		})
	}
}

func TestEncodeBoundaryWidths(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		hex  string
	}{
		{"23 fits initial byte", Unsigned(23), "17"},
		{"24 needs 8-bit", Unsigned(24), "1818"},
		{"255 last 8-bit", Unsigned(255), "18ff"},
		{"256 needs 16-bit", Unsigned(256), "190100"},
		{"65535 last 16-bit", Unsigned(65535), "19ffff"},
		{"65536 needs 32-bit", Unsigned(65536), "1a00010000"},
		{"2^32-1 last 32-bit", Unsigned(math.MaxUint32), "1affffffff"},
		{"2^32 needs 64-bit", Unsigned(uint64(math.MaxUint32) + 1), "1b0000000100000000"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := encodeHex(t, c.v); got != c.hex {
				t.Errorf("got %s, want %s", got, c.hex)
			}
		})
	}
}

func TestEncodeAlwaysUsesShortestWidth(t *testing.T) {
	// Encode does not preserve the width a Value happens to remember
	// (it doesn't remember one); every unsigned/negative integer always
	// emits the shortest legal encoding regardless of how it was built.
	v := Unsigned(0)
	if got := encodeHex(t, v); got != "00" {
		t.Errorf("got %s, want 00", got)
	}
}

func TestEncodeAllSequence(t *testing.T) {
	values := []Value{Unsigned(0), Unsigned(1), Array(Unsigned(2), Unsigned(3))}
	b, err := NewEncoder(DefaultEncoderOptions()).EncodeAll(values)
	if err != nil {
		t.Fatalf("EncodeAll failed: %v", err)
	}
	if got := hex.EncodeToString(b); got != "0001820203" {
		t.Errorf("got %s, want 0001820203", got)
	}
}

func TestEncodeRejectSimpleRange(t *testing.T) {
	permissive := NewEncoder(DefaultEncoderOptions())
	b, err := permissive.Encode(Simple(24))
	if err != nil {
		t.Fatalf("default encoder should accept Simple(24): %v", err)
	}
	if hex.EncodeToString(b) != "f818" {
		t.Errorf("got %s, want f818", hex.EncodeToString(b))
	}

	strict := NewEncoder(NewEncoderOptions(WithEncoderRejectSimpleRange(true)))
	if _, err := strict.Encode(Simple(24)); !errors.Is(err, ErrInvalidAdditionalInfo) {
		t.Fatalf("got %v, want ErrInvalidAdditionalInfo", err)
	}
	// Simple(32) is outside the reserved range and is still accepted.
	if _, err := strict.Encode(Simple(32)); err != nil {
		t.Fatalf("Simple(32) should be accepted by strict encoder: %v", err)
	}
}

func TestRoundTripDecodeEncode(t *testing.T) {
	hexVectors := []string{
		"00", "01", "17", "1818", "1903e8", "20", "3863",
		"4401020304", "6449455446", "83010203", "a201020304",
		"f4", "f5", "f6", "f7", "f93c00", "fa47c35000", "fb3ff199999999999a",
		"c11a514b67b0",
	}
	for _, h := range hexVectors {
		t.Run(h, func(t *testing.T) {
			data, err := hex.DecodeString(h)
			if err != nil {
				t.Fatalf("bad test hex: %v", err)
			}
			v, err := Decode(data)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			out, err := Encode(v)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if got := hex.EncodeToString(out); got != h {
				t.Errorf("round trip = %s, want %s", got, h)
			}
		})
	}
}
