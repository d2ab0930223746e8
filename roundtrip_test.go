package cbor

import (
	"encoding/hex"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestStructuralRoundTrip checks the round-trip invariant from §8: for a
// tree built directly with the Value constructors, Encode then Decode
// reproduces a structurally equal tree. The tree is already in canonical
// form (map keys in encoded-byte order, each float at its narrowest
// lossless width), so the same holds with canonical encoding enabled.
func TestStructuralRoundTrip(t *testing.T) {
	tree := Array(
		Unsigned(0),
		Negative(41),
		MustText("hello, 世界"),
		Bytes([]byte{0xde, 0xad, 0xbe, 0xef}),
		Map(
			MapEntry{Key: Unsigned(2), Value: Null()},
			MapEntry{Key: MustText("k1"), Value: Bool(true)},
		),
		Tag(0, MustText("2013-03-21T20:04:00Z")),
		Array(),
		Map(),
		Simple(200),
		Undefined(),
		Half(0x3c00),
		Float(3.14),
		Double(math.Pi),
	)

	for _, canonical := range []bool{false, true} {
		enc := NewEncoder(NewEncoderOptions(WithCanonicalMapOrdering(canonical)))
		b, err := enc.Encode(tree)
		if err != nil {
			t.Fatalf("canonical=%v: Encode failed: %v", canonical, err)
		}
		back, err := Decode(b)
		if err != nil {
			t.Fatalf("canonical=%v: Decode failed: %v", canonical, err)
		}
		if diff := cmp.Diff(tree, back, cmp.Comparer(DeepEqual)); diff != "" {
			t.Errorf("canonical=%v: round trip diff (-want +got):\n%s", canonical, diff)
		}
	}
}

// TestPreferredWidthInvariant checks that encoding a Value built from a
// given magnitude always selects the shortest legal argument width,
// regardless of how that magnitude happens to be represented in Go.
func TestPreferredWidthInvariant(t *testing.T) {
	magnitudes := []uint64{0, 1, 23, 24, 255, 256, 65535, 65536, math.MaxUint32, uint64(math.MaxUint32) + 1, math.MaxUint64}
	for _, m := range magnitudes {
		v := Unsigned(m)
		b, err := Encode(v)
		if err != nil {
			t.Fatalf("Encode(%d) failed: %v", m, err)
		}
		back, err := Decode(b)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if !v.Equal(back) {
			t.Errorf("magnitude %d did not round trip", m)
		}

		mt, ai := decodeInitialByte(b[0])
		if mt != MajorTypeUnsignedInteger {
			t.Fatalf("magnitude %d: major type = %v", m, mt)
		}
		wantAI := preferredWidthAI(m)
		if ai != wantAI && ai >= 24 {
			t.Errorf("magnitude %d: ai = %d, want %d", m, ai, wantAI)
		}
	}
}

// preferredWidthAI mirrors the shortest-width selection table independent
// of the encoder's own implementation, for the long-form argument sizes.
func preferredWidthAI(m uint64) byte {
	switch {
	case m < 24:
		return byte(m)
	case m <= math.MaxUint8:
		return byte(AdditionalInfo8Bit)
	case m <= math.MaxUint16:
		return byte(AdditionalInfo16Bit)
	case m <= math.MaxUint32:
		return byte(AdditionalInfo32Bit)
	default:
		return byte(AdditionalInfo64Bit)
	}
}

// TestCanonicalOrderingInvariant checks that canonical encoding of a map is
// idempotent under key permutation: any insertion order of the same
// entries produces identical bytes.
func TestCanonicalOrderingInvariant(t *testing.T) {
	entries := []MapEntry{
		{Key: Unsigned(100), Value: MustText("hundred")},
		{Key: MustText("z"), Value: Unsigned(1)},
		{Key: Bytes([]byte{1}), Value: Unsigned(2)},
		{Key: Unsigned(1), Value: Unsigned(3)},
	}

	permutations := [][]int{
		{0, 1, 2, 3},
		{3, 2, 1, 0},
		{1, 0, 3, 2},
		{2, 3, 0, 1},
	}

	var baseline string
	for _, perm := range permutations {
		permuted := make([]MapEntry, len(entries))
		for i, idx := range perm {
			permuted[i] = entries[idx]
		}
		b, err := NewEncoder(NewEncoderOptions(WithCanonicalMapOrdering(true))).Encode(Map(permuted...))
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		got := hex.EncodeToString(b)
		if baseline == "" {
			baseline = got
			continue
		}
		if got != baseline {
			t.Errorf("permutation %v produced %s, want %s", perm, got, baseline)
		}
	}
}

// TestTrailingDataStrictness checks the default-strict / opt-in-lenient
// behavior around unconsumed bytes after the top-level item (§4.2).
func TestTrailingDataStrictness(t *testing.T) {
	data, _ := hex.DecodeString("00ff")

	if _, err := Decode(data); !errors.Is(err, ErrTrailingBytes) {
		t.Fatalf("default Decode: got %v, want ErrTrailingBytes", err)
	}

	lenient := NewDecoder(NewDecoderOptions(WithAllowTrailingData(true)))
	if _, err := lenient.Decode(data); err != nil {
		t.Fatalf("lenient Decode failed: %v", err)
	}
}

// TestEncodeDecodeAllSymmetry checks that EncodeAll followed by DecodeAll
// recovers the original sequence of top-level items.
func TestEncodeDecodeAllSymmetry(t *testing.T) {
	values := []Value{
		Unsigned(1),
		MustText("two"),
		Array(Unsigned(3), Unsigned(4)),
		Map(MapEntry{Key: MustText("k"), Value: Bool(false)}),
		Tag(1, Unsigned(1363896240)),
	}

	enc := NewEncoder(DefaultEncoderOptions())
	b, err := enc.EncodeAll(values)
	if err != nil {
		t.Fatalf("EncodeAll failed: %v", err)
	}

	dec := NewDecoder(DefaultDecoderOptions())
	back, err := dec.DecodeAll(b)
	if err != nil {
		t.Fatalf("DecodeAll failed: %v", err)
	}

	if diff := cmp.Diff(values, back, cmp.Comparer(DeepEqual)); diff != "" {
		t.Errorf("DecodeAll(EncodeAll(values)) diff (-want +got):\n%s", diff)
	}
}
