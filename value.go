package cbor

import (
	"math"
	"unicode/utf8"
)

// Kind identifies which alternative of the Value tagged variant is held.
type Kind int

const (
	// KindUnsigned holds an unsigned 64-bit integer n, denoting n.
	KindUnsigned Kind = iota
	// KindNegative holds an unsigned 64-bit payload n, denoting -1-n.
	KindNegative
	// KindByteString holds a raw byte sequence.
	KindByteString
	// KindTextString holds a well-formed UTF-8 text sequence.
	KindTextString
	// KindArray holds an ordered sequence of Values.
	KindArray
	// KindMap holds an ordered sequence of key/value Value pairs.
	KindMap
	// KindTagged holds a tag number and a single wrapped Value.
	KindTagged
	// KindSimple holds a CBOR simple value other than bool/null/undefined.
	KindSimple
	// KindBool holds a boolean.
	KindBool
	// KindNull represents CBOR null.
	KindNull
	// KindUndefined represents CBOR undefined.
	KindUndefined
	// KindHalf holds a raw IEEE-754 binary16 bit pattern.
	KindHalf
	// KindFloat holds an IEEE-754 binary32 value.
	KindFloat
	// KindDouble holds an IEEE-754 binary64 value.
	KindDouble
)

// String returns a short name for the Kind.
func (k Kind) String() string {
	switch k {
	case KindUnsigned:
		return "Unsigned"
	case KindNegative:
		return "Negative"
	case KindByteString:
		return "ByteString"
	case KindTextString:
		return "TextString"
	case KindArray:
		return "Array"
	case KindMap:
		return "Map"
	case KindTagged:
		return "Tagged"
	case KindSimple:
		return "Simple"
	case KindBool:
		return "Bool"
	case KindNull:
		return "Null"
	case KindUndefined:
		return "Undefined"
	case KindHalf:
		return "Half"
	case KindFloat:
		return "Float"
	case KindDouble:
		return "Double"
	default:
		return "Unknown"
	}
}

// MapEntry is one (key, value) pair of a Map, in insertion order.
type MapEntry struct {
	Key   Value
	Value Value
}

// Value is a tagged-variant in-memory representation of a single CBOR
// data item (§3). The zero Value is an Unsigned(0).
type Value struct {
	kind  Kind
	u     uint64     // Unsigned/Negative payload; Simple code; Half/Float/Double raw bits; tag number
	b     bool       // Bool payload
	bytes []byte     // ByteString payload
	text  string     // TextString payload
	items []Value    // Array elements
	pairs []MapEntry // Map entries, insertion order
	inner *Value     // Tagged nested value
}

// Kind reports which alternative this Value holds.
func (v Value) Kind() Kind { return v.kind }

// Unsigned constructs the Unsigned(n) variant, denoting the integer n.
func Unsigned(n uint64) Value { return Value{kind: KindUnsigned, u: n} }

// Negative constructs the Negative(n) variant, denoting the integer -1-n.
func Negative(n uint64) Value { return Value{kind: KindNegative, u: n} }

// Bytes constructs a ByteString Value wrapping a copy of b.
func Bytes(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{kind: KindByteString, bytes: cp}
}

// Text constructs a TextString Value. It fails if s is not well-formed UTF-8.
func Text(s string) (Value, error) {
	if !utf8.ValidString(s) {
		return Value{}, ErrInvalidUTF8
	}
	return Value{kind: KindTextString, text: s}, nil
}

// MustText is Text, panicking on invalid UTF-8. Intended for literals known
// to be valid at compile time (tests, constants), not for untrusted input.
func MustText(s string) Value {
	v, err := Text(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Array constructs an Array Value from its elements, in order.
func Array(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindArray, items: cp}
}

// Map constructs a Map Value from its entries, preserving insertion order.
// Duplicate keys are neither detected nor rejected (§3, §6).
func Map(entries ...MapEntry) Value {
	cp := make([]MapEntry, len(entries))
	copy(cp, entries)
	return Value{kind: KindMap, pairs: cp}
}

// Tag constructs a Tagged Value wrapping nested with the given tag number.
func Tag(tag uint64, nested Value) Value {
	n := nested
	return Value{kind: KindTagged, u: tag, inner: &n}
}

// Simple constructs a Simple(code) Value for a CBOR simple value other
// than bool/null/undefined. The caller is trusted: codes 24-31 (which
// collide with ai 24's long-form encoding but are themselves unvalidated)
// are accepted without range checking (§6 Compatibility note).
func Simple(code byte) Value { return Value{kind: KindSimple, u: uint64(code)} }

// Bool constructs a Bool Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Null constructs the Null Value.
func Null() Value { return Value{kind: KindNull} }

// Undefined constructs the Undefined Value.
func Undefined() Value { return Value{kind: KindUndefined} }

// Half constructs a Half Value from a raw IEEE-754 binary16 bit pattern.
// The pattern is stored as-is, so distinct NaN payloads are preserved.
func Half(bits uint16) Value { return Value{kind: KindHalf, u: uint64(bits)} }

// Float constructs a Float Value from an IEEE-754 binary32 number.
func Float(f float32) Value { return Value{kind: KindFloat, u: uint64(math.Float32bits(f))} }

// Double constructs a Double Value from an IEEE-754 binary64 number.
func Double(f float64) Value { return Value{kind: KindDouble, u: math.Float64bits(f)} }

// IntValue constructs the signed-64-bit convenience variant: Unsigned(v)
// when v >= 0, otherwise Negative(^v) (the bitwise complement of v, i.e.
// -1-v as an unsigned 64-bit value). Total across the full signed 64-bit
// range.
func IntValue(v int64) Value {
	if v >= 0 {
		return Unsigned(uint64(v))
	}
	return Negative(uint64(^v))
}

// SignMagnitude returns the Unsigned/Negative payload as (sign, magnitude) where
// sign is +1 or -1 and magnitude is the raw stored payload (for Negative,
// this is n, not -1-n). ok is false for every other Kind.
func (v Value) SignMagnitude() (sign int, magnitude uint64, ok bool) {
	switch v.kind {
	case KindUnsigned:
		return +1, v.u, true
	case KindNegative:
		return -1, v.u, true
	default:
		return 0, 0, false
	}
}

// IsNumeric reports whether v is Unsigned, Negative, Half, Float, or Double.
func (v Value) IsNumeric() bool {
	switch v.kind {
	case KindUnsigned, KindNegative, KindHalf, KindFloat, KindDouble:
		return true
	default:
		return false
	}
}

// ByteString returns the payload of a ByteString Value.
func (v Value) ByteString() ([]byte, bool) {
	if v.kind != KindByteString {
		return nil, false
	}
	return v.bytes, true
}

// TextString returns the payload of a TextString Value.
func (v Value) TextString() (string, bool) {
	if v.kind != KindTextString {
		return "", false
	}
	return v.text, true
}

// Items returns the elements of an Array Value.
func (v Value) Items() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.items, true
}

// Entries returns the (key, value) pairs of a Map Value, in insertion order.
func (v Value) Entries() ([]MapEntry, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.pairs, true
}

// Tagged returns the tag number and the wrapped Value of a Tagged Value.
func (v Value) Tagged() (tag uint64, nested Value, ok bool) {
	if v.kind != KindTagged {
		return 0, Value{}, false
	}
	return v.u, *v.inner, true
}

// SimpleCode returns the stored code of a Simple Value.
func (v Value) SimpleCode() (byte, bool) {
	if v.kind != KindSimple {
		return 0, false
	}
	return byte(v.u), true
}

// BoolValue returns the payload of a Bool Value.
func (v Value) BoolValue() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// HalfBits returns the raw IEEE-754 binary16 bit pattern of a Half Value.
func (v Value) HalfBits() (uint16, bool) {
	if v.kind != KindHalf {
		return 0, false
	}
	return uint16(v.u), true
}

// Float32Value returns the payload of a Float Value.
func (v Value) Float32Value() (float32, bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return math.Float32frombits(uint32(v.u)), true
}

// Float64Value returns the payload of a Double Value.
func (v Value) Float64Value() (float64, bool) {
	if v.kind != KindDouble {
		return 0, false
	}
	return math.Float64frombits(v.u), true
}

// AsFloat64 upcasts any of Half, Float, or Double to a float64, for
// diagnostics and display. It returns ok=false for every other Kind.
func (v Value) AsFloat64() (f float64, ok bool) {
	switch v.kind {
	case KindHalf:
		return float64(float16BitsToFloat32(uint16(v.u))), true
	case KindFloat:
		return float64(math.Float32frombits(uint32(v.u))), true
	case KindDouble:
		return math.Float64frombits(v.u), true
	default:
		return 0, false
	}
}

// Equal implements the structural equality relation of §3: Array/Map
// compare element-wise and in order, and Half/Float/Double compare by bit
// pattern rather than numeric value (so NaN equals itself, and distinct
// NaN payloads are not equal).
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}

	switch v.kind {
	case KindUnsigned, KindNegative, KindSimple, KindHalf, KindFloat, KindDouble:
		return v.u == other.u
	case KindByteString:
		return bytesEqual(v.bytes, other.bytes)
	case KindTextString:
		return v.text == other.text
	case KindArray:
		if len(v.items) != len(other.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(other.items[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.pairs) != len(other.pairs) {
			return false
		}
		for i := range v.pairs {
			if !v.pairs[i].Key.Equal(other.pairs[i].Key) || !v.pairs[i].Value.Equal(other.pairs[i].Value) {
				return false
			}
		}
		return true
	case KindTagged:
		return v.u == other.u && v.inner.Equal(*other.inner)
	case KindBool:
		return v.b == other.b
	case KindNull, KindUndefined:
		return true
	default:
		return false
	}
}

// DeepEqual is Value.Equal exposed as a free function, for use as a
// comparer by go-cmp-based and table-driven tests.
func DeepEqual(a, b Value) bool { return a.Equal(b) }

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
