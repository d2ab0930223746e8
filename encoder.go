package cbor

import (
	"bytes"
	"encoding/binary"
	"math"
	"sort"
)

// EncoderOptions configures an Encoder.
type EncoderOptions struct {
	// CanonicalMapOrdering, when true, enables both canonical map key
	// ordering and preferred (narrowest-lossless) float encoding (§4.4).
	// A single flag governs both behaviors, per §4.3.
	CanonicalMapOrdering bool

	// RejectSimpleRange, when true, makes Encode fail instead of silently
	// emitting a long-form Simple(c) whose code falls in the reserved
	// 24-31 range. Default false, matching the baseline behavior in
	// §4.3/§6 where all values constructible by the API are encodable.
	RejectSimpleRange bool
}

// DefaultEncoderOptions returns the default EncoderOptions.
func DefaultEncoderOptions() EncoderOptions {
	return EncoderOptions{}
}

// EncoderOption configures an EncoderOptions value via NewEncoderOptions,
// matching the teacher's functional-option construction style.
type EncoderOption func(*EncoderOptions)

// WithCanonicalMapOrdering sets EncoderOptions.CanonicalMapOrdering.
func WithCanonicalMapOrdering(canonical bool) EncoderOption {
	return func(o *EncoderOptions) { o.CanonicalMapOrdering = canonical }
}

// WithEncoderRejectSimpleRange sets EncoderOptions.RejectSimpleRange.
func WithEncoderRejectSimpleRange(reject bool) EncoderOption {
	return func(o *EncoderOptions) { o.RejectSimpleRange = reject }
}

// NewEncoderOptions builds an EncoderOptions record from functional options.
func NewEncoderOptions(opts ...EncoderOption) EncoderOptions {
	o := DefaultEncoderOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Encoder consumes a Value tree and yields RFC 8949 preferred-serialization
// bytes (§4.3). An Encoder is stateless between calls to Encode/EncodeAll.
type Encoder struct {
	opts EncoderOptions
}

// NewEncoder creates an Encoder with the given options.
func NewEncoder(opts EncoderOptions) *Encoder {
	return &Encoder{opts: opts}
}

// Options returns a copy of the encoder's current options.
func (e *Encoder) Options() EncoderOptions { return e.opts }

// SetOptions replaces the encoder's options for subsequent calls.
func (e *Encoder) SetOptions(opts EncoderOptions) { e.opts = opts }

// Encode renders v to its preferred-serialization bytes.
func (e *Encoder) Encode(v Value) ([]byte, error) {
	s := &encState{opts: e.opts}
	if err := s.encodeValue(v); err != nil {
		return nil, err
	}
	return s.buf, nil
}

// EncodeAll renders each value in order and concatenates the results with
// no separator (RFC 8742 CBOR Sequences), the encode-side counterpart to
// Decoder.DecodeAll.
func (e *Encoder) EncodeAll(values []Value) ([]byte, error) {
	var buf []byte
	for _, v := range values {
		b, err := e.Encode(v)
		if err != nil {
			return nil, err
		}
		buf = append(buf, b...)
	}
	return buf, nil
}

// Encode renders v to its preferred-serialization bytes using
// DefaultEncoderOptions (non-canonical).
func Encode(v Value) ([]byte, error) {
	return NewEncoder(DefaultEncoderOptions()).Encode(v)
}

// encState accumulates one Encode call's output buffer.
type encState struct {
	buf  []byte
	opts EncoderOptions
}

// writeArgument emits the initial byte and argument for (mt, arg) using the
// shortest width that can represent arg, per §4.3.
func (s *encState) writeArgument(mt MajorType, arg uint64) {
	switch {
	case arg < 24:
		s.buf = append(s.buf, encodeInitialByte(mt, byte(arg)))
	case arg <= math.MaxUint8:
		s.buf = append(s.buf, encodeInitialByte(mt, byte(AdditionalInfo8Bit)), byte(arg))
	case arg <= math.MaxUint16:
		s.buf = append(s.buf, encodeInitialByte(mt, byte(AdditionalInfo16Bit)))
		s.buf = binary.BigEndian.AppendUint16(s.buf, uint16(arg))
	case arg <= math.MaxUint32:
		s.buf = append(s.buf, encodeInitialByte(mt, byte(AdditionalInfo32Bit)))
		s.buf = binary.BigEndian.AppendUint32(s.buf, uint32(arg))
	default:
		s.buf = append(s.buf, encodeInitialByte(mt, byte(AdditionalInfo64Bit)))
		s.buf = binary.BigEndian.AppendUint64(s.buf, arg)
	}
}

func (s *encState) encodeValue(v Value) error {
	switch v.kind {
	case KindUnsigned:
		s.writeArgument(MajorTypeUnsignedInteger, v.u)
		return nil

	case KindNegative:
		s.writeArgument(MajorTypeNegativeInteger, v.u)
		return nil

	case KindByteString:
		s.writeArgument(MajorTypeByteString, uint64(len(v.bytes)))
		s.buf = append(s.buf, v.bytes...)
		return nil

	case KindTextString:
		b := []byte(v.text)
		s.writeArgument(MajorTypeTextString, uint64(len(b)))
		s.buf = append(s.buf, b...)
		return nil

	case KindArray:
		s.writeArgument(MajorTypeArray, uint64(len(v.items)))
		for _, item := range v.items {
			if err := s.encodeValue(item); err != nil {
				return err
			}
		}
		return nil

	case KindMap:
		return s.encodeMap(v.pairs)

	case KindTagged:
		s.writeArgument(MajorTypeTag, v.u)
		return s.encodeValue(*v.inner)

	case KindBool:
		if v.b {
			s.buf = append(s.buf, encodeInitialByte(MajorTypeSimpleOrFloat, byte(SimpleValueTrue)))
		} else {
			s.buf = append(s.buf, encodeInitialByte(MajorTypeSimpleOrFloat, byte(SimpleValueFalse)))
		}
		return nil

	case KindNull:
		s.buf = append(s.buf, encodeInitialByte(MajorTypeSimpleOrFloat, byte(SimpleValueNull)))
		return nil

	case KindUndefined:
		s.buf = append(s.buf, encodeInitialByte(MajorTypeSimpleOrFloat, byte(SimpleValueUndefined)))
		return nil

	case KindSimple:
		code := byte(v.u)
		if code < 24 {
			s.buf = append(s.buf, encodeInitialByte(MajorTypeSimpleOrFloat, code))
			return nil
		}
		if s.opts.RejectSimpleRange && code < 32 {
			return ErrInvalidAdditionalInfo
		}
		s.buf = append(s.buf, encodeInitialByte(MajorTypeSimpleOrFloat, byte(AdditionalInfo8Bit)), code)
		return nil

	case KindHalf:
		if s.opts.CanonicalMapOrdering {
			return s.encodeCanonicalFloat(halfBitsToFloat64Bits(uint16(v.u)))
		}
		s.buf = append(s.buf, encodeInitialByte(MajorTypeSimpleOrFloat, byte(AdditionalInfo16Bit)))
		s.buf = binary.BigEndian.AppendUint16(s.buf, uint16(v.u))
		return nil

	case KindFloat:
		if s.opts.CanonicalMapOrdering {
			f32 := math.Float32frombits(uint32(v.u))
			return s.encodeCanonicalFloat(math.Float64bits(float64(f32)))
		}
		s.buf = append(s.buf, encodeInitialByte(MajorTypeSimpleOrFloat, byte(AdditionalInfo32Bit)))
		s.buf = binary.BigEndian.AppendUint32(s.buf, uint32(v.u))
		return nil

	case KindDouble:
		if s.opts.CanonicalMapOrdering {
			return s.encodeCanonicalFloat(v.u)
		}
		s.buf = append(s.buf, encodeInitialByte(MajorTypeSimpleOrFloat, byte(AdditionalInfo64Bit)))
		s.buf = binary.BigEndian.AppendUint64(s.buf, v.u)
		return nil

	default:
		return ErrInvalidInitialByte
	}
}

// encodeMap emits a map, applying canonical key ordering when enabled (§4.3).
func (s *encState) encodeMap(pairs []MapEntry) error {
	if !s.opts.CanonicalMapOrdering {
		s.writeArgument(MajorTypeMap, uint64(len(pairs)))
		for _, p := range pairs {
			if err := s.encodeValue(p.Key); err != nil {
				return err
			}
			if err := s.encodeValue(p.Value); err != nil {
				return err
			}
		}
		return nil
	}

	type sortedEntry struct {
		keyBytes []byte
		value    Value
	}

	entries := make([]sortedEntry, len(pairs))
	for i, p := range pairs {
		ks := &encState{opts: s.opts}
		if err := ks.encodeValue(p.Key); err != nil {
			return err
		}
		entries[i] = sortedEntry{keyBytes: ks.buf, value: p.Value}
	}

	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].keyBytes, entries[j].keyBytes) < 0
	})

	s.writeArgument(MajorTypeMap, uint64(len(entries)))
	for _, e := range entries {
		s.buf = append(s.buf, e.keyBytes...)
		if err := s.encodeValue(e.value); err != nil {
			return err
		}
	}
	return nil
}

// encodeCanonicalFloat implements §4.4's downcast ladder: given the
// canonical 64-bit bit pattern of a value presented as Half, Float, or
// Double, it selects the narrowest IEEE-754 width that represents it
// losslessly, using bit-pattern equality after the round-trip.
func (s *encState) encodeCanonicalFloat(bits64 uint64) error {
	v := math.Float64frombits(bits64)

	if math.IsNaN(v) {
		s.buf = append(s.buf, encodeInitialByte(MajorTypeSimpleOrFloat, byte(AdditionalInfo16Bit)), 0x7E, 0x00)
		return nil
	}

	h := float32ToFloat16Bits(float32(v))
	if math.Float64bits(float64(float16BitsToFloat32(h))) == bits64 {
		s.buf = append(s.buf, encodeInitialByte(MajorTypeSimpleOrFloat, byte(AdditionalInfo16Bit)))
		s.buf = binary.BigEndian.AppendUint16(s.buf, h)
		return nil
	}

	f32 := float32(v)
	if math.Float64bits(float64(f32)) == bits64 {
		s.buf = append(s.buf, encodeInitialByte(MajorTypeSimpleOrFloat, byte(AdditionalInfo32Bit)))
		s.buf = binary.BigEndian.AppendUint32(s.buf, math.Float32bits(f32))
		return nil
	}

	s.buf = append(s.buf, encodeInitialByte(MajorTypeSimpleOrFloat, byte(AdditionalInfo64Bit)))
	s.buf = binary.BigEndian.AppendUint64(s.buf, bits64)
	return nil
}

func halfBitsToFloat64Bits(bits uint16) uint64 {
	return math.Float64bits(float64(float16BitsToFloat32(bits)))
}

// float32ToFloat16Bits converts a float32 to IEEE-754 half-precision bits.
func float32ToFloat16Bits(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16((bits >> 16) & 0x8000)
	exp := int((bits >> 23) & 0xFF)
	frac := bits & 0x7FFFFF

	switch {
	case exp == 0:
		return sign
	case exp == 255:
		if frac == 0 {
			return sign | 0x7C00
		}
		return sign | 0x7C00 | uint16(frac>>13)
	case exp > 142:
		return sign | 0x7C00
	case exp < 103:
		return sign
	case exp < 113:
		// Half subnormal: the implicit leading bit moves into the fraction.
		return sign | uint16((frac|0x800000)>>uint(126-exp))
	default:
		exp16 := exp - 127 + 15
		frac16 := frac >> 13
		return sign | uint16(exp16<<10) | uint16(frac16)
	}
}

// float16BitsToFloat32 converts IEEE-754 half-precision bits to a float32.
func float16BitsToFloat32(bits uint16) float32 {
	sign := uint32(bits&0x8000) << 16
	exp := int(bits>>10) & 0x1F
	frac := uint32(bits & 0x3FF)

	switch {
	case exp == 0:
		if frac == 0 {
			return math.Float32frombits(sign)
		}
		for frac&0x400 == 0 {
			frac <<= 1
			exp--
		}
		exp++
		frac &= 0x3FF
		fallthrough
	case exp < 31:
		exp32 := uint32(exp - 15 + 127)
		return math.Float32frombits(sign | (exp32 << 23) | (frac << 13))
	default:
		if frac == 0 {
			return math.Float32frombits(sign | 0x7F800000)
		}
		return math.Float32frombits(sign | 0x7F800000 | (frac << 13))
	}
}
