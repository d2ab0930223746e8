package cbor

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"
)

// DefaultMaximumNestingDepth is the default value of
// DecoderOptions.MaximumNestingDepth.
const DefaultMaximumNestingDepth = 256

// DecoderOptions configures a Decoder.
type DecoderOptions struct {
	// MaximumNestingDepth bounds the number of nested containers the
	// decoder will descend into. The top-level item is depth 0. Zero
	// means DefaultMaximumNestingDepth.
	MaximumNestingDepth int

	// AllowTrailingData, when false (the default), makes Decode fail with
	// ErrTrailingBytes if the buffer has unconsumed bytes after the first
	// top-level item.
	AllowTrailingData bool

	// RejectSimpleRange, when true, rejects a long-form Simple(c) decoded
	// via ai=24 whose code c is below 32 with ErrInvalidAdditionalInfo,
	// resolving in the strict direction the Open Question in §9 over
	// whether such values should be accepted. Default false, matching the
	// baseline behavior specified in §4.2/§9.
	RejectSimpleRange bool
}

// DefaultDecoderOptions returns the default DecoderOptions.
func DefaultDecoderOptions() DecoderOptions {
	return DecoderOptions{MaximumNestingDepth: DefaultMaximumNestingDepth}
}

// DecoderOption configures a DecoderOptions value via NewDecoderOptions,
// for callers who prefer the teacher's functional-option construction
// style over a struct literal.
type DecoderOption func(*DecoderOptions)

// WithMaximumNestingDepth sets DecoderOptions.MaximumNestingDepth.
func WithMaximumNestingDepth(depth int) DecoderOption {
	return func(o *DecoderOptions) { o.MaximumNestingDepth = depth }
}

// WithAllowTrailingData sets DecoderOptions.AllowTrailingData.
func WithAllowTrailingData(allow bool) DecoderOption {
	return func(o *DecoderOptions) { o.AllowTrailingData = allow }
}

// WithRejectSimpleRange sets DecoderOptions.RejectSimpleRange.
func WithRejectSimpleRange(reject bool) DecoderOption {
	return func(o *DecoderOptions) { o.RejectSimpleRange = reject }
}

// NewDecoderOptions builds a DecoderOptions record from functional options,
// starting from the defaults.
func NewDecoderOptions(opts ...DecoderOption) DecoderOptions {
	o := DefaultDecoderOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Decoder consumes a byte buffer and yields a Value tree (§4.2). A Decoder
// is stateless between calls to Decode/DecodeAll; each call drives its own
// cursor over the supplied buffer.
type Decoder struct {
	opts DecoderOptions
}

// NewDecoder creates a Decoder with the given options. A zero
// MaximumNestingDepth is replaced with DefaultMaximumNestingDepth.
func NewDecoder(opts DecoderOptions) *Decoder {
	if opts.MaximumNestingDepth <= 0 {
		opts.MaximumNestingDepth = DefaultMaximumNestingDepth
	}
	return &Decoder{opts: opts}
}

// Decode parses a single top-level CBOR data item from data. If
// AllowTrailingData is false and bytes remain after the item, Decode fails
// with ErrTrailingBytes.
func (d *Decoder) Decode(data []byte) (Value, error) {
	c := &cursor{data: data, maxDepth: d.opts.MaximumNestingDepth, rejectSimpleRange: d.opts.RejectSimpleRange}
	v, err := c.decodeValue(0)
	if err != nil {
		return Value{}, err
	}
	if !d.opts.AllowTrailingData && c.pos != len(c.data) {
		return Value{}, newDecodeError(ErrTrailingBytes, c.pos, "")
	}
	return v, nil
}

// DecodeAll repeatedly decodes top-level items from data until the buffer
// is exhausted, treating data as a sequence of concatenated CBOR items
// (RFC 8742 CBOR Sequences). It never treats trailing bytes as an error on
// its own terms — each item consumes exactly its own bytes and decoding
// continues from there.
func (d *Decoder) DecodeAll(data []byte) ([]Value, error) {
	c := &cursor{data: data, maxDepth: d.opts.MaximumNestingDepth, rejectSimpleRange: d.opts.RejectSimpleRange}
	var values []Value
	for c.pos < len(c.data) {
		v, err := c.decodeValue(0)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

// Decode parses a single top-level CBOR data item using DefaultDecoderOptions.
func Decode(data []byte) (Value, error) {
	return NewDecoder(DefaultDecoderOptions()).Decode(data)
}

// cursor drives a single decode call over a byte buffer.
type cursor struct {
	data              []byte
	pos               int
	maxDepth          int
	rejectSimpleRange bool
}

// decodeValue parses one data item at the cursor's current position.
func (c *cursor) decodeValue(depth int) (Value, error) {
	if depth > c.maxDepth {
		return Value{}, newDecodeError(ErrExcessiveNesting, c.pos, "")
	}

	offset := c.pos
	if c.pos >= len(c.data) {
		return Value{}, newDecodeError(ErrUnexpectedEndOfData, c.pos, "")
	}

	mt, ai := decodeInitialByte(c.data[c.pos])

	if mt == MajorTypeSimpleOrFloat && ai == 31 {
		return Value{}, newDecodeError(ErrUnexpectedBreak, offset, "")
	}

	c.pos++

	switch mt {
	case MajorTypeUnsignedInteger:
		arg, indefinite, err := c.readArgument(ai, offset)
		if err != nil {
			return Value{}, err
		}
		if indefinite {
			return Value{}, newDecodeError(ErrInvalidAdditionalInfo, offset, "indefinite length not legal for integers")
		}
		return Unsigned(arg), nil

	case MajorTypeNegativeInteger:
		arg, indefinite, err := c.readArgument(ai, offset)
		if err != nil {
			return Value{}, err
		}
		if indefinite {
			return Value{}, newDecodeError(ErrInvalidAdditionalInfo, offset, "indefinite length not legal for integers")
		}
		return Negative(arg), nil

	case MajorTypeByteString:
		return c.decodeByteString(ai, offset, depth)

	case MajorTypeTextString:
		return c.decodeTextString(ai, offset, depth)

	case MajorTypeArray:
		return c.decodeArray(ai, offset, depth)

	case MajorTypeMap:
		return c.decodeMap(ai, offset, depth)

	case MajorTypeTag:
		arg, indefinite, err := c.readArgument(ai, offset)
		if err != nil {
			return Value{}, err
		}
		if indefinite {
			return Value{}, newDecodeError(ErrInvalidAdditionalInfo, offset, "indefinite length not legal for tags")
		}
		nested, err := c.decodeValue(depth + 1)
		if err != nil {
			return Value{}, err
		}
		return Tag(arg, nested), nil

	case MajorTypeSimpleOrFloat:
		return c.decodeSimpleOrFloat(ai, offset)

	default:
		return Value{}, newDecodeError(ErrInvalidInitialByte, offset, "")
	}
}

// readArgument decodes the argument carried by an additional-information
// value, per §4.2's length/argument table. offset is the position of the
// initial byte, used for error reporting.
func (c *cursor) readArgument(ai byte, offset int) (arg uint64, indefinite bool, err error) {
	switch {
	case ai < 24:
		return uint64(ai), false, nil
	case ai == 24:
		b, err := c.readU8(offset)
		if err != nil {
			return 0, false, err
		}
		return uint64(b), false, nil
	case ai == 25:
		v, err := c.readU16(offset)
		if err != nil {
			return 0, false, err
		}
		return uint64(v), false, nil
	case ai == 26:
		v, err := c.readU32(offset)
		if err != nil {
			return 0, false, err
		}
		return uint64(v), false, nil
	case ai == 27:
		v, err := c.readU64(offset)
		if err != nil {
			return 0, false, err
		}
		return v, false, nil
	case ai == byte(AdditionalInfoIndefiniteLength):
		return 0, true, nil
	default: // 28, 29, 30
		return 0, false, newDecodeError(ErrInvalidAdditionalInfo, offset, fmt.Sprintf("ai=%d", ai))
	}
}

func (c *cursor) readU8(offset int) (byte, error) {
	if c.pos+1 > len(c.data) {
		return 0, newDecodeError(ErrUnexpectedEndOfData, offset, "")
	}
	b := c.data[c.pos]
	c.pos++
	return b, nil
}

func (c *cursor) readU16(offset int) (uint16, error) {
	if c.pos+2 > len(c.data) {
		return 0, newDecodeError(ErrUnexpectedEndOfData, offset, "")
	}
	v := binary.BigEndian.Uint16(c.data[c.pos:])
	c.pos += 2
	return v, nil
}

func (c *cursor) readU32(offset int) (uint32, error) {
	if c.pos+4 > len(c.data) {
		return 0, newDecodeError(ErrUnexpectedEndOfData, offset, "")
	}
	v := binary.BigEndian.Uint32(c.data[c.pos:])
	c.pos += 4
	return v, nil
}

func (c *cursor) readU64(offset int) (uint64, error) {
	if c.pos+8 > len(c.data) {
		return 0, newDecodeError(ErrUnexpectedEndOfData, offset, "")
	}
	v := binary.BigEndian.Uint64(c.data[c.pos:])
	c.pos += 8
	return v, nil
}

// checkLength rejects a length argument that exceeds the platform's
// addressable range for a contiguous buffer, before any allocation.
func checkLength(arg uint64, offset int) (int, error) {
	if arg > uint64(math.MaxInt) {
		return 0, newDecodeError(ErrLengthOutOfRange, offset, "")
	}
	return int(arg), nil
}

// readN reads exactly n raw bytes, copying them out of the buffer.
func (c *cursor) readN(n int, offset int) ([]byte, error) {
	if n > len(c.data)-c.pos {
		return nil, newDecodeError(ErrUnexpectedEndOfData, offset, "")
	}
	result := make([]byte, n)
	copy(result, c.data[c.pos:c.pos+n])
	c.pos += n
	return result, nil
}

func (c *cursor) decodeByteString(ai byte, offset int, depth int) (Value, error) {
	arg, indefinite, err := c.readArgument(ai, offset)
	if err != nil {
		return Value{}, err
	}
	if indefinite {
		buf, err := c.decodeChunkedString(MajorTypeByteString, depth)
		if err != nil {
			return Value{}, err
		}
		return Bytes(buf), nil
	}
	length, err := checkLength(arg, offset)
	if err != nil {
		return Value{}, err
	}
	data, err := c.readN(length, offset)
	if err != nil {
		return Value{}, err
	}
	return Bytes(data), nil
}

func (c *cursor) decodeTextString(ai byte, offset int, depth int) (Value, error) {
	arg, indefinite, err := c.readArgument(ai, offset)
	if err != nil {
		return Value{}, err
	}
	if indefinite {
		buf, err := c.decodeChunkedString(MajorTypeTextString, depth)
		if err != nil {
			return Value{}, err
		}
		if !utf8.Valid(buf) {
			return Value{}, newDecodeError(ErrInvalidUTF8, offset, "")
		}
		return Value{kind: KindTextString, text: string(buf)}, nil
	}
	length, err := checkLength(arg, offset)
	if err != nil {
		return Value{}, err
	}
	data, err := c.readN(length, offset)
	if err != nil {
		return Value{}, err
	}
	if !utf8.Valid(data) {
		return Value{}, newDecodeError(ErrInvalidUTF8, offset, "")
	}
	return Value{kind: KindTextString, text: string(data)}, nil
}

// decodeChunkedString consumes the chunks of an indefinite-length byte or
// text string, until and including the closing break byte. Each chunk must
// be a definite-length string of wantMajor, or decoding fails with
// ErrInvalidChunkType. The concatenated payload is returned unvalidated —
// for text strings, UTF-8 validity is checked once on the whole result by
// the caller, not per chunk (§4.2).
func (c *cursor) decodeChunkedString(wantMajor MajorType, depth int) ([]byte, error) {
	var buf []byte
	for {
		if c.pos >= len(c.data) {
			return nil, newDecodeError(ErrUnexpectedEndOfData, c.pos, "")
		}
		if c.data[c.pos] == breakByte {
			c.pos++
			return buf, nil
		}

		chunkOffset := c.pos
		if depth+1 > c.maxDepth {
			return nil, newDecodeError(ErrExcessiveNesting, chunkOffset, "")
		}

		mt, ai := decodeInitialByte(c.data[c.pos])
		if mt != wantMajor || ai == byte(AdditionalInfoIndefiniteLength) {
			return nil, newDecodeError(ErrInvalidChunkType, chunkOffset, "")
		}
		c.pos++

		arg, _, err := c.readArgument(ai, chunkOffset)
		if err != nil {
			return nil, err
		}
		length, err := checkLength(arg, chunkOffset)
		if err != nil {
			return nil, err
		}
		chunk, err := c.readN(length, chunkOffset)
		if err != nil {
			return nil, err
		}
		buf = append(buf, chunk...)
	}
}

func (c *cursor) decodeArray(ai byte, offset int, depth int) (Value, error) {
	arg, indefinite, err := c.readArgument(ai, offset)
	if err != nil {
		return Value{}, err
	}

	if indefinite {
		var items []Value
		for {
			if c.pos >= len(c.data) {
				return Value{}, newDecodeError(ErrUnexpectedEndOfData, c.pos, "")
			}
			if c.data[c.pos] == breakByte {
				c.pos++
				break
			}
			item, err := c.decodeValue(depth + 1)
			if err != nil {
				return Value{}, err
			}
			items = append(items, item)
		}
		return Array(items...), nil
	}

	length, err := checkLength(arg, offset)
	if err != nil {
		return Value{}, err
	}
	items := make([]Value, 0, length)
	for i := 0; i < length; i++ {
		item, err := c.decodeValue(depth + 1)
		if err != nil {
			return Value{}, err
		}
		items = append(items, item)
	}
	return Array(items...), nil
}

func (c *cursor) decodeMap(ai byte, offset int, depth int) (Value, error) {
	arg, indefinite, err := c.readArgument(ai, offset)
	if err != nil {
		return Value{}, err
	}

	if indefinite {
		var pairs []MapEntry
		for {
			if c.pos >= len(c.data) {
				return Value{}, newDecodeError(ErrUnexpectedEndOfData, c.pos, "")
			}
			if c.data[c.pos] == breakByte {
				c.pos++
				break
			}
			key, err := c.decodeValue(depth + 1)
			if err != nil {
				return Value{}, err
			}
			val, err := c.decodeValue(depth + 1)
			if err != nil {
				return Value{}, err
			}
			pairs = append(pairs, MapEntry{Key: key, Value: val})
		}
		return Map(pairs...), nil
	}

	length, err := checkLength(arg, offset)
	if err != nil {
		return Value{}, err
	}
	pairs := make([]MapEntry, 0, length)
	for i := 0; i < length; i++ {
		key, err := c.decodeValue(depth + 1)
		if err != nil {
			return Value{}, err
		}
		val, err := c.decodeValue(depth + 1)
		if err != nil {
			return Value{}, err
		}
		pairs = append(pairs, MapEntry{Key: key, Value: val})
	}
	return Map(pairs...), nil
}

func (c *cursor) decodeSimpleOrFloat(ai byte, offset int) (Value, error) {
	switch ai {
	case byte(SimpleValueFalse):
		return Bool(false), nil
	case byte(SimpleValueTrue):
		return Bool(true), nil
	case byte(SimpleValueNull):
		return Null(), nil
	case byte(SimpleValueUndefined):
		return Undefined(), nil
	case byte(AdditionalInfo8Bit):
		b, err := c.readU8(offset)
		if err != nil {
			return Value{}, err
		}
		if c.rejectSimpleRange && b < 32 {
			return Value{}, newDecodeError(ErrInvalidAdditionalInfo, offset, "simple value code below 32 in long form")
		}
		return Simple(b), nil
	case byte(AdditionalInfo16Bit):
		bits, err := c.readU16(offset)
		if err != nil {
			return Value{}, err
		}
		return Half(bits), nil
	case byte(AdditionalInfo32Bit):
		bits, err := c.readU32(offset)
		if err != nil {
			return Value{}, err
		}
		return Value{kind: KindFloat, u: uint64(bits)}, nil
	case byte(AdditionalInfo64Bit):
		bits, err := c.readU64(offset)
		if err != nil {
			return Value{}, err
		}
		return Value{kind: KindDouble, u: bits}, nil
	default:
		if ai < 20 {
			return Simple(ai), nil
		}
		return Value{}, newDecodeError(ErrInvalidAdditionalInfo, offset, fmt.Sprintf("ai=%d", ai))
	}
}
