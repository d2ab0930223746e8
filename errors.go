package cbor

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per decoder failure Kind. Use errors.Is against
// these; a failed Decode/DecodeAll always wraps one of them in a
// *DecodeError that also carries the byte offset.
var (
	// ErrUnexpectedEndOfData is returned when the cursor reads beyond the
	// end of the buffer.
	ErrUnexpectedEndOfData = errors.New("cbor: unexpected end of data")

	// ErrInvalidAdditionalInfo is returned when an initial byte's
	// additional-information field is 28, 29, or 30, or is 31 (indefinite
	// length) outside a context where that is legal.
	ErrInvalidAdditionalInfo = errors.New("cbor: invalid additional information")

	// ErrUnexpectedBreak is returned when a 0xFF break byte is seen at a
	// value position that is not closing an indefinite-length container.
	ErrUnexpectedBreak = errors.New("cbor: unexpected break")

	// ErrInvalidInitialByte is returned for a structurally impossible
	// initial byte (major type 8 or higher is unreachable in practice
	// since major type occupies 3 bits, but the check exists for
	// completeness).
	ErrInvalidInitialByte = errors.New("cbor: invalid initial byte")

	// ErrInvalidUTF8 is returned when a decoded text string's payload is
	// not well-formed UTF-8.
	ErrInvalidUTF8 = errors.New("cbor: invalid UTF-8 in text string")

	// ErrExcessiveNesting is returned when the configured maximum nesting
	// depth is exceeded.
	ErrExcessiveNesting = errors.New("cbor: maximum nesting depth exceeded")

	// ErrTrailingBytes is returned when unconsumed input remains after the
	// top-level item and trailing data is disallowed.
	ErrTrailingBytes = errors.New("cbor: unexpected data after root value")

	// ErrInvalidChunkType is returned when an indefinite-length byte or
	// text string contains a chunk of the wrong major type, or a chunk
	// that is itself indefinite length.
	ErrInvalidChunkType = errors.New("cbor: invalid chunk type in indefinite-length string")

	// ErrInvalidMapStructure is reserved for a future strict mode; no
	// decode path in this implementation currently produces it.
	ErrInvalidMapStructure = errors.New("cbor: invalid map structure")

	// ErrLengthOutOfRange is returned when a length argument exceeds the
	// platform's addressable range for a contiguous buffer.
	ErrLengthOutOfRange = errors.New("cbor: length argument out of range")
)

// DecodeError carries the sentinel error, the byte offset at which it was
// detected, and an optional human-readable message.
type DecodeError struct {
	Err     error
	Offset  int
	Message string
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("cbor: decode error at offset %d: %s: %v", e.Offset, e.Message, e.Err)
	}
	return fmt.Sprintf("cbor: decode error at offset %d: %v", e.Offset, e.Err)
}

// Unwrap returns the underlying sentinel error, so errors.Is(err,
// ErrUnexpectedEndOfData) and similar checks work against a DecodeError.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// newDecodeError creates a DecodeError for the given sentinel at offset.
func newDecodeError(err error, offset int, message string) *DecodeError {
	return &DecodeError{Err: err, Offset: offset, Message: message}
}
