package codec

import (
	"errors"
	"fmt"
)

// Decode errors. Every error returned by Decode for a malformed stream is a
// *DecodeError wrapping one of these.
var (
	// ErrBadMagic is returned when the stream does not start with "BZBT".
	ErrBadMagic = errors.New("bad magic, not a BSF file")

	// ErrUnsupportedHeader is returned in strict mode when the header words
	// differ from the expected constants.
	ErrUnsupportedHeader = errors.New("unsupported header")

	// ErrReservedByte is returned in strict mode when a record does not start with 0x00.
	ErrReservedByte = errors.New("reserved byte is not zero")

	// ErrNegativeLength is returned when a stored value length is negative.
	ErrNegativeLength = errors.New("negative value length")

	// ErrTruncated is returned when the stream ends inside the header or a record.
	ErrTruncated = errors.New("truncated stream")
)

// Encode-side errors. They never fail Encode, they are reported per skipped entry.
var (
	ErrOversizedEntry = errors.New("oversized entry")
	ErrKeyTooLong     = fmt.Errorf("%w: key length exceeds %d", ErrOversizedEntry, MaxKeyLen)
	ErrValueTooLong   = fmt.Errorf("%w: value length exceeds %d", ErrOversizedEntry, MaxValueLen)
)

// DecodeError describes where decoding stopped
type DecodeError struct {
	Offset int64 // Byte offset of the field that failed
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("bsf: decode at offset %d: %v", e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
