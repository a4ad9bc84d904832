package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBase64 matches every *InvalidBase64Error.
	ErrInvalidBase64 = errors.New("invalid base64")
	// ErrDecoding matches every *DecodingError.
	ErrDecoding = errors.New("decoded data is not valid UTF-8 text")
	// ErrEncoding matches every *EncodingError.
	ErrEncoding = errors.New("input is not valid unicode text")
)

// InvalidBase64Error is returned when the input to Decode uses characters
// outside the alphabet, misplaces padding or has an impossible length.
type InvalidBase64Error struct {
	// Offset is the byte offset into the original input, or -1 when the
	// problem concerns the input as a whole (length, missing padding).
	Offset int
	Char   rune
	Reason string
}

func (e *InvalidBase64Error) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("invalid base64: %s", e.Reason)
	}
	return fmt.Sprintf("invalid base64: %s %q at offset %d", e.Reason, e.Char, e.Offset)
}

func (e *InvalidBase64Error) Is(target error) bool {
	return target == ErrInvalidBase64
}

// DecodingError is returned when decoded bytes were requested as text but
// are not valid UTF-8.
type DecodingError struct {
	// Offset of the first invalid byte in the decoded data.
	Offset int
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("%v: invalid byte at offset %d", ErrDecoding, e.Offset)
}

func (e *DecodingError) Is(target error) bool {
	return target == ErrDecoding
}

// EncodingError is returned when text input cannot be turned into its UTF-8
// byte sequence without loss.
type EncodingError struct {
	Offset int
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("%v: invalid UTF-8 at offset %d", ErrEncoding, e.Offset)
}

func (e *EncodingError) Is(target error) bool {
	return target == ErrEncoding
}

// ErrorKind classifies a conversion failure for display.
type ErrorKind string

const (
	KindNone          ErrorKind = ""
	KindInvalidBase64 ErrorKind = "invalid_base64"
	KindDecoding      ErrorKind = "decoding"
	KindEncoding      ErrorKind = "encoding"
	KindUnknown       ErrorKind = "unknown"
)

// KindOf maps err onto the error taxonomy.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidBase64):
		return KindInvalidBase64
	case errors.Is(err, ErrDecoding):
		return KindDecoding
	case errors.Is(err, ErrEncoding):
		return KindEncoding
	default:
		return KindUnknown
	}
}
