package codec

import (
	"fmt"
	"unicode/utf8"
)

// Request is a single conversion triggered by the user.
type Request struct {
	Mode Mode
	// Text is the payload for text conversions and the Base64 input when
	// decoding.
	Text string
	// Data is the payload when encoding binary content, such as a file.
	Data []byte
	// Binary encodes Data instead of Text, and on decode skips the UTF-8
	// check so that raw bytes can be handed on.
	Binary bool
}

// Result is a pure function of its Request.
type Result struct {
	Success bool
	// Output is the Base64 text after encoding, or the decoded text. For
	// binary decodes it is only set when the bytes happen to be UTF-8.
	Output string
	// Data holds the decoded bytes.
	Data []byte
	Kind ErrorKind
	Err  error
}

// Message is the user-visible description of a failed conversion.
func (r Result) Message() string {
	switch r.Kind {
	case KindNone:
		return ""
	case KindInvalidBase64:
		return fmt.Sprintf("Invalid Base64 input (%s)", detail(r.Err))
	case KindDecoding:
		return "Decoded data is not valid UTF-8 text, try a binary output"
	case KindEncoding:
		return "Input is not valid Unicode text"
	default:
		return fmt.Sprintf("Conversion failed: %v", r.Err)
	}
}

func detail(err error) string {
	if e, ok := err.(*InvalidBase64Error); ok {
		if e.Offset < 0 {
			return e.Reason
		}
		return fmt.Sprintf("%s %q at offset %d", e.Reason, e.Char, e.Offset)
	}
	return fmt.Sprint(err)
}

func failed(err error) Result {
	return Result{Kind: KindOf(err), Err: err}
}

// Convert runs req through the codec.
func (c *Codec) Convert(req Request) Result {
	switch req.Mode {
	case ModeEncode:
		if req.Binary {
			return Result{Success: true, Output: c.Encode(req.Data)}
		}
		out, err := c.EncodeText(req.Text)
		if err != nil {
			return failed(err)
		}
		return Result{Success: true, Output: out}
	case ModeDecode:
		if req.Binary {
			b, err := c.Decode(req.Text)
			if err != nil {
				return failed(err)
			}
			res := Result{Success: true, Data: b}
			if utf8.Valid(b) {
				res.Output = string(b)
			}
			return res
		}
		b, err := c.Decode(req.Text)
		if err != nil {
			return failed(err)
		}
		if !utf8.Valid(b) {
			return failed(&DecodingError{Offset: invalidUTF8(string(b))})
		}
		return Result{Success: true, Output: string(b), Data: b}
	default:
		return failed(fmt.Errorf("unknown mode %q", req.Mode))
	}
}

// Convert runs req through the standard codec.
func Convert(req Request) Result {
	return defaultCodec.Convert(req)
}
