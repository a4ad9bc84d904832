// Package render turns decoded bytes into something a person can read.
package render

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/smartok/b64/pkg/codec"
)

// Decoder reads a wire format and turns it into a human readable text
// format.
type Decoder interface {
	Decode([]byte) ([]byte, error)
}

// Encoder turns a human readable text format into its wire format.
type Encoder interface {
	Encode([]byte) ([]byte, error)
}

// Format selects how decoded bytes are shown.
type Format string

const (
	FormatText    Format = "text"
	FormatRaw     Format = "raw"
	FormatHex     Format = "hex"
	FormatMsgPack Format = "msgpack"
	FormatProto   Format = "proto"
	FormatAvro    Format = "avro"
)

var formats = []string{"text", "raw", "hex", "msgpack", "proto", "avro"}

// Formats lists the accepted values, for help texts and completion.
func Formats() []string {
	return append([]string(nil), formats...)
}

func (f *Format) String() string {
	return string(*f)
}

func (f *Format) Set(v string) error {
	for _, name := range formats {
		if v == name {
			*f = Format(v)
			return nil
		}
	}
	return fmt.Errorf("must be one of: text, raw, hex, msgpack, proto, avro")
}

func (f *Format) Type() string {
	return "Format"
}

// Binary reports whether the format works on raw bytes rather than text,
// so decoding must skip the UTF-8 check.
func (f Format) Binary() bool {
	return f != FormatText
}

// MsgPack decodes msgpack data into JSON.
type MsgPack struct{}

func (MsgPack) Decode(b []byte) ([]byte, error) {
	var obj any
	if err := msgpack.Unmarshal(b, &obj); err != nil {
		return nil, fmt.Errorf("could not decode msgpack data: %w", err)
	}
	out, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("could not encode msgpack data as JSON: %w", err)
	}
	return out, nil
}

// Hex renders bytes as lowercase hex.
type Hex struct{}

func (Hex) Decode(b []byte) ([]byte, error) {
	return []byte(hex.EncodeToString(b)), nil
}

// Text requires the bytes to be UTF-8.
type Text struct{}

func (Text) Decode(b []byte) ([]byte, error) {
	if !utf8.Valid(b) {
		return nil, &codec.DecodingError{Offset: firstInvalid(b)}
	}
	return b, nil
}

// Raw passes bytes through.
type Raw struct{}

func (Raw) Decode(b []byte) ([]byte, error) {
	return b, nil
}

func firstInvalid(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return -1
}

// Renderer maps a Format onto its Decoder. Proto and Avro need their
// decoders configured before use.
type Renderer struct {
	Format Format
	Proto  Decoder
	Avro   Decoder
}

// Decoder returns the decoder for r.Format.
func (r *Renderer) Decoder() (Decoder, error) {
	switch r.Format {
	case FormatText, "":
		return Text{}, nil
	case FormatRaw:
		return Raw{}, nil
	case FormatHex:
		return Hex{}, nil
	case FormatMsgPack:
		return MsgPack{}, nil
	case FormatProto:
		if r.Proto == nil {
			return nil, fmt.Errorf("--render proto requires --proto-include and --proto-type")
		}
		return r.Proto, nil
	case FormatAvro:
		if r.Avro == nil {
			return nil, fmt.Errorf("--render avro requires --avro-schema or --schema-registry")
		}
		return r.Avro, nil
	default:
		return nil, fmt.Errorf("unknown render format %q", r.Format)
	}
}

// Render runs b through the decoder of r.Format.
func (r *Renderer) Render(b []byte) ([]byte, error) {
	d, err := r.Decoder()
	if err != nil {
		return nil, err
	}
	return d.Decode(b)
}
