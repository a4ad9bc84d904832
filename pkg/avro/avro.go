// Package avro renders Avro binary payloads as JSON, either with a local
// schema file or through a Confluent schema registry.
package avro

import (
	"fmt"
	"os"

	"github.com/linkedin/goavro/v2"
)

// FileCodec decodes plain Avro binary data with a schema read from disk.
type FileCodec struct {
	codec *goavro.Codec
}

// NewFileCodec compiles the schema stored at path.
func NewFileCodec(path string) (*FileCodec, error) {
	schema, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read avro schema: %w", err)
	}
	codec, err := goavro.NewCodec(string(schema))
	if err != nil {
		return nil, fmt.Errorf("compile avro schema %s: %w", path, err)
	}
	return &FileCodec{codec: codec}, nil
}

// Decode returns the JSON form of b.
func (f *FileCodec) Decode(b []byte) ([]byte, error) {
	return textual(f.codec, b)
}

// Encode turns JSON into Avro binary data.
func (f *FileCodec) Encode(in []byte) ([]byte, error) {
	native, _, err := f.codec.NativeFromTextual(in)
	if err != nil {
		return nil, err
	}
	return f.codec.BinaryFromNative(nil, native)
}

func textual(codec *goavro.Codec, b []byte) ([]byte, error) {
	native, rest, err := codec.NativeFromBinary(b)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("%d trailing bytes after avro datum", len(rest))
	}
	return codec.TextualFromNative(nil, native)
}
