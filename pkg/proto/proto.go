// Package proto renders protobuf payloads as JSON using message descriptors
// compiled at runtime from .proto sources.
package proto

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bufbuild/protocompile"
	"google.golang.org/protobuf/encoding/protojson"
	goproto "google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// DescriptorRegistry indexes the message types of a set of compiled .proto
// files by their fully qualified name.
type DescriptorRegistry struct {
	messages map[protoreflect.FullName]protoreflect.MessageDescriptor
}

// NewDescriptorRegistry compiles every .proto file below importPaths,
// skipping files whose path relative to the import path starts with one of
// exclusions.
func NewDescriptorRegistry(ctx context.Context, importPaths []string, exclusions []string) (*DescriptorRegistry, error) {
	sources, err := collectSources(importPaths, exclusions)
	if err != nil {
		return nil, err
	}

	compiler := protocompile.Compiler{
		Resolver: protocompile.WithStandardImports(&protocompile.SourceResolver{ImportPaths: importPaths}),
	}
	files, err := compiler.Compile(ctx, sources...)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	reg := &DescriptorRegistry{messages: map[protoreflect.FullName]protoreflect.MessageDescriptor{}}
	for _, f := range files {
		reg.index(f.Messages())
	}
	return reg, nil
}

// collectSources lists the .proto files below importPaths as slash separated
// paths relative to their import path.
func collectSources(importPaths, exclusions []string) ([]string, error) {
	var sources []string
	for _, root := range importPaths {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() || filepath.Ext(path) != ".proto" {
				return err
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			if excluded(rel, exclusions) {
				return nil
			}
			sources = append(sources, filepath.ToSlash(rel))
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %v: %w", root, err)
		}
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no .proto files found in %s", strings.Join(importPaths, ", "))
	}
	return sources, nil
}

func excluded(rel string, exclusions []string) bool {
	for _, prefix := range exclusions {
		if strings.HasPrefix(rel, prefix) {
			return true
		}
	}
	return false
}

func (d *DescriptorRegistry) index(msgs protoreflect.MessageDescriptors) {
	for i := 0; i < msgs.Len(); i++ {
		md := msgs.Get(i)
		d.messages[md.FullName()] = md
		d.index(md.Messages())
	}
}

// MessageForType returns an empty dynamic message of the fully qualified
// type name, or nil if no compiled file defines it.
func (d *DescriptorRegistry) MessageForType(_type string) *dynamicpb.Message {
	md, ok := d.messages[protoreflect.FullName(_type)]
	if !ok {
		return nil
	}
	return dynamicpb.NewMessage(md)
}

// Codec converts between protobuf bytes of one message type and protojson.
type Codec struct {
	reg   *DescriptorRegistry
	_type string
}

// NewCodec fails if the registry does not know the type.
func NewCodec(reg *DescriptorRegistry, _type string) (*Codec, error) {
	if reg.MessageForType(_type) == nil {
		return nil, fmt.Errorf("proto type %v not found", _type)
	}
	return &Codec{reg: reg, _type: _type}, nil
}

func (c *Codec) Decode(b []byte) ([]byte, error) {
	msg := c.reg.MessageForType(c._type)
	if err := goproto.Unmarshal(b, msg); err != nil {
		return nil, fmt.Errorf("unmarshal %v: %w", c._type, err)
	}
	return protojson.Marshal(msg)
}

// Encode parses protojson input into protobuf bytes.
func (c *Codec) Encode(in []byte) ([]byte, error) {
	msg := c.reg.MessageForType(c._type)
	if err := protojson.Unmarshal(in, msg); err != nil {
		return nil, fmt.Errorf("parse input JSON as proto type %v: %w", c._type, err)
	}
	return goproto.Marshal(msg)
}
