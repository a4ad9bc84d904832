package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smartok/b64/pkg/avro"
	"github.com/smartok/b64/pkg/proto"
	"github.com/smartok/b64/pkg/render"
)

// DecodeFlags selects and configures how decoded bytes are rendered.
type DecodeFlags struct {
	Render            render.Format
	ProtoFiles        []string
	ProtoExclude      []string
	ProtoType         string
	AvroSchema        string
	SchemaRegistryURL string
}

// AddDecodeFlags installs the rendering flags on cmd.
func (a *App) AddDecodeFlags(cmd *cobra.Command, f *DecodeFlags) {
	f.Render = render.FormatText
	cmd.Flags().Var(&f.Render, "render", "Render decoded bytes as text, raw, hex, msgpack, proto or avro")
	cmd.Flags().StringSliceVar(&f.ProtoFiles, "proto-include", []string{}, "Path to proto files")
	cmd.Flags().StringSliceVar(&f.ProtoExclude, "proto-exclude", []string{}, "Proto exclusions (path prefixes)")
	cmd.Flags().StringVar(&f.ProtoType, "proto-type", "", "Fully qualified name of the proto message type. Example: com.test.SampleMessage")
	cmd.Flags().StringVar(&f.AvroSchema, "avro-schema", "", "Path to an Avro schema (.avsc) used for --render avro")
	cmd.Flags().StringVar(&f.SchemaRegistryURL, "schema-registry", "", "URL to a Confluent schema registry. Used for --render avro on registry framed data")
	_ = cmd.RegisterFlagCompletionFunc("render", CompleteRenderFormat)
}

// NewRenderer builds the renderer described by f, compiling proto files or
// Avro schemas as needed.
func (a *App) NewRenderer(cmd *cobra.Command, f *DecodeFlags) (*render.Renderer, error) {
	r := &render.Renderer{Format: f.Render}

	switch f.Render {
	case render.FormatProto:
		if f.ProtoType == "" {
			return nil, fmt.Errorf("--render proto requires --proto-type")
		}
		reg, err := proto.NewDescriptorRegistry(cmd.Context(), f.ProtoFiles, f.ProtoExclude)
		if err != nil {
			return nil, fmt.Errorf("failed to load protobuf files: %w", err)
		}
		d, err := proto.NewCodec(reg, f.ProtoType)
		if err != nil {
			return nil, err
		}
		r.Proto = d
	case render.FormatAvro:
		switch {
		case f.AvroSchema != "":
			fc, err := avro.NewFileCodec(f.AvroSchema)
			if err != nil {
				return nil, err
			}
			r.Avro = fc
		case f.SchemaRegistryURL != "":
			cache, err := avro.NewSchemaCache(f.SchemaRegistryURL)
			if err != nil {
				return nil, fmt.Errorf("unable to get schema cache: %w", err)
			}
			r.Avro = cache
		}
	}

	a.Logger.Debug().Str("render", string(f.Render)).Msg("renderer ready")
	return r, nil
}

// EncodeFlags selects a wire format that JSON input is converted to before
// it is encoded.
type EncodeFlags struct {
	ProtoFiles   []string
	ProtoExclude []string
	ProtoType    string
	AvroSchema   string
}

// AddEncodeFlags installs the input conversion flags on cmd.
func (a *App) AddEncodeFlags(cmd *cobra.Command, f *EncodeFlags) {
	cmd.Flags().StringSliceVar(&f.ProtoFiles, "proto-include", []string{}, "Path to proto files")
	cmd.Flags().StringSliceVar(&f.ProtoExclude, "proto-exclude", []string{}, "Proto exclusions (path prefixes)")
	cmd.Flags().StringVar(&f.ProtoType, "proto-type", "", "Encode JSON input as this protobuf message type. Example: com.test.SampleMessage")
	cmd.Flags().StringVar(&f.AvroSchema, "avro-schema", "", "Encode JSON input as Avro binary data with the schema at this path")
	cmd.MarkFlagsMutuallyExclusive("proto-type", "avro-schema")
}

// NewEncoder returns the converter selected by f, or nil when the input is
// encoded as is.
func (a *App) NewEncoder(cmd *cobra.Command, f *EncodeFlags) (render.Encoder, error) {
	switch {
	case f.ProtoType != "":
		reg, err := proto.NewDescriptorRegistry(cmd.Context(), f.ProtoFiles, f.ProtoExclude)
		if err != nil {
			return nil, fmt.Errorf("failed to load protobuf files: %w", err)
		}
		c, err := proto.NewCodec(reg, f.ProtoType)
		if err != nil {
			return nil, err
		}
		return c, nil
	case f.AvroSchema != "":
		fc, err := avro.NewFileCodec(f.AvroSchema)
		if err != nil {
			return nil, err
		}
		return fc, nil
	default:
		return nil, nil
	}
}
