package decode

import (
	"fmt"

	"github.com/lithammer/dedent"
	"github.com/spf13/cobra"

	"github.com/smartok/b64/pkg/app"
	"github.com/smartok/b64/pkg/codec"
	"github.com/smartok/b64/pkg/render"
)

// NewCommand returns the "b64 decode" command.
func NewCommand(a *app.App) *cobra.Command {
	var (
		fileFlag    string
		outFlag     string
		decodeFlags app.DecodeFlags
	)

	cmd := &cobra.Command{
		Use:   "decode [BASE64]",
		Short: "Decode Base64 from an argument, a file or stdin",
		Long: dedent.Dedent(`
			Decode BASE64, the file given by --file, or stdin.

			By default the decoded bytes must be UTF-8 text. Use --render to show
			binary payloads as raw bytes, hex, or structured data (msgpack,
			protobuf, Avro) rendered as JSON.`),
		Example: dedent.Dedent(`
			  b64 decode aMOpbGxv
			  b64 decode --file logo.b64 --render raw --out logo.png
			  b64 decode CgJoaRAD --render proto --proto-include ./protos --proto-type test.v1.Greeting`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer, err := a.NewRenderer(cmd, &decodeFlags)
			if err != nil {
				return err
			}

			in, err := a.ReadInput(cmd.Context(), args, fileFlag)
			if err != nil {
				return err
			}

			req := in.Request(codec.ModeDecode)
			req.Binary = decodeFlags.Render.Binary()
			res := a.Codec().Convert(req)

			if res.Success && decodeFlags.Render != render.FormatText {
				rendered, err := renderer.Render(res.Data)
				if err != nil {
					return fmt.Errorf("could not render decoded data as %v: %w", decodeFlags.Render, err)
				}
				if isStructured(decodeFlags.Render) && a.Output == app.OutputFormatDefault && outFlag == "" {
					rendered = a.FormatValue(rendered)
				}
				res.Output = string(rendered)
				res.Data = rendered
			}

			return a.Emit(req, res, outFlag)
		},
	}

	cmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read Base64 input from this file")
	cmd.Flags().StringVar(&outFlag, "out", "", "Write the decoded bytes to this file instead of stdout")
	a.AddDecodeFlags(cmd, &decodeFlags)

	return cmd
}

func isStructured(f render.Format) bool {
	switch f {
	case render.FormatMsgPack, render.FormatProto, render.FormatAvro:
		return true
	}
	return false
}
