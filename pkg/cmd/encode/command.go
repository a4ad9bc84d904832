package encode

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/lithammer/dedent"
	"github.com/spf13/cobra"

	"github.com/smartok/b64/pkg/app"
	"github.com/smartok/b64/pkg/codec"
)

// NewCommand returns the "b64 encode" command.
func NewCommand(a *app.App) *cobra.Command {
	var (
		fileFlag     string
		outFlag      string
		templateFlag bool
		encodeFlags  app.EncodeFlags
	)

	cmd := &cobra.Command{
		Use:   "encode [TEXT]",
		Short: "Encode text, a file or stdin to Base64",
		Long: dedent.Dedent(`
			Encode TEXT, the file given by --file, or stdin to Base64.

			Text arguments are encoded as UTF-8. Files and stdin are encoded byte
			for byte, so binary content is safe. With --proto-type or --avro-schema
			the input is read as JSON and encoded in that wire format first.`),
		Example: dedent.Dedent(`
			  b64 encode "héllo"
			  b64 encode --file logo.png --out logo.b64
			  b64 encode '{"text": "hi", "count": 3}' --proto-include ./protos --proto-type test.v1.Greeting
			  echo '{"at": "{{ now | date "2006-01-02" }}"}' | b64 encode --template`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enc, err := a.NewEncoder(cmd, &encodeFlags)
			if err != nil {
				return err
			}

			in, err := a.ReadInput(cmd.Context(), args, fileFlag)
			if err != nil {
				return err
			}

			if templateFlag {
				in.Data, err = execTemplate(in.Data, map[string]any{"source": in.Source})
				if err != nil {
					return err
				}
			}

			if enc != nil {
				if in.Data, err = enc.Encode(in.Data); err != nil {
					return fmt.Errorf("could not convert input: %w", err)
				}
				in.Binary = true
			}

			req := in.Request(codec.ModeEncode)
			return a.Emit(req, a.Codec().Convert(req), outFlag)
		},
	}

	cmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read input from this file")
	cmd.Flags().StringVar(&outFlag, "out", "", "Write the result to this file instead of stdout")
	cmd.Flags().BoolVar(&templateFlag, "template", false, "Run input through Go templates with sprig functions before encoding")
	a.AddEncodeFlags(cmd, &encodeFlags)

	return cmd
}

func execTemplate(data []byte, vars map[string]any) ([]byte, error) {
	tpl, err := template.New("b64").Funcs(sprig.TxtFuncMap()).Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse go template: %w", err)
	}

	buf := bytes.NewBuffer(nil)
	if err := tpl.Execute(buf, vars); err != nil {
		return nil, fmt.Errorf("failed to execute go template: %w", err)
	}
	return buf.Bytes(), nil
}
