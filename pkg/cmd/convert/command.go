package convert

import (
	"github.com/spf13/cobra"

	"github.com/smartok/b64/pkg/app"
	"github.com/smartok/b64/pkg/codec"
)

// NewCommand returns the "b64 convert" command, which picks the direction
// with --mode.
func NewCommand(a *app.App) *cobra.Command {
	var (
		fileFlag string
		outFlag  string
		mode     = codec.ModeEncode
	)

	cmd := &cobra.Command{
		Use:     "convert [INPUT]",
		Short:   "Encode or decode, depending on --mode",
		Example: "  b64 convert --mode decode YWJj",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := a.ReadInput(cmd.Context(), args, fileFlag)
			if err != nil {
				return err
			}
			req := in.Request(mode)
			return a.Emit(req, a.Codec().Convert(req), outFlag)
		},
	}

	cmd.Flags().VarP(&mode, "mode", "m", "Conversion mode (encode, decode)")
	cmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read input from this file")
	cmd.Flags().StringVar(&outFlag, "out", "", "Write the result to this file instead of stdout")
	_ = cmd.RegisterFlagCompletionFunc("mode", app.CompleteMode)

	return cmd
}
