package stats

import (
	"github.com/spf13/cobra"

	"github.com/smartok/b64/pkg/app"
	"github.com/smartok/b64/pkg/codec"
)

// NewCommand returns the "b64 stats" command.
func NewCommand(a *app.App) *cobra.Command {
	var (
		fileFlag string
		mode     = codec.ModeEncode
	)

	cmd := &cobra.Command{
		Use:   "stats [INPUT]",
		Short: "Show character statistics of a conversion",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := a.ReadInput(cmd.Context(), args, fileFlag)
			if err != nil {
				return err
			}

			req := in.Request(mode)
			res := a.Codec().Convert(req)
			if !res.Success {
				return &app.ConversionError{Result: res}
			}
			return a.WriteStats(*codec.NewReport(req, res).Stats)
		},
	}

	cmd.Flags().VarP(&mode, "mode", "m", "Conversion mode (encode, decode)")
	cmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read input from this file")
	a.AddNoHeadersFlag(cmd)
	_ = cmd.RegisterFlagCompletionFunc("mode", app.CompleteMode)

	return cmd
}
