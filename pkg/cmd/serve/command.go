package serve

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/smartok/b64/pkg/app"
	"github.com/smartok/b64/pkg/server"
)

// NewCommand returns the "b64 serve" command.
func NewCommand(a *app.App) *cobra.Command {
	var (
		addrFlag      string
		maxUploadFlag int64
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the converter web page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ln, err := net.Listen("tcp", addrFlag)
			if err != nil {
				return fmt.Errorf("failed to listen on %v: %w", addrFlag, err)
			}
			fmt.Fprintf(a.OutWriter, "Serving on http://%v\n", ln.Addr())

			srv := server.New(a.Codec(),
				server.WithLogger(a.Logger),
				server.WithMaxUpload(maxUploadFlag),
			)
			return srv.Serve(cmd.Context(), ln)
		},
	}

	cmd.Flags().StringVar(&addrFlag, "addr", "localhost:8081", "Address to listen on")
	cmd.Flags().Int64Var(&maxUploadFlag, "max-upload", server.DefaultMaxUpload, "Largest accepted request body in bytes")

	return cmd
}
