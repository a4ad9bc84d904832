package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lithammer/dedent"
	"github.com/spf13/cobra"

	"github.com/smartok/b64/pkg/app"
	"github.com/smartok/b64/pkg/cmd/completion"
	b64config "github.com/smartok/b64/pkg/cmd/config"
	"github.com/smartok/b64/pkg/cmd/convert"
	"github.com/smartok/b64/pkg/cmd/decode"
	"github.com/smartok/b64/pkg/cmd/encode"
	"github.com/smartok/b64/pkg/cmd/interactive"
	"github.com/smartok/b64/pkg/cmd/serve"
	"github.com/smartok/b64/pkg/cmd/stats"
	"github.com/smartok/b64/pkg/cmd/watch"
)

// NewRootCommand wires every subcommand onto a fresh root bound to a.
func NewRootCommand(a *app.App, version, commit string) *cobra.Command {
	root := &cobra.Command{
		Use:   "b64",
		Short: "Base64 encode and decode text and files",
		Long: dedent.Dedent(`
			b64 converts text and files to and from Base64 (RFC 4648).

			Decoding tolerates whitespace and missing padding unless --strict is
			set. Named profiles in $HOME/.b64/config store alphabet, padding and
			output preferences.`),
		Version:      fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.OutWriter = cmd.OutOrStdout()
			a.ErrWriter = cmd.ErrOrStderr()
			a.InReader = cmd.InOrStdin()

			if a.OutWriter != os.Stdout {
				a.ColorableOut = a.OutWriter
			}
			a.SetColor()

			if err := a.InitLogger(); err != nil {
				return err
			}
			return a.InitConfig(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.CfgFile, "config", "", "config file (default is $HOME/.b64/config)")
	root.PersistentFlags().StringVarP(&a.ProfileOverride, "profile", "p", "", "set a temporary current profile")
	root.PersistentFlags().Int64Var(&a.MaxSize, "max-size", a.MaxSize, "Largest file or stdin input in bytes (0 disables the limit)")
	root.PersistentFlags().StringVar(&a.LogLevel, "log-level", a.LogLevel, "Log level (trace, debug, info, warn, error)")
	a.AddCodecFlags(root.PersistentFlags())
	_ = root.RegisterFlagCompletionFunc("output", app.CompleteOutputFormat)
	_ = root.RegisterFlagCompletionFunc("profile", a.ValidProfileArgs)

	root.AddCommand(
		encode.NewCommand(a),
		decode.NewCommand(a),
		convert.NewCommand(a),
		stats.NewCommand(a),
		watch.NewCommand(a),
		serve.NewCommand(a),
		interactive.NewCommand(a),
		b64config.NewCommand(a),
		completion.NewCommand(root, a),
	)

	a.Root = root
	return root
}

// Execute is the single entry point for the CLI.
func Execute(version, commit string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewRootCommand(app.New(), version, commit).ExecuteContext(ctx)
}
