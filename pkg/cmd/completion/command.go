package completion

import (
	"fmt"
	"io"

	"github.com/lithammer/dedent"
	"github.com/spf13/cobra"

	"github.com/smartok/b64/pkg/app"
)

var generators = map[string]func(root *cobra.Command, w io.Writer) error{
	"bash": func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletionV2(w, true) },
	"zsh":  func(root *cobra.Command, w io.Writer) error { return root.GenZshCompletion(w) },
	"fish": func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) },
	"powershell": func(root *cobra.Command, w io.Writer) error {
		return root.GenPowerShellCompletionWithDesc(w)
	},
}

// NewCommand returns the "b64 completion" command. It takes the root
// command so it can generate completions for the full tree.
func NewCommand(root *cobra.Command, a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "completion [SHELL]",
		Short: "Generate completion script for bash, zsh, fish or powershell",
		Long: dedent.Dedent(`
			To load completions:

			Bash:
			  $ source <(b64 completion bash)
			  # for every session, on Linux:
			  $ b64 completion bash > /etc/bash_completion.d/b64

			Zsh:
			  $ b64 completion zsh > "${fpath[1]}/_b64"
			  # then start a new shell.

			Fish:
			  $ b64 completion fish > ~/.config/fish/completions/b64.fish

			PowerShell:
			  PS> b64 completion powershell | Out-String | Invoke-Expression`),
		DisableFlagsInUseLine: true,
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			gen := generators[args[0]]
			if err := gen(root, a.OutWriter); err != nil {
				return fmt.Errorf("failed to generate %s completion: %w", args[0], err)
			}
			return nil
		},
	}
}
