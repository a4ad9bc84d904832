package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/smartok/b64/pkg/app"
	"github.com/smartok/b64/pkg/config"
)

// NewCommand returns the "b64 config" command with subcommands.
func NewCommand(a *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Handle b64 configuration",
	}

	cmd.AddCommand(
		newCurrentProfileCommand(a),
		newUseProfileCommand(a),
		newGetProfilesCommand(a),
		newAddProfileCommand(a),
		newRemoveProfileCommand(a),
		newSelectProfileCommand(a),
		newImportCommand(a),
	)

	return cmd
}

func newCurrentProfileCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "current-profile",
		Short: "Displays the current profile",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(a.OutWriter, a.Cfg.CurrentProfile)
		},
	}
}

func newUseProfileCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:               "use-profile [NAME]",
		Short:             "Sets the current profile in the configuration",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: a.ValidProfileArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return switchProfile(a, args[0])
		},
	}
}

func switchProfile(a *app.App, name string) error {
	if !a.Cfg.HasProfile(name) {
		return fmt.Errorf("profile with name %v not found", name)
	}
	if err := a.Cfg.SetCurrentProfile(name); err != nil {
		return fmt.Errorf("unable to write config: %w", err)
	}
	fmt.Fprintf(a.OutWriter, "Switched to profile %s.\n", strconv.Quote(name))
	return nil
}

func newGetProfilesCommand(a *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get-profiles",
		Short: "Display profiles in the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := app.NewTabWriter(a.OutWriter)
			if !a.NoHeaderFlag {
				fmt.Fprintf(w, "  NAME\tALPHABET\tPADDING\tSTRICT\tCONSTANT-TIME\tWRAP\tOUTPUT\t\n")
			}
			for _, p := range a.Cfg.Profiles {
				marker := "  "
				if p.Name == a.Cfg.CurrentProfile {
					marker = "* "
				}
				opts, err := p.CodecOptions()
				if err != nil {
					return err
				}
				output := p.Output
				if output == "" {
					output = string(app.OutputFormatDefault)
				}
				fmt.Fprintf(w, "%s%v\t%v\t%v\t%v\t%v\t%v\t%v\t\n",
					marker, p.Name, opts.Alphabet, !opts.NoPadding, opts.Strict, opts.ConstantTime, opts.Wrap, output)
			}
			return w.Flush()
		},
	}
	a.AddNoHeadersFlag(cmd)
	return cmd
}

func newAddProfileCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:     "add-profile [NAME]",
		Short:   "Add a profile from the current codec settings and flags",
		Example: "  b64 config add-profile jwt --url --no-padding --strict",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := profileFromFlags(cmd, a, args[0])
			if err := a.Cfg.AddProfile(p); err != nil {
				return err
			}
			fmt.Fprintln(a.OutWriter, "Added profile.")
			return nil
		},
	}
}

// profileFromFlags captures the effective codec settings, the active profile
// with flag overrides applied, under name.
func profileFromFlags(cmd *cobra.Command, a *app.App, name string) *config.Profile {
	opts := a.Codec().Options()
	padding := !opts.NoPadding
	p := &config.Profile{
		Name:         name,
		Alphabet:     string(opts.Alphabet),
		Padding:      &padding,
		Strict:       opts.Strict,
		ConstantTime: opts.ConstantTime,
		Wrap:         opts.Wrap,
	}
	if cmd.Flags().Changed("output") {
		p.Output = a.Output.String()
	}
	return p
}

func newRemoveProfileCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:               "remove-profile [NAME]",
		Short:             "Remove a profile",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: a.ValidProfileArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if !a.Cfg.HasProfile(name) {
				return fmt.Errorf("could not delete profile: profile with name '%v' does not exist", name)
			}
			if err := a.Cfg.RemoveProfile(name); err != nil {
				return fmt.Errorf("unable to write config: %w", err)
			}
			fmt.Fprintln(a.OutWriter, "Removed profile.")
			return nil
		},
	}
}

func newSelectProfileCommand(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "select-profile",
		Short: "Interactively select a profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(a.Cfg.Profiles) == 0 {
				return fmt.Errorf("no profiles configured, add one with \"b64 config add-profile\"")
			}

			var profileNames []string
			pos := 0
			for k, profile := range a.Cfg.Profiles {
				profileNames = append(profileNames, profile.Name)
				if profile.Name == a.Cfg.CurrentProfile {
					pos = k
				}
			}

			searcher := func(input string, index int) bool {
				profile := profileNames[index]
				name := strings.ReplaceAll(strings.ToLower(profile), " ", "")
				input = strings.ReplaceAll(strings.ToLower(input), " ", "")
				return strings.Contains(name, input)
			}

			p := promptui.Select{
				Label:     "Select profile",
				Items:     profileNames,
				Searcher:  searcher,
				Size:      10,
				CursorPos: pos,
			}

			_, selected, err := p.Run()
			if err != nil {
				// User cancelled (e.g. Ctrl-C). Not an error.
				return nil
			}

			return switchProfile(a, selected)
		},
	}
}

func newImportCommand(a *app.App) *cobra.Command {
	var nameFlag string

	cmd := &cobra.Command{
		Use:     "import FILE",
		Short:   "Import a profile from a .properties file into the $HOME/.b64/config file",
		Example: "  b64 config import jwt.properties",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			newProfile, err := config.ImportProfile(args[0])
			if err != nil {
				return fmt.Errorf("failed to parse profile: %w", err)
			}
			if nameFlag != "" {
				newProfile.Name = nameFlag
			}

			replaced, err := a.Cfg.UpsertProfile(newProfile)
			if err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			if replaced {
				fmt.Fprintf(a.OutWriter, "Replaced profile %s\n", strconv.Quote(newProfile.Name))
			} else {
				fmt.Fprintln(a.OutWriter, "Wrote new entry to config file")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&nameFlag, "name", "", "Name of the imported profile (default is the name property or the file name)")
	return cmd
}
