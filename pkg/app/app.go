package app

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/hokaccha/go-prettyjson"
	"github.com/mattn/go-colorable"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/smartok/b64/pkg/codec"
	"github.com/smartok/b64/pkg/config"
	"github.com/smartok/b64/pkg/session"
)

// App holds all shared mutable state for the CLI. It is created once per
// invocation and threaded into every command package.
type App struct {
	// I/O
	OutWriter    io.Writer
	ErrWriter    io.Writer
	InReader     io.Reader
	ColorableOut io.Writer

	// Config state
	Cfg             config.Config
	CurrentProfile  *config.Profile
	CfgFile         string
	ProfileOverride string

	// Codec overrides, applied on top of the active profile when set.
	URLFlag          bool
	NoPaddingFlag    bool
	StrictFlag       bool
	ConstantTimeFlag bool
	WrapFlag         int

	Output OutputFormat
	// MaxSize bounds file and stdin input in bytes.
	MaxSize  int64
	LogLevel string
	Logger   zerolog.Logger

	JSONFmt *prettyjson.Formatter

	// Display
	NoHeaderFlag bool

	// Root command reference (for completion generation)
	Root *cobra.Command

	codec *codec.Codec
}

// New creates an App with sane defaults.
func New() *App {
	return &App{
		OutWriter:    os.Stdout,
		ErrWriter:    os.Stderr,
		InReader:     os.Stdin,
		ColorableOut: colorable.NewColorableStdout(),
		Output:       OutputFormatDefault,
		MaxSize:      session.DefaultMaxSize,
		LogLevel:     zerolog.LevelWarnValue,
		Logger:       zerolog.Nop(),
		JSONFmt:      prettyjson.NewFormatter(),
	}
}

// InitLogger configures a.Logger from a.LogLevel, writing human readable
// lines to ErrWriter.
func (a *App) InitLogger() error {
	level, err := zerolog.ParseLevel(a.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", a.LogLevel, err)
	}
	a.Logger = zerolog.New(zerolog.ConsoleWriter{Out: a.ErrWriter, NoColor: a.ErrWriter != os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
	return nil
}

// InitConfig reads the config file, resolves the active profile and builds
// the codec. Flags explicitly set on cmd override profile values.
// Called by PersistentPreRunE on the root command.
func (a *App) InitConfig(cmd *cobra.Command) error {
	var err error
	a.Cfg, err = config.ReadConfig(a.CfgFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	a.Cfg.ProfileOverride = a.ProfileOverride
	if a.ProfileOverride != "" && !a.Cfg.HasProfile(a.ProfileOverride) {
		return fmt.Errorf("profile %v not found", a.ProfileOverride)
	}

	profile := a.Cfg.ActiveProfile()
	if profile == nil {
		profile = &config.Profile{}
	}
	a.CurrentProfile = profile

	changed := func(name string) bool {
		return cmd != nil && cmd.Flags().Changed(name)
	}
	if changed("url") {
		profile.Alphabet = string(codec.AlphabetStd)
		if a.URLFlag {
			profile.Alphabet = string(codec.AlphabetURL)
		}
	}
	if changed("no-padding") {
		padding := !a.NoPaddingFlag
		profile.Padding = &padding
	}
	if changed("strict") {
		profile.Strict = a.StrictFlag
	}
	if changed("constant-time") {
		profile.ConstantTime = a.ConstantTimeFlag
	}
	if changed("wrap") {
		profile.Wrap = a.WrapFlag
	}
	if !changed("output") && profile.Output != "" {
		if err := a.Output.Set(profile.Output); err != nil {
			return fmt.Errorf("profile %v: output %w", profile.Name, err)
		}
	}

	opts, err := profile.CodecOptions()
	if err != nil {
		return err
	}
	c, err := codec.New(opts)
	if err != nil {
		return err
	}
	a.codec = c

	a.Logger.Debug().
		Str("profile", profile.Name).
		Str("alphabet", string(opts.Alphabet)).
		Bool("no_padding", opts.NoPadding).
		Bool("strict", opts.Strict).
		Bool("constant_time", opts.ConstantTime).
		Int("wrap", opts.Wrap).
		Msg("resolved codec options")
	return nil
}

// Codec returns the codec built by InitConfig, or the standard codec when
// no config has been loaded.
func (a *App) Codec() *codec.Codec {
	if a.codec == nil {
		return codec.MustNew(codec.Options{})
	}
	return a.codec
}

// AddCodecFlags installs the flags that override the active profile.
func (a *App) AddCodecFlags(flags *pflag.FlagSet) {
	flags.BoolVar(&a.URLFlag, "url", false, "Use the URL and filename safe alphabet")
	flags.BoolVar(&a.NoPaddingFlag, "no-padding", false, "Omit '=' padding when encoding")
	flags.BoolVar(&a.StrictFlag, "strict", false, "Reject input without canonical padding when decoding")
	flags.BoolVar(&a.ConstantTimeFlag, "constant-time", false, "Use the constant-time Base64 implementation")
	flags.IntVar(&a.WrapFlag, "wrap", 0, "Wrap encoded output after this many characters (0 disables wrapping)")
	flags.VarP(&a.Output, "output", "o", "Set output format (default, raw, json, hex)")
}

// AddNoHeadersFlag installs --no-headers on cmd.
func (a *App) AddNoHeadersFlag(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&a.NoHeaderFlag, "no-headers", false, "Hide table headers")
}

// ValidProfileArgs provides shell completion for profile names.
func (a *App) ValidProfileArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	profileList := make([]string, 0, len(a.Cfg.Profiles))
	for _, profile := range a.Cfg.Profiles {
		profileList = append(profileList, profile.Name)
	}
	return profileList, cobra.ShellCompDirectiveNoFileComp
}

const (
	TabwriterMinWidth       = 6
	TabwriterWidth          = 4
	TabwriterPadding        = 3
	TabwriterPadChar        = ' '
	TabwriterFlags          = 0
)

// NewTabWriter creates a standard tabwriter for CLI output.
func NewTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, TabwriterMinWidth, TabwriterWidth, TabwriterPadding, TabwriterPadChar, TabwriterFlags)
}
