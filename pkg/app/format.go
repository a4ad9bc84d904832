package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smartok/b64/pkg/codec"
	"github.com/smartok/b64/pkg/render"
)

// OutputFormat controls how conversion results are printed.
type OutputFormat string

const (
	OutputFormatDefault OutputFormat = "default"
	OutputFormatRaw     OutputFormat = "raw"
	OutputFormatJSON    OutputFormat = "json"
	OutputFormatHex     OutputFormat = "hex"
)

func (e *OutputFormat) String() string {
	return string(*e)
}

func (e *OutputFormat) Set(v string) error {
	switch v {
	case "default", "raw", "json", "hex":
		*e = OutputFormat(v)
		return nil
	default:
		return fmt.Errorf("must be one of: default, raw, json, hex")
	}
}

func (e *OutputFormat) Type() string {
	return "OutputFormat"
}

// CompleteOutputFormat provides shell completion for --output.
func CompleteOutputFormat(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{"default", "raw", "json", "hex"}, cobra.ShellCompDirectiveNoFileComp
}

// CompleteMode provides shell completion for --mode.
func CompleteMode(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{string(codec.ModeEncode), string(codec.ModeDecode)}, cobra.ShellCompDirectiveNoFileComp
}

// CompleteRenderFormat provides shell completion for --render.
func CompleteRenderFormat(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return render.Formats(), cobra.ShellCompDirectiveNoFileComp
}
