package interactive

import (
	"context"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/smartok/b64/pkg/app"
	"github.com/smartok/b64/pkg/codec"
	"github.com/smartok/b64/pkg/session"
)

const (
	actionText   = "Enter text"
	actionFile   = "Load file"
	actionToggle = "Toggle mode"
	actionQuit   = "Quit"
)

var actions = []string{actionText, actionFile, actionToggle, actionQuit}

// prompter asks the user for input.
type prompter interface {
	Select(label string, items []string) (string, error)
	Prompt(label string) (string, error)
}

type promptUI struct{}

func (promptUI) Select(label string, items []string) (string, error) {
	searcher := func(input string, index int) bool {
		item := strings.ReplaceAll(strings.ToLower(items[index]), " ", "")
		input = strings.ReplaceAll(strings.ToLower(input), " ", "")
		return strings.Contains(item, input)
	}
	p := promptui.Select{
		Label:    label,
		Items:    items,
		Searcher: searcher,
		Size:     len(items),
	}
	_, selected, err := p.Run()
	return selected, err
}

func (promptUI) Prompt(label string) (string, error) {
	p := promptui.Prompt{Label: label}
	return p.Run()
}

// NewCommand returns the "b64 interactive" command.
func NewCommand(a *app.App) *cobra.Command {
	var mode = codec.ModeEncode

	cmd := &cobra.Command{
		Use:   "interactive",
		Short: "Convert text and files from an interactive prompt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := session.New(a.Codec(), session.WithLogger(a.Logger), session.WithMaxSize(a.MaxSize))
			defer s.Close()
			s.SetMode(mode)
			return loop(cmd.Context(), a, s, promptUI{})
		},
	}

	cmd.Flags().VarP(&mode, "mode", "m", "Initial conversion mode (encode, decode)")
	_ = cmd.RegisterFlagCompletionFunc("mode", app.CompleteMode)

	return cmd
}

func loop(ctx context.Context, a *app.App, s *session.Session, p prompter) error {
	for {
		action, err := p.Select(fmt.Sprintf("Mode: %v", s.Mode()), actions)
		if err != nil {
			// User cancelled (e.g. Ctrl-C). Not an error.
			return nil
		}

		switch action {
		case actionText:
			label := "Text to encode"
			if s.Mode() == codec.ModeDecode {
				label = "Base64 to decode"
			}
			text, err := p.Prompt(label)
			if err != nil {
				continue
			}
			s.SetText(text)
			show(a, s)

		case actionFile:
			path, err := p.Prompt("File")
			if err != nil || strings.TrimSpace(path) == "" {
				continue
			}
			ev, err := waitForLoad(ctx, s, s.LoadFile(ctx, strings.TrimSpace(path)))
			if err != nil {
				return err
			}
			if ev.Err != nil {
				fmt.Fprintf(a.ErrWriter, "Error: %v\n", ev.Err)
				continue
			}
			fmt.Fprintf(a.ErrWriter, "Loaded %v (%d bytes).\n", ev.Filename, ev.Size)
			show(a, s)

		case actionToggle:
			s.Toggle()

		case actionQuit:
			return nil
		}
	}
}

// waitForLoad blocks until the load with token has been published.
func waitForLoad(ctx context.Context, s *session.Session, token uint64) (session.Event, error) {
	for {
		select {
		case <-ctx.Done():
			return session.Event{}, ctx.Err()
		case ev := <-s.Events():
			if ev.Token == token {
				return ev, nil
			}
		}
	}
}

func show(a *app.App, s *session.Session) {
	data, _ := s.Input()
	req := codec.Request{Mode: s.Mode(), Text: string(data)}
	if err := a.WriteResult(req, s.Convert()); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
	}
}
