package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/smartok/b64/pkg/app"
	"github.com/smartok/b64/pkg/codec"
	"github.com/smartok/b64/pkg/session"
)

// NewCommand returns the "b64 watch" command.
func NewCommand(a *app.App) *cobra.Command {
	var (
		mode     = codec.ModeEncode
		onceFlag bool
	)

	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Convert FILE and convert it again whenever it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := homedir.Expand(args[0])
			if err != nil {
				return err
			}
			path, err = filepath.Abs(path)
			if err != nil {
				return err
			}

			s := session.New(a.Codec(), session.WithLogger(a.Logger), session.WithMaxSize(a.MaxSize))
			defer s.Close()
			s.SetMode(mode)

			return run(cmd.Context(), a, s, path, onceFlag)
		},
	}

	cmd.Flags().VarP(&mode, "mode", "m", "Conversion mode (encode, decode)")
	cmd.Flags().BoolVar(&onceFlag, "once", false, "Exit after the first conversion")
	_ = cmd.RegisterFlagCompletionFunc("mode", app.CompleteMode)

	return cmd
}

func run(ctx context.Context, a *app.App, s *session.Session, path string, once bool) error {
	var events <-chan fsnotify.Event
	var watchErrors <-chan error
	if !once {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		defer w.Close()
		// Watch the directory, editors often replace files instead of
		// writing them in place.
		if err := w.Add(filepath.Dir(path)); err != nil {
			return fmt.Errorf("watch %v: %w", path, err)
		}
		events = w.Events
		watchErrors = w.Errors
	}

	s.LoadFile(ctx, path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev := <-events:
			if filepath.Clean(ev.Name) != path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			a.Logger.Debug().Str("op", ev.Op.String()).Msg("file changed")
			s.LoadFile(ctx, path)

		case err := <-watchErrors:
			return fmt.Errorf("watch %v: %w", path, err)

		case ev := <-s.Events():
			if ev.Err != nil {
				if once {
					return fmt.Errorf("read %v: %w", path, ev.Err)
				}
				fmt.Fprintf(a.ErrWriter, "Error: read %v: %v\n", path, ev.Err)
				continue
			}

			data, _ := s.Input()
			req := codec.Request{Mode: s.Mode(), Text: string(data), Data: data, Binary: true}
			err := a.WriteResult(req, s.Convert())
			var convErr *app.ConversionError
			if errors.As(err, &convErr) && !once {
				fmt.Fprintf(a.ErrWriter, "Error: %v\n", convErr)
				continue
			}
			if err != nil || once {
				return err
			}
		}
	}
}
