package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"golang.org/x/term"

	"github.com/smartok/b64/pkg/codec"
	"github.com/smartok/b64/pkg/session"
)

var ErrNoInput = errors.New("no input: pass it as an argument, with --file, or on stdin")

// Input is what a command converts.
type Input struct {
	Data []byte
	// Binary is set for file and stdin input, which is encoded byte for
	// byte instead of as text.
	Binary bool
	// Source names where the input came from: "argument", "stdin" or the
	// file path.
	Source string
}

// ReadInput resolves the input of a command from its arguments, the file
// named by file, or stdin, in that order. Arguments are joined by a space.
func (a *App) ReadInput(ctx context.Context, args []string, file string) (Input, error) {
	if len(args) > 0 && file != "" {
		return Input{}, fmt.Errorf("pass the input either as an argument or with --file, not both")
	}

	if len(args) > 0 {
		return Input{Data: []byte(strings.Join(args, " ")), Source: "argument"}, nil
	}

	if file != "" {
		path, err := homedir.Expand(file)
		if err != nil {
			return Input{}, fmt.Errorf("expand path %q: %w", file, err)
		}
		data, err := session.ReadFile(ctx, path, a.MaxSize)
		if err != nil {
			return Input{}, fmt.Errorf("read input file: %w", err)
		}
		a.Logger.Debug().Str("path", path).Int("size", len(data)).Msg("read input file")
		return Input{Data: data, Binary: true, Source: path}, nil
	}

	if a.isTerminal(a.InReader) {
		return Input{}, ErrNoInput
	}
	r := a.InReader
	if a.MaxSize > 0 {
		r = io.LimitReader(r, a.MaxSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return Input{}, fmt.Errorf("read stdin: %w", err)
	}
	if a.MaxSize > 0 && int64(len(data)) > a.MaxSize {
		return Input{}, fmt.Errorf("stdin is larger than the limit of %d bytes", a.MaxSize)
	}
	return Input{Data: data, Binary: true, Source: "stdin"}, nil
}

// isTerminal reports whether v is a file attached to a terminal.
func (a *App) isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Request builds the conversion of in. File and stdin input is encoded
// byte for byte.
func (in Input) Request(mode codec.Mode) codec.Request {
	req := codec.Request{Mode: mode, Text: string(in.Data)}
	if in.Binary && mode == codec.ModeEncode {
		req.Binary = true
		req.Data = in.Data
	}
	return req
}
