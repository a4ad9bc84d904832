package interactive

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smartok/b64/pkg/app"
	"github.com/smartok/b64/pkg/codec"
	"github.com/smartok/b64/pkg/session"
)

type scripted struct {
	answers []string
}

func (s *scripted) next() (string, error) {
	if len(s.answers) == 0 {
		return "", errors.New("^D")
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, nil
}

func (s *scripted) Select(string, []string) (string, error) { return s.next() }
func (s *scripted) Prompt(string) (string, error)           { return s.next() }

func newApp() (*app.App, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	a := app.New()
	a.OutWriter = out
	a.ColorableOut = out
	a.ErrWriter = errOut
	return a, out, errOut
}

func TestLoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob.bin")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0x00, 0x61}, 0600))

	a, out, errOut := newApp()
	s := session.New(codec.MustNew(codec.Options{}))
	defer s.Close()

	p := &scripted{answers: []string{
		actionText, "héllo",
		actionToggle,
		actionText, "YWJj",
		actionText, "abc!",
		actionToggle,
		actionFile, path,
		actionFile, filepath.Join(t.TempDir(), "missing"),
		actionQuit,
	}}

	require.NoError(t, loop(context.Background(), a, s, p))
	require.Equal(t, "aMOpbGxv\nabc\n/wBh\n", out.String())
	require.Contains(t, errOut.String(), "Error: Invalid Base64 input")
	require.Contains(t, errOut.String(), "Loaded "+path+" (3 bytes).")
	require.Equal(t, codec.ModeEncode, s.Mode())
	require.Empty(t, p.answers)
}

func TestLoopCancelled(t *testing.T) {
	a, out, _ := newApp()
	s := session.New(codec.MustNew(codec.Options{}))
	defer s.Close()

	require.NoError(t, loop(context.Background(), a, s, &scripted{}))
	require.Empty(t, out.String())
}

func TestWaitForLoadCancelled(t *testing.T) {
	s := session.New(codec.MustNew(codec.Options{}))
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := waitForLoad(ctx, s, 42)
	require.ErrorIs(t, err, context.Canceled)
}
