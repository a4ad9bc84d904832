package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/smartok/b64/pkg/codec"
)

func newTestApp(t *testing.T, cfg string) (*App, *bytes.Buffer) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0600))

	out := &bytes.Buffer{}
	a := New()
	a.OutWriter = out
	a.ColorableOut = out
	a.ErrWriter = &bytes.Buffer{}
	a.InReader = strings.NewReader("")
	a.CfgFile = path
	a.SetColor()
	return a, out
}

func parse(t *testing.T, a *App, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	a.AddCodecFlags(cmd.Flags())
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

const profiles = `current-profile: jwt
profiles:
  - name: jwt
    alphabet: url
    padding: false
  - name: mime
    wrap: 76
    output: raw
`

func TestInitConfigProfile(t *testing.T) {
	a, _ := newTestApp(t, profiles)
	require.NoError(t, a.InitConfig(parse(t, a)))

	require.Equal(t, "jwt", a.CurrentProfile.Name)
	require.Equal(t, codec.Options{Alphabet: codec.AlphabetURL, NoPadding: true}, a.Codec().Options())
	require.Equal(t, "_-8", a.Codec().Encode([]byte{0xff, 0xef}))
	require.Equal(t, OutputFormatDefault, a.Output)
}

func TestInitConfigFlagsOverrideProfile(t *testing.T) {
	a, _ := newTestApp(t, profiles)
	require.NoError(t, a.InitConfig(parse(t, a, "--url=false", "--no-padding=false", "--strict", "--wrap", "8")))

	require.Equal(t, codec.Options{Alphabet: codec.AlphabetStd, Strict: true, Wrap: 8}, a.Codec().Options())
	// The stored profile keeps its own values.
	require.Equal(t, "url", a.Cfg.Profiles[0].Alphabet)
}

func TestInitConfigProfileOverride(t *testing.T) {
	a, _ := newTestApp(t, profiles)
	a.ProfileOverride = "mime"
	require.NoError(t, a.InitConfig(parse(t, a)))
	require.Equal(t, 76, a.Codec().Options().Wrap)
	require.Equal(t, OutputFormatRaw, a.Output)

	a, _ = newTestApp(t, profiles)
	a.ProfileOverride = "mime"
	require.NoError(t, a.InitConfig(parse(t, a, "-o", "hex")))
	require.Equal(t, OutputFormatHex, a.Output)

	a, _ = newTestApp(t, profiles)
	a.ProfileOverride = "nope"
	require.Error(t, a.InitConfig(parse(t, a)))
}

func TestInitConfigNoProfile(t *testing.T) {
	a, _ := newTestApp(t, "")
	require.NoError(t, a.InitConfig(parse(t, a, "--constant-time")))
	require.Equal(t, codec.Options{Alphabet: codec.AlphabetStd, ConstantTime: true}, a.Codec().Options())
}

func TestInitLogger(t *testing.T) {
	a, _ := newTestApp(t, "")
	errOut := &bytes.Buffer{}
	a.ErrWriter = errOut

	a.LogLevel = "debug"
	require.NoError(t, a.InitLogger())
	a.Logger.Debug().Msg("hello")
	require.Contains(t, errOut.String(), "hello")

	a.LogLevel = "loud"
	require.Error(t, a.InitLogger())
}

func TestReadInput(t *testing.T) {
	a, _ := newTestApp(t, "")
	ctx := context.Background()

	in, err := a.ReadInput(ctx, []string{"hello", "world"}, "")
	require.NoError(t, err)
	require.Equal(t, "hello world", string(in.Data))
	require.False(t, in.Binary)

	path := filepath.Join(t.TempDir(), "in.bin")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0x00}, 0600))
	in, err = a.ReadInput(ctx, nil, path)
	require.NoError(t, err)
	require.Equal(t, []byte{0xff, 0x00}, in.Data)
	require.True(t, in.Binary)
	require.Equal(t, path, in.Source)

	_, err = a.ReadInput(ctx, []string{"x"}, path)
	require.Error(t, err)

	_, err = a.ReadInput(ctx, nil, filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)

	a.InReader = strings.NewReader("piped\n")
	in, err = a.ReadInput(ctx, nil, "")
	require.NoError(t, err)
	require.Equal(t, "piped\n", string(in.Data))
	require.Equal(t, "stdin", in.Source)
}

func TestReadInputMaxSize(t *testing.T) {
	a, _ := newTestApp(t, "")
	ctx := context.Background()
	a.MaxSize = 2

	path := filepath.Join(t.TempDir(), "in.bin")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0600))
	_, err := a.ReadInput(ctx, nil, path)
	require.Error(t, err)

	a.InReader = strings.NewReader("abc")
	_, err = a.ReadInput(ctx, nil, "")
	require.Error(t, err)

	a.InReader = strings.NewReader("ab")
	in, err := a.ReadInput(ctx, nil, "")
	require.NoError(t, err)
	require.Equal(t, "ab", string(in.Data))

	a.MaxSize = 0
	in, err = a.ReadInput(ctx, nil, path)
	require.NoError(t, err)
	require.Equal(t, "abc", string(in.Data))
}

func TestWriteResult(t *testing.T) {
	req := codec.Request{Mode: codec.ModeEncode, Text: "abc"}
	res := codec.Convert(req)

	tests := []struct {
		output OutputFormat
		want   string
	}{
		{OutputFormatDefault, "YWJj\n"},
		{OutputFormatRaw, "YWJj"},
		{OutputFormatHex, "59574a6a\n"},
	}
	for _, tt := range tests {
		t.Run(string(tt.output), func(t *testing.T) {
			a, out := newTestApp(t, "")
			a.Output = tt.output
			require.NoError(t, a.WriteResult(req, res))
			require.Equal(t, tt.want, out.String())
		})
	}
}

func TestWriteResultJSON(t *testing.T) {
	a, out := newTestApp(t, "")
	a.Output = OutputFormatJSON

	req := codec.Request{Mode: codec.ModeDecode, Text: "YWJj"}
	require.NoError(t, a.WriteResult(req, codec.Convert(req)))

	var report codec.Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	require.True(t, report.Success)
	require.Equal(t, "abc", report.Output)
	require.NotNil(t, report.Stats)
	require.Equal(t, 4, report.Stats.Input.Characters)
}

func TestWriteResultFailure(t *testing.T) {
	a, out := newTestApp(t, "")
	req := codec.Request{Mode: codec.ModeDecode, Text: "!!!!"}

	err := a.WriteResult(req, codec.Convert(req))
	var ce *ConversionError
	require.True(t, errors.As(err, &ce))
	require.True(t, errors.Is(err, codec.ErrInvalidBase64))
	require.True(t, strings.HasPrefix(err.Error(), "Invalid Base64 input"))
	require.Empty(t, out.String())

	a.Output = OutputFormatJSON
	err = a.WriteResult(req, codec.Convert(req))
	require.Error(t, err)

	var report codec.Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	require.False(t, report.Success)
	require.Equal(t, codec.KindInvalidBase64, report.Kind)
	require.Nil(t, report.Stats)
}

func TestWriteBinaryDecode(t *testing.T) {
	a, out := newTestApp(t, "")
	a.Output = OutputFormatHex

	req := codec.Request{Mode: codec.ModeDecode, Text: "//4A", Binary: true}
	require.NoError(t, a.WriteResult(req, codec.Convert(req)))
	require.Equal(t, "fffe00\n", out.String())
}

func TestOutputFormatFlag(t *testing.T) {
	var f OutputFormat
	require.NoError(t, f.Set("json"))
	require.Equal(t, OutputFormatJSON, f)
	require.Error(t, f.Set("json-each-row"))
}
