package codec

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePadding(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"a", "YQ=="},
		{"ab", "YWI="},
		{"abc", "YWJj"},
		{"hello world", "aGVsbG8gd29ybGQ="},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := EncodeText(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"a",
		"héllo",
		"日本語のテキスト",
		"emoji 🎉 and tabs\tand\nnewlines",
		"\x00\x01 control",
	}

	for _, in := range inputs {
		enc, err := EncodeText(in)
		require.NoError(t, err)
		require.Regexp(t, `^[A-Za-z0-9+/=]*$`, enc)

		dec, err := DecodeText(enc)
		require.NoError(t, err)
		require.Equal(t, in, dec)
	}
}

func TestMultiByteIsUTF8(t *testing.T) {
	got, err := EncodeText("héllo")
	require.NoError(t, err)
	// Latin-1 would give "aOlsbG8=".
	require.Equal(t, "aMOpbGxv", got)
}

func TestDecodeEmpty(t *testing.T) {
	for _, in := range []string{"", "  ", "\n\r\n"} {
		got, err := DecodeText(in)
		require.NoError(t, err)
		require.Equal(t, "", got)
	}
}

func TestDecodeWhitespace(t *testing.T) {
	want, err := DecodeText("YWJj")
	require.NoError(t, err)

	for _, in := range []string{"YWJj\n", " YWJj", "YW\r\nJj", "Y W J j", "\tYWJj\t"} {
		got, err := DecodeText(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
}

func TestDecodeInvalid(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		offset int
		reason string
	}{
		{name: "bang", in: "YW!j", offset: 2, reason: "illegal character"},
		{name: "bang at start", in: "!YWJj", offset: 0, reason: "illegal character"},
		{name: "bang at end", in: "YWJjYWJj!", offset: 8, reason: "illegal character"},
		{name: "url char in std", in: "YW-j", offset: 2, reason: "illegal character"},
		{name: "non ascii", in: "YWJé", offset: 3, reason: "illegal character"},
		{name: "length", in: "YWJjY", offset: -1, reason: "invalid length 5"},
		{name: "data after padding", in: "YQ==YQ==", offset: 4, reason: "data after padding"},
		{name: "too much padding", in: "YQ===", offset: 4, reason: "too much padding"},
		{name: "incorrect padding", in: "YWJj=", offset: 4, reason: "incorrect padding"},
		{name: "padding only", in: "==", offset: 1, reason: "padding without data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.in)
			require.Error(t, err)
			require.ErrorIs(t, err, ErrInvalidBase64)

			var ie *InvalidBase64Error
			require.True(t, errors.As(err, &ie))
			assert.Equal(t, tt.offset, ie.Offset)
			assert.Equal(t, tt.reason, ie.Reason)
		})
	}
}

func TestDecodeInvalidAlwaysFails(t *testing.T) {
	// A non-alphabet character fails wherever it appears.
	valid := "aGVsbG8gd29ybGQ="
	for i := 0; i <= len(valid)-1; i++ {
		in := valid[:i] + "!" + valid[i:]
		_, err := Decode(in)
		require.ErrorIs(t, err, ErrInvalidBase64, in)
	}
}

func TestDecodeMissingPadding(t *testing.T) {
	got, err := DecodeText("YQ")
	require.NoError(t, err)
	require.Equal(t, "a", got)

	got, err = DecodeText("YWI")
	require.NoError(t, err)
	require.Equal(t, "ab", got)

	strict := MustNew(Options{Strict: true})
	_, err = strict.Decode("YQ")
	require.ErrorIs(t, err, ErrInvalidBase64)
}

func TestDecodeNotText(t *testing.T) {
	enc := Encode([]byte{0xff, 0xfe, 0x00})

	_, err := DecodeText(enc)
	require.ErrorIs(t, err, ErrDecoding)
	var de *DecodingError
	require.True(t, errors.As(err, &de))
	require.Equal(t, 0, de.Offset)

	b, err := Decode(enc)
	require.NoError(t, err)
	require.Equal(t, []byte{0xff, 0xfe, 0x00}, b)
}

func TestEncodeTextInvalidUTF8(t *testing.T) {
	_, err := EncodeText("ok\xffnot")
	require.ErrorIs(t, err, ErrEncoding)
	var ee *EncodingError
	require.True(t, errors.As(err, &ee))
	require.Equal(t, 2, ee.Offset)

	// The binary path accepts any bytes.
	require.Equal(t, "b2v/bm90", Encode([]byte("ok\xffnot")))
}

func TestMatchesStdlib(t *testing.T) {
	codecs := map[string]struct {
		c      *Codec
		stdlib *base64.Encoding
	}{
		"std":               {MustNew(Options{}), base64.StdEncoding},
		"raw std":           {MustNew(Options{NoPadding: true}), base64.RawStdEncoding},
		"url":               {MustNew(Options{Alphabet: AlphabetURL}), base64.URLEncoding},
		"raw url":           {MustNew(Options{Alphabet: AlphabetURL, NoPadding: true}), base64.RawURLEncoding},
		"constant time":     {MustNew(Options{ConstantTime: true}), base64.StdEncoding},
		"constant time url": {MustNew(Options{ConstantTime: true, Alphabet: AlphabetURL}), base64.URLEncoding},
		"constant time raw url": {
			MustNew(Options{ConstantTime: true, Alphabet: AlphabetURL, NoPadding: true}),
			base64.RawURLEncoding,
		},
	}

	src := make([]byte, 512)
	_, err := rand.Read(src)
	require.NoError(t, err)

	for name, p := range codecs {
		t.Run(name, func(t *testing.T) {
			for i := 1; i < len(src); i++ {
				want := p.stdlib.EncodeToString(src[:i])
				got := p.c.Encode(src[:i])
				require.Equal(t, want, got, "#%d", i)

				dec, err := p.c.Decode(got)
				require.NoError(t, err)
				require.Equal(t, src[:i], dec, "#%d", i)
			}
		})
	}
}

func TestConstantTimeURLAlphabet(t *testing.T) {
	c := MustNew(Options{ConstantTime: true, Alphabet: AlphabetURL})

	tests := [][]byte{
		{0xff, 0xff, 0xff, 0xfb, 0xff, 0xbf, 0x00, 0x00},
		bytes.Repeat([]byte{0xfb, 0xff}, 12),
		{0xff},
	}
	for _, src := range tests {
		got := c.Encode(src)
		require.Equal(t, base64.URLEncoding.EncodeToString(src), got)
		require.NotContains(t, got, "+")
		require.NotContains(t, got, "/")

		dec, err := c.Decode(got)
		require.NoError(t, err)
		require.Equal(t, src, dec)
	}

	require.Equal(t, "____-_-_AAA=", c.Encode([]byte{0xff, 0xff, 0xff, 0xfb, 0xff, 0xbf, 0x00, 0x00}))

	_, err := c.Decode("+/8=")
	require.ErrorIs(t, err, ErrInvalidBase64)
}

func TestWrap(t *testing.T) {
	c := MustNew(Options{Wrap: 4})
	got := c.Encode([]byte("abcdefgh"))
	require.Equal(t, "YWJj\nZGVm\nZ2g=", got)

	dec, err := c.DecodeText(got)
	require.NoError(t, err)
	require.Equal(t, "abcdefgh", dec)
}

func TestNewInvalidOptions(t *testing.T) {
	_, err := New(Options{Wrap: -1})
	require.Error(t, err)

	_, err = New(Options{Alphabet: "base32"})
	require.Error(t, err)
}

func TestStrictNoPadding(t *testing.T) {
	c := MustNew(Options{NoPadding: true, Strict: true})
	require.Equal(t, "YQ", c.Encode([]byte("a")))

	_, err := c.Decode("YQ==")
	require.ErrorIs(t, err, ErrInvalidBase64)

	got, err := c.DecodeText("YQ")
	require.NoError(t, err)
	require.Equal(t, "a", got)
}
