// Package codec converts text and binary payloads to and from their RFC 4648
// Base64 representation.
//
// The byte mapping itself is delegated to encoding/base64, or to the
// constant-time implementation from github.com/ericlagergren/subtle when
// Options.ConstantTime is set. This package owns the parts around it: the
// UTF-8 text transform, whitespace tolerance, validation and the error
// taxonomy (InvalidBase64Error, DecodingError, EncodingError).
package codec

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"

	ctbase64 "github.com/ericlagergren/subtle/base64"
)

const (
	stdTable = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"
	urlTable = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

	padChar = '='
)

// Alphabet names the 64-character table used for encoding.
type Alphabet string

const (
	AlphabetStd Alphabet = "std"
	AlphabetURL Alphabet = "url"
)

// ParseAlphabet accepts "std", "url" and the empty string (std).
func ParseAlphabet(s string) (Alphabet, error) {
	switch s {
	case "", "std", "standard":
		return AlphabetStd, nil
	case "url":
		return AlphabetURL, nil
	default:
		return "", fmt.Errorf("unknown alphabet %q, must be one of: std, url", s)
	}
}

// Options tune a Codec. The zero value is standard padded Base64 backed by
// encoding/base64.
type Options struct {
	Alphabet Alphabet
	// NoPadding omits '=' when encoding. Decoding accepts either form unless
	// Strict is set.
	NoPadding bool
	// Strict rejects input whose padding does not match NoPadding.
	Strict bool
	// ConstantTime selects the constant-time backend.
	ConstantTime bool
	// Wrap breaks encoded output into lines of Wrap characters. Zero
	// disables wrapping.
	Wrap int
}

type backend interface {
	EncodeToString(src []byte) string
	DecodeString(s string) ([]byte, error)
}

// Codec is safe for concurrent use.
type Codec struct {
	opts  Options
	enc   backend
	dec   backend
	valid [256]bool
}

var defaultCodec = MustNew(Options{})

// New returns a Codec configured by opts.
func New(opts Options) (*Codec, error) {
	alphabet, err := ParseAlphabet(string(opts.Alphabet))
	if err != nil {
		return nil, err
	}
	opts.Alphabet = alphabet
	if opts.Wrap < 0 {
		return nil, fmt.Errorf("wrap width must not be negative, got %d", opts.Wrap)
	}

	c := &Codec{opts: opts}

	table := stdTable
	if alphabet == AlphabetURL {
		table = urlTable
	}
	for i := 0; i < len(table); i++ {
		c.valid[table[i]] = true
	}

	// Decoding always runs over canonically padded input.
	switch {
	case opts.ConstantTime && alphabet == AlphabetURL:
		// The url tables of the constant-time package produce wrong output
		// for inputs of 8 bytes or more, so run the std tables and swap the
		// two differing characters.
		c.enc, c.dec = urlSwap{ctbase64.StdEncoding}, urlSwap{ctbase64.StdEncoding}
		if opts.NoPadding {
			c.enc = urlSwap{ctbase64.RawStdEncoding}
		}
	case opts.ConstantTime:
		c.enc, c.dec = ctbase64.StdEncoding, ctbase64.StdEncoding
		if opts.NoPadding {
			c.enc = ctbase64.RawStdEncoding
		}
	case alphabet == AlphabetURL:
		c.enc, c.dec = base64.URLEncoding, base64.URLEncoding
		if opts.NoPadding {
			c.enc = base64.RawURLEncoding
		}
	default:
		c.enc, c.dec = base64.StdEncoding, base64.StdEncoding
		if opts.NoPadding {
			c.enc = base64.RawStdEncoding
		}
	}
	return c, nil
}

// urlSwap adapts a std alphabet backend to the url alphabet. The mapping
// runs without data dependent branches.
type urlSwap struct {
	std backend
}

func (u urlSwap) EncodeToString(src []byte) string {
	return swapAlphabet(u.std.EncodeToString(src), '+', '-', '/', '_')
}

func (u urlSwap) DecodeString(s string) ([]byte, error) {
	return u.std.DecodeString(swapAlphabet(s, '-', '+', '_', '/'))
}

// swapAlphabet replaces every a with a2 and b with b2 in constant time per
// byte.
func swapAlphabet(s string, a, a2, b, b2 byte) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		ch ^= byte(subtle.ConstantTimeByteEq(ch, a)) * (a ^ a2)
		ch ^= byte(subtle.ConstantTimeByteEq(ch, b)) * (b ^ b2)
		out[i] = ch
	}
	return string(out)
}

// MustNew is like New but panics on invalid options.
func MustNew(opts Options) *Codec {
	c, err := New(opts)
	if err != nil {
		panic(err)
	}
	return c
}

// Options returns the options the codec was built with.
func (c *Codec) Options() Options {
	return c.opts
}

// Encode returns the Base64 text for src. Empty input yields "".
func (c *Codec) Encode(src []byte) string {
	if len(src) == 0 {
		return ""
	}
	return wrap(c.enc.EncodeToString(src), c.opts.Wrap)
}

// EncodeText encodes the UTF-8 bytes of s. It fails with *EncodingError if s
// is not well-formed UTF-8, since such a string does not hold unicode text.
func (c *Codec) EncodeText(s string) (string, error) {
	if off := invalidUTF8(s); off >= 0 {
		return "", &EncodingError{Offset: off}
	}
	return c.Encode([]byte(s)), nil
}

// Decode validates s and returns the bytes it encodes. ASCII whitespace is
// ignored anywhere in the input so that wrapped text can be pasted as is.
func (c *Codec) Decode(s string) ([]byte, error) {
	data, err := c.normalize(s)
	if err != nil {
		return nil, err
	}
	if data == "" {
		return []byte{}, nil
	}
	out, err := c.dec.DecodeString(data)
	if err != nil {
		// normalize already rejected everything the backends reject.
		return nil, &InvalidBase64Error{Offset: -1, Reason: err.Error()}
	}
	return out, nil
}

// DecodeText decodes s and requires the result to be UTF-8 text.
func (c *Codec) DecodeText(s string) (string, error) {
	b, err := c.Decode(s)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", &DecodingError{Offset: invalidUTF8(string(b))}
	}
	return string(b), nil
}

// normalize strips whitespace, validates the alphabet and padding and
// returns canonically padded input.
func (c *Codec) normalize(s string) (string, error) {
	var (
		b       strings.Builder
		pad     int
		lastPad int
	)
	b.Grow(len(s) + 2)

	for i := 0; i < len(s); {
		ch := s[i]
		switch {
		case isSpace(ch):
			i++
			continue
		case ch == padChar:
			pad++
			lastPad = i
			if pad > 2 {
				return "", &InvalidBase64Error{Offset: i, Char: padChar, Reason: "too much padding"}
			}
			i++
			continue
		case ch >= utf8.RuneSelf:
			r, _ := utf8.DecodeRuneInString(s[i:])
			return "", &InvalidBase64Error{Offset: i, Char: r, Reason: "illegal character"}
		case !c.valid[ch]:
			return "", &InvalidBase64Error{Offset: i, Char: rune(ch), Reason: "illegal character"}
		case pad > 0:
			return "", &InvalidBase64Error{Offset: i, Char: rune(ch), Reason: "data after padding"}
		}
		b.WriteByte(ch)
		i++
	}

	n := b.Len()
	rem := n % 4
	switch {
	case n == 0 && pad > 0:
		return "", &InvalidBase64Error{Offset: lastPad, Char: padChar, Reason: "padding without data"}
	case rem == 1:
		return "", &InvalidBase64Error{Offset: -1, Reason: fmt.Sprintf("invalid length %d", n+pad)}
	case pad > 0 && (n+pad)%4 != 0:
		return "", &InvalidBase64Error{Offset: lastPad, Char: padChar, Reason: "incorrect padding"}
	case c.opts.Strict && c.opts.NoPadding && pad > 0:
		return "", &InvalidBase64Error{Offset: lastPad, Char: padChar, Reason: "unexpected padding"}
	case c.opts.Strict && !c.opts.NoPadding && pad == 0 && rem != 0:
		return "", &InvalidBase64Error{Offset: -1, Reason: "missing padding"}
	}

	if rem != 0 {
		b.WriteString("=="[:4-rem])
	}
	return b.String(), nil
}

func isSpace(ch byte) bool {
	switch ch {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

// invalidUTF8 returns the offset of the first invalid byte in s, or -1.
func invalidUTF8(s string) int {
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return -1
}

func wrap(s string, width int) string {
	if width <= 0 || len(s) <= width {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + len(s)/width)
	for len(s) > width {
		b.WriteString(s[:width])
		b.WriteByte('\n')
		s = s[width:]
	}
	b.WriteString(s)
	return b.String()
}

// Encode encodes src with standard padded Base64.
func Encode(src []byte) string {
	return defaultCodec.Encode(src)
}

// EncodeText encodes the UTF-8 bytes of s with standard padded Base64.
func EncodeText(s string) (string, error) {
	return defaultCodec.EncodeText(s)
}

// Decode decodes standard Base64, ignoring whitespace.
func Decode(s string) ([]byte, error) {
	return defaultCodec.Decode(s)
}

// DecodeText decodes standard Base64 into UTF-8 text.
func DecodeText(s string) (string, error) {
	return defaultCodec.DecodeText(s)
}
