// Package session holds the state of one interactive conversion session: the
// selected mode, the current input and the last result.
//
// Files are loaded asynchronously. Every load or text edit takes a new
// token from a monotonically increasing counter, and a finished load is only
// applied when its token is still the latest one. A slow read that completes
// after a newer selection is discarded instead of overwriting it.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"

	"github.com/smartok/b64/pkg/codec"
)

// DefaultMaxSize bounds file loads, conversions are held in memory.
const DefaultMaxSize = 10 << 20

// ErrStale is returned for loads superseded by a newer load or edit.
var ErrStale = errors.New("load superseded by a newer request")

// Loader reads the content of path.
type Loader func(ctx context.Context, path string, maxSize int64) ([]byte, error)

// Event reports the outcome of the latest load.
type Event struct {
	Token    uint64
	Filename string
	Size     int
	Err      error
}

type Option func(*Session)

// WithLogger sets the logger, the default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithLoader replaces the file loader.
func WithLoader(fn Loader) Option {
	return func(s *Session) { s.load = fn }
}

// WithMaxSize sets the largest file LoadFile accepts.
func WithMaxSize(n int64) Option {
	return func(s *Session) { s.maxSize = n }
}

type Session struct {
	ID uuid.UUID

	codec   *codec.Codec
	log     zerolog.Logger
	load    Loader
	maxSize int64
	events  chan Event

	mu       sync.Mutex
	mode     codec.Mode
	input    []byte
	binary   bool
	filename string
	result   *codec.Result
	latest   uint64
	cancel   context.CancelFunc
}

// New returns a session in encode mode with empty input.
func New(c *codec.Codec, opts ...Option) *Session {
	s := &Session{
		ID:      uuid.New(),
		codec:   c,
		log:     zerolog.Nop(),
		load:    ReadFile,
		maxSize: DefaultMaxSize,
		events:  make(chan Event, 1),
		mode:    codec.ModeEncode,
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With().Str("session", s.ID.String()).Logger()
	return s
}

// Events delivers the outcome of loads that were applied or failed while
// still current. Only the newest undelivered event is kept.
func (s *Session) Events() <-chan Event {
	return s.events
}

func (s *Session) Mode() codec.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode changes the mode and clears the last result.
func (s *Session) SetMode(m codec.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
	s.result = nil
}

// Toggle flips between encode and decode and returns the new mode.
func (s *Session) Toggle() codec.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = s.mode.Toggle()
	s.result = nil
	return s.mode
}

// SetText replaces the input with typed text. Any in-flight load is
// superseded.
func (s *Session) SetText(text string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := s.supersede()
	s.input = []byte(text)
	s.binary = false
	s.filename = ""
	s.result = nil
	return token
}

// Input returns the current input and the file it came from, if any.
func (s *Session) Input() ([]byte, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input, s.filename
}

// supersede cancels the in-flight load and returns a fresh token. The
// caller holds s.mu.
func (s *Session) supersede() uint64 {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.latest++
	return s.latest
}

// LoadFile starts reading path in the background and returns the token of
// the load. The outcome is published on Events unless a newer load or edit
// happened in the meantime.
func (s *Session) LoadFile(ctx context.Context, path string) uint64 {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	token := s.supersede()
	s.cancel = cancel
	s.mu.Unlock()

	s.log.Debug().Uint64("token", token).Str("path", path).Msg("loading file")

	go func() {
		defer cancel()

		data, err := s.readPath(ctx, path)
		ev := Event{Token: token, Filename: path, Size: len(data), Err: err}
		if err := s.finish(ev, data); err != nil {
			s.log.Debug().Uint64("token", token).AnErr("load_err", ev.Err).Msg("dropping stale load")
		}
	}()

	return token
}

func (s *Session) readPath(ctx context.Context, path string) ([]byte, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expand path %q: %w", path, err)
	}
	return s.load(ctx, expanded, s.maxSize)
}

// finish stores the outcome of a load and publishes it, if ev.Token is
// still the latest. Both happen under s.mu so a superseded load can never
// publish after a newer one.
func (s *Session) finish(ev Event, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev.Token != s.latest {
		return ErrStale
	}
	if ev.Err == nil {
		s.input = data
		s.binary = true
		s.filename = filepath.Base(ev.Filename)
		s.result = nil
		s.cancel = nil
	}
	s.publish(ev)
	return nil
}

// publish delivers ev without blocking. The caller holds s.mu.
func (s *Session) publish(ev Event) {
	for {
		select {
		case s.events <- ev:
			return
		default:
		}
		// Replace the undelivered older event.
		select {
		case <-s.events:
		default:
		}
	}
}

// Convert runs the current input through the codec in the current mode and
// keeps the result.
func (s *Session) Convert() codec.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	req := codec.Request{Mode: s.mode, Text: string(s.input)}
	if s.binary {
		req.Binary = true
		req.Data = s.input
	}
	res := s.codec.Convert(req)
	s.result = &res

	ev := s.log.Debug().Str("mode", string(s.mode)).Int("input", len(s.input)).Bool("success", res.Success)
	if res.Err != nil {
		ev = ev.Str("kind", string(res.Kind))
	}
	ev.Msg("converted")
	return res
}

// Result returns the last conversion result, if the input and mode have not
// changed since.
func (s *Session) Result() (codec.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return codec.Result{}, false
	}
	return *s.result, true
}

// Close cancels any in-flight load.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.supersede()
}

// ReadFile is the default Loader. It stops early when ctx is cancelled and
// refuses files larger than maxSize.
func ReadFile(ctx context.Context, path string, maxSize int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return nil, fmt.Errorf("%s is %d bytes, larger than the limit of %d", path, info.Size(), maxSize)
	}

	var r io.Reader = &ctxReader{ctx: ctx, r: f}
	if maxSize > 0 {
		r = io.LimitReader(r, maxSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%s grew beyond the limit of %d bytes", path, maxSize)
	}
	return data, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
