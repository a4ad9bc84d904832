// Package server exposes the converter as a local web page and a small JSON
// API.
package server

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/justinas/alice"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/sync/errgroup"

	"github.com/smartok/b64/pkg/codec"
	"github.com/smartok/b64/pkg/session"
)

//go:embed web
var webFS embed.FS

// DefaultMaxUpload bounds request bodies.
const DefaultMaxUpload = session.DefaultMaxSize

const shutdownTimeout = 5 * time.Second

type Server struct {
	codec     *codec.Codec
	log       zerolog.Logger
	maxUpload int64
	handler   http.Handler
}

type Option func(*Server)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithMaxUpload sets the largest accepted request body in bytes.
func WithMaxUpload(n int64) Option {
	return func(s *Server) { s.maxUpload = n }
}

func New(c *codec.Codec, opts ...Option) *Server {
	s := &Server{
		codec:     c,
		log:       zerolog.Nop(),
		maxUpload: DefaultMaxUpload,
	}
	for _, opt := range opts {
		opt(s)
	}

	static, err := fs.Sub(webFS, "web")
	if err != nil {
		panic(err)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /{$}", http.FileServerFS(static))
	mux.HandleFunc("GET /healthz", s.healthz)
	mux.HandleFunc("POST /api/convert", s.convert)
	mux.HandleFunc("POST /api/encode-file", s.encodeFile)
	mux.HandleFunc("POST /api/download", s.download)

	chain := alice.New(
		hlog.NewHandler(s.log),
		hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
			hlog.FromRequest(r).Info().
				Str("method", r.Method).
				Stringer("url", r.URL).
				Int("status", status).
				Int("size", size).
				Dur("duration", duration).
				Msg("")
		}),
		hlog.RemoteAddrHandler("ip"),
		hlog.RequestIDHandler("req_id", "Request-Id"),
	)
	s.handler = chain.Then(mux)
	return s
}

// Handler returns the HTTP handler with logging middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Serve handles requests on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpSrv := &http.Server{
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		Handler:           s.handler,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
