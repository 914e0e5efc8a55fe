// Package control serves a small HTTP API for changing parameters and
// playing notes on a running engine.
package control

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/justyntemme/synja/pkg/framework/debug"
	"github.com/justyntemme/synja/pkg/framework/state"
	"github.com/justyntemme/synja/pkg/midi"
	"github.com/justyntemme/synja/pkg/synth"
)

// Synth is the part of an engine the server may touch from its own
// goroutines.
type Synth interface {
	Params() *synth.Parameters
	Queue() *midi.EventQueue
}

// Config holds server configuration
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Server is the HTTP control server
type Server struct {
	config  Config
	synth   Synth
	patches *state.Manager
	router  *chi.Mux
}

// New creates a server for s.
func New(cfg Config, s Synth) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}
	srv := &Server{
		config:  cfg,
		synth:   s,
		patches: state.NewManager(s.Params().Registry),
		router:  chi.NewRouter(),
	}
	srv.setupRoutes()
	return srv
}

func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/health", s.handleHealth)

	r.Route("/params", func(r chi.Router) {
		r.Get("/", s.handleListParams)
		r.Get("/{name}", s.handleGetParam)
		r.Put("/{name}", s.handleSetParam)
	})

	r.Route("/patch", func(r chi.Router) {
		r.Get("/", s.handleGetPatch)
		r.Put("/", s.handlePutPatch)
	})

	r.Post("/notes/{note}/on", s.handleNoteOn)
	r.Post("/notes/{note}/off", s.handleNoteOff)
	r.Post("/bend", s.handleBend)
	r.Post("/panic", s.handlePanic)
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.config.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		done <- srv.Shutdown(shutdownCtx)
	}()

	debug.Info("control: listening on http://%s", ln.Addr())
	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-done
}

// requestLogger logs each request through the debug logger
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		debug.Debug("control: %s %s %d %v", r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}
