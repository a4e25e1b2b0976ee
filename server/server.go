// Package server exposes a loaded table over a small JSON HTTP API.
//
// Routes:
//
//	GET  /health           liveness probe
//	GET  /schema           columns, kinds and row count
//	GET  /match?token=...  fuzzy column lookup
//	POST /parse            {"question": ...} -> plan
//	POST /query            {"question": ...} or {"plan": {...}} -> plan and result rows
//	POST /ask              {"question": ...} -> narrative answer
//
// Every response carries an X-Request-ID header, taken from the request
// when present and generated otherwise.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/vegasq/tabask/narrative"
	"github.com/vegasq/tabask/query"
)

// Handler serves the API for one query engine.
type Handler struct {
	engine    *query.Engine
	generator narrative.Generator
	logger    *zap.Logger
}

// NewHandler creates a handler. generator may be nil, in which case /ask
// answers with an error text. A nil logger disables logging.
func NewHandler(engine *query.Engine, generator narrative.Generator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		engine:    engine,
		generator: generator,
		logger:    logger,
	}
}

// RegisterRoutes mounts the API routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Get("/schema", h.Schema)
	r.Get("/match", h.Match)
	r.Post("/parse", h.Parse)
	r.Post("/query", h.Query)
	r.Post("/ask", h.Ask)
}

// NewRouter returns a router with request IDs, access logging, panic
// recovery and the API routes installed.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(AccessLog(h.logger))
	r.Use(middleware.Recoverer)
	h.RegisterRoutes(r)
	return r
}

// Config holds listener settings.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// ListenAndServe serves handler on cfg.Addr until ctx is cancelled, then
// shuts down gracefully.
func ListenAndServe(ctx context.Context, cfg Config, handler http.Handler, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Addr, err)
	}
	return Serve(ctx, ln, cfg, handler, logger)
}

// Serve is ListenAndServe on an existing listener.
func Serve(ctx context.Context, ln net.Listener, cfg Config, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}
	return nil
}
