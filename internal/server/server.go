// Package server exposes the intake form over HTTP: the section schema, live
// gating evaluation, and guarded submission.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sbenjam1n/clientintake/internal/form"
	"github.com/sbenjam1n/clientintake/internal/httpx"
	"github.com/sbenjam1n/clientintake/internal/store"
	"github.com/sbenjam1n/clientintake/internal/submission"
)

// Options configures a Server. Store may be nil, in which case submissions
// cannot be read back.
type Options struct {
	Schema         *form.Schema
	Submitter      *submission.Submitter
	Store          store.Store
	Logger         *slog.Logger
	RateLimitRPS   float64
	RateLimitBurst int
}

// Server serves the intake API over one schema.
type Server struct {
	schema    *form.Schema
	submitter *submission.Submitter
	store     store.Store
	logger    *slog.Logger
	limiter   *RateLimiter
}

// New creates a Server. A RateLimitRPS of zero or less disables rate limiting.
func New(o Options) *Server {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		schema:    o.Schema,
		submitter: o.Submitter,
		store:     o.Store,
		logger:    logger.With("component", "server"),
		limiter:   NewRateLimiter(o.RateLimitRPS, o.RateLimitBurst),
	}
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(httpx.RequestIDs)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Route("/intake/v1", func(api chi.Router) {
		api.Use(s.limiter.Middleware)
		api.Get("/schema", s.handleSchema)
		api.Post("/evaluate", s.handleEvaluate)
		api.Post("/submissions", s.handleSubmit)
		api.Get("/submissions/{submission_id}", s.handleGetSubmission)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	cleanupCtx, stop := context.WithCancel(ctx)
	defer stop()
	go s.limiter.Cleanup(cleanupCtx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
