// Package httpapi exposes the archive engine over HTTP. The CRUD surface
// for cases, todos and users lives elsewhere; this server carries only the
// archive, restore and catalog operations plus health and metrics.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mkovalev/casetrack/internal/logging"
	"github.com/mkovalev/casetrack/internal/server/models"
	"github.com/mkovalev/casetrack/internal/server/repositories/snapshots"
	"github.com/mkovalev/casetrack/internal/server/services"
)

// Archiver captures live aggregates into snapshots.
type Archiver interface {
	ArchiveCase(ctx context.Context, caseID, actorID, reason string) (*models.ArchiveSnapshot, error)
	ArchiveTodo(ctx context.Context, todoID, actorID, reason string) (*models.ArchiveSnapshot, error)
}

// Restorer reverses archivals.
type Restorer interface {
	Restore(ctx context.Context, snapshotID, actorID string) (*services.RestoreResult, error)
}

// Cataloger is the read path over snapshots.
type Cataloger interface {
	List(ctx context.Context, filter snapshots.ListFilter) ([]*models.ArchiveSnapshot, int64, error)
	Stats(ctx context.Context) (*snapshots.Stats, error)
}

// HTTPServer routes archive engine operations.
type HTTPServer struct {
	address         string
	logger          logging.Logger
	archive         Archiver
	restore         Restorer
	catalog         Cataloger
	jwtSecret       []byte
	shutdownTimeout time.Duration
}

// NewHTTPServer constructs the engine's HTTP server.
func NewHTTPServer(address string, l logging.Logger, as Archiver,
	rs Restorer, cs Cataloger, secretKey string, shutdownTimeout time.Duration) *HTTPServer {
	return &HTTPServer{
		address:         address,
		logger:          l.With("module", "http_server"),
		archive:         as,
		restore:         rs,
		catalog:         cs,
		jwtSecret:       []byte(secretKey),
		shutdownTimeout: shutdownTimeout,
	}
}

// Router builds the chi router with all engine routes mounted.
func (s *HTTPServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.actorMiddleware)
		r.Post("/cases/{id}/archive", s.handleArchiveCase)
		r.Post("/todos/{id}/archive", s.handleArchiveTodo)
		r.Post("/archive/{id}/restore", s.handleRestore)
		r.Get("/archive", s.handleList)
		r.Get("/archive/stats", s.handleStats)
	})

	return r
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}
