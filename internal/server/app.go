// Package server initializes and runs the archive engine server. It opens
// the database, runs schema migrations, wires the engine services, and
// starts the HTTP API with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mkovalev/casetrack/internal/logging"
	"github.com/mkovalev/casetrack/internal/server/config"
	"github.com/mkovalev/casetrack/internal/server/httpapi"
	"github.com/mkovalev/casetrack/internal/server/metrics"
	"github.com/mkovalev/casetrack/internal/server/repositories/repomanager"
	"github.com/mkovalev/casetrack/internal/server/services"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	archive *services.ArchiveService
	restore *services.RestoreService
	catalog *services.CatalogService
}

func NewApp(c *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	m := metrics.NewMetrics(prometheus.DefaultRegisterer)

	as := services.NewArchiveService(db, rm, logger, m)
	rs := services.NewRestoreService(db, rm, logger, m)
	cs := services.NewCatalogService(db, rm)

	return &App{config: c, logger: logger, db: db, archive: as, restore: rs, catalog: cs}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger,
		app.archive, app.restore, app.catalog, app.config.SecretKey, app.config.ShutdownTimeout)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
