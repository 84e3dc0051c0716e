// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/mkovalev/casetrack/internal/dbx"
	"github.com/mkovalev/casetrack/internal/server/migrations"
	"github.com/mkovalev/casetrack/internal/server/repositories/cases"
	"github.com/mkovalev/casetrack/internal/server/repositories/controls"
	"github.com/mkovalev/casetrack/internal/server/repositories/dispositions"
	"github.com/mkovalev/casetrack/internal/server/repositories/snapshots"
	"github.com/mkovalev/casetrack/internal/server/repositories/timeentries"
	"github.com/mkovalev/casetrack/internal/server/repositories/todos"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// Cases returns a cases.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Cases(db dbx.DBTX) cases.Repository {
	return cases.NewPostgresRepository(db)
}

// Todos returns a todos.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Todos(db dbx.DBTX) todos.Repository {
	return todos.NewPostgresRepository(db)
}

// Controls returns a controls.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Controls(db dbx.DBTX) controls.Repository {
	return controls.NewPostgresRepository(db)
}

// TimeEntries returns a timeentries.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) TimeEntries(db dbx.DBTX) timeentries.Repository {
	return timeentries.NewPostgresRepository(db)
}

// Snapshots returns a snapshots.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Snapshots(db dbx.DBTX) snapshots.Repository {
	return snapshots.NewPostgresRepository(db)
}

// Dispositions returns a dispositions.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Dispositions(db dbx.DBTX) dispositions.Repository {
	return dispositions.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetDialect("pgx")
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
