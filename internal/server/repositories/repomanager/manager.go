package repomanager

import (
	"context"
	"database/sql"

	"github.com/mkovalev/casetrack/internal/dbx"
	"github.com/mkovalev/casetrack/internal/server/repositories/cases"
	"github.com/mkovalev/casetrack/internal/server/repositories/controls"
	"github.com/mkovalev/casetrack/internal/server/repositories/dispositions"
	"github.com/mkovalev/casetrack/internal/server/repositories/snapshots"
	"github.com/mkovalev/casetrack/internal/server/repositories/timeentries"
	"github.com/mkovalev/casetrack/internal/server/repositories/todos"
)

// RepositoryManager vends repositories bound to a specific DBTX, so the same
// repository code runs against the pooled connection or inside a transaction.
// Services request fresh repositories per call instead of sharing handles.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Cases(db dbx.DBTX) cases.Repository
	Todos(db dbx.DBTX) todos.Repository
	Controls(db dbx.DBTX) controls.Repository
	TimeEntries(db dbx.DBTX) timeentries.Repository
	Snapshots(db dbx.DBTX) snapshots.Repository
	Dispositions(db dbx.DBTX) dispositions.Repository
}
