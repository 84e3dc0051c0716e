// Package snapshots provides the PostgreSQL-backed repository for archive
// snapshots. The metadata blob and both typed entry arrays are stored as
// JSONB columns and (un)marshalled here.
package snapshots

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mkovalev/casetrack/internal/common"
	"github.com/mkovalev/casetrack/internal/dbx"
	"github.com/mkovalev/casetrack/internal/server/models"
)

// PostgresRepository implements snapshot storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const snapshotColumns = `id, original_id, kind, number, title, status, reason, metadata,
		automatic_entries, manual_entries, total_time_minutes, timer_time_minutes, manual_time_minutes,
		archived_at, archived_by, is_restored, restored_at, restored_by`

// sortColumns whitelists the catalog's sortable fields.
var sortColumns = map[string]string{
	"archivedAt":       "archived_at",
	"number":           "number",
	"title":            "title",
	"kind":             "kind",
	"totalTimeMinutes": "total_time_minutes",
}

func (r *PostgresRepository) Create(ctx context.Context, s *models.ArchiveSnapshot) error {
	metadata, err := json.Marshal(s.Metadata)
	if err != nil {
		return fmt.Errorf("metadata marshal error: %w", err)
	}
	automatic, err := json.Marshal(entriesOrEmpty(s.AutomaticEntries))
	if err != nil {
		return fmt.Errorf("automatic entries marshal error: %w", err)
	}
	manual, err := json.Marshal(manualOrEmpty(s.ManualEntries))
	if err != nil {
		return fmt.Errorf("manual entries marshal error: %w", err)
	}

	query :=
		`INSERT INTO archive_snapshots (` + snapshotColumns + `)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		 `

	_, err = r.db.ExecContext(ctx, query,
		s.ID, s.OriginalID, s.Kind, s.Number, s.Title, s.Status, s.Reason, metadata,
		automatic, manual, s.TotalTimeMinutes, s.TimerTimeMinutes, s.ManualTimeMinutes,
		s.ArchivedAt, s.ArchivedBy, s.IsRestored, s.RestoredAt, s.RestoredBy)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.ArchiveSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM archive_snapshots WHERE id = $1`
	return scanSnapshot(r.db.QueryRowContext(ctx, query, id))
}

// GetForUpdate loads a snapshot holding a row lock for the duration of the
// surrounding transaction. Concurrent restorers of the same snapshot
// serialize here.
func (r *PostgresRepository) GetForUpdate(ctx context.Context, id string) (*models.ArchiveSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM archive_snapshots WHERE id = $1 FOR UPDATE`
	return scanSnapshot(r.db.QueryRowContext(ctx, query, id))
}

// MarkRestored tombstones the snapshot. The row stays until post-commit
// verification confirms the recreated aggregate and prunes it.
func (r *PostgresRepository) MarkRestored(ctx context.Context, id, restoredBy string, restoredAt time.Time) error {
	query :=
		`UPDATE archive_snapshots
		 SET is_restored = TRUE, restored_at = $2, restored_by = $3
		 WHERE id = $1 AND is_restored = FALSE
		 `

	res, err := r.db.ExecContext(ctx, query, id, restoredAt, restoredBy)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorConflict
	}

	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM archive_snapshots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}

// List returns one catalog page plus the total match count. Restored
// tombstones are excluded unless the filter asks for them.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*models.ArchiveSnapshot, int64, error) {
	where := []string{}
	args := []any{}

	if !filter.IncludeRestored {
		where = append(where, "is_restored = FALSE")
	}
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		where = append(where, fmt.Sprintf("kind = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where = append(where, fmt.Sprintf("(number ILIKE $%d OR title ILIKE $%d)", len(args), len(args)))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM archive_snapshots`+clause, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	sortBy, ok := sortColumns[filter.SortBy]
	if !ok {
		sortBy = "archived_at"
	}
	order := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	args = append(args, pageSize, (page-1)*pageSize)
	query := `SELECT ` + snapshotColumns + ` FROM archive_snapshots` + clause +
		fmt.Sprintf(" ORDER BY %s %s LIMIT $%d OFFSET $%d", sortBy, order, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.ArchiveSnapshot
	for rows.Next() {
		s, err := scanSnapshotRows(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return result, total, nil
}

// Stats computes the catalog counters in two queries: one pass of filtered
// aggregates and one group-by over live snapshots.
func (r *PostgresRepository) Stats(ctx context.Context, monthStart time.Time) (*Stats, error) {
	query :=
		`SELECT
			COUNT(*) FILTER (WHERE is_restored = FALSE),
			COUNT(*) FILTER (WHERE archived_at >= $1),
			COUNT(*) FILTER (WHERE restored_at >= $1)
		 FROM archive_snapshots
		 `

	stats := &Stats{TotalByKind: map[models.AggregateKind]int64{}}
	err := r.db.QueryRowContext(ctx, query, monthStart).Scan(
		&stats.TotalArchived, &stats.ArchivedThisMonth, &stats.RestoredThisMonth)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT kind, COUNT(*) FROM archive_snapshots WHERE is_restored = FALSE GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind models.AggregateKind
		var n int64
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		stats.TotalByKind[kind] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row *sql.Row) (*models.ArchiveSnapshot, error) {
	s, err := scanInto(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, err
	}
	return s, nil
}

func scanSnapshotRows(rows *sql.Rows) (*models.ArchiveSnapshot, error) {
	return scanInto(rows)
}

func scanInto(row rowScanner) (*models.ArchiveSnapshot, error) {
	s := &models.ArchiveSnapshot{}
	var metadata, automatic, manual []byte

	err := row.Scan(&s.ID, &s.OriginalID, &s.Kind, &s.Number, &s.Title, &s.Status, &s.Reason, &metadata,
		&automatic, &manual, &s.TotalTimeMinutes, &s.TimerTimeMinutes, &s.ManualTimeMinutes,
		&s.ArchivedAt, &s.ArchivedBy, &s.IsRestored, &s.RestoredAt, &s.RestoredBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if err := json.Unmarshal(metadata, &s.Metadata); err != nil {
		return nil, fmt.Errorf("metadata unmarshal error: %w", err)
	}
	if err := json.Unmarshal(automatic, &s.AutomaticEntries); err != nil {
		return nil, fmt.Errorf("automatic entries unmarshal error: %w", err)
	}
	if err := json.Unmarshal(manual, &s.ManualEntries); err != nil {
		return nil, fmt.Errorf("manual entries unmarshal error: %w", err)
	}

	return s, nil
}

// entriesOrEmpty keeps the stored arrays as [] rather than null.
func entriesOrEmpty(e []models.AutomaticTimeEntry) []models.AutomaticTimeEntry {
	if e == nil {
		return []models.AutomaticTimeEntry{}
	}
	return e
}

func manualOrEmpty(e []models.ManualTimeEntry) []models.ManualTimeEntry {
	if e == nil {
		return []models.ManualTimeEntry{}
	}
	return e
}
