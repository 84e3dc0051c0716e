// Package timeentries provides the PostgreSQL-backed repository for
// automatic (timer) and manual time entries.
package timeentries

import (
	"context"
	"fmt"

	"github.com/mkovalev/casetrack/internal/dbx"
	"github.com/mkovalev/casetrack/internal/server/models"
)

// PostgresRepository implements time entry storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateAutomatic(ctx context.Context, e *models.AutomaticTimeEntry) error {
	query :=
		`INSERT INTO automatic_time_entries (id, control_id, started_at, ended_at, duration_minutes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 `

	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.ControlID, e.StartedAt, e.EndedAt, e.DurationMinutes, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) CreateManual(ctx context.Context, e *models.ManualTimeEntry) error {
	query :=
		`INSERT INTO manual_time_entries (id, control_id, entry_date, duration_minutes, description, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 `

	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.ControlID, e.EntryDate, e.DurationMinutes, e.Description, e.CreatedBy, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) ListAutomaticByControl(ctx context.Context, controlID string) ([]models.AutomaticTimeEntry, error) {
	query :=
		`SELECT id, control_id, started_at, ended_at, duration_minutes, created_at
		 FROM automatic_time_entries
		 WHERE control_id = $1
		 ORDER BY started_at
		 `

	rows, err := r.db.QueryContext(ctx, query, controlID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.AutomaticTimeEntry
	for rows.Next() {
		var e models.AutomaticTimeEntry
		if err := rows.Scan(&e.ID, &e.ControlID, &e.StartedAt, &e.EndedAt, &e.DurationMinutes, &e.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) ListManualByControl(ctx context.Context, controlID string) ([]models.ManualTimeEntry, error) {
	query :=
		`SELECT id, control_id, entry_date, duration_minutes, description, created_by, created_at
		 FROM manual_time_entries
		 WHERE control_id = $1
		 ORDER BY entry_date
		 `

	rows, err := r.db.QueryContext(ctx, query, controlID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.ManualTimeEntry
	for rows.Next() {
		var e models.ManualTimeEntry
		if err := rows.Scan(&e.ID, &e.ControlID, &e.EntryDate, &e.DurationMinutes, &e.Description, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) CountAutomaticByControl(ctx context.Context, controlID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM automatic_time_entries WHERE control_id = $1`, controlID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) CountManualByControl(ctx context.Context, controlID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM manual_time_entries WHERE control_id = $1`, controlID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// DeleteByControl removes every time entry of both kinds for a control
// record. Entries go first in the archive purge order, before the control
// record and the aggregate they belong to.
func (r *PostgresRepository) DeleteByControl(ctx context.Context, controlID string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM automatic_time_entries WHERE control_id = $1`, controlID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM manual_time_entries WHERE control_id = $1`, controlID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
