// Package controls provides the PostgreSQL-backed repository for control
// records (the workflow/timer state attached one-to-one to an aggregate).
package controls

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mkovalev/casetrack/internal/common"
	"github.com/mkovalev/casetrack/internal/dbx"
	"github.com/mkovalev/casetrack/internal/server/models"
)

// PostgresRepository implements control record storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.ControlRecord) error {
	query :=
		`INSERT INTO control_records (id, kind, owner_id, status, is_timer_active, timer_started_at, total_time_minutes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 `

	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.Kind, c.OwnerID, c.Status, c.IsTimerActive, c.TimerStartedAt,
		c.TotalTimeMinutes, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetByOwner(ctx context.Context, kind models.AggregateKind, ownerID string) (*models.ControlRecord, error) {
	query :=
		`SELECT id, kind, owner_id, status, is_timer_active, timer_started_at, total_time_minutes, created_at, updated_at
		 FROM control_records
		 WHERE kind = $1 AND owner_id = $2
		 `

	c := &models.ControlRecord{}
	err := r.db.QueryRowContext(ctx, query, kind, ownerID).Scan(
		&c.ID, &c.Kind, &c.OwnerID, &c.Status, &c.IsTimerActive, &c.TimerStartedAt,
		&c.TotalTimeMinutes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM control_records WHERE id = $1`, id)
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
