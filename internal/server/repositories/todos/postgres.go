// Package todos provides the PostgreSQL-backed repository for live todo rows.
package todos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mkovalev/casetrack/internal/common"
	"github.com/mkovalev/casetrack/internal/dbx"
	"github.com/mkovalev/casetrack/internal/server/models"
)

// PostgresRepository implements todo storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const todoColumns = `id, number, title, description, status, is_completed, due_date, assignee_id, created_by, created_at, updated_at`

func (r *PostgresRepository) Create(ctx context.Context, t *models.Todo) error {
	query :=
		`INSERT INTO todos (id, number, title, description, status, is_completed, due_date, assignee_id, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 `

	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.Number, t.Title, t.Description, t.Status, t.IsCompleted, t.DueDate,
		t.AssigneeID, t.CreatedBy, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetForUpdate loads a todo holding a row lock for the duration of the
// surrounding transaction.
func (r *PostgresRepository) GetForUpdate(ctx context.Context, id string) (*models.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByNumber(ctx context.Context, number string) (*models.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE number = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, number))
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = $1`, id)
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

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.Todo, error) {
	t := &models.Todo{}
	err := row.Scan(&t.ID, &t.Number, &t.Title, &t.Description, &t.Status, &t.IsCompleted,
		&t.DueDate, &t.AssigneeID, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return t, nil
}
