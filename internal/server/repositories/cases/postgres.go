// Package cases provides the PostgreSQL-backed repository for live case rows.
package cases

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mkovalev/casetrack/internal/common"
	"github.com/mkovalev/casetrack/internal/dbx"
	"github.com/mkovalev/casetrack/internal/server/models"
)

// PostgresRepository implements case storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const caseColumns = `id, number, title, description, status, priority, assignee_id, created_by, created_at, updated_at`

func (r *PostgresRepository) Create(ctx context.Context, c *models.Case) error {
	query :=
		`INSERT INTO cases (id, number, title, description, status, priority, assignee_id, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 `

	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.Number, c.Title, c.Description, c.Status, c.Priority, c.AssigneeID, c.CreatedBy, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetForUpdate loads a case holding a row lock for the duration of the
// surrounding transaction. Concurrent archivers of the same case serialize
// here.
func (r *PostgresRepository) GetForUpdate(ctx context.Context, id string) (*models.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByNumber(ctx context.Context, number string) (*models.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE number = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, number))
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cases WHERE id = $1`, id)
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

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.Case, error) {
	c := &models.Case{}
	err := row.Scan(&c.ID, &c.Number, &c.Title, &c.Description, &c.Status, &c.Priority,
		&c.AssigneeID, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}
