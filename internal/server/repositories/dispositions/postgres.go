// Package dispositions provides the PostgreSQL-backed repository for
// disposition audit records.
package dispositions

import (
	"context"
	"fmt"

	"github.com/mkovalev/casetrack/internal/dbx"
	"github.com/mkovalev/casetrack/internal/server/models"
)

// PostgresRepository implements disposition storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, d *models.DispositionRecord) error {
	query :=
		`INSERT INTO disposition_records (id, case_id, case_number, action, notes, actor_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 `

	_, err := r.db.ExecContext(ctx, query,
		d.ID, d.CaseID, d.CaseNumber, d.Action, d.Notes, d.ActorID, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) ListByCaseNumber(ctx context.Context, number string) ([]models.DispositionRecord, error) {
	query :=
		`SELECT id, case_id, case_number, action, notes, actor_id, created_at
		 FROM disposition_records
		 WHERE case_number = $1
		 ORDER BY created_at
		 `

	rows, err := r.db.QueryContext(ctx, query, number)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.DispositionRecord
	for rows.Next() {
		var d models.DispositionRecord
		if err := rows.Scan(&d.ID, &d.CaseID, &d.CaseNumber, &d.Action, &d.Notes, &d.ActorID, &d.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UnlinkCase nulls the case foreign key on every disposition referencing the
// case, leaving the rows and their case-number copy intact. Returns how many
// rows were unlinked.
func (r *PostgresRepository) UnlinkCase(ctx context.Context, caseID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE disposition_records SET case_id = NULL WHERE case_id = $1`, caseID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}

	return n, nil
}
