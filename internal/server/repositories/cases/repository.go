package cases

import (
	"context"

	"github.com/mkovalev/casetrack/internal/server/models"
)

// Repository abstracts case row persistence. Create inserts a case with the
// id already set by the caller — the restore engine re-inserts the original
// identifier rather than minting a new one.
type Repository interface {
	Create(ctx context.Context, c *models.Case) error
	Get(ctx context.Context, id string) (*models.Case, error)
	GetForUpdate(ctx context.Context, id string) (*models.Case, error)
	GetByNumber(ctx context.Context, number string) (*models.Case, error)
	Delete(ctx context.Context, id string) error
}
