package todos

import (
	"context"

	"github.com/mkovalev/casetrack/internal/server/models"
)

// Repository abstracts todo row persistence. As with cases, Create inserts
// the row with the caller-supplied id so restores preserve identity.
type Repository interface {
	Create(ctx context.Context, t *models.Todo) error
	Get(ctx context.Context, id string) (*models.Todo, error)
	GetForUpdate(ctx context.Context, id string) (*models.Todo, error)
	GetByNumber(ctx context.Context, number string) (*models.Todo, error)
	Delete(ctx context.Context, id string) error
}
