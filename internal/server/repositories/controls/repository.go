package controls

import (
	"context"

	"github.com/mkovalev/casetrack/internal/server/models"
)

// Repository abstracts control record persistence. Each aggregate owns at
// most one control record, addressed by (kind, owner id).
type Repository interface {
	Create(ctx context.Context, c *models.ControlRecord) error
	GetByOwner(ctx context.Context, kind models.AggregateKind, ownerID string) (*models.ControlRecord, error)
	Delete(ctx context.Context, id string) error
}
