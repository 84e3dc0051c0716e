package dispositions

import (
	"context"

	"github.com/mkovalev/casetrack/internal/server/models"
)

// Repository abstracts disposition audit rows. The archive engine never
// deletes or recreates these; UnlinkCase is the only mutation it performs.
type Repository interface {
	Create(ctx context.Context, d *models.DispositionRecord) error
	ListByCaseNumber(ctx context.Context, number string) ([]models.DispositionRecord, error)
	UnlinkCase(ctx context.Context, caseID string) (int64, error)
}
