package timeentries

import (
	"context"

	"github.com/mkovalev/casetrack/internal/server/models"
)

// Repository abstracts persistence for both time entry kinds. The create
// methods insert rows with caller-supplied ids so restored entries keep the
// identifiers they had before archival.
type Repository interface {
	CreateAutomatic(ctx context.Context, e *models.AutomaticTimeEntry) error
	CreateManual(ctx context.Context, e *models.ManualTimeEntry) error
	ListAutomaticByControl(ctx context.Context, controlID string) ([]models.AutomaticTimeEntry, error)
	ListManualByControl(ctx context.Context, controlID string) ([]models.ManualTimeEntry, error)
	CountAutomaticByControl(ctx context.Context, controlID string) (int, error)
	CountManualByControl(ctx context.Context, controlID string) (int, error)
	DeleteByControl(ctx context.Context, controlID string) error
}
