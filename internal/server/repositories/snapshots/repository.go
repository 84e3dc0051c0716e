package snapshots

import (
	"context"
	"time"

	"github.com/mkovalev/casetrack/internal/server/models"
)

// ListFilter narrows and orders catalog queries over archived snapshots.
type ListFilter struct {
	Page            int
	PageSize        int
	Search          string
	Kind            models.AggregateKind
	SortBy          string
	SortOrder       string
	IncludeRestored bool
}

// Stats aggregates catalog counters. TotalArchived and TotalByKind count
// only live (non-tombstoned) snapshots; the monthly counters include
// tombstones so restores remain visible in reporting.
type Stats struct {
	TotalArchived     int64
	ArchivedThisMonth int64
	RestoredThisMonth int64
	TotalByKind       map[models.AggregateKind]int64
}

// Repository abstracts archive snapshot persistence. The archive and restore
// engines are the only writers; the catalog only reads.
type Repository interface {
	Create(ctx context.Context, s *models.ArchiveSnapshot) error
	Get(ctx context.Context, id string) (*models.ArchiveSnapshot, error)
	GetForUpdate(ctx context.Context, id string) (*models.ArchiveSnapshot, error)
	MarkRestored(ctx context.Context, id, restoredBy string, restoredAt time.Time) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]*models.ArchiveSnapshot, int64, error)
	Stats(ctx context.Context, monthStart time.Time) (*Stats, error)
}
