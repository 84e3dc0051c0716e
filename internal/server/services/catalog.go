package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/mkovalev/casetrack/internal/server/models"
	"github.com/mkovalev/casetrack/internal/server/repositories/repomanager"
	"github.com/mkovalev/casetrack/internal/server/repositories/snapshots"
)

// CatalogService is the read path over archived snapshots. It owns no
// writes; it relies on the engines' transaction boundaries to never observe
// a partially committed snapshot.
type CatalogService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

// NewCatalogService constructs the archive catalog.
func NewCatalogService(db *sql.DB, rm repomanager.RepositoryManager) *CatalogService {
	return &CatalogService{
		db:          db,
		repomanager: rm,
		now:         time.Now,
	}
}

// List returns one page of archived snapshots plus the total match count.
func (s *CatalogService) List(ctx context.Context, filter snapshots.ListFilter) ([]*models.ArchiveSnapshot, int64, error) {
	return s.repomanager.Snapshots(s.db).List(ctx, filter)
}

// Stats returns the catalog counters. "This month" is the calendar month of
// the current UTC time.
func (s *CatalogService) Stats(ctx context.Context) (*snapshots.Stats, error) {
	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return s.repomanager.Snapshots(s.db).Stats(ctx, monthStart)
}
