package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mkovalev/casetrack/internal/common"
	"github.com/mkovalev/casetrack/internal/dbx"
	"github.com/mkovalev/casetrack/internal/logging"
	"github.com/mkovalev/casetrack/internal/server/metrics"
	"github.com/mkovalev/casetrack/internal/server/models"
	"github.com/mkovalev/casetrack/internal/server/repositories/repomanager"
)

// ArchiveService captures a live aggregate into a snapshot and purges the
// live rows, all inside one transaction. Archival has no side effects
// outside the transaction boundary.
type ArchiveService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

// NewArchiveService constructs the archive engine.
func NewArchiveService(db *sql.DB, rm repomanager.RepositoryManager, logger logging.Logger, m *metrics.Metrics) *ArchiveService {
	return &ArchiveService{
		db:          db,
		repomanager: rm,
		logger:      logger.With("module", "archive_service"),
		metrics:     m,
		now:         time.Now,
	}
}

// ArchiveCase snapshots a case and deletes its live rows. Disposition
// records referencing the case are unlinked, never deleted.
func (s *ArchiveService) ArchiveCase(ctx context.Context, caseID, actorID, reason string) (*models.ArchiveSnapshot, error) {
	// Fast existence check before any transaction is opened.
	if _, err := s.repomanager.Cases(s.db).Get(ctx, caseID); err != nil {
		return nil, err
	}

	var snapshot *models.ArchiveSnapshot

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		caseRepo := s.repomanager.Cases(tx)

		// The row lock serializes concurrent archivers; a loser sees the
		// row already gone and fails with not found.
		c, err := caseRepo.GetForUpdate(ctx, caseID)
		if err != nil {
			return err
		}

		control, automatic, manual, err := s.loadControlState(ctx, tx, models.KindCase, c.ID)
		if err != nil {
			return err
		}

		snapshot = BuildSnapshot(CaseSnapshotSource(c), control, automatic, manual, actorID, reason, s.now())

		if err := s.repomanager.Snapshots(tx).Create(ctx, snapshot); err != nil {
			return err
		}

		if err := s.purgeControlState(ctx, tx, control); err != nil {
			return err
		}

		unlinked, err := s.repomanager.Dispositions(tx).UnlinkCase(ctx, c.ID)
		if err != nil {
			return err
		}
		if unlinked > 0 {
			s.logger.Info(ctx, "unlinked disposition records", "case_number", c.Number, "count", unlinked)
		}

		return caseRepo.Delete(ctx, c.ID)
	})

	if err != nil {
		s.metrics.ArchivesTotal.WithLabelValues(string(models.KindCase), "error").Inc()
		return nil, fmt.Errorf("error archiving case: %w", err)
	}

	s.metrics.ArchivesTotal.WithLabelValues(string(models.KindCase), "ok").Inc()
	s.logger.Info(ctx, "case archived",
		"case_number", snapshot.Number, "snapshot_id", snapshot.ID,
		"total_time_minutes", snapshot.TotalTimeMinutes)

	return snapshot, nil
}

// ArchiveTodo snapshots a completed todo and deletes its live rows.
// Incomplete todos are rejected before any transaction is opened.
func (s *ArchiveService) ArchiveTodo(ctx context.Context, todoID, actorID, reason string) (*models.ArchiveSnapshot, error) {
	t, err := s.repomanager.Todos(s.db).Get(ctx, todoID)
	if err != nil {
		return nil, err
	}
	if !t.IsCompleted {
		return nil, fmt.Errorf("%w: only completed items may be archived", common.ErrorPreconditionFailed)
	}

	var snapshot *models.ArchiveSnapshot

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		todoRepo := s.repomanager.Todos(tx)

		t, err := todoRepo.GetForUpdate(ctx, todoID)
		if err != nil {
			return err
		}
		// Re-checked under the lock: completion could have been reverted
		// between the fast check and the transaction.
		if !t.IsCompleted {
			return fmt.Errorf("%w: only completed items may be archived", common.ErrorPreconditionFailed)
		}

		control, automatic, manual, err := s.loadControlState(ctx, tx, models.KindTodo, t.ID)
		if err != nil {
			return err
		}

		snapshot = BuildSnapshot(TodoSnapshotSource(t), control, automatic, manual, actorID, reason, s.now())

		if err := s.repomanager.Snapshots(tx).Create(ctx, snapshot); err != nil {
			return err
		}

		if err := s.purgeControlState(ctx, tx, control); err != nil {
			return err
		}

		return todoRepo.Delete(ctx, t.ID)
	})

	if err != nil {
		s.metrics.ArchivesTotal.WithLabelValues(string(models.KindTodo), "error").Inc()
		return nil, fmt.Errorf("error archiving todo: %w", err)
	}

	s.metrics.ArchivesTotal.WithLabelValues(string(models.KindTodo), "ok").Inc()
	s.logger.Info(ctx, "todo archived",
		"todo_number", snapshot.Number, "snapshot_id", snapshot.ID,
		"total_time_minutes", snapshot.TotalTimeMinutes)

	return snapshot, nil
}

// loadControlState reads the control record and both time entry collections.
// An aggregate without a control record archives with empty entries.
func (s *ArchiveService) loadControlState(ctx context.Context, tx dbx.DBTX, kind models.AggregateKind, ownerID string) (*models.ControlRecord, []models.AutomaticTimeEntry, []models.ManualTimeEntry, error) {
	control, err := s.repomanager.Controls(tx).GetByOwner(ctx, kind, ownerID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, nil, nil
		}
		return nil, nil, nil, err
	}

	entryRepo := s.repomanager.TimeEntries(tx)
	automatic, err := entryRepo.ListAutomaticByControl(ctx, control.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	manual, err := entryRepo.ListManualByControl(ctx, control.ID)
	if err != nil {
		return nil, nil, nil, err
	}

	return control, automatic, manual, nil
}

// purgeControlState deletes time entries before the control record that
// owns them, satisfying the child-before-parent constraint order.
func (s *ArchiveService) purgeControlState(ctx context.Context, tx dbx.DBTX, control *models.ControlRecord) error {
	if control == nil {
		return nil
	}
	if err := s.repomanager.TimeEntries(tx).DeleteByControl(ctx, control.ID); err != nil {
		return err
	}
	return s.repomanager.Controls(tx).Delete(ctx, control.ID)
}
