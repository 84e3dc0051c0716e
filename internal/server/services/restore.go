package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mkovalev/casetrack/internal/common"
	"github.com/mkovalev/casetrack/internal/dbx"
	"github.com/mkovalev/casetrack/internal/logging"
	"github.com/mkovalev/casetrack/internal/server/metrics"
	"github.com/mkovalev/casetrack/internal/server/models"
	"github.com/mkovalev/casetrack/internal/server/repositories/repomanager"
)

// RestoreResult reports a completed restore. SnapshotPruned is false when
// post-commit verification could not confirm the recreated aggregate — the
// live data is still correct, but the tombstoned snapshot was kept for
// manual follow-up.
type RestoreResult struct {
	AggregateID    string               `json:"aggregateId"`
	Kind           models.AggregateKind `json:"kind"`
	SnapshotPruned bool                 `json:"snapshotPruned"`
}

// RestoreService reverses an archival: phase 1 transactionally recreates the
// aggregate from the snapshot and tombstones it, phase 2 verifies the
// recreation outside the transaction and prunes the snapshot on success.
type RestoreService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

// NewRestoreService constructs the restore engine.
func NewRestoreService(db *sql.DB, rm repomanager.RepositoryManager, logger logging.Logger, m *metrics.Metrics) *RestoreService {
	return &RestoreService{
		db:          db,
		repomanager: rm,
		logger:      logger.With("module", "restore_service"),
		metrics:     m,
		now:         time.Now,
	}
}

// Restore recreates the aggregate held in a snapshot, preserving every
// original identifier. A failure before commit leaves the snapshot
// untouched with IsRestored=false, so the call is safe to retry.
func (s *RestoreService) Restore(ctx context.Context, snapshotID, actorID string) (*RestoreResult, error) {
	// Fast precondition checks before any transaction is opened.
	snapshot, err := s.repomanager.Snapshots(s.db).Get(ctx, snapshotID)
	if err != nil {
		return nil, err
	}
	if snapshot.IsRestored {
		return nil, fmt.Errorf("%w: snapshot already restored", common.ErrorConflict)
	}
	if err := s.checkCollision(ctx, s.db, snapshot); err != nil {
		return nil, err
	}

	var controlID string

	// Phase 1: transactional recreate. Nothing is deleted here; the
	// snapshot is only tombstoned.
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		snapRepo := s.repomanager.Snapshots(tx)

		// The row lock serializes concurrent restorers of one snapshot.
		locked, err := snapRepo.GetForUpdate(ctx, snapshotID)
		if err != nil {
			return err
		}
		if locked.IsRestored {
			return fmt.Errorf("%w: snapshot already restored", common.ErrorConflict)
		}
		snapshot = locked

		// Re-checked under the lock: a live aggregate may have taken the
		// business key since the fast check.
		if err := s.checkCollision(ctx, tx, snapshot); err != nil {
			return err
		}

		now := s.now()

		if err := s.recreateAggregate(ctx, tx, snapshot, now); err != nil {
			return err
		}

		controlID, err = s.recreateControl(ctx, tx, snapshot, now)
		if err != nil {
			return err
		}

		if err := s.recreateEntries(ctx, tx, snapshot, controlID); err != nil {
			return err
		}

		return snapRepo.MarkRestored(ctx, snapshotID, actorID, now)
	})

	if err != nil {
		s.metrics.RestoresTotal.WithLabelValues(string(snapshot.Kind), "error").Inc()
		return nil, fmt.Errorf("error restoring snapshot: %w", err)
	}

	s.metrics.RestoresTotal.WithLabelValues(string(snapshot.Kind), "ok").Inc()
	s.logger.Info(ctx, "aggregate restored",
		"kind", snapshot.Kind, "number", snapshot.Number, "aggregate_id", snapshot.OriginalID)

	// Phase 2: best-effort verification and pruning, deliberately outside
	// the transaction. A failure here never fails the restore.
	pruned := s.verifyAndPrune(ctx, snapshot, controlID)

	return &RestoreResult{
		AggregateID:    snapshot.OriginalID,
		Kind:           snapshot.Kind,
		SnapshotPruned: pruned,
	}, nil
}

// checkCollision fails with a conflict when a live aggregate already holds
// the snapshot's business number.
func (s *RestoreService) checkCollision(ctx context.Context, db dbx.DBTX, snapshot *models.ArchiveSnapshot) error {
	var err error
	switch snapshot.Kind {
	case models.KindCase:
		_, err = s.repomanager.Cases(db).GetByNumber(ctx, snapshot.Number)
	case models.KindTodo:
		_, err = s.repomanager.Todos(db).GetByNumber(ctx, snapshot.Number)
	default:
		return fmt.Errorf("unknown aggregate kind: %q", snapshot.Kind)
	}

	if err == nil {
		return fmt.Errorf("%w: an active record with this key already exists", common.ErrorConflict)
	}
	if errors.Is(err, common.ErrorNotFound) {
		return nil
	}
	return err
}

// recreateAggregate rebuilds the source row under its original identifier.
// The workflow status is forced to the pending triage state rather than
// whatever the aggregate held before archival.
func (s *RestoreService) recreateAggregate(ctx context.Context, tx dbx.DBTX, snapshot *models.ArchiveSnapshot, now time.Time) error {
	source := snapshot.Metadata.Source

	switch snapshot.Kind {
	case models.KindCase:
		return s.repomanager.Cases(tx).Create(ctx, &models.Case{
			ID:          snapshot.OriginalID,
			Number:      snapshot.Number,
			Title:       snapshot.Title,
			Description: stringField(source, "description"),
			Status:      models.StatusPending,
			Priority:    stringFieldDefault(source, "priority", "normal"),
			AssigneeID:  optStringField(source, "assigneeId"),
			CreatedBy:   stringField(source, "createdBy"),
			CreatedAt:   timeField(source, "createdAt", now),
			UpdatedAt:   now,
		})
	case models.KindTodo:
		return s.repomanager.Todos(tx).Create(ctx, &models.Todo{
			ID:          snapshot.OriginalID,
			Number:      snapshot.Number,
			Title:       snapshot.Title,
			Description: stringField(source, "description"),
			Status:      models.StatusPending,
			IsCompleted: false,
			DueDate:     optTimeField(source, "dueDate"),
			AssigneeID:  optStringField(source, "assigneeId"),
			CreatedBy:   stringField(source, "createdBy"),
			CreatedAt:   timeField(source, "createdAt", now),
			UpdatedAt:   now,
		})
	default:
		return fmt.Errorf("unknown aggregate kind: %q", snapshot.Kind)
	}
}

// recreateControl rebuilds exactly one control record with the timer forced
// inactive and the cached minute total copied from the snapshot.
func (s *RestoreService) recreateControl(ctx context.Context, tx dbx.DBTX, snapshot *models.ArchiveSnapshot, now time.Time) (string, error) {
	id := stringField(snapshot.Metadata.Control, "id")
	if id == "" {
		id = uuid.NewString()
	}

	control := &models.ControlRecord{
		ID:               id,
		Kind:             snapshot.Kind,
		OwnerID:          snapshot.OriginalID,
		Status:           models.StatusPending,
		IsTimerActive:    false,
		TimerStartedAt:   nil,
		TotalTimeMinutes: snapshot.TotalTimeMinutes,
		CreatedAt:        timeField(snapshot.Metadata.Control, "createdAt", now),
		UpdatedAt:        now,
	}

	return id, s.repomanager.Controls(tx).Create(ctx, control)
}

// recreateEntries replays the snapshot's typed arrays verbatim, keeping the
// original entry identifiers. Reinsertion by original id is what makes a
// retried restore distinguishable from a duplicating one.
func (s *RestoreService) recreateEntries(ctx context.Context, tx dbx.DBTX, snapshot *models.ArchiveSnapshot, controlID string) error {
	entryRepo := s.repomanager.TimeEntries(tx)

	for _, e := range snapshot.AutomaticEntries {
		e.ControlID = controlID
		if err := entryRepo.CreateAutomatic(ctx, &e); err != nil {
			return err
		}
	}
	for _, e := range snapshot.ManualEntries {
		e.ControlID = controlID
		if err := entryRepo.CreateManual(ctx, &e); err != nil {
			return err
		}
	}

	return nil
}

// verifyAndPrune re-reads the recreated aggregate and compares live entry
// counts against the snapshot's embedded arrays. Only an exact match deletes
// the snapshot; any discrepancy keeps it for manual audit and is reported as
// a warning, never as a call failure.
func (s *RestoreService) verifyAndPrune(ctx context.Context, snapshot *models.ArchiveSnapshot, controlID string) bool {
	var err error
	switch snapshot.Kind {
	case models.KindCase:
		_, err = s.repomanager.Cases(s.db).Get(ctx, snapshot.OriginalID)
	case models.KindTodo:
		_, err = s.repomanager.Todos(s.db).Get(ctx, snapshot.OriginalID)
	}
	if err != nil {
		s.reportAnomaly(ctx, snapshot, "recreated aggregate not found", err)
		return false
	}

	if _, err := s.repomanager.Controls(s.db).GetByOwner(ctx, snapshot.Kind, snapshot.OriginalID); err != nil {
		s.reportAnomaly(ctx, snapshot, "recreated control record not found", err)
		return false
	}

	entryRepo := s.repomanager.TimeEntries(s.db)
	automaticCount, err := entryRepo.CountAutomaticByControl(ctx, controlID)
	if err != nil {
		s.reportAnomaly(ctx, snapshot, "counting automatic entries failed", err)
		return false
	}
	manualCount, err := entryRepo.CountManualByControl(ctx, controlID)
	if err != nil {
		s.reportAnomaly(ctx, snapshot, "counting manual entries failed", err)
		return false
	}

	if automaticCount != len(snapshot.AutomaticEntries) || manualCount != len(snapshot.ManualEntries) {
		s.metrics.VerificationFailuresTotal.Inc()
		s.logger.Warn(ctx, "restore verification failed, snapshot kept",
			"snapshot_id", snapshot.ID,
			"expected_automatic", len(snapshot.AutomaticEntries), "found_automatic", automaticCount,
			"expected_manual", len(snapshot.ManualEntries), "found_manual", manualCount)
		return false
	}

	if err := s.repomanager.Snapshots(s.db).Delete(ctx, snapshot.ID); err != nil {
		s.reportAnomaly(ctx, snapshot, "pruning verified snapshot failed", err)
		return false
	}

	s.metrics.SnapshotsPrunedTotal.Inc()
	return true
}

func (s *RestoreService) reportAnomaly(ctx context.Context, snapshot *models.ArchiveSnapshot, msg string, err error) {
	s.metrics.VerificationFailuresTotal.Inc()
	s.logger.Warn(ctx, "restore verification anomaly: "+msg,
		"snapshot_id", snapshot.ID, "error", err.Error())
}
