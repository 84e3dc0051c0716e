package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/mkovalev/casetrack/internal/server/models"
)

// SnapshotSource carries the scalar identity of an aggregate into the
// snapshot builder: the typed columns the catalog queries on, plus the full
// field map that becomes the metadata blob.
type SnapshotSource struct {
	Kind   models.AggregateKind
	ID     string
	Number string
	Title  string
	Status string
	Fields map[string]any
}

// CaseSnapshotSource copies every scalar of a case into a snapshot source.
func CaseSnapshotSource(c *models.Case) SnapshotSource {
	return SnapshotSource{
		Kind:   models.KindCase,
		ID:     c.ID,
		Number: c.Number,
		Title:  c.Title,
		Status: c.Status,
		Fields: map[string]any{
			"id":          c.ID,
			"number":      c.Number,
			"title":       c.Title,
			"description": c.Description,
			"status":      c.Status,
			"priority":    c.Priority,
			"assigneeId":  c.AssigneeID,
			"createdBy":   c.CreatedBy,
			"createdAt":   c.CreatedAt.Format(time.RFC3339Nano),
			"updatedAt":   c.UpdatedAt.Format(time.RFC3339Nano),
		},
	}
}

// TodoSnapshotSource copies every scalar of a todo into a snapshot source.
func TodoSnapshotSource(t *models.Todo) SnapshotSource {
	fields := map[string]any{
		"id":          t.ID,
		"number":      t.Number,
		"title":       t.Title,
		"description": t.Description,
		"status":      t.Status,
		"isCompleted": t.IsCompleted,
		"assigneeId":  t.AssigneeID,
		"createdBy":   t.CreatedBy,
		"createdAt":   t.CreatedAt.Format(time.RFC3339Nano),
		"updatedAt":   t.UpdatedAt.Format(time.RFC3339Nano),
	}
	if t.DueDate != nil {
		fields["dueDate"] = t.DueDate.Format(time.RFC3339Nano)
	}
	return SnapshotSource{
		Kind:   models.KindTodo,
		ID:     t.ID,
		Number: t.Number,
		Title:  t.Title,
		Status: t.Status,
		Fields: fields,
	}
}

// BuildSnapshot assembles an immutable archive snapshot from a live
// aggregate. Every time entry lands twice: once in the metadata blob and
// once in the snapshot's own typed arrays, so either representation alone
// can rebuild the aggregate. The minute totals are cached for reporting;
// restore replays the stored rows verbatim and never recomputes them.
//
// control may be nil for aggregates that never accumulated workflow state.
func BuildSnapshot(src SnapshotSource, control *models.ControlRecord,
	automatic []models.AutomaticTimeEntry, manual []models.ManualTimeEntry,
	archivedBy, reason string, archivedAt time.Time) *models.ArchiveSnapshot {

	var controlFields map[string]any
	if control != nil {
		controlFields = map[string]any{
			"id":               control.ID,
			"status":           control.Status,
			"isTimerActive":    control.IsTimerActive,
			"totalTimeMinutes": control.TotalTimeMinutes,
			"createdAt":        control.CreatedAt.Format(time.RFC3339Nano),
			"updatedAt":        control.UpdatedAt.Format(time.RFC3339Nano),
		}
		if control.TimerStartedAt != nil {
			controlFields["timerStartedAt"] = control.TimerStartedAt.Format(time.RFC3339Nano)
		}
	}

	timerMinutes := AutomaticMinutes(automatic)
	manualMinutes := ManualMinutes(manual)

	return &models.ArchiveSnapshot{
		ID:         uuid.NewString(),
		OriginalID: src.ID,
		Kind:       src.Kind,
		Number:     src.Number,
		Title:      src.Title,
		Status:     src.Status,
		Reason:     reason,
		Metadata: models.SnapshotMetadata{
			Version:          models.SnapshotMetadataVersion,
			Source:           src.Fields,
			Control:          controlFields,
			AutomaticEntries: automatic,
			ManualEntries:    manual,
		},
		AutomaticEntries:  automatic,
		ManualEntries:     manual,
		TotalTimeMinutes:  timerMinutes + manualMinutes,
		TimerTimeMinutes:  timerMinutes,
		ManualTimeMinutes: manualMinutes,
		ArchivedAt:        archivedAt,
		ArchivedBy:        archivedBy,
	}
}
