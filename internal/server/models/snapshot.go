package models

import "time"

// SnapshotMetadataVersion tags the metadata blob so the typed columns and
// the blob can evolve independently.
const SnapshotMetadataVersion = 1

// SnapshotMetadata is the self-describing JSON bag stored alongside the
// snapshot's typed columns. It duplicates everything: the full source row,
// the control record, and both entry collections. The redundancy is
// deliberate — if the typed columns change shape, the blob still holds the
// original aggregate in full.
type SnapshotMetadata struct {
	Version          int                  `json:"version"`
	Source           map[string]any       `json:"source"`
	Control          map[string]any       `json:"control,omitempty"`
	AutomaticEntries []AutomaticTimeEntry `json:"automaticEntries"`
	ManualEntries    []ManualTimeEntry    `json:"manualEntries"`
}

// ArchiveSnapshot is the durable representation of a purged aggregate.
// While IsRestored is false it is the sole surviving copy of the aggregate;
// once flipped it is a tombstone awaiting verified pruning.
type ArchiveSnapshot struct {
	ID         string           `json:"id"`
	OriginalID string           `json:"originalId"`
	Kind       AggregateKind    `json:"kind"`
	Number     string           `json:"number"`
	Title      string           `json:"title"`
	Status     string           `json:"status"`
	Reason     string           `json:"reason,omitempty"`
	Metadata   SnapshotMetadata `json:"metadata"`

	// Typed copies of every time entry, independent of the metadata blob.
	AutomaticEntries []AutomaticTimeEntry `json:"automaticEntries"`
	ManualEntries    []ManualTimeEntry    `json:"manualEntries"`

	// Cached aggregates computed at archival time; restore replays the
	// stored rows verbatim and never recomputes these.
	TotalTimeMinutes  int `json:"totalTimeMinutes"`
	TimerTimeMinutes  int `json:"timerTimeMinutes"`
	ManualTimeMinutes int `json:"manualTimeMinutes"`

	ArchivedAt time.Time  `json:"archivedAt"`
	ArchivedBy string     `json:"archivedBy"`
	IsRestored bool       `json:"isRestored"`
	RestoredAt *time.Time `json:"restoredAt,omitempty"`
	RestoredBy *string    `json:"restoredBy,omitempty"`
}
