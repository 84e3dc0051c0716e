package models

import "time"

// Case workflow statuses. StatusPending is the triage state restored
// aggregates re-enter regardless of the status they held before archival.
const (
	StatusPending    = "pending"
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusClosed     = "closed"
)

type Case struct {
	ID          string
	Number      string
	Title       string
	Description string
	Status      string
	Priority    string
	AssigneeID  *string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
