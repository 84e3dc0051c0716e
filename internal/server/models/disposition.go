package models

import "time"

// DispositionRecord is a historical audit row about a case. It survives
// archival: the engine nulls CaseID when the case is purged but keeps the
// row and its CaseNumber copy, so the audit trail stays queryable by the
// business key forever.
type DispositionRecord struct {
	ID         string
	CaseID     *string
	CaseNumber string
	Action     string
	Notes      string
	ActorID    string
	CreatedAt  time.Time
}
