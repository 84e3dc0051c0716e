package models

import "time"

// AutomaticTimeEntry is one timer run against a control record. A closed
// entry has both timestamps; an open one has no EndedAt and contributes its
// stored DurationMinutes instead.
//
// The JSON tags matter: these rows are embedded verbatim into archive
// snapshots and replayed from there on restore.
type AutomaticTimeEntry struct {
	ID              string     `json:"id"`
	ControlID       string     `json:"controlId"`
	StartedAt       time.Time  `json:"startedAt"`
	EndedAt         *time.Time `json:"endedAt,omitempty"`
	DurationMinutes int        `json:"durationMinutes"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// ManualTimeEntry is a user-authored time booking with a fixed duration.
type ManualTimeEntry struct {
	ID              string    `json:"id"`
	ControlID       string    `json:"controlId"`
	EntryDate       time.Time `json:"entryDate"`
	DurationMinutes int       `json:"durationMinutes"`
	Description     string    `json:"description"`
	CreatedBy       string    `json:"createdBy"`
	CreatedAt       time.Time `json:"createdAt"`
}
