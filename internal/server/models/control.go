package models

import "time"

// ControlRecord tracks workflow and timer state for exactly one aggregate.
// TotalTimeMinutes is a cached sum over the record's time entries; whenever
// consistency matters it is recomputed from the entries, not trusted.
type ControlRecord struct {
	ID               string
	Kind             AggregateKind
	OwnerID          string
	Status           string
	IsTimerActive    bool
	TimerStartedAt   *time.Time
	TotalTimeMinutes int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
