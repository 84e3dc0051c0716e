package services

import "github.com/mkovalev/casetrack/internal/server/models"

// The time ledger is the one authoritative way to sum time entries. The
// cached total on a control record is convenience; whenever consistency
// matters the sum is recomputed from the entries with these functions.

// AutomaticMinutes sums timer entries. A closed entry contributes the whole
// minutes between start and end, clamped at zero; an open entry contributes
// its stored duration.
func AutomaticMinutes(entries []models.AutomaticTimeEntry) int {
	total := 0
	for _, e := range entries {
		if e.EndedAt != nil {
			minutes := int(e.EndedAt.Sub(e.StartedAt).Minutes())
			if minutes > 0 {
				total += minutes
			}
			continue
		}
		if e.DurationMinutes > 0 {
			total += e.DurationMinutes
		}
	}
	return total
}

// ManualMinutes sums manual bookings verbatim. Durations are validated
// non-negative at entry creation; anything negative is skipped so the
// ledger never goes below zero.
func ManualMinutes(entries []models.ManualTimeEntry) int {
	total := 0
	for _, e := range entries {
		if e.DurationMinutes > 0 {
			total += e.DurationMinutes
		}
	}
	return total
}

// TotalMinutes sums both collections. Pure and order-independent.
func TotalMinutes(automatic []models.AutomaticTimeEntry, manual []models.ManualTimeEntry) int {
	return AutomaticMinutes(automatic) + ManualMinutes(manual)
}
