// Package metrics provides Prometheus metrics for the archive engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	ArchivesTotal             *prometheus.CounterVec
	RestoresTotal             *prometheus.CounterVec
	SnapshotsPrunedTotal      prometheus.Counter
	VerificationFailuresTotal prometheus.Counter
}

// NewMetrics creates and registers all engine metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ArchivesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "casetrack_archives_total",
				Help: "Total number of archive operations",
			},
			[]string{"kind", "status"},
		),
		RestoresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "casetrack_restores_total",
				Help: "Total number of restore operations",
			},
			[]string{"kind", "status"},
		),
		SnapshotsPrunedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "casetrack_snapshots_pruned_total",
				Help: "Snapshots deleted after verified restores",
			},
		),
		VerificationFailuresTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "casetrack_verification_failures_total",
				Help: "Post-restore verifications that left a stale snapshot behind",
			},
		),
	}
}
