package businessflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcomes
const (
	OutcomeCreated    = "created"
	OutcomeReplay     = "replay"
	OutcomeContention = "contention"
	OutcomeRejected   = "rejected"
	OutcomeFailed     = "failed"
)

var (
	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "funnel_submissions_total",
			Help: "Submissions and registrations by outcome",
		},
		[]string{"outcome"},
	)
	sequenceContentionTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "funnel_sequence_contention_total",
			Help: "Sequence allocations that lost the conditional update",
		},
	)
	attributionDegradedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "funnel_attribution_degraded_total",
			Help: "Best-effort attribution steps that failed and were skipped",
		},
		[]string{"stage"},
	)
	visitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "funnel_visits_total",
			Help: "Visit beacons by outcome",
		},
		[]string{"outcome"},
	)
)
