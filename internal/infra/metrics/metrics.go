// Package metrics provides Prometheus metrics for the attest node:
// counters and gauges for commitments, failures, fallback decisions,
// and the manual review queue.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Commitments ────────────────────────────────────────────────────────────

// CommitmentsStored tracks stored commitments.
var CommitmentsStored = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "attest",
	Name:      "commitments_stored_total",
	Help:      "Total commitments stored.",
})

// CommitmentsRevealed tracks completed reveals.
var CommitmentsRevealed = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "attest",
	Name:      "commitments_revealed_total",
	Help:      "Total commitments revealed.",
})

// CommitmentsActive tracks commitments currently held in the store.
var CommitmentsActive = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "attest",
	Name:      "commitments_active",
	Help:      "Number of commitments currently stored.",
})

// RevealMismatches tracks reveal verifications that failed bit-exact equality.
var RevealMismatches = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "attest",
	Name:      "reveal_mismatches_total",
	Help:      "Total reveal verifications that did not reproduce the commitment hash.",
})

// CommitmentsEvicted tracks commitments removed by the maintenance sweep.
var CommitmentsEvicted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "attest",
	Name:      "commitments_evicted_total",
	Help:      "Total commitments evicted by periodic cleanup.",
})

// ─── Failures ───────────────────────────────────────────────────────────────

// FailuresRecorded tracks recorded failures by category.
var FailuresRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "attest",
	Name:      "failures_recorded_total",
	Help:      "Total failures recorded, by error type.",
}, []string{"error_type"})

// FailuresRecovered tracks recoveries by method.
var FailuresRecovered = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "attest",
	Name:      "failures_recovered_total",
	Help:      "Total failures marked recovered, by recovery method.",
}, []string{"method"})

// AgentsSuspended tracks agent suspensions.
var AgentsSuspended = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "attest",
	Name:      "agents_suspended_total",
	Help:      "Total agent suspensions triggered by the failure threshold.",
})

// ─── Fallback Decisions ─────────────────────────────────────────────────────

// FallbackDecisions tracks decisions by resulting mode.
var FallbackDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "attest",
	Name:      "fallback_decisions_total",
	Help:      "Total fallback decisions, by mode.",
}, []string{"mode"})

// ─── Manual Review ──────────────────────────────────────────────────────────

// ReviewQueueDepth tracks pending manual review items.
var ReviewQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "attest",
	Name:      "review_queue_depth",
	Help:      "Number of pending manual review items.",
})

// ReviewsResolved tracks resolved review items.
var ReviewsResolved = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "attest",
	Name:      "reviews_resolved_total",
	Help:      "Total manual review items resolved.",
})
