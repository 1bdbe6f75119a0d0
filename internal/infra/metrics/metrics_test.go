package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestCommitmentMetrics(t *testing.T) {
	CommitmentsStored.Inc()
	CommitmentsRevealed.Inc()
	CommitmentsActive.Set(3)
	RevealMismatches.Inc()
	CommitmentsEvicted.Add(2)

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}

	expected := []string{
		"attest_commitments_stored_total",
		"attest_commitments_revealed_total",
		"attest_commitments_active",
		"attest_reveal_mismatches_total",
		"attest_commitments_evicted_total",
	}
	for _, name := range expected {
		if !names[name] {
			t.Errorf("metric %q not found", name)
		}
	}
}

func TestFailureMetrics(t *testing.T) {
	FailuresRecorded.WithLabelValues("proof_generation").Inc()
	FailuresRecovered.WithLabelValues("retry").Inc()
	AgentsSuspended.Inc()

	families, _ := prometheus.DefaultGatherer.Gather()
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}

	expected := []string{
		"attest_failures_recorded_total",
		"attest_failures_recovered_total",
		"attest_agents_suspended_total",
	}
	for _, name := range expected {
		if !names[name] {
			t.Errorf("metric %q not found", name)
		}
	}
}

func TestDecisionAndReviewMetrics(t *testing.T) {
	FallbackDecisions.WithLabelValues("RETRY").Inc()
	FallbackDecisions.WithLabelValues("COMMITMENT_ONLY").Inc()
	ReviewQueueDepth.Set(4)
	ReviewsResolved.Inc()

	families, _ := prometheus.DefaultGatherer.Gather()
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}

	if !names["attest_fallback_decisions_total"] {
		t.Error("attest_fallback_decisions_total not found")
	}
	if !names["attest_review_queue_depth"] {
		t.Error("attest_review_queue_depth not found")
	}
	if !names["attest_reviews_resolved_total"] {
		t.Error("attest_reviews_resolved_total not found")
	}
}

func TestAllMetricsGatherable(t *testing.T) {
	// Ensure all metrics can be gathered without errors
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}

	attestMetrics := 0
	for _, f := range families {
		if strings.HasPrefix(f.GetName(), "attest_") {
			attestMetrics++
		}
	}

	if attestMetrics < 10 {
		t.Errorf("expected at least 10 attest_ metric families, got %d", attestMetrics)
	}
}
