// Package protocol wires the commitment manager, failure tracker,
// fallback engine, and manual review queue into the failure-handling
// pipeline: record first, then decide, then escalate what automation
// cannot resolve.
package protocol

import (
	"context"
	"log"
	"time"

	"github.com/attest-network/attest/internal/app/commitment"
	"github.com/attest-network/attest/internal/app/fallback"
	"github.com/attest-network/attest/internal/app/failure"
	"github.com/attest-network/attest/internal/app/review"
	"github.com/attest-network/attest/internal/domain"
	"github.com/attest-network/attest/internal/infra/metrics"
)

// Coordinator drives the failure-to-decision pipeline.
type Coordinator struct {
	commitments *commitment.Manager
	tracker     *failure.Tracker
	engine      *fallback.Engine
	queue       *review.Queue
	sink        domain.EventSink
	now         func() time.Time
}

// NewCoordinator creates a coordinator over the given components.
func NewCoordinator(cm *commitment.Manager, tr *failure.Tracker, en *fallback.Engine, q *review.Queue) *Coordinator {
	return &Coordinator{
		commitments: cm,
		tracker:     tr,
		engine:      en,
		queue:       q,
		sink:        domain.NopSink{},
		now:         time.Now,
	}
}

// SetEventSink routes error events to the broadcast collaborator.
func (c *Coordinator) SetEventSink(s domain.EventSink) { c.sink = s }

// HandleFailure records the failure, computes the fallback decision, and
// escalates to manual review when the decision requires it. Recording
// always happens before the decision so agent statistics are current
// when suspension is consulted, and are never lost if escalation fails.
func (c *Coordinator) HandleFailure(jobID, agentAddress string, errorType domain.ErrorType, errorCode int, message string, attempt int) domain.FallbackDecision {
	record := c.tracker.RecordFailure(jobID, agentAddress, errorType, errorCode, message)
	metrics.FailuresRecorded.WithLabelValues(string(errorType)).Inc()

	decision := c.engine.Determine(errorType, errorCode, agentAddress, attempt)
	metrics.FallbackDecisions.WithLabelValues(string(decision.Mode)).Inc()

	if decision.RequiresManualReview {
		c.queue.Add(jobID, agentAddress, errorType, message, reviewPriority(errorType, errorCode))
		metrics.ReviewQueueDepth.Set(float64(c.queue.Pending()))
	}

	if decision.Mode == domain.FallbackNone {
		if err := c.commitments.MarkFailed(jobID, decision.Reason); err != nil {
			// No flow for this job; the failure record still stands.
			log.Printf("[protocol] job %s failed with no open flow: %v", jobID, err)
		}
	}

	c.sink.Emit(domain.Event{
		Type: domain.EventError,
		Time: record.Timestamp,
		Error: &domain.ErrorEvent{
			JobID: jobID,
			Error: message,
		},
	})
	return decision
}

// ResolveReview resolves a manual review item and updates the queue
// depth gauge. Resolution feeds back into the failure tracker as a
// recovery event via the queue's recoverer.
func (c *Coordinator) ResolveReview(jobID, resolution string) error {
	if err := c.queue.Resolve(jobID, resolution); err != nil {
		return err
	}
	metrics.ReviewsResolved.Inc()
	metrics.ReviewQueueDepth.Set(float64(c.queue.Pending()))
	return nil
}

// RunCleanup evicts aged-out commitments on a fixed period until the
// context is cancelled. Intended to run as a daemon goroutine.
func (c *Coordinator) RunCleanup(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := c.commitments.CleanupOld(maxAge); evicted > 0 {
				metrics.CommitmentsEvicted.Add(float64(evicted))
				metrics.CommitmentsActive.Set(float64(c.commitments.Count()))
				log.Printf("[protocol] cleanup evicted %d aged commitments", evicted)
			}
		}
	}
}

// reviewPriority maps a failure to its review urgency: fraud-indicative
// verification failures first, degradable proof failures next,
// everything else last.
func reviewPriority(errorType domain.ErrorType, errorCode int) domain.ReviewPriority {
	if errorType == domain.ErrorVerification {
		switch errorCode {
		case domain.VerifyErrCommitmentMismatch, domain.VerifyErrProofInvalid:
			return domain.ReviewHigh
		}
		return domain.ReviewMedium
	}
	if errorType == domain.ErrorProofGeneration {
		return domain.ReviewMedium
	}
	return domain.ReviewLow
}
