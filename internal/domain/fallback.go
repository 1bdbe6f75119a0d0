package domain

import "time"

// FallbackMode is the degraded-acceptance strategy chosen after a failure.
type FallbackMode string

const (
	// FallbackNone means no fallback applies — the job fails terminally.
	FallbackNone FallbackMode = "NONE"
	// FallbackCommitmentOnly accepts the result under the weaker guarantee
	// of the revealed commitment alone, at reduced payment.
	FallbackCommitmentOnly FallbackMode = "COMMITMENT_ONLY"
	// FallbackOptimistic accepts the result provisionally, subject to
	// later dispute. Reserved for the dispute subsystem.
	FallbackOptimistic FallbackMode = "OPTIMISTIC"
	// FallbackRetry instructs the caller to re-attempt after RetryDelay.
	FallbackRetry FallbackMode = "RETRY"
	// FallbackManual defers the outcome to human review.
	FallbackManual FallbackMode = "MANUAL"
)

// FallbackDecision is the computed outcome for one failure. It is never
// stored; identical inputs always produce an identical decision.
type FallbackDecision struct {
	Mode                 FallbackMode  `json:"mode"`
	Reason               string        `json:"reason"`
	PaymentMultiplier    float64       `json:"payment_multiplier"` // in [0,1]
	ShouldRetry          bool          `json:"should_retry"`
	RetryDelay           time.Duration `json:"retry_delay,omitempty"`
	RequiresManualReview bool          `json:"requires_manual_review"`
}
