// Package fallback implements the failure-to-decision engine: a pure
// mapping from (error category, error code, agent, attempt number) to a
// fallback action, payment multiplier, and retry/escalation instructions.
//
// Failure taxonomy:
//   - transient (timeout, network)     → bounded retries with backoff
//   - degradable (proof gen failure)   → commitment-only at reduced payment
//   - fraud-indicative (mismatch,
//     invalid proof)                   → fatal, zero payment, manual review
//   - config/caller errors             → fatal, not retried
package fallback

import (
	"fmt"
	"time"

	"github.com/attest-network/attest/internal/domain"
)

// Config sets the retry budgets and degradation policy.
type Config struct {
	MaxProofRetries             int           // retry budget for proof/timeout failures
	RetryDelay                  time.Duration // base backoff unit, scaled by attempt
	EnableCommitmentFallback    bool          // allow degrading to commitment-only
	CommitmentPaymentMultiplier float64       // payment under commitment-only, in [0,1]
	NetworkMaxRetries           int           // higher budget for transient network errors
	NetworkBackoffCap           time.Duration // backoff ceiling for network retries
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		MaxProofRetries:             2,
		RetryDelay:                  5 * time.Second,
		EnableCommitmentFallback:    true,
		CommitmentPaymentMultiplier: 0.5,
		NetworkMaxRetries:           5,
		NetworkBackoffCap:           30 * time.Second,
	}
}

// SuspensionChecker reports the current suspension status of an agent.
// Satisfied by the failure tracker.
type SuspensionChecker interface {
	IsSuspended(agentAddress string) bool
}

// Engine computes fallback decisions. Apart from the suspension check it
// is a pure function of its arguments: identical inputs with identical
// suspension state always produce identical decisions.
type Engine struct {
	cfg        Config
	suspension SuspensionChecker
}

// NewEngine creates a decision engine backed by the given suspension source.
func NewEngine(cfg Config, suspension SuspensionChecker) *Engine {
	return &Engine{cfg: cfg, suspension: suspension}
}

// Determine maps a failure to a fallback decision. Suspension overrides
// everything: a suspended agent gets no payment and no retry regardless
// of the error that triggered the call.
func (e *Engine) Determine(errorType domain.ErrorType, errorCode int, agentAddress string, attempt int) domain.FallbackDecision {
	if e.suspension != nil && e.suspension.IsSuspended(agentAddress) {
		return domain.FallbackDecision{
			Mode:                 domain.FallbackNone,
			Reason:               fmt.Sprintf("agent %s is suspended", agentAddress),
			RequiresManualReview: true,
		}
	}

	switch errorType {
	case domain.ErrorProofGeneration:
		return e.decideProofGeneration(errorCode, attempt)
	case domain.ErrorVerification:
		return e.decideVerification(errorCode)
	case domain.ErrorTimeout:
		if d, ok := e.decideRetry(attempt, e.cfg.MaxProofRetries, 0); ok {
			return d
		}
		return e.decideDegrade("retries exhausted after repeated timeouts")
	case domain.ErrorNetwork:
		if d, ok := e.decideRetry(attempt, e.cfg.NetworkMaxRetries, e.cfg.NetworkBackoffCap); ok {
			return d
		}
		return domain.FallbackDecision{
			Mode:                 domain.FallbackManual,
			Reason:               "network retries exhausted",
			RequiresManualReview: true,
		}
	}

	// Fail safe, never fail open.
	return domain.FallbackDecision{
		Mode:                 domain.FallbackManual,
		Reason:               fmt.Sprintf("unrecognized error type %q", errorType),
		RequiresManualReview: true,
	}
}

func (e *Engine) decideProofGeneration(code int, attempt int) domain.FallbackDecision {
	switch code {
	case domain.ProofErrModelNotFound:
		return domain.FallbackDecision{
			Mode:                 domain.FallbackNone,
			Reason:               "model not found: configuration error, retrying cannot help",
			RequiresManualReview: true,
		}
	case domain.ProofErrInvalidInput:
		return domain.FallbackDecision{
			Mode:   domain.FallbackNone,
			Reason: "invalid input: caller error, not the worker's fault",
		}
	case domain.ProofErrTimeout:
		if d, ok := e.decideRetry(attempt, e.cfg.MaxProofRetries, 0); ok {
			return d
		}
		return e.decideDegrade("proof retries exhausted after repeated timeouts")
	case domain.ProofErrSystemError:
		if d, ok := e.decideRetry(attempt, e.cfg.MaxProofRetries, 0); ok {
			return d
		}
		return domain.FallbackDecision{
			Mode:                 domain.FallbackManual,
			Reason:               "system error persisted past retry budget",
			RequiresManualReview: true,
		}
	case domain.ProofErrProofGenerationFailed, domain.ProofErrWitnessGeneration:
		return e.decideDegrade(fmt.Sprintf("%s: proof cannot be produced", domain.ProofErrorName(code)))
	}
	return domain.FallbackDecision{
		Mode:                 domain.FallbackManual,
		Reason:               fmt.Sprintf("unrecognized proof generation code %d", code),
		RequiresManualReview: true,
	}
}

func (e *Engine) decideVerification(code int) domain.FallbackDecision {
	switch code {
	case domain.VerifyErrCommitmentMismatch, domain.VerifyErrProofInvalid:
		// Possible fraud. Never silently resolved.
		return domain.FallbackDecision{
			Mode:                 domain.FallbackNone,
			Reason:               fmt.Sprintf("%s: possible fraud", domain.VerifyErrorName(code)),
			RequiresManualReview: true,
		}
	case domain.VerifyErrDeadlineExceeded:
		return domain.FallbackDecision{
			Mode:   domain.FallbackNone,
			Reason: "submission deadline exceeded",
		}
	case domain.VerifyErrModelNotApproved:
		return domain.FallbackDecision{
			Mode:                 domain.FallbackNone,
			Reason:               "model not approved: governance issue",
			RequiresManualReview: true,
		}
	}
	return domain.FallbackDecision{
		Mode:                 domain.FallbackManual,
		Reason:               fmt.Sprintf("verification error %s needs human adjudication", domain.VerifyErrorName(code)),
		RequiresManualReview: true,
	}
}

// decideRetry is the first step of the retry-then-degrade path: it
// grants a retry while the 1-based attempt number is within budget, with
// backoff proportional to the attempt and optionally capped.
func (e *Engine) decideRetry(attempt, budget int, ceiling time.Duration) (domain.FallbackDecision, bool) {
	if attempt > budget {
		return domain.FallbackDecision{}, false
	}
	delay := e.cfg.RetryDelay * time.Duration(attempt)
	if ceiling > 0 && delay > ceiling {
		delay = ceiling
	}
	return domain.FallbackDecision{
		Mode:              domain.FallbackRetry,
		Reason:            fmt.Sprintf("transient failure, retry %d of %d", attempt, budget),
		PaymentMultiplier: 1,
		ShouldRetry:       true,
		RetryDelay:        delay,
	}, true
}

// decideDegrade is the second step: once retries are exhausted (or the
// failure is not retryable), accept under the weaker commitment-only
// guarantee at reduced payment if configuration permits, else fail and
// escalate.
func (e *Engine) decideDegrade(reason string) domain.FallbackDecision {
	if !e.cfg.EnableCommitmentFallback {
		return domain.FallbackDecision{
			Mode:                 domain.FallbackNone,
			Reason:               reason + " (commitment-only fallback disabled)",
			RequiresManualReview: true,
		}
	}
	return domain.FallbackDecision{
		Mode:              domain.FallbackCommitmentOnly,
		Reason:            reason + ", accepting under commitment-only guarantee",
		PaymentMultiplier: e.cfg.CommitmentPaymentMultiplier,
	}
}
