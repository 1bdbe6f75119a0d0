package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Commitment errors
	ErrCommitmentNotFound = errors.New("commitment not found")
	ErrCommitmentMismatch = errors.New("reveal does not reproduce commitment hash")
	ErrAlreadyRevealed    = errors.New("commitment already revealed")

	// Flow errors
	ErrFlowNotFound   = errors.New("commitment flow not found — start the flow first")
	ErrFlowIncomplete = errors.New("flow state missing nonce, model or input hash")

	// Failure tracking errors
	ErrNoFailureRecord = errors.New("no failure record for job")

	// Review queue errors
	ErrReviewNotFound = errors.New("no pending review item for job")

	// Hashing errors
	ErrUnserializable = errors.New("output value cannot be serialized")
)
