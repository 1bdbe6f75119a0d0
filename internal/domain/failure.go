package domain

import "time"

// ErrorType is the failure category recorded against a job and agent.
type ErrorType string

const (
	ErrorProofGeneration ErrorType = "proof_generation"
	ErrorVerification    ErrorType = "verification"
	ErrorTimeout         ErrorType = "timeout"
	ErrorNetwork         ErrorType = "network"
)

// FailureRecord is an append-only record of one failure event.
// It is mutated exactly once, to mark recovery.
type FailureRecord struct {
	ID             string    `json:"id"`
	JobID          string    `json:"job_id"`
	AgentAddress   string    `json:"agent_address"`
	ErrorType      ErrorType `json:"error_type"`
	ErrorCode      int       `json:"error_code"`
	Message        string    `json:"message"`
	Timestamp      time.Time `json:"timestamp"`
	Recovered      bool      `json:"recovered"`
	RecoveryMethod string    `json:"recovery_method,omitempty"`
}

// AgentFailureStats is the single live failure record per agent address.
// ConsecutiveFailures resets on recovery or suspension expiry;
// TotalFailures is a lifetime counter and never decrements.
type AgentFailureStats struct {
	Address             string    `json:"address"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	TotalFailures       int       `json:"total_failures"`
	LastFailureTime     time.Time `json:"last_failure_time"`
	IsSuspended         bool      `json:"is_suspended"`
	SuspendedUntil      time.Time `json:"suspended_until,omitempty"`
}
