// Package domain holds the protocol's core types.
// A job is funded by a payer, executed off-chain by a worker, and accepted
// only when the worker's revealed commitment (and, when available, a ZK
// proof) checks out: fund → commit → execute → reveal → submit → verify.
// Jobs themselves are owned by the hiring subsystem; this core owns the
// commitment and failure records keyed by job ID.
package domain

// JobStatus tracks the externally-owned job lifecycle.
type JobStatus string

const (
	JobCreated   JobStatus = "CREATED"
	JobCommitted JobStatus = "COMMITTED"
	JobSubmitted JobStatus = "SUBMITTED"
	JobVerified  JobStatus = "VERIFIED"
	JobRejected  JobStatus = "REJECTED"
	JobExpired   JobStatus = "EXPIRED"
	JobDisputed  JobStatus = "DISPUTED"
)

// IsTerminal returns true if the status is a final state.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobVerified, JobRejected, JobExpired, JobDisputed:
		return true
	}
	return false
}
