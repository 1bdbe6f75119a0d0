package domain

import "time"

// EventType tags protocol events emitted toward the broadcast collaborator.
type EventType string

const (
	EventCommitted       EventType = "committed"
	EventProofGenerating EventType = "proof_generating"
	EventVerified        EventType = "verified"
	EventSlashed         EventType = "slashed"
	EventError           EventType = "error"
)

// Event is a tagged record. Exactly one payload field is non-nil,
// matching Type — a closed union rather than an opaque payload.
type Event struct {
	Type EventType `json:"type"`
	Time time.Time `json:"time"`

	Committed       *CommittedEvent       `json:"committed,omitempty"`
	ProofGenerating *ProofGeneratingEvent `json:"proof_generating,omitempty"`
	Verified        *VerifiedEvent        `json:"verified,omitempty"`
	Slashed         *SlashedEvent         `json:"slashed,omitempty"`
	Error           *ErrorEvent           `json:"error,omitempty"`
}

// CommittedEvent signals the commit phase completed for a job.
type CommittedEvent struct {
	JobID  string `json:"job_id"`
	Worker string `json:"worker"`
}

// ProofGeneratingEvent reports proof generation progress in [0,1].
type ProofGeneratingEvent struct {
	JobID    string  `json:"job_id"`
	Progress float64 `json:"progress"`
}

// VerifiedEvent reports a verification outcome.
type VerifiedEvent struct {
	JobID          string `json:"job_id"`
	Valid          bool   `json:"valid"`
	Classification string `json:"classification"`
}

// SlashedEvent reports a slashing-equivalent penalty against an agent.
type SlashedEvent struct {
	JobID  string `json:"job_id"`
	Agent  string `json:"agent"`
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

// ErrorEvent reports a job-scoped failure.
type ErrorEvent struct {
	JobID string `json:"job_id"`
	Error string `json:"error"`
}

// EventSink receives protocol events. The core never performs transport;
// the daemon wires a sink (SSE hub, log, test recorder).
type EventSink interface {
	Emit(e Event)
}

// NopSink discards all events.
type NopSink struct{}

// Emit implements EventSink.
func (NopSink) Emit(Event) {}
