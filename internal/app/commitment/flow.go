package commitment

import (
	"fmt"

	"github.com/attest-network/attest/internal/domain"
	"github.com/attest-network/attest/internal/infra/metrics"
)

// Phase tracks a job's position in the commit-reveal flow.
type Phase string

const (
	PhaseCreated   Phase = "created"
	PhaseCommitted Phase = "committed"
	PhaseExecuting Phase = "executing"
	PhaseProving   Phase = "proving"
	PhaseSubmitted Phase = "submitted"
	PhaseVerified  Phase = "verified"
	PhaseFailed    Phase = "failed"
)

// FlowState is the per-job transient state of the commit-reveal flow.
// Owned exclusively by the Manager; evicted together with its commitment.
type FlowState struct {
	JobID      string            `json:"job_id"`
	Phase      Phase             `json:"phase"`
	Commitment domain.Commitment `json:"commitment"`
	Nonce      string            `json:"nonce"`
	ModelID    string            `json:"model_id"`
	InputHash  string            `json:"input_hash"`
	Reveal     *domain.Reveal    `json:"reveal,omitempty"`
	Err        string            `json:"error,omitempty"`
}

// StartFlow creates and stores a pre-commitment and opens the flow in
// phase committed, emitting a committed event.
func (m *Manager) StartFlow(jobID, worker, modelID, inputHash string) (FlowState, error) {
	c, nonce, err := m.GenerateCommitment(jobID, worker, modelID, inputHash)
	if err != nil {
		return FlowState{}, err
	}
	if err := m.Store(c); err != nil {
		return FlowState{}, err
	}

	flow := &FlowState{
		JobID:      jobID,
		Phase:      PhaseCommitted,
		Commitment: c,
		Nonce:      nonce,
		ModelID:    modelID,
		InputHash:  inputHash,
	}

	m.mu.Lock()
	m.flows[jobID] = flow
	m.mu.Unlock()

	m.sink.Emit(domain.Event{
		Type: domain.EventCommitted,
		Time: m.now(),
		Committed: &domain.CommittedEvent{
			JobID:  jobID,
			Worker: worker,
		},
	})
	return *flow, nil
}

// MarkExecuting advances the flow to the executing phase while the
// worker runs the computation.
func (m *Manager) MarkExecuting(jobID string) error {
	return m.setPhase(jobID, PhaseExecuting, "")
}

// CompleteFlow computes the full commitment from the stored flow state
// and the output hash, overwrites the stored commitment's hash with the
// content-binding value, marks it revealed and advances to proving.
// Calling it without a prior StartFlow is a caller error. The reveal
// transition happens exactly once: a revealed commitment is immutable
// and can never be re-bound to a different output.
func (m *Manager) CompleteFlow(jobID, outputHash string) (FlowState, error) {
	m.mu.Lock()
	flow, ok := m.flows[jobID]
	if !ok {
		m.mu.Unlock()
		return FlowState{}, domain.ErrFlowNotFound
	}
	if flow.Commitment.Revealed {
		m.mu.Unlock()
		return FlowState{}, fmt.Errorf("%w: job %s", domain.ErrAlreadyRevealed, jobID)
	}
	if flow.Nonce == "" || flow.ModelID == "" || flow.InputHash == "" {
		m.mu.Unlock()
		return FlowState{}, domain.ErrFlowIncomplete
	}
	m.mu.Unlock()

	fullHash, reveal := m.GenerateFullCommitment(flow.ModelID, flow.InputHash, outputHash, flow.Nonce)

	revealed := flow.Commitment
	revealed.CommitmentHash = fullHash
	revealed.Revealed = true
	revealed.Reveal = &reveal
	if err := m.Store(revealed); err != nil {
		return FlowState{}, err
	}

	m.mu.Lock()
	flow.Commitment = revealed
	flow.Reveal = &reveal
	flow.Phase = PhaseProving
	snapshot := *flow
	m.mu.Unlock()

	metrics.CommitmentsRevealed.Inc()

	m.sink.Emit(domain.Event{
		Type: domain.EventProofGenerating,
		Time: m.now(),
		ProofGenerating: &domain.ProofGeneratingEvent{
			JobID:    jobID,
			Progress: 0,
		},
	})
	return snapshot, nil
}

// MarkSubmitted advances the flow to the submitted phase once the
// result is handed to the external verifier.
func (m *Manager) MarkSubmitted(jobID string) error {
	return m.setPhase(jobID, PhaseSubmitted, "")
}

// MarkVerified finalizes the flow and emits a verified event.
func (m *Manager) MarkVerified(jobID string, valid bool, classification string) error {
	phase := PhaseVerified
	if !valid {
		phase = PhaseFailed
	}
	if err := m.setPhase(jobID, phase, ""); err != nil {
		return err
	}

	m.sink.Emit(domain.Event{
		Type: domain.EventVerified,
		Time: m.now(),
		Verified: &domain.VerifiedEvent{
			JobID:          jobID,
			Valid:          valid,
			Classification: classification,
		},
	})
	return nil
}

// MarkFailed records a terminal failure on the flow.
func (m *Manager) MarkFailed(jobID, reason string) error {
	return m.setPhase(jobID, PhaseFailed, reason)
}

// Flow returns a snapshot of the flow state for a job.
func (m *Manager) Flow(jobID string) (FlowState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	flow, ok := m.flows[jobID]
	if !ok {
		return FlowState{}, false
	}
	return *flow, true
}

func (m *Manager) setPhase(jobID string, phase Phase, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	flow, ok := m.flows[jobID]
	if !ok {
		return domain.ErrFlowNotFound
	}
	flow.Phase = phase
	if errMsg != "" {
		flow.Err = errMsg
	}
	return nil
}
