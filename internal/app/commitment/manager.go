// Package commitment implements the two-stage commit-reveal scheme.
// At commit time the worker publishes a hiding pre-commitment over
// (jobID, worker, nonce) — proof it committed before the output existed.
// After execution it reveals (modelID, inputHash, outputHash, nonce),
// whose hash is the content-binding value the verifier checks.
package commitment

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/attest-network/attest/internal/domain"
	"github.com/attest-network/attest/internal/infra/metrics"
	"github.com/attest-network/attest/internal/security"
)

// Config holds the deadline windows, supplied by daemon configuration.
type Config struct {
	CommitmentWindow time.Duration // job creation → commit
	SubmissionWindow time.Duration // job creation → on-chain submission
}

// Journal persists commitments across restarts. The in-memory store
// stays authoritative; journal writes are write-through.
type Journal interface {
	SaveCommitment(c domain.Commitment) error
	DeleteCommitment(jobID string) error
}

// Manager owns the commitment store and the per-job flow state machine.
// Thread-safe for concurrent use.
type Manager struct {
	mu      sync.RWMutex
	cfg     Config
	byHash  map[string]*domain.Commitment
	byJob   map[string]*domain.Commitment
	flows   map[string]*FlowState
	sink    domain.EventSink
	journal Journal
	now     func() time.Time // injectable clock for testing
}

// NewManager creates a commitment manager.
func NewManager(cfg Config) *Manager {
	return &Manager{
		cfg:    cfg,
		byHash: make(map[string]*domain.Commitment),
		byJob:  make(map[string]*domain.Commitment),
		flows:  make(map[string]*FlowState),
		sink:   domain.NopSink{},
		now:    time.Now,
	}
}

// SetEventSink routes protocol events to the broadcast collaborator.
func (m *Manager) SetEventSink(s domain.EventSink) { m.sink = s }

// SetJournal enables write-through persistence of commitments.
func (m *Manager) SetJournal(j Journal) { m.journal = j }

// GenerateCommitment draws a fresh nonce and computes the hiding
// pre-commitment H(jobID ‖ worker ‖ nonce). The model and input hash are
// required up front because the reveal cannot be completed without them.
func (m *Manager) GenerateCommitment(jobID, worker, modelID, inputHash string) (domain.Commitment, string, error) {
	if jobID == "" || worker == "" {
		return domain.Commitment{}, "", fmt.Errorf("job ID and worker are required")
	}
	if modelID == "" || inputHash == "" {
		return domain.Commitment{}, "", fmt.Errorf("model ID and input hash are required for the reveal")
	}

	nonce, err := security.NewNonce()
	if err != nil {
		return domain.Commitment{}, "", err
	}

	c := domain.Commitment{
		JobID:          jobID,
		Worker:         worker,
		CommitmentHash: security.HashFields(jobID, worker, nonce),
		Timestamp:      m.now(),
	}
	return c, nonce, nil
}

// GenerateFullCommitment computes the content-binding commitment
// H(modelID ‖ inputHash ‖ outputHash ‖ nonce) after execution completes.
// This is the value checked at verification time.
func (m *Manager) GenerateFullCommitment(modelID, inputHash, outputHash, nonce string) (string, domain.Reveal) {
	reveal := domain.Reveal{
		ModelID:    modelID,
		InputHash:  inputHash,
		OutputHash: outputHash,
		Nonce:      nonce,
	}
	hash := security.HashFields(modelID, inputHash, outputHash, nonce)
	return hash, reveal
}

// Store indexes a commitment by both hash and job ID.
// Last write wins per job ID; the stale hash index entry is dropped.
func (m *Manager) Store(c domain.Commitment) error {
	m.mu.Lock()
	if prev, ok := m.byJob[c.JobID]; ok && prev.CommitmentHash != c.CommitmentHash {
		delete(m.byHash, prev.CommitmentHash)
	}
	stored := c
	m.byJob[c.JobID] = &stored
	m.byHash[c.CommitmentHash] = &stored
	count := len(m.byJob)
	m.mu.Unlock()

	metrics.CommitmentsStored.Inc()
	metrics.CommitmentsActive.Set(float64(count))

	if m.journal != nil {
		if err := m.journal.SaveCommitment(c); err != nil {
			return fmt.Errorf("journal commitment: %w", err)
		}
	}
	return nil
}

// ByJob returns the commitment for a job, if stored.
func (m *Manager) ByJob(jobID string) (domain.Commitment, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.byJob[jobID]
	if !ok {
		return domain.Commitment{}, false
	}
	return *c, true
}

// ByHash returns the commitment with the given hash, if stored.
func (m *Manager) ByHash(hash string) (domain.Commitment, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.byHash[hash]
	if !ok {
		return domain.Commitment{}, false
	}
	return *c, true
}

// VerifyReveal recomputes the content-binding hash from the reveal and
// requires bit-exact equality with the stored commitment hash. Any
// mismatch is a hard failure, never silently accepted.
func (m *Manager) VerifyReveal(c domain.Commitment, r domain.Reveal) error {
	expected := security.HashFields(r.ModelID, r.InputHash, r.OutputHash, r.Nonce)
	if expected != c.CommitmentHash {
		metrics.RevealMismatches.Inc()
		return fmt.Errorf("%w: job %s", domain.ErrCommitmentMismatch, c.JobID)
	}
	return nil
}

// WithinCommitWindow reports whether a commit landed inside the
// configured commitment window after job creation.
func (m *Manager) WithinCommitWindow(jobCreatedAt, commitAt time.Time) bool {
	return !commitAt.Before(jobCreatedAt) && commitAt.Sub(jobCreatedAt) <= m.cfg.CommitmentWindow
}

// WithinSubmissionDeadline reports whether a submission landed inside
// the configured submission window after job creation.
func (m *Manager) WithinSubmissionDeadline(jobCreatedAt, submittedAt time.Time) bool {
	return !submittedAt.Before(jobCreatedAt) && submittedAt.Sub(jobCreatedAt) <= m.cfg.SubmissionWindow
}

// CleanupOld evicts commitments (and their flow state) older than maxAge.
// Runs on a periodic maintenance sweep, not on the request path.
func (m *Manager) CleanupOld(maxAge time.Duration) int {
	cutoff := m.now().Add(-maxAge)

	m.mu.Lock()
	var evicted []string
	for jobID, c := range m.byJob {
		if c.Timestamp.Before(cutoff) {
			evicted = append(evicted, jobID)
			delete(m.byHash, c.CommitmentHash)
			delete(m.byJob, jobID)
			delete(m.flows, jobID)
		}
	}
	m.mu.Unlock()

	if m.journal != nil {
		for _, jobID := range evicted {
			// A failed delete would resurrect the commitment on restart.
			if err := m.journal.DeleteCommitment(jobID); err != nil {
				log.Printf("[commitment] journal delete for job %s: %v", jobID, err)
			}
		}
	}
	return len(evicted)
}

// Count returns the number of stored commitments.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byJob)
}

// Load restores commitments from the journal on daemon start.
// Flow state is transient and is not restored; jobs interrupted
// mid-flow age out via CleanupOld.
func (m *Manager) Load(cs []domain.Commitment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range cs {
		c := cs[i]
		m.byJob[c.JobID] = &c
		m.byHash[c.CommitmentHash] = &c
	}
}
