// Package failure tracks per-job failure records and per-agent failure
// statistics, and enforces time-boxed suspension of agents that fail
// repeatedly. Suspension lifting is pull-based: it is re-evaluated on
// the next stats read, never by a timer.
package failure

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/attest-network/attest/internal/domain"
	"github.com/attest-network/attest/internal/infra/metrics"
)

// Config sets the suspension policy.
type Config struct {
	MaxConsecutiveFailures int           // consecutive failures before suspension
	SuspensionDuration     time.Duration // how long a suspension lasts
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		MaxConsecutiveFailures: 3,
		SuspensionDuration:     1 * time.Hour,
	}
}

// Journal persists failure records and agent stats across restarts.
// The in-memory state stays authoritative; writes are write-through.
type Journal interface {
	SaveFailureRecord(r domain.FailureRecord) error
	SaveAgentStats(s domain.AgentFailureStats) error
}

// Tracker records failures and maintains agent suspension state.
// Thread-safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	cfg     Config
	records map[string][]*domain.FailureRecord // jobID → records, oldest first
	stats   map[string]*domain.AgentFailureStats
	sink    domain.EventSink
	journal Journal
	now     func() time.Time // injectable clock for testing
}

// NewTracker creates a failure tracker.
func NewTracker(cfg Config) *Tracker {
	return &Tracker{
		cfg:     cfg,
		records: make(map[string][]*domain.FailureRecord),
		stats:   make(map[string]*domain.AgentFailureStats),
		sink:    domain.NopSink{},
		now:     time.Now,
	}
}

// SetEventSink routes suspension notifications to the broadcast collaborator.
func (t *Tracker) SetEventSink(s domain.EventSink) { t.sink = s }

// SetJournal enables write-through persistence.
func (t *Tracker) SetJournal(j Journal) { t.journal = j }

// RecordFailure appends an immutable failure record for the job and
// updates the agent's statistics. If the consecutive-failure streak
// reaches the configured threshold the agent is suspended and a slashed
// event is emitted.
func (t *Tracker) RecordFailure(jobID, agentAddress string, errorType domain.ErrorType, errorCode int, message string) domain.FailureRecord {
	t.mu.Lock()

	now := t.now()
	record := &domain.FailureRecord{
		ID:           uuid.NewString(),
		JobID:        jobID,
		AgentAddress: agentAddress,
		ErrorType:    errorType,
		ErrorCode:    errorCode,
		Message:      message,
		Timestamp:    now,
	}
	t.records[jobID] = append(t.records[jobID], record)

	stats := t.statsLocked(agentAddress)
	stats.ConsecutiveFailures++
	stats.TotalFailures++
	stats.LastFailureTime = now

	var suspended bool
	if !stats.IsSuspended && stats.ConsecutiveFailures >= t.cfg.MaxConsecutiveFailures {
		stats.IsSuspended = true
		stats.SuspendedUntil = now.Add(t.cfg.SuspensionDuration)
		suspended = true
	}

	recordCopy := *record
	statsCopy := *stats
	t.mu.Unlock()

	if suspended {
		metrics.AgentsSuspended.Inc()
		t.sink.Emit(domain.Event{
			Type: domain.EventSlashed,
			Time: now,
			Slashed: &domain.SlashedEvent{
				JobID:  jobID,
				Agent:  agentAddress,
				Reason: fmt.Sprintf("suspended after %d consecutive failures", statsCopy.ConsecutiveFailures),
			},
		})
	}

	if t.journal != nil {
		_ = t.journal.SaveFailureRecord(recordCopy)
		_ = t.journal.SaveAgentStats(statsCopy)
	}
	return recordCopy
}

// MarkRecovered marks the most recent unrecovered failure record for the
// job as recovered and resets the agent's consecutive-failure streak.
// The lifetime total is never decremented.
func (t *Tracker) MarkRecovered(jobID, recoveryMethod string) error {
	t.mu.Lock()

	records := t.records[jobID]
	var record *domain.FailureRecord
	for i := len(records) - 1; i >= 0; i-- {
		if !records[i].Recovered {
			record = records[i]
			break
		}
	}
	if record == nil {
		t.mu.Unlock()
		return fmt.Errorf("%w: job %s", domain.ErrNoFailureRecord, jobID)
	}

	record.Recovered = true
	record.RecoveryMethod = recoveryMethod

	stats := t.statsLocked(record.AgentAddress)
	stats.ConsecutiveFailures = 0

	recordCopy := *record
	statsCopy := *stats
	t.mu.Unlock()

	// Label by the method family only ("manual_review: note" → "manual_review").
	method, _, _ := strings.Cut(recoveryMethod, ":")
	metrics.FailuresRecovered.WithLabelValues(strings.TrimSpace(method)).Inc()

	if t.journal != nil {
		_ = t.journal.SaveFailureRecord(recordCopy)
		_ = t.journal.SaveAgentStats(statsCopy)
	}
	return nil
}

// Stats returns the agent's failure statistics, lazily re-evaluating
// suspension: an elapsed suspension is cleared on read and the
// consecutive-failure streak resets to 0.
func (t *Tracker) Stats(agentAddress string) domain.AgentFailureStats {
	t.mu.Lock()
	stats := t.statsLocked(agentAddress)
	t.expireLocked(stats)
	snapshot := *stats
	t.mu.Unlock()

	if t.journal != nil {
		_ = t.journal.SaveAgentStats(snapshot)
	}
	return snapshot
}

// IsSuspended reports whether the agent is currently suspended,
// applying the same lazy expiry as Stats.
func (t *Tracker) IsSuspended(agentAddress string) bool {
	return t.Stats(agentAddress).IsSuspended
}

// Records returns the failure records for a job, oldest first.
func (t *Tracker) Records(jobID string) []domain.FailureRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	records := t.records[jobID]
	out := make([]domain.FailureRecord, len(records))
	for i, r := range records {
		out[i] = *r
	}
	return out
}

// Load restores failure records and agent stats on daemon start.
func (t *Tracker) Load(records []domain.FailureRecord, stats []domain.AgentFailureStats) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range records {
		r := records[i]
		t.records[r.JobID] = append(t.records[r.JobID], &r)
	}
	for i := range stats {
		s := stats[i]
		t.stats[s.Address] = &s
	}
}

func (t *Tracker) statsLocked(agentAddress string) *domain.AgentFailureStats {
	stats, ok := t.stats[agentAddress]
	if !ok {
		stats = &domain.AgentFailureStats{Address: agentAddress}
		t.stats[agentAddress] = stats
	}
	return stats
}

func (t *Tracker) expireLocked(stats *domain.AgentFailureStats) {
	if stats.IsSuspended && t.now().After(stats.SuspendedUntil) {
		stats.IsSuspended = false
		stats.SuspendedUntil = time.Time{}
		stats.ConsecutiveFailures = 0
	}
}
