package commitment

import (
	"errors"
	"testing"
	"time"

	"github.com/attest-network/attest/internal/domain"
	"github.com/attest-network/attest/internal/security"
)

// ─── Helpers ────────────────────────────────────────────────────────────────

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(Config{
		CommitmentWindow: 5 * time.Minute,
		SubmissionWindow: 1 * time.Hour,
	})
}

// recordingSink captures emitted events for assertions.
type recordingSink struct {
	events []domain.Event
}

func (rs *recordingSink) Emit(e domain.Event) { rs.events = append(rs.events, e) }

// ─── Pre-Commitment ─────────────────────────────────────────────────────────

func TestGenerateCommitment_FreshNonce(t *testing.T) {
	m := newTestManager(t)
	_, n1, err := m.GenerateCommitment("job1", "0xWorker", "model-a", security.HashInput("in"))
	if err != nil {
		t.Fatalf("GenerateCommitment: %v", err)
	}
	_, n2, err := m.GenerateCommitment("job1", "0xWorker", "model-a", security.HashInput("in"))
	if err != nil {
		t.Fatalf("GenerateCommitment: %v", err)
	}
	if n1 == n2 {
		t.Error("two commitments drew the same nonce")
	}
}

func TestGenerateCommitment_BindsJobWorkerNonce(t *testing.T) {
	m := newTestManager(t)
	c, nonce, err := m.GenerateCommitment("job1", "0xWorker", "model-a", security.HashInput("in"))
	if err != nil {
		t.Fatalf("GenerateCommitment: %v", err)
	}
	want := security.HashFields("job1", "0xWorker", nonce)
	if c.CommitmentHash != want {
		t.Errorf("CommitmentHash = %s, want H(jobID‖worker‖nonce) = %s", c.CommitmentHash, want)
	}
	if c.Revealed {
		t.Error("pre-commitment must not be revealed")
	}
}

func TestGenerateCommitment_RequiresFields(t *testing.T) {
	m := newTestManager(t)
	tests := []struct {
		name                              string
		jobID, worker, modelID, inputHash string
	}{
		{"missing job", "", "0xW", "m", "i"},
		{"missing worker", "j", "", "m", "i"},
		{"missing model", "j", "0xW", "", "i"},
		{"missing input", "j", "0xW", "m", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := m.GenerateCommitment(tt.jobID, tt.worker, tt.modelID, tt.inputHash); err == nil {
				t.Error("expected error for missing field")
			}
		})
	}
}

// ─── Reveal Verification ────────────────────────────────────────────────────

func TestVerifyReveal_RoundTrip(t *testing.T) {
	m := newTestManager(t)
	nonce, _ := security.NewNonce()
	in := security.HashInput("prompt")
	out := security.HashInput("answer")

	hash, reveal := m.GenerateFullCommitment("model-a", in, out, nonce)
	c := domain.Commitment{JobID: "job1", Worker: "0xWorker", CommitmentHash: hash, Revealed: true, Reveal: &reveal}

	if err := m.VerifyReveal(c, reveal); err != nil {
		t.Errorf("VerifyReveal on matching pair = %v, want nil", err)
	}
}

func TestVerifyReveal_AnyFieldFlipped(t *testing.T) {
	m := newTestManager(t)
	nonce, _ := security.NewNonce()
	in := security.HashInput("prompt")
	out := security.HashInput("answer")
	hash, reveal := m.GenerateFullCommitment("model-a", in, out, nonce)
	c := domain.Commitment{JobID: "job1", CommitmentHash: hash}

	tests := []struct {
		name   string
		mutate func(r *domain.Reveal)
	}{
		{"model", func(r *domain.Reveal) { r.ModelID = "model-b" }},
		{"input", func(r *domain.Reveal) { r.InputHash = security.HashInput("other prompt") }},
		{"output", func(r *domain.Reveal) { r.OutputHash = security.HashInput("other answer") }},
		{"nonce", func(r *domain.Reveal) { r.Nonce = r.Nonce[:len(r.Nonce)-1] + "0" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := reveal
			tt.mutate(&bad)
			if bad == reveal {
				t.Fatal("mutation did not change the reveal")
			}
			err := m.VerifyReveal(c, bad)
			if !errors.Is(err, domain.ErrCommitmentMismatch) {
				t.Errorf("VerifyReveal with flipped %s = %v, want ErrCommitmentMismatch", tt.name, err)
			}
		})
	}
}

// ─── Store ──────────────────────────────────────────────────────────────────

func TestStore_IndexedByHashAndJob(t *testing.T) {
	m := newTestManager(t)
	c, _, _ := m.GenerateCommitment("job1", "0xWorker", "model-a", security.HashInput("in"))
	if err := m.Store(c); err != nil {
		t.Fatalf("Store: %v", err)
	}

	if got, ok := m.ByJob("job1"); !ok || got.CommitmentHash != c.CommitmentHash {
		t.Error("ByJob lookup failed")
	}
	if got, ok := m.ByHash(c.CommitmentHash); !ok || got.JobID != "job1" {
		t.Error("ByHash lookup failed")
	}
}

func TestStore_LastWriteWinsPerJob(t *testing.T) {
	m := newTestManager(t)
	first, _, _ := m.GenerateCommitment("job1", "0xWorker", "model-a", security.HashInput("in"))
	second, _, _ := m.GenerateCommitment("job1", "0xWorker", "model-a", security.HashInput("in"))
	m.Store(first)
	m.Store(second)

	got, ok := m.ByJob("job1")
	if !ok || got.CommitmentHash != second.CommitmentHash {
		t.Error("second store did not win for the job")
	}
	if _, ok := m.ByHash(first.CommitmentHash); ok {
		t.Error("stale hash index entry survived the overwrite")
	}
	if m.Count() != 1 {
		t.Errorf("Count = %d, want 1", m.Count())
	}
}

// ─── Deadline Windows ───────────────────────────────────────────────────────

func TestWindows(t *testing.T) {
	m := newTestManager(t) // commit window 5m, submission window 1h
	created := time.Now()

	tests := []struct {
		name  string
		check func(a, b time.Time) bool
		at    time.Time
		want  bool
	}{
		{"commit inside", m.WithinCommitWindow, created.Add(4 * time.Minute), true},
		{"commit at edge", m.WithinCommitWindow, created.Add(5 * time.Minute), true},
		{"commit late", m.WithinCommitWindow, created.Add(6 * time.Minute), false},
		{"commit before creation", m.WithinCommitWindow, created.Add(-time.Second), false},
		{"submission inside", m.WithinSubmissionDeadline, created.Add(59 * time.Minute), true},
		{"submission late", m.WithinSubmissionDeadline, created.Add(61 * time.Minute), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.check(created, tt.at); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

// ─── Cleanup ────────────────────────────────────────────────────────────────

func TestCleanupOld(t *testing.T) {
	clock := time.Now()
	m := newTestManager(t)
	m.now = func() time.Time { return clock }

	if _, err := m.StartFlow("job-old", "0xWorker", "model-a", security.HashInput("in")); err != nil {
		t.Fatalf("StartFlow: %v", err)
	}

	clock = clock.Add(3 * time.Hour)
	if _, err := m.StartFlow("job-new", "0xWorker", "model-a", security.HashInput("in")); err != nil {
		t.Fatalf("StartFlow: %v", err)
	}

	evicted := m.CleanupOld(2 * time.Hour)
	if evicted != 1 {
		t.Errorf("CleanupOld = %d, want 1", evicted)
	}
	if _, ok := m.ByJob("job-old"); ok {
		t.Error("old commitment survived cleanup")
	}
	if _, ok := m.Flow("job-old"); ok {
		t.Error("old flow state survived cleanup")
	}
	if _, ok := m.ByJob("job-new"); !ok {
		t.Error("fresh commitment was evicted")
	}
}

// failingJournal rejects deletes while accepting saves.
type failingJournal struct {
	deletes []string
}

func (j *failingJournal) SaveCommitment(domain.Commitment) error { return nil }
func (j *failingJournal) DeleteCommitment(jobID string) error {
	j.deletes = append(j.deletes, jobID)
	return errors.New("disk full")
}

func TestCleanupOld_JournalDeleteFailure(t *testing.T) {
	clock := time.Now()
	m := newTestManager(t)
	m.now = func() time.Time { return clock }
	journal := &failingJournal{}
	m.SetJournal(journal)

	if _, err := m.StartFlow("job1", "0xWorker", "model-a", security.HashInput("in")); err != nil {
		t.Fatalf("StartFlow: %v", err)
	}
	clock = clock.Add(3 * time.Hour)

	// The in-memory eviction must not be blocked by a journal failure.
	if evicted := m.CleanupOld(2 * time.Hour); evicted != 1 {
		t.Errorf("CleanupOld = %d, want 1", evicted)
	}
	if _, ok := m.ByJob("job1"); ok {
		t.Error("commitment survived cleanup despite journal failure")
	}
	if len(journal.deletes) != 1 || journal.deletes[0] != "job1" {
		t.Errorf("journal deletes = %v, want [job1]", journal.deletes)
	}
}
