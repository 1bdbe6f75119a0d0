package health

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/attest-network/attest/internal/app/review"
	"github.com/attest-network/attest/internal/domain"
	"github.com/attest-network/attest/internal/infra/sqlite"
)

func newTestChecker(t *testing.T) (*Checker, *review.Queue) {
	t.Helper()
	dir := t.TempDir()
	db, err := sqlite.Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	q := review.NewQueue(nil)
	return NewChecker(db, dir, q, 10), q
}

// ─── Checker Tests ──────────────────────────────────────────────────────────

func TestNewChecker(t *testing.T) {
	c, _ := newTestChecker(t)
	if len(c.checks) != 3 {
		t.Errorf("checks = %d, want 3", len(c.checks))
	}
}

func TestChecker_RunAllHealthy(t *testing.T) {
	c, _ := newTestChecker(t)
	c.runAll(context.Background())

	statuses := c.Statuses()
	if len(statuses) != 3 {
		t.Fatalf("Statuses() = %d, want 3", len(statuses))
	}
	for _, s := range statuses {
		if !s.Healthy {
			t.Errorf("check %q should be healthy, got error: %s", s.Name, s.Error)
		}
	}
	if !c.IsHealthy() {
		t.Error("IsHealthy() should be true when all checks pass")
	}
}

func TestChecker_IsHealthy_BeforeRun(t *testing.T) {
	c, _ := newTestChecker(t)

	// Before any run, there are no statuses — IsHealthy returns true (vacuously)
	if !c.IsHealthy() {
		t.Error("IsHealthy() should be true before first run (no statuses)")
	}
}

func TestChecker_ReviewBacklogCheck(t *testing.T) {
	c, q := newTestChecker(t) // backlog limit 10

	for i := 0; i < 11; i++ {
		q.Add("job", "0xAgent", domain.ErrorVerification, "mismatch", domain.ReviewHigh)
	}
	c.runAll(context.Background())

	for _, s := range c.Statuses() {
		if s.Name == "review_backlog" && s.Healthy {
			t.Error("review_backlog should fail above the limit")
		}
	}
	if c.IsHealthy() {
		t.Error("IsHealthy() should be false with an overfull backlog")
	}
}

func TestChecker_DataDirCheck_FileNotDir(t *testing.T) {
	dir := t.TempDir()
	db, err := sqlite.Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// Create a file where the data dir should be
	dataDir := filepath.Join(t.TempDir(), "data")
	os.WriteFile(dataDir, []byte("not a dir"), 0644)

	c := NewChecker(db, dataDir, review.NewQueue(nil), 10)
	c.runAll(context.Background())

	for _, s := range c.Statuses() {
		if s.Name == "data_dir" && s.Healthy {
			t.Error("data_dir should fail when path is a file")
		}
	}
}

func TestChecker_DataDirCheck_Missing(t *testing.T) {
	dir := t.TempDir()
	db, err := sqlite.Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// A directory that does not exist yet is fine
	c := NewChecker(db, filepath.Join(t.TempDir(), "nonexistent"), review.NewQueue(nil), 10)
	c.runAll(context.Background())

	if !c.IsHealthy() {
		for _, s := range c.Statuses() {
			if !s.Healthy {
				t.Errorf("check %q failed: %s", s.Name, s.Error)
			}
		}
	}
}

func TestChecker_FailingCheck(t *testing.T) {
	c := &Checker{
		checks: []Check{
			{
				Name: "always_fail",
				CheckFn: func(ctx context.Context) error {
					return os.ErrPermission
				},
			},
		},
	}

	c.runAll(context.Background())

	statuses := c.Statuses()
	if statuses[0].Healthy {
		t.Error("always_fail check should not be healthy")
	}
	if statuses[0].Error == "" {
		t.Error("error message should be populated")
	}
}

func TestChecker_StatusesCopy(t *testing.T) {
	c, _ := newTestChecker(t)
	c.runAll(context.Background())

	s1 := c.Statuses()
	s2 := c.Statuses()

	// Verify it's a copy, not the same slice
	if len(s1) > 0 {
		s1[0].Healthy = false
		if !s2[0].Healthy {
			t.Error("Statuses() should return a copy, not a reference")
		}
	}
}
