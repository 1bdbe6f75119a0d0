// Package review holds failures that automated rules cannot safely
// resolve, ordered by priority for human adjudication.
package review

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/attest-network/attest/internal/domain"
)

// Recoverer receives the recovery event when an item is resolved.
// Satisfied by the failure tracker.
type Recoverer interface {
	MarkRecovered(jobID, recoveryMethod string) error
}

// Journal persists review items across restarts.
type Journal interface {
	SaveReviewItem(item domain.ManualReviewItem) error
}

// Queue is a priority-ordered holding area for manual review items.
// Thread-safe for concurrent use.
type Queue struct {
	mu        sync.Mutex
	items     []*domain.ManualReviewItem // insertion order
	recoverer Recoverer
	journal   Journal
	now       func() time.Time // injectable clock for testing
}

// NewQueue creates a review queue. The recoverer may be nil if
// resolution should not feed back into failure statistics.
func NewQueue(recoverer Recoverer) *Queue {
	return &Queue{
		recoverer: recoverer,
		now:       time.Now,
	}
}

// SetJournal enables write-through persistence of review items.
func (q *Queue) SetJournal(j Journal) { q.journal = j }

// Add appends a pending item to the queue.
func (q *Queue) Add(jobID, agentAddress string, errorType domain.ErrorType, errorMessage string, priority domain.ReviewPriority) domain.ManualReviewItem {
	item := &domain.ManualReviewItem{
		ID:           uuid.NewString(),
		JobID:        jobID,
		AgentAddress: agentAddress,
		ErrorType:    errorType,
		ErrorMessage: errorMessage,
		AddedAt:      q.now(),
		Priority:     priority,
		Status:       domain.ReviewPending,
	}

	q.mu.Lock()
	q.items = append(q.items, item)
	snapshot := *item
	q.mu.Unlock()

	if q.journal != nil {
		_ = q.journal.SaveReviewItem(snapshot)
	}
	return snapshot
}

// Items returns all items sorted by priority (high before medium before
// low), stable by insertion order within a priority.
func (q *Queue) Items() []domain.ManualReviewItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]domain.ManualReviewItem, len(q.items))
	for i, item := range q.items {
		out[i] = *item
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority.Rank() < out[j].Priority.Rank()
	})
	return out
}

// Pending returns the number of items awaiting resolution.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, item := range q.items {
		if item.Status == domain.ReviewPending {
			n++
		}
	}
	return n
}

// Resolve marks the first pending item for the job as resolved and
// records the resolution. Resolution is itself a recovery event: the
// failure tracker is told the job recovered via manual review. The item
// only transitions to resolved once the recovery call succeeds, so a
// failed recovery leaves it pending for another attempt.
func (q *Queue) Resolve(jobID, resolution string) error {
	q.mu.Lock()
	var item *domain.ManualReviewItem
	for _, candidate := range q.items {
		if candidate.JobID == jobID && candidate.Status == domain.ReviewPending {
			item = candidate
			break
		}
	}
	q.mu.Unlock()
	if item == nil {
		return fmt.Errorf("%w: job %s", domain.ErrReviewNotFound, jobID)
	}

	if q.recoverer != nil {
		if err := q.recoverer.MarkRecovered(jobID, "manual_review: "+resolution); err != nil {
			return fmt.Errorf("mark recovered: %w", err)
		}
	}

	q.mu.Lock()
	item.Status = domain.ReviewResolved
	item.Resolution = resolution
	snapshot := *item
	q.mu.Unlock()

	if q.journal != nil {
		_ = q.journal.SaveReviewItem(snapshot)
	}
	return nil
}

// Load restores review items on daemon start.
func (q *Queue) Load(items []domain.ManualReviewItem) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range items {
		item := items[i]
		q.items = append(q.items, &item)
	}
}
