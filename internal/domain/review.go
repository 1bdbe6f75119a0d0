package domain

import "time"

// ReviewPriority orders the manual review queue.
type ReviewPriority string

const (
	ReviewHigh   ReviewPriority = "high"
	ReviewMedium ReviewPriority = "medium"
	ReviewLow    ReviewPriority = "low"
)

// Rank returns the sort rank for a priority (lower sorts first).
// Unknown priorities sort last.
func (p ReviewPriority) Rank() int {
	switch p {
	case ReviewHigh:
		return 0
	case ReviewMedium:
		return 1
	case ReviewLow:
		return 2
	}
	return 3
}

// ReviewStatus tracks a review item's lifecycle.
type ReviewStatus string

const (
	ReviewPending   ReviewStatus = "pending"
	ReviewReviewing ReviewStatus = "reviewing"
	ReviewResolved  ReviewStatus = "resolved"
)

// ManualReviewItem is a failure awaiting human adjudication.
type ManualReviewItem struct {
	ID           string         `json:"id"`
	JobID        string         `json:"job_id"`
	AgentAddress string         `json:"agent_address"`
	ErrorType    ErrorType      `json:"error_type"`
	ErrorMessage string         `json:"error_message"`
	AddedAt      time.Time      `json:"added_at"`
	Priority     ReviewPriority `json:"priority"`
	Status       ReviewStatus   `json:"status"`
	Resolution   string         `json:"resolution,omitempty"`
}
