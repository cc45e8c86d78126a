package model

import "time"

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Completion is the record of a user's claim of having finished an assignment.
// PointsAwarded and MaintainsStreak are fixed at submission time and are never
// recomputed; for approval-gated tasks they are applied to UserPoints only
// when an admin approves.
type Completion struct {
	ID              int64          `json:"id"`
	AssignmentID    int64          `json:"assignment_id"`
	CompletedBy     int64          `json:"completed_by"`
	CompletedAt     time.Time      `json:"completed_at"`
	TimeSpent       *int           `json:"time_spent"`
	Notes           string         `json:"notes"`
	ProofURLs       []string       `json:"proof_urls"`
	ApprovalStatus  ApprovalStatus `json:"approval_status"`
	ApprovedBy      *int64         `json:"approved_by"`
	ApprovedAt      *time.Time     `json:"approved_at"`
	ApprovalNotes   string         `json:"approval_notes"`
	PointsAwarded   int            `json:"points_awarded"`
	MaintainsStreak bool           `json:"maintains_streak"`
}
