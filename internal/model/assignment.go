package model

import "time"

type AssignmentStatus string

const (
	AssignmentPending    AssignmentStatus = "pending"
	AssignmentInProgress AssignmentStatus = "in_progress"
	AssignmentCompleted  AssignmentStatus = "completed"
	AssignmentOverdue    AssignmentStatus = "overdue"
	AssignmentSkipped    AssignmentStatus = "skipped"
)

type Assignment struct {
	ID         int64            `json:"id"`
	TaskID     int64            `json:"task_id"`
	AssignedTo int64            `json:"assigned_to"`
	DueDate    *time.Time       `json:"due_date"`
	AssignedAt time.Time        `json:"assigned_at"`
	AssignedBy *int64           `json:"assigned_by"`
	Status     AssignmentStatus `json:"status"`
}
