package model

import "time"

type TaskCategory struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

type Task struct {
	ID                int64     `json:"id"`
	HouseholdID       int64     `json:"household_id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	CategoryID        *int64    `json:"category_id"`
	Difficulty        string    `json:"difficulty"`
	EstimatedDuration int       `json:"estimated_duration"`
	Points            int       `json:"points"`
	RequiresApproval  bool      `json:"requires_approval"`
	RecurrenceType    string    `json:"recurrence_type"`
	AssignmentType    string    `json:"assignment_type"`
	CreatedBy         *int64    `json:"created_by"`
	Active            bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
