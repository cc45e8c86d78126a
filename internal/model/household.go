package model

import "time"

type Household struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	InviteCode  string    `json:"invite_code"`
	CreatedBy   *int64    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type HouseholdMember struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"household_id"`
	UserID      int64     `json:"user_id"`
	Role        string    `json:"role"`
	JoinedAt    time.Time `json:"joined_at"`
}

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)
