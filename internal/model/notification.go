package model

import (
	"encoding/json"
	"time"
)

const (
	NotificationTaskCompleted = "task_completed"
	NotificationTaskAssigned  = "task_assigned"
	NotificationTaskApproved  = "task_approved"
	NotificationTaskRejected  = "task_rejected"
)

type Notification struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	HouseholdID int64           `json:"household_id"`
	Type        string          `json:"type"`
	Title       string          `json:"title"`
	Message     string          `json:"message"`
	Data        json.RawMessage `json:"data"`
	IsRead      bool            `json:"is_read"`
	CreatedAt   time.Time       `json:"created_at"`
}

type PushSubscription struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Endpoint  string    `json:"endpoint"`
	P256dhKey string    `json:"p256dh_key"`
	AuthKey   string    `json:"auth_key"`
	CreatedAt time.Time `json:"created_at"`
}
