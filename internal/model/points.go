package model

import "time"

type UserPoints struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"user_id"`
	HouseholdID    int64      `json:"household_id"`
	TotalPoints    int        `json:"total_points"`
	CurrentStreak  int        `json:"current_streak"`
	LongestStreak  int        `json:"longest_streak"`
	TasksCompleted int        `json:"tasks_completed"`
	LastActivity   *time.Time `json:"last_activity"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type LeaderboardEntry struct {
	UserID         int64  `json:"user_id"`
	DisplayName    string `json:"display_name"`
	TotalPoints    int    `json:"total_points"`
	CurrentStreak  int    `json:"current_streak"`
	LongestStreak  int    `json:"longest_streak"`
	TasksCompleted int    `json:"tasks_completed"`
}
