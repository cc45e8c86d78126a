package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/calder/choreboard/internal/model"
)

type PointsStore struct {
	db *sql.DB
}

func NewPointsStore(db *sql.DB) *PointsStore {
	return &PointsStore{db: db}
}

func scanUserPoints(scanner interface{ Scan(...any) error }) (*model.UserPoints, error) {
	var p model.UserPoints
	var lastActivity sql.NullTime
	err := scanner.Scan(
		&p.ID, &p.UserID, &p.HouseholdID, &p.TotalPoints, &p.CurrentStreak,
		&p.LongestStreak, &p.TasksCompleted, &lastActivity, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastActivity.Valid {
		p.LastActivity = &lastActivity.Time
	}
	return &p, nil
}

const userPointsCols = `id, user_id, household_id, total_points, current_streak, longest_streak, tasks_completed, last_activity, created_at, updated_at`

func (s *PointsStore) Get(householdID, userID int64) (*model.UserPoints, error) {
	row := s.db.QueryRow(
		`SELECT `+userPointsCols+` FROM user_points WHERE household_id = ? AND user_id = ?`,
		householdID, userID,
	)
	p, err := scanUserPoints(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user points: %w", err)
	}
	return p, nil
}

// EnsureRow creates a zeroed points row for a member if one does not exist.
// Called at household-join time.
func (s *PointsStore) EnsureRow(householdID, userID int64) error {
	_, err := s.db.Exec(
		`INSERT INTO user_points (user_id, household_id) VALUES (?, ?)
		 ON CONFLICT (user_id, household_id) DO NOTHING`,
		userID, householdID,
	)
	if err != nil {
		return fmt.Errorf("ensure points row: %w", err)
	}
	return nil
}

// ApplyCompletion folds one completion into the member's aggregates in a
// single atomic statement: totalPoints moves by points (which may be
// negative), the streak increments or resets, longestStreak ratchets, and the
// completed-task counter and activity timestamp advance. If no row exists yet
// it is created on demand rather than dropping the award.
func (s *PointsStore) ApplyCompletion(householdID, userID int64, points int, maintainsStreak bool, at time.Time) error {
	var streak int
	if maintainsStreak {
		streak = 1
	}

	_, err := s.db.Exec(
		`INSERT INTO user_points (user_id, household_id, total_points, current_streak, longest_streak, tasks_completed, last_activity)
		 VALUES (?, ?, ?, ?, ?, 1, ?)
		 ON CONFLICT (user_id, household_id) DO UPDATE SET
		   total_points = total_points + excluded.total_points,
		   current_streak = CASE WHEN ? THEN current_streak + 1 ELSE 0 END,
		   longest_streak = MAX(longest_streak, CASE WHEN ? THEN current_streak + 1 ELSE 0 END),
		   tasks_completed = tasks_completed + 1,
		   last_activity = excluded.last_activity,
		   updated_at = datetime('now')`,
		userID, householdID, points, streak, streak, at.UTC(),
		streak, streak,
	)
	if err != nil {
		return fmt.Errorf("apply completion points: %w", err)
	}
	return nil
}

// Leaderboard returns every member's aggregates for a household, highest total
// first.
func (s *PointsStore) Leaderboard(householdID int64) ([]model.LeaderboardEntry, error) {
	rows, err := s.db.Query(
		`SELECT p.user_id, u.display_name, p.total_points, p.current_streak, p.longest_streak, p.tasks_completed
		 FROM user_points p
		 JOIN users u ON u.id = p.user_id
		 WHERE p.household_id = ?
		 ORDER BY p.total_points DESC, u.display_name ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.DisplayName, &e.TotalPoints, &e.CurrentStreak, &e.LongestStreak, &e.TasksCompleted); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
