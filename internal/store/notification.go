package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/calder/choreboard/internal/model"
)

type NotificationStore struct {
	db *sql.DB
}

func NewNotificationStore(db *sql.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

func scanNotification(scanner interface{ Scan(...any) error }) (*model.Notification, error) {
	var n model.Notification
	var data string
	var isRead int

	err := scanner.Scan(&n.ID, &n.UserID, &n.HouseholdID, &n.Type, &n.Title, &n.Message, &data, &isRead, &n.CreatedAt)
	if err != nil {
		return nil, err
	}

	n.Data = json.RawMessage(data)
	n.IsRead = isRead != 0
	return &n, nil
}

const notificationCols = `id, user_id, household_id, type, title, message, data, is_read, created_at`

// CreateForHousehold inserts one notification row per household member except
// the actor, in a single transaction.
func (s *NotificationStore) CreateForHousehold(householdID, excludeUserID int64, ntype, title, message string, data any) error {
	payload := []byte("{}")
	if data != nil {
		var err error
		payload, err = json.Marshal(data)
		if err != nil {
			return fmt.Errorf("encode notification data: %w", err)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO notifications (user_id, household_id, type, title, message, data)
		 SELECT user_id, household_id, ?, ?, ?, ?
		 FROM household_members
		 WHERE household_id = ? AND user_id != ?`,
		ntype, title, message, string(payload), householdID, excludeUserID,
	)
	if err != nil {
		return fmt.Errorf("insert household notifications: %w", err)
	}
	return tx.Commit()
}

// CreateForUser inserts a single notification for one user.
func (s *NotificationStore) CreateForUser(userID, householdID int64, ntype, title, message string, data any) error {
	payload := []byte("{}")
	if data != nil {
		var err error
		payload, err = json.Marshal(data)
		if err != nil {
			return fmt.Errorf("encode notification data: %w", err)
		}
	}

	_, err := s.db.Exec(
		`INSERT INTO notifications (user_id, household_id, type, title, message, data) VALUES (?, ?, ?, ?, ?, ?)`,
		userID, householdID, ntype, title, message, string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *NotificationStore) ListForUser(userID, householdID int64, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT `+notificationCols+` FROM notifications WHERE user_id = ? AND household_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, householdID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, *n)
	}
	return notifications, rows.Err()
}

func (s *NotificationStore) MarkRead(id, userID int64) error {
	_, err := s.db.Exec(
		`UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func (s *NotificationStore) CountUnread(userID, householdID int64) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND household_id = ? AND is_read = 0`,
		userID, householdID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}
