package store

import (
	"database/sql"
	"fmt"

	"github.com/calder/choreboard/internal/model"
)

type PushStore struct {
	db *sql.DB
}

func NewPushStore(db *sql.DB) *PushStore {
	return &PushStore{db: db}
}

func scanSubscription(scanner interface{ Scan(...any) error }) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	err := scanner.Scan(&sub.ID, &sub.UserID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

const subscriptionCols = `id, user_id, endpoint, p256dh_key, auth_key, created_at`

func (s *PushStore) Create(userID int64, endpoint, p256dh, authKey string) (*model.PushSubscription, error) {
	_, err := s.db.Exec(
		`INSERT INTO push_subscriptions (user_id, endpoint, p256dh_key, auth_key) VALUES (?, ?, ?, ?)
		 ON CONFLICT (endpoint) DO UPDATE SET user_id = excluded.user_id, p256dh_key = excluded.p256dh_key, auth_key = excluded.auth_key`,
		userID, endpoint, p256dh, authKey,
	)
	if err != nil {
		return nil, fmt.Errorf("insert subscription: %w", err)
	}

	// The endpoint is the natural key; the upsert may have taken either branch.
	row := s.db.QueryRow(`SELECT `+subscriptionCols+` FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	sub, err := scanSubscription(row)
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

func (s *PushStore) ListByUser(userID int64) ([]model.PushSubscription, error) {
	rows, err := s.db.Query(
		`SELECT `+subscriptionCols+` FROM push_subscriptions WHERE user_id = ?`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.PushSubscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

// ListByHousehold returns subscriptions for every member of a household
// except the excluded user (the actor who triggered the event).
func (s *PushStore) ListByHousehold(householdID, excludeUserID int64) ([]model.PushSubscription, error) {
	rows, err := s.db.Query(
		`SELECT p.id, p.user_id, p.endpoint, p.p256dh_key, p.auth_key, p.created_at
		 FROM push_subscriptions p
		 JOIN household_members hm ON hm.user_id = p.user_id
		 WHERE hm.household_id = ? AND p.user_id != ?`,
		householdID, excludeUserID,
	)
	if err != nil {
		return nil, fmt.Errorf("list household subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.PushSubscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

func (s *PushStore) Delete(id, userID int64) error {
	_, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

// DeleteByEndpoint removes a subscription the push service reported as gone.
func (s *PushStore) DeleteByEndpoint(endpoint string) error {
	_, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	if err != nil {
		return fmt.Errorf("delete subscription by endpoint: %w", err)
	}
	return nil
}
