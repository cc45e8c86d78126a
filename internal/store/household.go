package store

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"strings"

	"github.com/calder/choreboard/internal/model"
)

type HouseholdStore struct {
	db *sql.DB
}

func NewHouseholdStore(db *sql.DB) *HouseholdStore {
	return &HouseholdStore{db: db}
}

func scanHousehold(scanner interface{ Scan(...any) error }) (*model.Household, error) {
	var h model.Household
	var createdBy sql.NullInt64
	err := scanner.Scan(&h.ID, &h.Name, &h.Description, &h.InviteCode, &createdBy, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if createdBy.Valid {
		h.CreatedBy = &createdBy.Int64
	}
	return &h, nil
}

func scanHouseholdMember(scanner interface{ Scan(...any) error }) (*model.HouseholdMember, error) {
	var m model.HouseholdMember
	err := scanner.Scan(&m.ID, &m.HouseholdID, &m.UserID, &m.Role, &m.JoinedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const householdCols = `id, name, description, invite_code, created_by, created_at, updated_at`
const householdMemberCols = `id, household_id, user_id, role, joined_at`

// inviteCodeAlphabet omits easily confused characters (0/O, 1/I/L).
const inviteCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

func generateInviteCode() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	var sb strings.Builder
	for _, c := range b {
		sb.WriteByte(inviteCodeAlphabet[int(c)%len(inviteCodeAlphabet)])
	}
	return sb.String(), nil
}

func (s *HouseholdStore) Create(name, description string, createdBy *int64) (*model.Household, error) {
	var cBy sql.NullInt64
	if createdBy != nil {
		cBy = sql.NullInt64{Int64: *createdBy, Valid: true}
	}

	// Invite codes are unique; retry on the rare collision.
	for attempt := 0; attempt < 5; attempt++ {
		code, err := generateInviteCode()
		if err != nil {
			return nil, err
		}

		result, err := s.db.Exec(
			`INSERT INTO households (name, description, invite_code, created_by) VALUES (?, ?, ?, ?)`,
			name, description, code, cBy,
		)
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint failed") {
				continue
			}
			return nil, fmt.Errorf("insert household: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
		return s.GetByID(id)
	}
	return nil, fmt.Errorf("generate invite code: too many collisions")
}

func (s *HouseholdStore) GetByID(id int64) (*model.Household, error) {
	row := s.db.QueryRow(`SELECT `+householdCols+` FROM households WHERE id = ?`, id)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	return h, nil
}

func (s *HouseholdStore) GetByInviteCode(code string) (*model.Household, error) {
	row := s.db.QueryRow(`SELECT `+householdCols+` FROM households WHERE invite_code = ?`, code)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household by invite code: %w", err)
	}
	return h, nil
}

func (s *HouseholdStore) Update(id int64, name, description string) (*model.Household, error) {
	_, err := s.db.Exec(
		`UPDATE households SET name = ?, description = ?, updated_at = datetime('now') WHERE id = ?`,
		name, description, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update household: %w", err)
	}
	return s.GetByID(id)
}

// RegenerateInviteCode replaces the invite code, invalidating the old one.
func (s *HouseholdStore) RegenerateInviteCode(id int64) (*model.Household, error) {
	code, err := generateInviteCode()
	if err != nil {
		return nil, err
	}
	_, err = s.db.Exec(
		`UPDATE households SET invite_code = ?, updated_at = datetime('now') WHERE id = ?`,
		code, id,
	)
	if err != nil {
		return nil, fmt.Errorf("regenerate invite code: %w", err)
	}
	return s.GetByID(id)
}

func (s *HouseholdStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM households WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete household: %w", err)
	}
	return nil
}

func (s *HouseholdStore) AddMember(householdID, userID int64, role string) (*model.HouseholdMember, error) {
	result, err := s.db.Exec(
		`INSERT INTO household_members (household_id, user_id, role) VALUES (?, ?, ?)`,
		householdID, userID, role,
	)
	if err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+householdMemberCols+` FROM household_members WHERE id = ?`, id)
	return scanHouseholdMember(row)
}

func (s *HouseholdStore) RemoveMember(householdID, userID int64) error {
	_, err := s.db.Exec(
		`DELETE FROM household_members WHERE household_id = ? AND user_id = ?`,
		householdID, userID,
	)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

func (s *HouseholdStore) GetMember(householdID, userID int64) (*model.HouseholdMember, error) {
	row := s.db.QueryRow(
		`SELECT `+householdMemberCols+` FROM household_members WHERE household_id = ? AND user_id = ?`,
		householdID, userID,
	)
	m, err := scanHouseholdMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *HouseholdStore) ListMembers(householdID int64) ([]model.HouseholdMember, error) {
	rows, err := s.db.Query(
		`SELECT `+householdMemberCols+` FROM household_members WHERE household_id = ? ORDER BY joined_at ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.HouseholdMember
	for rows.Next() {
		m, err := scanHouseholdMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (s *HouseholdStore) ListHouseholdsForUser(userID int64) ([]model.Household, error) {
	rows, err := s.db.Query(
		`SELECT h.id, h.name, h.description, h.invite_code, h.created_by, h.created_at, h.updated_at
		 FROM households h
		 JOIN household_members hm ON h.id = hm.household_id
		 WHERE hm.user_id = ?
		 ORDER BY h.name ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list households for user: %w", err)
	}
	defer rows.Close()

	var households []model.Household
	for rows.Next() {
		h, err := scanHousehold(rows)
		if err != nil {
			return nil, fmt.Errorf("scan household: %w", err)
		}
		households = append(households, *h)
	}
	return households, rows.Err()
}

func (s *HouseholdStore) UpdateMemberRole(householdID, userID int64, role string) (*model.HouseholdMember, error) {
	_, err := s.db.Exec(
		`UPDATE household_members SET role = ? WHERE household_id = ? AND user_id = ?`,
		role, householdID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update member role: %w", err)
	}
	return s.GetMember(householdID, userID)
}
