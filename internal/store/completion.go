package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/calder/choreboard/internal/model"
)

// ErrAssignmentCompleted is returned when the assignment's status flip affects
// zero rows, i.e. another completion got there first.
var ErrAssignmentCompleted = errors.New("assignment already completed")

// ErrAlreadyReviewed is returned when a review targets a completion that is no
// longer pending.
var ErrAlreadyReviewed = errors.New("completion already reviewed")

type CompletionStore struct {
	db *sql.DB
}

func NewCompletionStore(db *sql.DB) *CompletionStore {
	return &CompletionStore{db: db}
}

func scanCompletion(scanner interface{ Scan(...any) error }) (*model.Completion, error) {
	var c model.Completion
	var timeSpent sql.NullInt64
	var proofURLs string
	var approvedBy sql.NullInt64
	var approvedAt sql.NullTime
	var maintainsStreak int

	err := scanner.Scan(
		&c.ID, &c.AssignmentID, &c.CompletedBy, &c.CompletedAt, &timeSpent,
		&c.Notes, &proofURLs, &c.ApprovalStatus, &approvedBy, &approvedAt,
		&c.ApprovalNotes, &c.PointsAwarded, &maintainsStreak,
	)
	if err != nil {
		return nil, err
	}

	if timeSpent.Valid {
		v := int(timeSpent.Int64)
		c.TimeSpent = &v
	}
	if approvedBy.Valid {
		c.ApprovedBy = &approvedBy.Int64
	}
	if approvedAt.Valid {
		c.ApprovedAt = &approvedAt.Time
	}
	c.MaintainsStreak = maintainsStreak != 0
	if err := json.Unmarshal([]byte(proofURLs), &c.ProofURLs); err != nil {
		return nil, fmt.Errorf("decode proof urls: %w", err)
	}
	return &c, nil
}

const completionCols = `id, assignment_id, completed_by, completed_at, time_spent, notes, proof_urls, approval_status, approved_by, approved_at, approval_notes, points_awarded, maintains_streak`

// CompletionParams carries the fields fixed at submission time.
type CompletionParams struct {
	CompletedBy     int64
	CompletedAt     time.Time
	TimeSpent       *int
	Notes           string
	ApprovalStatus  model.ApprovalStatus
	PointsAwarded   int
	MaintainsStreak bool
}

// CreateForAssignment inserts the completion record and flips the assignment
// to completed in one transaction. The flip is conditional on the assignment
// not already being completed; if that update affects zero rows the whole
// transaction rolls back and ErrAssignmentCompleted is returned. This is the
// at-most-once guard under concurrent submissions.
func (s *CompletionStore) CreateForAssignment(assignmentID int64, p CompletionParams) (*model.Completion, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`UPDATE task_assignments SET status = ? WHERE id = ? AND status != ?`,
		model.AssignmentCompleted, assignmentID, model.AssignmentCompleted,
	)
	if err != nil {
		return nil, fmt.Errorf("complete assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, ErrAssignmentCompleted
	}

	var timeSpent sql.NullInt64
	if p.TimeSpent != nil {
		timeSpent = sql.NullInt64{Int64: int64(*p.TimeSpent), Valid: true}
	}
	var streak int
	if p.MaintainsStreak {
		streak = 1
	}

	result, err = tx.Exec(
		`INSERT INTO task_completions (assignment_id, completed_by, completed_at, time_spent, notes, approval_status, points_awarded, maintains_streak)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		assignmentID, p.CompletedBy, p.CompletedAt.UTC(), timeSpent, p.Notes, p.ApprovalStatus, p.PointsAwarded, streak,
	)
	if err != nil {
		return nil, fmt.Errorf("insert completion: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func (s *CompletionStore) GetByID(id int64) (*model.Completion, error) {
	row := s.db.QueryRow(`SELECT `+completionCols+` FROM task_completions WHERE id = ?`, id)
	c, err := scanCompletion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get completion: %w", err)
	}
	return c, nil
}

// SetProofURLs attaches uploaded photo URLs after the fact. Proof upload is
// best-effort, so this runs outside the completion transaction.
func (s *CompletionStore) SetProofURLs(id int64, urls []string) error {
	data, err := json.Marshal(urls)
	if err != nil {
		return fmt.Errorf("encode proof urls: %w", err)
	}
	_, err = s.db.Exec(`UPDATE task_completions SET proof_urls = ? WHERE id = ?`, string(data), id)
	if err != nil {
		return fmt.Errorf("set proof urls: %w", err)
	}
	return nil
}

// Review transitions a pending completion to approved or rejected. The update
// is conditional on the record still being pending so a completion can only be
// reviewed once; ErrAlreadyReviewed is returned otherwise.
func (s *CompletionStore) Review(id int64, status model.ApprovalStatus, reviewedBy int64, notes string, at time.Time) (*model.Completion, error) {
	result, err := s.db.Exec(
		`UPDATE task_completions SET approval_status = ?, approved_by = ?, approved_at = ?, approval_notes = ?
		 WHERE id = ? AND approval_status = ?`,
		status, reviewedBy, at.UTC(), notes, id, model.ApprovalPending,
	)
	if err != nil {
		return nil, fmt.Errorf("review completion: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, ErrAlreadyReviewed
	}
	return s.GetByID(id)
}

func (s *CompletionStore) ListByAssignment(assignmentID int64) ([]model.Completion, error) {
	rows, err := s.db.Query(
		`SELECT `+completionCols+` FROM task_completions WHERE assignment_id = ? ORDER BY completed_at DESC`,
		assignmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	var completions []model.Completion
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		completions = append(completions, *c)
	}
	return completions, rows.Err()
}

// ListPendingByHousehold returns completions awaiting review for a household,
// oldest first.
func (s *CompletionStore) ListPendingByHousehold(householdID int64) ([]model.Completion, error) {
	rows, err := s.db.Query(
		`SELECT c.id, c.assignment_id, c.completed_by, c.completed_at, c.time_spent, c.notes, c.proof_urls, c.approval_status, c.approved_by, c.approved_at, c.approval_notes, c.points_awarded, c.maintains_streak
		 FROM task_completions c
		 JOIN task_assignments a ON a.id = c.assignment_id
		 JOIN tasks t ON t.id = a.task_id
		 WHERE t.household_id = ? AND c.approval_status = ?
		 ORDER BY c.completed_at ASC`,
		householdID, model.ApprovalPending,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending completions: %w", err)
	}
	defer rows.Close()

	var completions []model.Completion
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		completions = append(completions, *c)
	}
	return completions, rows.Err()
}
