package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/calder/choreboard/internal/model"
)

type AssignmentStore struct {
	db *sql.DB
}

func NewAssignmentStore(db *sql.DB) *AssignmentStore {
	return &AssignmentStore{db: db}
}

func scanAssignment(scanner interface{ Scan(...any) error }) (*model.Assignment, error) {
	var a model.Assignment
	var dueDate sql.NullTime
	var assignedBy sql.NullInt64

	err := scanner.Scan(&a.ID, &a.TaskID, &a.AssignedTo, &dueDate, &a.AssignedAt, &assignedBy, &a.Status)
	if err != nil {
		return nil, err
	}

	if dueDate.Valid {
		a.DueDate = &dueDate.Time
	}
	if assignedBy.Valid {
		a.AssignedBy = &assignedBy.Int64
	}
	return &a, nil
}

const assignmentCols = `id, task_id, assigned_to, due_date, assigned_at, assigned_by, status`

func (s *AssignmentStore) Create(taskID, assignedTo int64, dueDate *time.Time, assignedBy *int64) (*model.Assignment, error) {
	var due sql.NullTime
	if dueDate != nil {
		due = sql.NullTime{Time: dueDate.UTC(), Valid: true}
	}
	var aBy sql.NullInt64
	if assignedBy != nil {
		aBy = sql.NullInt64{Int64: *assignedBy, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO task_assignments (task_id, assigned_to, due_date, assigned_by) VALUES (?, ?, ?, ?)`,
		taskID, assignedTo, due, aBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert assignment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *AssignmentStore) GetByID(id int64) (*model.Assignment, error) {
	row := s.db.QueryRow(`SELECT `+assignmentCols+` FROM task_assignments WHERE id = ?`, id)
	a, err := scanAssignment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return a, nil
}

// ListByAssignee returns a user's assignments within one household, newest due first.
func (s *AssignmentStore) ListByAssignee(householdID, userID int64) ([]model.Assignment, error) {
	rows, err := s.db.Query(
		`SELECT a.id, a.task_id, a.assigned_to, a.due_date, a.assigned_at, a.assigned_by, a.status
		 FROM task_assignments a
		 JOIN tasks t ON t.id = a.task_id
		 WHERE a.assigned_to = ? AND t.household_id = ?
		 ORDER BY a.due_date IS NULL, a.due_date ASC, a.id ASC`,
		userID, householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list assignments by assignee: %w", err)
	}
	defer rows.Close()

	var assignments []model.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		assignments = append(assignments, *a)
	}
	return assignments, rows.Err()
}

func (s *AssignmentStore) ListByHousehold(householdID int64) ([]model.Assignment, error) {
	rows, err := s.db.Query(
		`SELECT a.id, a.task_id, a.assigned_to, a.due_date, a.assigned_at, a.assigned_by, a.status
		 FROM task_assignments a
		 JOIN tasks t ON t.id = a.task_id
		 WHERE t.household_id = ?
		 ORDER BY a.due_date IS NULL, a.due_date ASC, a.id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list assignments by household: %w", err)
	}
	defer rows.Close()

	var assignments []model.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		assignments = append(assignments, *a)
	}
	return assignments, rows.Err()
}

// UpdateStatus moves an assignment between its non-completed states. Completed
// assignments are frozen; trying to move one returns ErrAssignmentCompleted.
func (s *AssignmentStore) UpdateStatus(id int64, status model.AssignmentStatus) error {
	result, err := s.db.Exec(
		`UPDATE task_assignments SET status = ? WHERE id = ? AND status != ?`,
		status, id, model.AssignmentCompleted,
	)
	if err != nil {
		return fmt.Errorf("update assignment status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update assignment status: %w", err)
	}
	if affected == 0 {
		return ErrAssignmentCompleted
	}
	return nil
}

func (s *AssignmentStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM task_assignments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return nil
}
