package store

import (
	"database/sql"
	"fmt"

	"github.com/calder/choreboard/internal/model"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	var categoryID sql.NullInt64
	var createdBy sql.NullInt64
	var requiresApproval, active int

	err := scanner.Scan(
		&t.ID, &t.HouseholdID, &t.Name, &t.Description, &categoryID,
		&t.Difficulty, &t.EstimatedDuration, &t.Points, &requiresApproval,
		&t.RecurrenceType, &t.AssignmentType, &createdBy, &active,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if categoryID.Valid {
		t.CategoryID = &categoryID.Int64
	}
	if createdBy.Valid {
		t.CreatedBy = &createdBy.Int64
	}
	t.RequiresApproval = requiresApproval != 0
	t.Active = active != 0
	return &t, nil
}

const taskCols = `id, household_id, name, description, category_id, difficulty, estimated_duration, points, requires_approval, recurrence_type, assignment_type, created_by, is_active, created_at, updated_at`

// TaskParams carries the caller-editable fields of a task.
type TaskParams struct {
	Name              string
	Description       string
	CategoryID        *int64
	Difficulty        string
	EstimatedDuration int
	Points            int
	RequiresApproval  bool
}

func (s *TaskStore) Create(householdID int64, p TaskParams, createdBy *int64) (*model.Task, error) {
	var catID sql.NullInt64
	if p.CategoryID != nil {
		catID = sql.NullInt64{Int64: *p.CategoryID, Valid: true}
	}
	var cBy sql.NullInt64
	if createdBy != nil {
		cBy = sql.NullInt64{Int64: *createdBy, Valid: true}
	}
	var approval int
	if p.RequiresApproval {
		approval = 1
	}
	difficulty := p.Difficulty
	if difficulty == "" {
		difficulty = "medium"
	}

	result, err := s.db.Exec(
		`INSERT INTO tasks (household_id, name, description, category_id, difficulty, estimated_duration, points, requires_approval, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		householdID, p.Name, p.Description, catID, difficulty, p.EstimatedDuration, p.Points, approval, cBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *TaskStore) GetByID(id int64) (*model.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (s *TaskStore) ListByHousehold(householdID int64, activeOnly bool) ([]model.Task, error) {
	query := `SELECT ` + taskCols + ` FROM tasks WHERE household_id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY name ASC`

	rows, err := s.db.Query(query, householdID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *TaskStore) Update(id int64, p TaskParams) (*model.Task, error) {
	var catID sql.NullInt64
	if p.CategoryID != nil {
		catID = sql.NullInt64{Int64: *p.CategoryID, Valid: true}
	}
	var approval int
	if p.RequiresApproval {
		approval = 1
	}

	_, err := s.db.Exec(
		`UPDATE tasks SET name = ?, description = ?, category_id = ?, difficulty = ?, estimated_duration = ?, points = ?, requires_approval = ?, updated_at = datetime('now') WHERE id = ?`,
		p.Name, p.Description, catID, p.Difficulty, p.EstimatedDuration, p.Points, approval, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return s.GetByID(id)
}

// SetActive toggles a task without losing its completion history.
func (s *TaskStore) SetActive(id int64, active bool) error {
	var a int
	if active {
		a = 1
	}
	_, err := s.db.Exec(
		`UPDATE tasks SET is_active = ?, updated_at = datetime('now') WHERE id = ?`,
		a, id,
	)
	if err != nil {
		return fmt.Errorf("set task active: %w", err)
	}
	return nil
}

func (s *TaskStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

func (s *TaskStore) ListCategories() ([]model.TaskCategory, error) {
	rows, err := s.db.Query(`SELECT id, name, color, icon FROM task_categories ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []model.TaskCategory
	for rows.Next() {
		var c model.TaskCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &c.Icon); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
