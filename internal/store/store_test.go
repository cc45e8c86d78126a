package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/calder/choreboard/internal/database"
	"github.com/calder/choreboard/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *sql.DB, email string) *model.User {
	t.Helper()
	user, err := NewUserStore(db).Create(email, "Test User", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func createTestHousehold(t *testing.T, db *sql.DB, owner *model.User) *model.Household {
	t.Helper()
	hs := NewHouseholdStore(db)
	hh, err := hs.Create("Test House", "", &owner.ID)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	if _, err := hs.AddMember(hh.ID, owner.ID, model.RoleAdmin); err != nil {
		t.Fatalf("add owner: %v", err)
	}
	return hh
}

func createTestTask(t *testing.T, db *sql.DB, householdID int64, points int, requiresApproval bool) *model.Task {
	t.Helper()
	task, err := NewTaskStore(db).Create(householdID, TaskParams{
		Name:             "Dishes",
		Points:           points,
		RequiresApproval: requiresApproval,
	}, nil)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

func createTestAssignment(t *testing.T, db *sql.DB, taskID, userID int64, due *time.Time) *model.Assignment {
	t.Helper()
	a, err := NewAssignmentStore(db).Create(taskID, userID, due, nil)
	if err != nil {
		t.Fatalf("create assignment: %v", err)
	}
	return a
}
