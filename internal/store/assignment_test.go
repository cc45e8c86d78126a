package store

import (
	"errors"
	"testing"
	"time"

	"github.com/calder/choreboard/internal/model"
)

func TestAssignmentUpdateStatus(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "a@example.com")
	hh := createTestHousehold(t, db, user)
	task := createTestTask(t, db, hh.ID, 10, false)
	a := createTestAssignment(t, db, task.ID, user.ID, nil)

	as := NewAssignmentStore(db)
	if err := as.UpdateStatus(a.ID, model.AssignmentInProgress); err != nil {
		t.Fatalf("update status: %v", err)
	}

	got, err := as.GetByID(a.ID)
	if err != nil {
		t.Fatalf("get assignment: %v", err)
	}
	if got.Status != model.AssignmentInProgress {
		t.Errorf("status = %q, want %q", got.Status, model.AssignmentInProgress)
	}
}

func TestAssignmentUpdateStatusFrozenWhenCompleted(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "a@example.com")
	hh := createTestHousehold(t, db, user)
	task := createTestTask(t, db, hh.ID, 10, false)
	a := createTestAssignment(t, db, task.ID, user.ID, nil)

	cs := NewCompletionStore(db)
	_, err := cs.CreateForAssignment(a.ID, CompletionParams{
		CompletedBy:    user.ID,
		CompletedAt:    time.Now(),
		ApprovalStatus: model.ApprovalApproved,
	})
	if err != nil {
		t.Fatalf("complete assignment: %v", err)
	}

	err = NewAssignmentStore(db).UpdateStatus(a.ID, model.AssignmentPending)
	if !errors.Is(err, ErrAssignmentCompleted) {
		t.Fatalf("err = %v, want ErrAssignmentCompleted", err)
	}

	got, _ := NewAssignmentStore(db).GetByID(a.ID)
	if got.Status != model.AssignmentCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
}

func TestAssignmentListByAssignee(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "a@example.com")
	other := createTestUser(t, db, "b@example.com")
	hh := createTestHousehold(t, db, user)
	task := createTestTask(t, db, hh.ID, 10, false)

	createTestAssignment(t, db, task.ID, user.ID, nil)
	createTestAssignment(t, db, task.ID, other.ID, nil)

	got, err := NewAssignmentStore(db).ListByAssignee(hh.ID, user.ID)
	if err != nil {
		t.Fatalf("list by assignee: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("assignments = %d, want 1", len(got))
	}
	if got[0].AssignedTo != user.ID {
		t.Errorf("assigned_to = %d, want %d", got[0].AssignedTo, user.ID)
	}
}
