package store

import (
	"errors"
	"testing"
	"time"

	"github.com/calder/choreboard/internal/model"
)

func TestCreateForAssignment(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "a@example.com")
	hh := createTestHousehold(t, db, user)
	task := createTestTask(t, db, hh.ID, 10, false)
	assignment := createTestAssignment(t, db, task.ID, user.ID, nil)

	cs := NewCompletionStore(db)
	now := time.Date(2024, 1, 15, 18, 30, 0, 0, time.UTC)
	spent := 25

	c, err := cs.CreateForAssignment(assignment.ID, CompletionParams{
		CompletedBy:     user.ID,
		CompletedAt:     now,
		TimeSpent:       &spent,
		Notes:           "done",
		ApprovalStatus:  model.ApprovalApproved,
		PointsAwarded:   10,
		MaintainsStreak: true,
	})
	if err != nil {
		t.Fatalf("create completion: %v", err)
	}
	if c.PointsAwarded != 10 {
		t.Errorf("points_awarded = %d, want 10", c.PointsAwarded)
	}
	if !c.MaintainsStreak {
		t.Error("maintains_streak = false, want true")
	}
	if c.TimeSpent == nil || *c.TimeSpent != 25 {
		t.Errorf("time_spent = %v, want 25", c.TimeSpent)
	}
	if len(c.ProofURLs) != 0 {
		t.Errorf("proof_urls = %v, want empty", c.ProofURLs)
	}

	a, err := NewAssignmentStore(db).GetByID(assignment.ID)
	if err != nil {
		t.Fatalf("get assignment: %v", err)
	}
	if a.Status != model.AssignmentCompleted {
		t.Errorf("assignment status = %q, want %q", a.Status, model.AssignmentCompleted)
	}
}

func TestCreateForAssignmentAlreadyCompleted(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "a@example.com")
	hh := createTestHousehold(t, db, user)
	task := createTestTask(t, db, hh.ID, 10, false)
	assignment := createTestAssignment(t, db, task.ID, user.ID, nil)

	cs := NewCompletionStore(db)
	params := CompletionParams{
		CompletedBy:    user.ID,
		CompletedAt:    time.Now(),
		ApprovalStatus: model.ApprovalApproved,
		PointsAwarded:  10,
	}

	if _, err := cs.CreateForAssignment(assignment.ID, params); err != nil {
		t.Fatalf("first completion: %v", err)
	}

	// Second submission must fail and must not insert a record.
	_, err := cs.CreateForAssignment(assignment.ID, params)
	if !errors.Is(err, ErrAssignmentCompleted) {
		t.Fatalf("second completion err = %v, want ErrAssignmentCompleted", err)
	}

	completions, err := cs.ListByAssignment(assignment.ID)
	if err != nil {
		t.Fatalf("list completions: %v", err)
	}
	if len(completions) != 1 {
		t.Errorf("completion count = %d, want 1", len(completions))
	}
}

func TestReview(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "kid@example.com")
	admin := createTestUser(t, db, "parent@example.com")
	hh := createTestHousehold(t, db, admin)
	task := createTestTask(t, db, hh.ID, 15, true)
	assignment := createTestAssignment(t, db, task.ID, user.ID, nil)

	cs := NewCompletionStore(db)
	c, err := cs.CreateForAssignment(assignment.ID, CompletionParams{
		CompletedBy:     user.ID,
		CompletedAt:     time.Now(),
		ApprovalStatus:  model.ApprovalPending,
		PointsAwarded:   15,
		MaintainsStreak: true,
	})
	if err != nil {
		t.Fatalf("create completion: %v", err)
	}

	reviewed, err := cs.Review(c.ID, model.ApprovalApproved, admin.ID, "nice work", time.Now())
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if reviewed.ApprovalStatus != model.ApprovalApproved {
		t.Errorf("approval_status = %q, want approved", reviewed.ApprovalStatus)
	}
	if reviewed.ApprovedBy == nil || *reviewed.ApprovedBy != admin.ID {
		t.Errorf("approved_by = %v, want %d", reviewed.ApprovedBy, admin.ID)
	}
	if reviewed.ApprovalNotes != "nice work" {
		t.Errorf("approval_notes = %q, want %q", reviewed.ApprovalNotes, "nice work")
	}
	// Stored award survives the review untouched.
	if reviewed.PointsAwarded != 15 || !reviewed.MaintainsStreak {
		t.Errorf("stored award = (%d, %v), want (15, true)", reviewed.PointsAwarded, reviewed.MaintainsStreak)
	}

	// A second review must not flip the decision.
	_, err = cs.Review(c.ID, model.ApprovalRejected, admin.ID, "", time.Now())
	if !errors.Is(err, ErrAlreadyReviewed) {
		t.Fatalf("second review err = %v, want ErrAlreadyReviewed", err)
	}
}

func TestSetProofURLs(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "a@example.com")
	hh := createTestHousehold(t, db, user)
	task := createTestTask(t, db, hh.ID, 5, false)
	assignment := createTestAssignment(t, db, task.ID, user.ID, nil)

	cs := NewCompletionStore(db)
	c, err := cs.CreateForAssignment(assignment.ID, CompletionParams{
		CompletedBy:    user.ID,
		CompletedAt:    time.Now(),
		ApprovalStatus: model.ApprovalApproved,
	})
	if err != nil {
		t.Fatalf("create completion: %v", err)
	}

	urls := []string{"https://cdn.example.com/1/2/3/0.jpg", "https://cdn.example.com/1/2/3/1.jpg"}
	if err := cs.SetProofURLs(c.ID, urls); err != nil {
		t.Fatalf("set proof urls: %v", err)
	}

	got, err := cs.GetByID(c.ID)
	if err != nil {
		t.Fatalf("get completion: %v", err)
	}
	if len(got.ProofURLs) != 2 || got.ProofURLs[0] != urls[0] {
		t.Errorf("proof_urls = %v, want %v", got.ProofURLs, urls)
	}
}

func TestListPendingByHousehold(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "a@example.com")
	hh := createTestHousehold(t, db, user)
	approvalTask := createTestTask(t, db, hh.ID, 10, true)
	plainTask := createTestTask(t, db, hh.ID, 5, false)

	cs := NewCompletionStore(db)

	a1 := createTestAssignment(t, db, approvalTask.ID, user.ID, nil)
	if _, err := cs.CreateForAssignment(a1.ID, CompletionParams{
		CompletedBy:    user.ID,
		CompletedAt:    time.Now(),
		ApprovalStatus: model.ApprovalPending,
		PointsAwarded:  10,
	}); err != nil {
		t.Fatalf("create pending completion: %v", err)
	}

	a2 := createTestAssignment(t, db, plainTask.ID, user.ID, nil)
	if _, err := cs.CreateForAssignment(a2.ID, CompletionParams{
		CompletedBy:    user.ID,
		CompletedAt:    time.Now(),
		ApprovalStatus: model.ApprovalApproved,
		PointsAwarded:  5,
	}); err != nil {
		t.Fatalf("create approved completion: %v", err)
	}

	pending, err := cs.ListPendingByHousehold(hh.ID)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending count = %d, want 1", len(pending))
	}
	if pending[0].AssignmentID != a1.ID {
		t.Errorf("pending assignment = %d, want %d", pending[0].AssignmentID, a1.ID)
	}
}
