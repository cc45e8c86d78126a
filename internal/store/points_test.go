package store

import (
	"testing"
	"time"
)

func TestApplyCompletionCreatesRow(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "a@example.com")
	hh := createTestHousehold(t, db, user)

	ps := NewPointsStore(db)
	if err := ps.ApplyCompletion(hh.ID, user.ID, 10, true, time.Now()); err != nil {
		t.Fatalf("apply completion: %v", err)
	}

	p, err := ps.Get(hh.ID, user.ID)
	if err != nil {
		t.Fatalf("get points: %v", err)
	}
	if p == nil {
		t.Fatal("points row not created")
	}
	if p.TotalPoints != 10 {
		t.Errorf("total_points = %d, want 10", p.TotalPoints)
	}
	if p.CurrentStreak != 1 {
		t.Errorf("current_streak = %d, want 1", p.CurrentStreak)
	}
	if p.LongestStreak != 1 {
		t.Errorf("longest_streak = %d, want 1", p.LongestStreak)
	}
	if p.TasksCompleted != 1 {
		t.Errorf("tasks_completed = %d, want 1", p.TasksCompleted)
	}
	if p.LastActivity == nil {
		t.Error("last_activity not set")
	}
}

func TestApplyCompletionStreak(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "a@example.com")
	hh := createTestHousehold(t, db, user)

	ps := NewPointsStore(db)
	now := time.Now()

	// Two streak-maintaining completions, then a late one.
	if err := ps.ApplyCompletion(hh.ID, user.ID, 10, true, now); err != nil {
		t.Fatalf("apply 1: %v", err)
	}
	if err := ps.ApplyCompletion(hh.ID, user.ID, 5, true, now); err != nil {
		t.Fatalf("apply 2: %v", err)
	}

	p, _ := ps.Get(hh.ID, user.ID)
	if p.CurrentStreak != 2 || p.LongestStreak != 2 {
		t.Fatalf("streaks = (%d, %d), want (2, 2)", p.CurrentStreak, p.LongestStreak)
	}

	if err := ps.ApplyCompletion(hh.ID, user.ID, -5, false, now); err != nil {
		t.Fatalf("apply 3: %v", err)
	}

	p, err := ps.Get(hh.ID, user.ID)
	if err != nil {
		t.Fatalf("get points: %v", err)
	}
	if p.CurrentStreak != 0 {
		t.Errorf("current_streak = %d, want 0 after reset", p.CurrentStreak)
	}
	if p.LongestStreak != 2 {
		t.Errorf("longest_streak = %d, want 2 (ratchet)", p.LongestStreak)
	}
	if p.TotalPoints != 10 {
		t.Errorf("total_points = %d, want 10 (10+5-5)", p.TotalPoints)
	}
	if p.TasksCompleted != 3 {
		t.Errorf("tasks_completed = %d, want 3", p.TasksCompleted)
	}
}

func TestApplyCompletionNegativeTotal(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "a@example.com")
	hh := createTestHousehold(t, db, user)

	ps := NewPointsStore(db)
	if err := ps.ApplyCompletion(hh.ID, user.ID, -15, false, time.Now()); err != nil {
		t.Fatalf("apply completion: %v", err)
	}

	p, _ := ps.Get(hh.ID, user.ID)
	if p.TotalPoints != -15 {
		t.Errorf("total_points = %d, want -15 (totals may go negative)", p.TotalPoints)
	}
}

func TestEnsureRow(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "a@example.com")
	hh := createTestHousehold(t, db, user)

	ps := NewPointsStore(db)
	if err := ps.EnsureRow(hh.ID, user.ID); err != nil {
		t.Fatalf("ensure row: %v", err)
	}
	// Repeat is a no-op, not an error.
	if err := ps.EnsureRow(hh.ID, user.ID); err != nil {
		t.Fatalf("ensure row again: %v", err)
	}

	p, err := ps.Get(hh.ID, user.ID)
	if err != nil {
		t.Fatalf("get points: %v", err)
	}
	if p == nil || p.TotalPoints != 0 {
		t.Fatalf("expected zeroed row, got %+v", p)
	}
}

func TestLeaderboard(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestUser(t, db, "alice@example.com")
	hh := createTestHousehold(t, db, alice)

	bob, err := NewUserStore(db).Create("bob@example.com", "Bob", "hash")
	if err != nil {
		t.Fatalf("create bob: %v", err)
	}
	hs := NewHouseholdStore(db)
	if _, err := hs.AddMember(hh.ID, bob.ID, "member"); err != nil {
		t.Fatalf("add bob: %v", err)
	}

	ps := NewPointsStore(db)
	now := time.Now()
	if err := ps.ApplyCompletion(hh.ID, alice.ID, 10, true, now); err != nil {
		t.Fatalf("apply alice: %v", err)
	}
	if err := ps.ApplyCompletion(hh.ID, bob.ID, 25, true, now); err != nil {
		t.Fatalf("apply bob: %v", err)
	}

	entries, err := ps.Leaderboard(hh.ID)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entry count = %d, want 2", len(entries))
	}
	if entries[0].UserID != bob.ID {
		t.Errorf("leader = user %d, want %d (highest total first)", entries[0].UserID, bob.ID)
	}
	if entries[0].TotalPoints != 25 {
		t.Errorf("leader total = %d, want 25", entries[0].TotalPoints)
	}
}
