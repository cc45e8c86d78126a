package store

import (
	"testing"

	"github.com/calder/choreboard/internal/model"
)

func TestHouseholdCreate(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "owner@example.com")

	hs := NewHouseholdStore(db)
	hh, err := hs.Create("The Smiths", "Our house", &user.ID)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	if hh.Name != "The Smiths" {
		t.Errorf("name = %q, want %q", hh.Name, "The Smiths")
	}
	if len(hh.InviteCode) != 8 {
		t.Errorf("invite code length = %d, want 8", len(hh.InviteCode))
	}
	if hh.CreatedBy == nil || *hh.CreatedBy != user.ID {
		t.Errorf("created_by = %v, want %d", hh.CreatedBy, user.ID)
	}
}

func TestHouseholdJoinByInviteCode(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	hh := createTestHousehold(t, db, owner)

	hs := NewHouseholdStore(db)
	found, err := hs.GetByInviteCode(hh.InviteCode)
	if err != nil {
		t.Fatalf("get by invite code: %v", err)
	}
	if found == nil || found.ID != hh.ID {
		t.Fatalf("lookup by invite code returned %+v", found)
	}

	joiner := createTestUser(t, db, "joiner@example.com")
	m, err := hs.AddMember(hh.ID, joiner.ID, model.RoleMember)
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
	if m.Role != model.RoleMember {
		t.Errorf("role = %q, want member", m.Role)
	}

	members, err := hs.ListMembers(hh.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 2 {
		t.Errorf("member count = %d, want 2", len(members))
	}
}

func TestHouseholdUnknownInviteCode(t *testing.T) {
	db := setupTestDB(t)

	found, err := NewHouseholdStore(db).GetByInviteCode("NOPE1234")
	if err != nil {
		t.Fatalf("get by invite code: %v", err)
	}
	if found != nil {
		t.Fatalf("expected nil for unknown code, got %+v", found)
	}
}

func TestRegenerateInviteCode(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	hh := createTestHousehold(t, db, owner)

	hs := NewHouseholdStore(db)
	updated, err := hs.RegenerateInviteCode(hh.ID)
	if err != nil {
		t.Fatalf("regenerate invite code: %v", err)
	}
	if updated.InviteCode == hh.InviteCode {
		t.Error("invite code did not change")
	}

	// The old code must no longer resolve.
	found, err := hs.GetByInviteCode(hh.InviteCode)
	if err != nil {
		t.Fatalf("get by old code: %v", err)
	}
	if found != nil {
		t.Error("old invite code still resolves")
	}
}

func TestUpdateMemberRole(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	hh := createTestHousehold(t, db, owner)

	joiner := createTestUser(t, db, "joiner@example.com")
	hs := NewHouseholdStore(db)
	if _, err := hs.AddMember(hh.ID, joiner.ID, model.RoleMember); err != nil {
		t.Fatalf("add member: %v", err)
	}

	m, err := hs.UpdateMemberRole(hh.ID, joiner.ID, model.RoleAdmin)
	if err != nil {
		t.Fatalf("update role: %v", err)
	}
	if m.Role != model.RoleAdmin {
		t.Errorf("role = %q, want admin", m.Role)
	}
}

func TestListHouseholdsForUser(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "a@example.com")
	hh := createTestHousehold(t, db, user)

	households, err := NewHouseholdStore(db).ListHouseholdsForUser(user.ID)
	if err != nil {
		t.Fatalf("list households: %v", err)
	}
	if len(households) != 1 || households[0].ID != hh.ID {
		t.Fatalf("households = %+v, want single %d", households, hh.ID)
	}
}
