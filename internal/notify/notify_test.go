package notify

import (
	"context"
	"encoding/base64"
	"log/slog"
	"testing"

	"github.com/calder/choreboard/internal/auth"
	"github.com/calder/choreboard/internal/database"
	"github.com/calder/choreboard/internal/model"
	"github.com/calder/choreboard/internal/store"
)

type fixture struct {
	svc           *Service
	notifications *store.NotificationStore
	actor         *model.User
	other         *model.User
	household     *model.Household
}

// setup builds a two-member household with push disabled; notification rows
// are still written.
func setup(t *testing.T) *fixture {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := store.NewUserStore(db)
	households := store.NewHouseholdStore(db)
	notifications := store.NewNotificationStore(db)
	subs := store.NewPushStore(db)

	actor, err := users.Create("actor@example.com", "Actor", "hash")
	if err != nil {
		t.Fatalf("create actor: %v", err)
	}
	other, err := users.Create("other@example.com", "Other", "hash")
	if err != nil {
		t.Fatalf("create other: %v", err)
	}

	hh, err := households.Create("Test House", "", &actor.ID)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	if _, err := households.AddMember(hh.ID, actor.ID, model.RoleAdmin); err != nil {
		t.Fatalf("add actor: %v", err)
	}
	if _, err := households.AddMember(hh.ID, other.ID, model.RoleMember); err != nil {
		t.Fatalf("add other: %v", err)
	}

	svc := NewService(notifications, users, subs, Config{}, slog.Default())
	return &fixture{
		svc:           svc,
		notifications: notifications,
		actor:         actor,
		other:         other,
		household:     hh,
	}
}

func TestTaskCompletedNotifiesHousehold(t *testing.T) {
	f := setup(t)

	task := &model.Task{ID: 1, HouseholdID: f.household.ID, Name: "Dishes"}
	c := &model.Completion{ID: 1, CompletedBy: f.actor.ID, ApprovalStatus: model.ApprovalApproved}

	ac := auth.AuthContext{UserID: f.actor.ID, HouseholdID: f.household.ID}
	f.svc.TaskCompleted(context.Background(), ac, task, c)

	got, err := f.notifications.ListForUser(f.other.ID, f.household.ID, 0)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("other member notifications = %d, want 1", len(got))
	}
	if got[0].Type != model.NotificationTaskCompleted {
		t.Errorf("type = %q, want %q", got[0].Type, model.NotificationTaskCompleted)
	}
	if got[0].Title != "Task Completed" {
		t.Errorf("title = %q", got[0].Title)
	}

	mine, err := f.notifications.ListForUser(f.actor.ID, f.household.ID, 0)
	if err != nil {
		t.Fatalf("list actor notifications: %v", err)
	}
	if len(mine) != 0 {
		t.Errorf("actor notifications = %d, want 0", len(mine))
	}
}

func TestTaskCompletedPendingApprovalTitle(t *testing.T) {
	f := setup(t)

	task := &model.Task{ID: 1, HouseholdID: f.household.ID, Name: "Dishes"}
	c := &model.Completion{ID: 1, CompletedBy: f.actor.ID, ApprovalStatus: model.ApprovalPending}

	ac := auth.AuthContext{UserID: f.actor.ID, HouseholdID: f.household.ID}
	f.svc.TaskCompleted(context.Background(), ac, task, c)

	got, _ := f.notifications.ListForUser(f.other.ID, f.household.ID, 0)
	if len(got) != 1 {
		t.Fatalf("notifications = %d, want 1", len(got))
	}
	if got[0].Title != "Approval Needed" {
		t.Errorf("title = %q, want %q", got[0].Title, "Approval Needed")
	}
}

func TestCompletionReviewedNotifiesSubmitter(t *testing.T) {
	f := setup(t)

	task := &model.Task{ID: 1, HouseholdID: f.household.ID, Name: "Dishes"}
	c := &model.Completion{
		ID:            1,
		CompletedBy:   f.other.ID,
		ApprovalNotes: "photo is too dark",
	}

	f.svc.CompletionReviewed(context.Background(), task, c, false)

	got, err := f.notifications.ListForUser(f.other.ID, f.household.ID, 0)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("notifications = %d, want 1", len(got))
	}
	if got[0].Type != model.NotificationTaskRejected {
		t.Errorf("type = %q, want %q", got[0].Type, model.NotificationTaskRejected)
	}
	if got[0].Message != "Your completion of Dishes was rejected: photo is too dark" {
		t.Errorf("message = %q", got[0].Message)
	}
}

func TestGenerateVAPIDKeys(t *testing.T) {
	pub, priv, err := GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("generate VAPID keys: %v", err)
	}

	pubBytes, err := base64.RawURLEncoding.DecodeString(pub)
	if err != nil {
		t.Fatalf("decode public key: %v", err)
	}
	// Uncompressed P-256 point.
	if len(pubBytes) != 65 {
		t.Errorf("public key length = %d, want 65", len(pubBytes))
	}

	privBytes, err := base64.RawURLEncoding.DecodeString(priv)
	if err != nil {
		t.Fatalf("decode private key: %v", err)
	}
	if len(privBytes) == 0 || len(privBytes) > 32 {
		t.Errorf("private key length = %d, want at most 32", len(privBytes))
	}

	pub2, _, _ := GenerateVAPIDKeys()
	if pub == pub2 {
		t.Error("expected different keys on second generation")
	}
}
