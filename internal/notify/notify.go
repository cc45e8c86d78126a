// Package notify fans household events out as notification rows and
// best-effort web push messages.
package notify

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/calder/choreboard/internal/auth"
	"github.com/calder/choreboard/internal/model"
	"github.com/calder/choreboard/internal/store"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// ErrExpired is returned when a push subscription is no longer valid (410 Gone).
var ErrExpired = errors.New("push subscription expired")

// Payload is the JSON sent to the push service.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

// Config holds VAPID configuration. Empty keys disable push; notification
// rows are still written.
type Config struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subscriber      string
}

type Service struct {
	notifications *store.NotificationStore
	users         *store.UserStore
	subs          *store.PushStore
	config        Config
	logger        *slog.Logger
}

func NewService(notifications *store.NotificationStore, users *store.UserStore, subs *store.PushStore, cfg Config, logger *slog.Logger) *Service {
	if cfg.Subscriber == "" {
		cfg.Subscriber = "mailto:noreply@choreboard.app"
	}
	return &Service{
		notifications: notifications,
		users:         users,
		subs:          subs,
		config:        cfg,
		logger:        logger,
	}
}

// VAPIDPublicKey returns the VAPID public key for client-side subscription.
func (s *Service) VAPIDPublicKey() string {
	return s.config.VAPIDPublicKey
}

func (s *Service) pushEnabled() bool {
	return s.config.VAPIDPublicKey != "" && s.config.VAPIDPrivateKey != ""
}

// TaskCompleted tells the rest of the household that a task was done. Every
// failure is logged and swallowed; completions never wait on notifications.
func (s *Service) TaskCompleted(ctx context.Context, actor auth.AuthContext, task *model.Task, c *model.Completion) {
	actorName := s.displayName(actor.UserID)

	title := "Task Completed"
	body := fmt.Sprintf("%s completed %s", actorName, task.Name)
	if c.ApprovalStatus == model.ApprovalPending {
		title = "Approval Needed"
		body = fmt.Sprintf("%s completed %s and is waiting for approval", actorName, task.Name)
	}

	err := s.notifications.CreateForHousehold(actor.HouseholdID, actor.UserID, model.NotificationTaskCompleted,
		title, body, map[string]any{"task_id": task.ID, "completion_id": c.ID})
	if err != nil {
		s.logger.Error("write completion notifications", "completion_id", c.ID, "error", err)
	}

	s.pushToHousehold(ctx, actor.HouseholdID, actor.UserID, Payload{
		Title: title,
		Body:  body,
		Tag:   fmt.Sprintf("completion-%d", c.ID),
	})
}

// CompletionReviewed tells the submitting member about the review decision.
func (s *Service) CompletionReviewed(ctx context.Context, task *model.Task, c *model.Completion, approved bool) {
	ntype := model.NotificationTaskApproved
	title := "Task Approved"
	body := fmt.Sprintf("Your completion of %s was approved", task.Name)
	if !approved {
		ntype = model.NotificationTaskRejected
		title = "Task Rejected"
		body = fmt.Sprintf("Your completion of %s was rejected", task.Name)
		if c.ApprovalNotes != "" {
			body += ": " + c.ApprovalNotes
		}
	}

	err := s.notifications.CreateForUser(c.CompletedBy, task.HouseholdID, ntype,
		title, body, map[string]any{"task_id": task.ID, "completion_id": c.ID})
	if err != nil {
		s.logger.Error("write review notification", "completion_id", c.ID, "error", err)
	}

	s.pushToUser(ctx, c.CompletedBy, Payload{
		Title: title,
		Body:  body,
		Tag:   fmt.Sprintf("review-%d", c.ID),
	})
}

// TaskAssigned tells a member they have a new assignment.
func (s *Service) TaskAssigned(ctx context.Context, task *model.Task, a *model.Assignment) {
	body := fmt.Sprintf("You were assigned %s", task.Name)
	if a.DueDate != nil {
		body = fmt.Sprintf("You were assigned %s, due %s", task.Name, a.DueDate.Format("Jan 2"))
	}

	err := s.notifications.CreateForUser(a.AssignedTo, task.HouseholdID, model.NotificationTaskAssigned,
		"New Assignment", body, map[string]any{"task_id": task.ID, "assignment_id": a.ID})
	if err != nil {
		s.logger.Error("write assignment notification", "assignment_id", a.ID, "error", err)
	}

	s.pushToUser(ctx, a.AssignedTo, Payload{
		Title: "New Assignment",
		Body:  body,
		Tag:   fmt.Sprintf("assignment-%d", a.ID),
	})
}

func (s *Service) pushToHousehold(ctx context.Context, householdID, excludeUserID int64, payload Payload) {
	if !s.pushEnabled() {
		return
	}
	subs, err := s.subs.ListByHousehold(householdID, excludeUserID)
	if err != nil {
		s.logger.Error("list push subscriptions", "household_id", householdID, "error", err)
		return
	}
	s.send(ctx, subs, payload)
}

func (s *Service) pushToUser(ctx context.Context, userID int64, payload Payload) {
	if !s.pushEnabled() {
		return
	}
	subs, err := s.subs.ListByUser(userID)
	if err != nil {
		s.logger.Error("list push subscriptions", "user_id", userID, "error", err)
		return
	}
	s.send(ctx, subs, payload)
}

func (s *Service) send(_ context.Context, subs []model.PushSubscription, payload Payload) {
	for i := range subs {
		sub := &subs[i]
		err := s.sendOne(sub, payload)
		if errors.Is(err, ErrExpired) {
			if err := s.subs.DeleteByEndpoint(sub.Endpoint); err != nil {
				s.logger.Error("delete expired subscription", "endpoint", sub.Endpoint, "error", err)
			}
			continue
		}
		if err != nil {
			s.logger.Error("send push", "endpoint", sub.Endpoint, "error", err)
		}
	}
}

func (s *Service) sendOne(sub *model.PushSubscription, payload Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := webpush.SendNotification(data, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dhKey,
			Auth:   sub.AuthKey,
		},
	}, &webpush.Options{
		VAPIDPublicKey:  s.config.VAPIDPublicKey,
		VAPIDPrivateKey: s.config.VAPIDPrivateKey,
		Subscriber:      s.config.Subscriber,
		TTL:             86400,
	})
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		return ErrExpired
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push service returned %d", resp.StatusCode)
	}
	return nil
}

func (s *Service) displayName(userID int64) string {
	user, err := s.users.GetByID(userID)
	if err != nil || user == nil {
		return "Someone"
	}
	return user.DisplayName
}

// GenerateVAPIDKeys generates a new ECDSA P-256 key pair for VAPID.
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("generate ECDSA key: %w", err)
	}

	pubBytes := elliptic.Marshal(elliptic.P256(), key.PublicKey.X, key.PublicKey.Y)
	publicKey = base64.RawURLEncoding.EncodeToString(pubBytes)
	privateKey = base64.RawURLEncoding.EncodeToString(key.D.Bytes())

	return publicKey, privateKey, nil
}
