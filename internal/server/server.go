// Package server wires the stores, services, and handlers into one HTTP surface.
package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/calder/choreboard/internal/completion"
	"github.com/calder/choreboard/internal/handler"
	"github.com/calder/choreboard/internal/middleware"
	"github.com/calder/choreboard/internal/notify"
	"github.com/calder/choreboard/internal/photo"
	"github.com/calder/choreboard/internal/store"
	ws "github.com/calder/choreboard/internal/websocket"
)

// Config carries the deployment settings the server needs beyond the database.
type Config struct {
	SecureCookies bool
	Photo         photo.Config
	Push          notify.Config
}

type Server struct {
	db             *sql.DB
	hub            *ws.Hub
	authH          *handler.AuthHandler
	householdH     *handler.HouseholdHandler
	taskH          *handler.TaskHandler
	assignmentH    *handler.AssignmentHandler
	completionH    *handler.CompletionHandler
	pointsH        *handler.PointsHandler
	notificationH  *handler.NotificationHandler
	sessionStore   *store.SessionStore
	householdStore *store.HouseholdStore
	rateLimiter    *middleware.RateLimiter
	logger         *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	householdStore := store.NewHouseholdStore(db)
	sessionStore := store.NewSessionStore(db)
	taskStore := store.NewTaskStore(db)
	assignmentStore := store.NewAssignmentStore(db)
	completionStore := store.NewCompletionStore(db)
	pointsStore := store.NewPointsStore(db)
	notificationStore := store.NewNotificationStore(db)
	pushStore := store.NewPushStore(db)

	uploader := photo.NewUploader(cfg.Photo, logger.With("component", "photo"))
	notifier := notify.NewService(notificationStore, userStore, pushStore, cfg.Push, logger.With("component", "notify"))

	completionSvc := completion.NewService(
		taskStore,
		assignmentStore,
		completionStore,
		pointsStore,
		uploader,
		notifier,
		logger.With("component", "completion"),
	)

	return &Server{
		db:             db,
		hub:            hub,
		authH:          handler.NewAuthHandler(userStore, householdStore, sessionStore, cfg.SecureCookies, logger.With("component", "auth")),
		householdH:     handler.NewHouseholdHandler(householdStore, sessionStore, pointsStore, userStore, logger.With("component", "household")),
		taskH:          handler.NewTaskHandler(taskStore, hub, logger.With("component", "task")),
		assignmentH:    handler.NewAssignmentHandler(assignmentStore, taskStore, householdStore, notifier, hub, logger.With("component", "assignment")),
		completionH:    handler.NewCompletionHandler(completionSvc, hub, logger.With("component", "completion_handler")),
		pointsH:        handler.NewPointsHandler(pointsStore, logger.With("component", "points")),
		notificationH:  handler.NewNotificationHandler(notificationStore, pushStore, notifier, logger.With("component", "notification")),
		sessionStore:   sessionStore,
		householdStore: householdStore,
		rateLimiter:    middleware.NewRateLimiter(),
		logger:         logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.HandleFunc("POST /api/auth/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/auth/login", s.rateLimitedHandler(s.authH.Login))

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.householdStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Routes that work before joining a household
	mux.HandleFunc("POST /api/auth/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/auth/me", s.authH.Me)
	mux.HandleFunc("PUT /api/auth/profile", s.authH.UpdateProfile)
	mux.HandleFunc("POST /api/households", s.householdH.Create)
	mux.HandleFunc("POST /api/households/join", s.householdH.Join)

	// Everything below needs household scope
	household := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireHousehold(h)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireHousehold(middleware.RequireAdmin(h))
	}

	// Household API routes
	mux.Handle("GET /api/household", household(s.householdH.Get))
	mux.Handle("GET /api/household/members", household(s.householdH.Members))
	mux.Handle("PUT /api/household/members/{id}/role", admin(s.householdH.UpdateMemberRole))
	mux.Handle("DELETE /api/household/members/{id}", admin(s.householdH.RemoveMember))
	mux.Handle("POST /api/household/invite-code", admin(s.householdH.RegenerateInviteCode))

	// Task API routes
	mux.Handle("POST /api/tasks", admin(s.taskH.Create))
	mux.Handle("GET /api/tasks", household(s.taskH.List))
	mux.Handle("GET /api/tasks/{id}", household(s.taskH.Get))
	mux.Handle("PUT /api/tasks/{id}", admin(s.taskH.Update))
	mux.Handle("PUT /api/tasks/{id}/active", admin(s.taskH.SetActive))
	mux.Handle("GET /api/task-categories", household(s.taskH.Categories))

	// Assignment API routes
	mux.Handle("POST /api/assignments", admin(s.assignmentH.Create))
	mux.Handle("GET /api/assignments", household(s.assignmentH.List))
	mux.Handle("GET /api/assignments/mine", household(s.assignmentH.ListMine))
	mux.Handle("PUT /api/assignments/{id}/status", household(s.assignmentH.UpdateStatus))
	mux.Handle("DELETE /api/assignments/{id}", admin(s.assignmentH.Delete))

	// Completion API routes
	mux.Handle("POST /api/assignments/{id}/complete", household(s.completionH.Complete))
	mux.Handle("GET /api/completions/pending", admin(s.completionH.Pending))
	mux.Handle("POST /api/completions/{id}/approve", admin(s.completionH.Approve))
	mux.Handle("POST /api/completions/{id}/reject", admin(s.completionH.Reject))

	// Points API routes
	mux.Handle("GET /api/points/mine", household(s.pointsH.Mine))
	mux.Handle("GET /api/leaderboard", household(s.pointsH.Leaderboard))

	// Notification API routes
	mux.Handle("GET /api/notifications", household(s.notificationH.List))
	mux.Handle("POST /api/notifications/{id}/read", household(s.notificationH.MarkRead))
	mux.Handle("GET /api/push/vapid-key", household(s.notificationH.VAPIDKey))
	mux.Handle("POST /api/push/subscribe", household(s.notificationH.Subscribe))
	mux.Handle("POST /api/push/unsubscribe", household(s.notificationH.Unsubscribe))

	// Real-time refresh
	mux.Handle("GET /ws", household(ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket"))))
}
