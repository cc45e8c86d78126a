package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/calder/choreboard/internal/auth"
	"github.com/calder/choreboard/internal/middleware"
	"github.com/calder/choreboard/internal/model"
	"github.com/calder/choreboard/internal/store"
)

const minPasswordLength = 8

type AuthHandler struct {
	users      *store.UserStore
	households *store.HouseholdStore
	sessions   *store.SessionStore
	secure     bool
	logger     *slog.Logger
}

func NewAuthHandler(us *store.UserStore, hs *store.HouseholdStore, ss *store.SessionStore, secureCookies bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:      us,
		households: hs,
		sessions:   ss,
		secure:     secureCookies,
		logger:     logger,
	}
}

type registerRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

// Register creates an account and signs the user in. Joining or creating a
// household happens afterwards through the household endpoints.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !readJSON(w, r, &req) {
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "A valid email is required")
		return
	}
	if req.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "Display name is required")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	existing, err := h.users.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("register lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "An account with this email already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	user, err := h.users.Create(req.Email, req.DisplayName, string(hash))
	if err != nil {
		h.logger.Error("create user", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	sess, err := h.sessions.Create(user.ID, 0)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	h.setSessionCookie(w, sess)
	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !readJSON(w, r, &req) {
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := h.users.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	// Same response for unknown email and wrong password.
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	// Resume the user's household if they have one.
	var householdID int64
	households, err := h.households.ListHouseholdsForUser(user.ID)
	if err != nil {
		h.logger.Error("login households", "error", err)
	} else if len(households) > 0 {
		householdID = households[0].ID
	}

	sess, err := h.sessions.Create(user.ID, householdID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	h.setSessionCookie(w, sess)
	writeJSON(w, http.StatusOK, map[string]any{"user": user, "household_id": householdID})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if ac, ok := auth.FromContext(r.Context()); ok {
		if err := h.sessions.Delete(ac.SessionID); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated user's profile and household memberships.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	user, err := h.users.GetByID(ac.UserID)
	if err != nil || user == nil {
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	households, err := h.households.ListHouseholdsForUser(ac.UserID)
	if err != nil {
		h.logger.Error("list households", "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":         user,
		"households":   households,
		"household_id": ac.HouseholdID,
		"role":         ac.Role,
	})
}

type updateProfileRequest struct {
	DisplayName string `json:"display_name"`
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if !readJSON(w, r, &req) {
		return
	}
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if req.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "Display name is required")
		return
	}

	user, err := h.users.UpdateProfile(auth.UserID(r.Context()), req.DisplayName)
	if err != nil {
		h.logger.Error("update profile", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, sess *model.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(time.Until(sess.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
