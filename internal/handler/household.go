package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/calder/choreboard/internal/auth"
	"github.com/calder/choreboard/internal/model"
	"github.com/calder/choreboard/internal/store"
)

type HouseholdHandler struct {
	households *store.HouseholdStore
	sessions   *store.SessionStore
	points     *store.PointsStore
	users      *store.UserStore
	logger     *slog.Logger
}

func NewHouseholdHandler(hs *store.HouseholdStore, ss *store.SessionStore, ps *store.PointsStore, us *store.UserStore, logger *slog.Logger) *HouseholdHandler {
	return &HouseholdHandler{
		households: hs,
		sessions:   ss,
		points:     ps,
		users:      us,
		logger:     logger,
	}
}

type createHouseholdRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Create makes a new household with the caller as admin and switches the
// session to it.
func (h *HouseholdHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createHouseholdRequest
	if !readJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Household name is required")
		return
	}

	ac, _ := auth.FromContext(r.Context())

	hh, err := h.households.Create(req.Name, req.Description, &ac.UserID)
	if err != nil {
		h.logger.Error("create household", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if _, err := h.households.AddMember(hh.ID, ac.UserID, model.RoleAdmin); err != nil {
		h.logger.Error("add creator as admin", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if err := h.points.EnsureRow(hh.ID, ac.UserID); err != nil {
		h.logger.Error("ensure points row", "error", err)
	}
	if err := h.sessions.UpdateHouseholdID(ac.SessionID, hh.ID); err != nil {
		h.logger.Error("switch session household", "error", err)
	}

	writeJSON(w, http.StatusCreated, map[string]any{"household": hh})
}

type joinHouseholdRequest struct {
	InviteCode string `json:"invite_code"`
}

// Join adds the caller to the household matching the invite code.
func (h *HouseholdHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req joinHouseholdRequest
	if !readJSON(w, r, &req) {
		return
	}
	code := strings.ToUpper(strings.TrimSpace(req.InviteCode))
	if code == "" {
		writeError(w, http.StatusBadRequest, "Invite code is required")
		return
	}

	hh, err := h.households.GetByInviteCode(code)
	if err != nil {
		h.logger.Error("lookup invite code", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if hh == nil {
		writeError(w, http.StatusNotFound, "Invalid invite code")
		return
	}

	ac, _ := auth.FromContext(r.Context())

	existing, err := h.households.GetMember(hh.ID, ac.UserID)
	if err != nil {
		h.logger.Error("check membership", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "You are already a member of this household")
		return
	}

	if _, err := h.households.AddMember(hh.ID, ac.UserID, model.RoleMember); err != nil {
		h.logger.Error("add member", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if err := h.points.EnsureRow(hh.ID, ac.UserID); err != nil {
		h.logger.Error("ensure points row", "error", err)
	}
	if err := h.sessions.UpdateHouseholdID(ac.SessionID, hh.ID); err != nil {
		h.logger.Error("switch session household", "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]any{"household": hh})
}

// Get returns the caller's current household.
func (h *HouseholdHandler) Get(w http.ResponseWriter, r *http.Request) {
	hh, err := h.households.GetByID(auth.HouseholdID(r.Context()))
	if err != nil || hh == nil {
		writeError(w, http.StatusNotFound, "Household not found")
		return
	}
	// Only admins see the invite code.
	if !auth.IsAdmin(r.Context()) {
		hh.InviteCode = ""
	}
	writeJSON(w, http.StatusOK, map[string]any{"household": hh})
}

type memberView struct {
	model.HouseholdMember
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// Members lists the household's members with their profiles.
func (h *HouseholdHandler) Members(w http.ResponseWriter, r *http.Request) {
	members, err := h.households.ListMembers(auth.HouseholdID(r.Context()))
	if err != nil {
		h.logger.Error("list members", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	views := make([]memberView, 0, len(members))
	for _, m := range members {
		v := memberView{HouseholdMember: m}
		if user, err := h.users.GetByID(m.UserID); err == nil && user != nil {
			v.DisplayName = user.DisplayName
			v.Email = user.Email
		}
		views = append(views, v)
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": views})
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

// UpdateMemberRole promotes or demotes a member. Admin only.
func (h *HouseholdHandler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	var req updateRoleRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Role != model.RoleAdmin && req.Role != model.RoleMember {
		writeError(w, http.StatusBadRequest, "Role must be admin or member")
		return
	}

	ac, _ := auth.FromContext(r.Context())
	if userID == ac.UserID {
		writeError(w, http.StatusBadRequest, "You cannot change your own role")
		return
	}

	existing, err := h.households.GetMember(ac.HouseholdID, userID)
	if err != nil {
		h.logger.Error("get member", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Member not found")
		return
	}

	m, err := h.households.UpdateMemberRole(ac.HouseholdID, userID, req.Role)
	if err != nil {
		h.logger.Error("update role", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"member": m})
}

// RemoveMember kicks a member out. Admin only.
func (h *HouseholdHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	ac, _ := auth.FromContext(r.Context())
	if userID == ac.UserID {
		writeError(w, http.StatusBadRequest, "You cannot remove yourself")
		return
	}

	if err := h.households.RemoveMember(ac.HouseholdID, userID); err != nil {
		h.logger.Error("remove member", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RegenerateInviteCode rotates the invite code. Admin only.
func (h *HouseholdHandler) RegenerateInviteCode(w http.ResponseWriter, r *http.Request) {
	hh, err := h.households.RegenerateInviteCode(auth.HouseholdID(r.Context()))
	if err != nil {
		h.logger.Error("regenerate invite code", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"household": hh})
}
