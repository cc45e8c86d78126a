package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/calder/choreboard/internal/auth"
	"github.com/calder/choreboard/internal/model"
	"github.com/calder/choreboard/internal/notify"
	"github.com/calder/choreboard/internal/store"
	"github.com/calder/choreboard/internal/websocket"
)

type AssignmentHandler struct {
	assignments *store.AssignmentStore
	tasks       *store.TaskStore
	households  *store.HouseholdStore
	notifier    *notify.Service
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewAssignmentHandler(as *store.AssignmentStore, ts *store.TaskStore, hs *store.HouseholdStore, n *notify.Service, hub *websocket.Hub, logger *slog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		assignments: as,
		tasks:       ts,
		households:  hs,
		notifier:    n,
		hub:         hub,
		logger:      logger,
	}
}

type createAssignmentRequest struct {
	TaskID     int64      `json:"task_id"`
	AssignedTo int64      `json:"assigned_to"`
	DueDate    *time.Time `json:"due_date"`
}

// Create assigns a task to a member with an optional due date. Admin only.
func (h *AssignmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAssignmentRequest
	if !readJSON(w, r, &req) {
		return
	}

	ac, _ := auth.FromContext(r.Context())

	task, err := h.tasks.GetByID(req.TaskID)
	if err != nil {
		h.logger.Error("get task", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if task == nil || task.HouseholdID != ac.HouseholdID {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	if !task.Active {
		writeError(w, http.StatusBadRequest, "Task is deactivated")
		return
	}

	member, err := h.households.GetMember(ac.HouseholdID, req.AssignedTo)
	if err != nil {
		h.logger.Error("get member", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if member == nil {
		writeError(w, http.StatusBadRequest, "Assignee is not a member of this household")
		return
	}

	a, err := h.assignments.Create(req.TaskID, req.AssignedTo, req.DueDate, &ac.UserID)
	if err != nil {
		h.logger.Error("create assignment", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	if req.AssignedTo != ac.UserID {
		h.notifier.TaskAssigned(r.Context(), task, a)
	}
	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("assignment", "created", a.ID, map[string]any{
		"assigned_to": a.AssignedTo,
	}))
	writeJSON(w, http.StatusCreated, map[string]any{"assignment": a})
}

// ListMine returns the caller's assignments.
func (h *AssignmentHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	assignments, err := h.assignments.ListByAssignee(ac.HouseholdID, ac.UserID)
	if err != nil {
		h.logger.Error("list my assignments", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"assignments": assignments})
}

// List returns every assignment in the household.
func (h *AssignmentHandler) List(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.assignments.ListByHousehold(auth.HouseholdID(r.Context()))
	if err != nil {
		h.logger.Error("list assignments", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"assignments": assignments})
}

type assignmentStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus lets the assignee move their assignment between pending and
// in_progress. Completion goes through the complete endpoint.
func (h *AssignmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid assignment id")
		return
	}
	var req assignmentStatusRequest
	if !readJSON(w, r, &req) {
		return
	}
	status := model.AssignmentStatus(req.Status)
	if status != model.AssignmentPending && status != model.AssignmentInProgress {
		writeError(w, http.StatusBadRequest, "Status must be pending or in_progress")
		return
	}

	ac, _ := auth.FromContext(r.Context())
	a, err := h.assignments.GetByID(id)
	if err != nil {
		h.logger.Error("get assignment", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "Assignment not found")
		return
	}
	task, err := h.tasks.GetByID(a.TaskID)
	if err != nil || task == nil || task.HouseholdID != ac.HouseholdID {
		writeError(w, http.StatusNotFound, "Assignment not found")
		return
	}
	if a.AssignedTo != ac.UserID {
		writeError(w, http.StatusForbidden, "You are not assigned to this task")
		return
	}

	if err := h.assignments.UpdateStatus(id, status); err != nil {
		if errors.Is(err, store.ErrAssignmentCompleted) {
			writeError(w, http.StatusConflict, "Task is already completed")
			return
		}
		h.logger.Error("update assignment status", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("assignment", "updated", id, map[string]any{
		"status": status,
	}))
	w.WriteHeader(http.StatusNoContent)
}

// Delete removes an assignment. Admin only.
func (h *AssignmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid assignment id")
		return
	}

	ac, _ := auth.FromContext(r.Context())
	a, err := h.assignments.GetByID(id)
	if err != nil {
		h.logger.Error("get assignment", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "Assignment not found")
		return
	}
	task, err := h.tasks.GetByID(a.TaskID)
	if err != nil || task == nil || task.HouseholdID != ac.HouseholdID {
		writeError(w, http.StatusNotFound, "Assignment not found")
		return
	}

	if err := h.assignments.Delete(id); err != nil {
		h.logger.Error("delete assignment", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("assignment", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
