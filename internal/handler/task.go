package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/calder/choreboard/internal/auth"
	"github.com/calder/choreboard/internal/store"
	"github.com/calder/choreboard/internal/websocket"
)

type TaskHandler struct {
	tasks  *store.TaskStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewTaskHandler(ts *store.TaskStore, hub *websocket.Hub, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: ts, hub: hub, logger: logger}
}

type taskRequest struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	CategoryID        *int64 `json:"category_id"`
	Difficulty        string `json:"difficulty"`
	EstimatedDuration int    `json:"estimated_duration"`
	Points            int    `json:"points"`
	RequiresApproval  bool   `json:"requires_approval"`
}

func (req *taskRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "Task name is required"
	}
	if req.Points < 0 {
		return "Points cannot be negative"
	}
	switch req.Difficulty {
	case "", "easy", "medium", "hard":
	default:
		return "Difficulty must be easy, medium, or hard"
	}
	return ""
}

func (req *taskRequest) params() store.TaskParams {
	return store.TaskParams{
		Name:              req.Name,
		Description:       req.Description,
		CategoryID:        req.CategoryID,
		Difficulty:        req.Difficulty,
		EstimatedDuration: req.EstimatedDuration,
		Points:            req.Points,
		RequiresApproval:  req.RequiresApproval,
	}
}

// Create adds a task to the household's catalog. Admin only.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if !readJSON(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	ac, _ := auth.FromContext(r.Context())
	task, err := h.tasks.Create(ac.HouseholdID, req.params(), &ac.UserID)
	if err != nil {
		h.logger.Error("create task", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("task", "created", task.ID, nil))
	writeJSON(w, http.StatusCreated, map[string]any{"task": task})
}

// List returns the household's tasks. ?active=true filters to active ones.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	tasks, err := h.tasks.ListByHousehold(auth.HouseholdID(r.Context()), activeOnly)
	if err != nil {
		h.logger.Error("list tasks", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid task id")
		return
	}

	task, err := h.tasks.GetByID(id)
	if err != nil {
		h.logger.Error("get task", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if task == nil || task.HouseholdID != auth.HouseholdID(r.Context()) {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"task": task})
}

// Update edits a task. Admin only.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid task id")
		return
	}
	var req taskRequest
	if !readJSON(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	ac, _ := auth.FromContext(r.Context())
	existing, err := h.tasks.GetByID(id)
	if err != nil {
		h.logger.Error("get task", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if existing == nil || existing.HouseholdID != ac.HouseholdID {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}

	task, err := h.tasks.Update(id, req.params())
	if err != nil {
		h.logger.Error("update task", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("task", "updated", task.ID, nil))
	writeJSON(w, http.StatusOK, map[string]any{"task": task})
}

type setActiveRequest struct {
	Active bool `json:"is_active"`
}

// SetActive deactivates or reactivates a task without losing its history.
// Admin only.
func (h *TaskHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid task id")
		return
	}
	var req setActiveRequest
	if !readJSON(w, r, &req) {
		return
	}

	ac, _ := auth.FromContext(r.Context())
	existing, err := h.tasks.GetByID(id)
	if err != nil {
		h.logger.Error("get task", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if existing == nil || existing.HouseholdID != ac.HouseholdID {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}

	if err := h.tasks.SetActive(id, req.Active); err != nil {
		h.logger.Error("set task active", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("task", "updated", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.tasks.ListCategories()
	if err != nil {
		h.logger.Error("list categories", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}
