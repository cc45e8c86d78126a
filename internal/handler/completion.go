package handler

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/calder/choreboard/internal/auth"
	"github.com/calder/choreboard/internal/completion"
	"github.com/calder/choreboard/internal/photo"
	"github.com/calder/choreboard/internal/websocket"
)

// maxCompletionBody bounds the multipart body: the photo limit plus headroom
// for the form fields.
const maxCompletionBody = photo.MaxFiles*photo.MaxFileSize + 1<<20

type CompletionHandler struct {
	svc    *completion.Service
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewCompletionHandler(svc *completion.Service, hub *websocket.Hub, logger *slog.Logger) *CompletionHandler {
	return &CompletionHandler{svc: svc, hub: hub, logger: logger}
}

// Complete handles POST /api/assignments/{id}/complete. The body is multipart
// form data: optional time_spent (minutes), notes, and up to five photos[]
// files.
func (h *CompletionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	assignmentID, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid assignment id")
		return
	}

	ev, ok := h.parseEvidence(w, r)
	if !ok {
		return
	}

	ac, _ := auth.FromContext(r.Context())
	res, err := h.svc.CompleteAssignment(r.Context(), ac, assignmentID, ev)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("completion", "created", res.Completion.ID, map[string]any{
		"assignment_id": assignmentID,
		"points":        res.Points,
	}))
	writeJSON(w, http.StatusCreated, res)
}

func (h *CompletionHandler) parseEvidence(w http.ResponseWriter, r *http.Request) (completion.Evidence, bool) {
	var ev completion.Evidence

	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "multipart/form-data") {
		// Plain JSON completions carry no photos.
		if r.ContentLength > 0 {
			var body struct {
				TimeSpent *int   `json:"time_spent"`
				Notes     string `json:"notes"`
			}
			if !readJSON(w, r, &body) {
				return ev, false
			}
			ev.TimeSpentMinutes = body.TimeSpent
			ev.Notes = body.Notes
		}
		return ev, true
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCompletionBody)
	if err := r.ParseMultipartForm(maxCompletionBody); err != nil {
		writeError(w, http.StatusBadRequest, "Could not parse form")
		return ev, false
	}

	if v := r.FormValue("time_spent"); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil || minutes < 0 {
			writeError(w, http.StatusBadRequest, "time_spent must be a non-negative integer")
			return ev, false
		}
		ev.TimeSpentMinutes = &minutes
	}
	ev.Notes = r.FormValue("notes")

	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["photos"] {
			f, err := fh.Open()
			if err != nil {
				h.logger.Error("open uploaded photo", "name", fh.Filename, "error", err)
				continue
			}
			data, err := io.ReadAll(io.LimitReader(f, photo.MaxFileSize+1))
			f.Close()
			if err != nil {
				h.logger.Error("read uploaded photo", "name", fh.Filename, "error", err)
				continue
			}
			ev.Photos = append(ev.Photos, photo.File{
				Name:        fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Data:        data,
			})
		}
	}
	return ev, true
}

// Pending lists the household's completions awaiting review. Admin only.
func (h *CompletionHandler) Pending(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	pending, err := h.svc.PendingReviews(ac)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"completions": pending})
}

type reviewRequest struct {
	Notes string `json:"notes"`
}

// Approve applies a pending completion's stored award. Admin only.
func (h *CompletionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, true)
}

// Reject marks a pending completion rejected. Admin only.
func (h *CompletionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, false)
}

func (h *CompletionHandler) review(w http.ResponseWriter, r *http.Request, approve bool) {
	completionID, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid completion id")
		return
	}
	var req reviewRequest
	if r.ContentLength > 0 && !readJSON(w, r, &req) {
		return
	}

	ac, _ := auth.FromContext(r.Context())

	var err error
	var reviewed any
	if approve {
		reviewed, err = h.svc.Approve(r.Context(), ac, completionID, req.Notes)
	} else {
		reviewed, err = h.svc.Reject(r.Context(), ac, completionID, req.Notes)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}

	action := "approved"
	if !approve {
		action = "rejected"
	}
	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("completion", action, completionID, nil))
	writeJSON(w, http.StatusOK, map[string]any{"completion": reviewed})
}
