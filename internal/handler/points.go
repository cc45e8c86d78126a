package handler

import (
	"log/slog"
	"net/http"

	"github.com/calder/choreboard/internal/auth"
	"github.com/calder/choreboard/internal/model"
	"github.com/calder/choreboard/internal/store"
)

type PointsHandler struct {
	points *store.PointsStore
	logger *slog.Logger
}

func NewPointsHandler(ps *store.PointsStore, logger *slog.Logger) *PointsHandler {
	return &PointsHandler{points: ps, logger: logger}
}

// Mine returns the caller's aggregates in the current household. Members who
// have not completed anything yet get a zeroed row rather than a 404.
func (h *PointsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	p, err := h.points.Get(ac.HouseholdID, ac.UserID)
	if err != nil {
		h.logger.Error("get points", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if p == nil {
		p = &model.UserPoints{UserID: ac.UserID, HouseholdID: ac.HouseholdID}
	}
	writeJSON(w, http.StatusOK, map[string]any{"points": p})
}

// Leaderboard returns the household standings, highest total first.
func (h *PointsHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.points.Leaderboard(auth.HouseholdID(r.Context()))
	if err != nil {
		h.logger.Error("leaderboard", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaderboard": entries})
}
