// Package handler holds the JSON HTTP handlers.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/calder/choreboard/internal/completion"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

// idParam parses the {id} path value.
func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// writeDomainError maps a completion-domain error onto an HTTP status.
func writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch completion.CodeOf(err) {
	case completion.CodeNotFound:
		status = http.StatusNotFound
	case completion.CodeForbidden:
		status = http.StatusForbidden
	case completion.CodeConflict:
		status = http.StatusConflict
	case completion.CodeValidation:
		status = http.StatusBadRequest
	case completion.CodeUpstream:
		status = http.StatusBadGateway
	}
	writeError(w, status, completion.MessageOf(err))
}
