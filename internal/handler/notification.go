package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/calder/choreboard/internal/auth"
	"github.com/calder/choreboard/internal/notify"
	"github.com/calder/choreboard/internal/store"
)

type NotificationHandler struct {
	notifications *store.NotificationStore
	subs          *store.PushStore
	push          *notify.Service
	logger        *slog.Logger
}

func NewNotificationHandler(ns *store.NotificationStore, subs *store.PushStore, push *notify.Service, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		notifications: ns,
		subs:          subs,
		push:          push,
		logger:        logger,
	}
}

// List returns the caller's recent notifications. ?limit=N caps the count.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	notifications, err := h.notifications.ListForUser(ac.UserID, ac.HouseholdID, limit)
	if err != nil {
		h.logger.Error("list notifications", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	unread, err := h.notifications.CountUnread(ac.UserID, ac.HouseholdID)
	if err != nil {
		h.logger.Error("count unread", "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": notifications,
		"unread":        unread,
	})
}

// MarkRead marks one of the caller's notifications as read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid notification id")
		return
	}

	if err := h.notifications.MarkRead(id, auth.UserID(r.Context())); err != nil {
		h.logger.Error("mark read", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// VAPIDKey returns the server's public key so clients can subscribe.
func (h *NotificationHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	key := h.push.VAPIDPublicKey()
	if key == "" {
		writeError(w, http.StatusNotFound, "Push notifications are not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"public_key": key})
}

type subscribeRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

// Subscribe stores a browser push subscription for the caller.
func (h *NotificationHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Endpoint == "" || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		writeError(w, http.StatusBadRequest, "endpoint and keys are required")
		return
	}

	sub, err := h.subs.Create(auth.UserID(r.Context()), req.Endpoint, req.Keys.P256dh, req.Keys.Auth)
	if err != nil {
		h.logger.Error("create subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"subscription": sub})
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

// Unsubscribe removes a push subscription by endpoint.
func (h *NotificationHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req unsubscribeRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Endpoint == "" {
		writeError(w, http.StatusBadRequest, "endpoint is required")
		return
	}

	if err := h.subs.DeleteByEndpoint(req.Endpoint); err != nil {
		h.logger.Error("delete subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
