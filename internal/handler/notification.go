package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/campusconnect/student-network-api/internal/payload"
	"github.com/campusconnect/student-network-api/internal/usecase"
)

// NotificationHTTPHandler serves the notification feed routes.
type NotificationHTTPHandler struct {
	logger       *zerolog.Logger
	notifUsecase usecase.NotificationUsecase
}

// NewNotificationHTTPHandler creates a new NotificationHTTPHandler.
func NewNotificationHTTPHandler(
	logger *zerolog.Logger,
	notifUsecase usecase.NotificationUsecase,
) *NotificationHTTPHandler {
	return &NotificationHTTPHandler{
		logger:       logger,
		notifUsecase: notifUsecase,
	}
}

// RegisterRoutes mounts the authenticated notification routes.
func (h *NotificationHTTPHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Put("/{notificationID}/read", h.MarkRead)
	r.Put("/read-all", h.MarkAllRead)
}

func (h *NotificationHTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	page, limit := pageParams(r)
	unreadOnly := r.URL.Query().Get("unread") == "true"

	notifications, total, unread, err := h.notifUsecase.List(r.Context(), user.ID.Hex(), unreadOnly, page, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list notifications")
		writeInternalError(w, h.logger)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, payload.NotificationListResponse{
		Notifications: payload.NewNotificationResponses(notifications),
		UnreadCount:   unread,
		Pagination:    payload.Pagination{Page: page, Limit: limit, Total: total},
	})
}

func (h *NotificationHTTPHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	notificationID := chi.URLParam(r, "notificationID")

	if err := h.notifUsecase.MarkRead(r.Context(), notificationID, user.ID.Hex()); err != nil {
		h.logger.Error().Err(err).Msg("failed to mark notification read")

		if errors.Is(err, usecase.ErrNotificationNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "notification not found")
			return
		}
		writeInternalError(w, h.logger)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, payload.MessageResponse{Message: "notification marked read"})
}

func (h *NotificationHTTPHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	updated, err := h.notifUsecase.MarkAllRead(r.Context(), user.ID.Hex())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to mark notifications read")
		writeInternalError(w, h.logger)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, payload.MarkAllReadResponse{Updated: updated})
}
