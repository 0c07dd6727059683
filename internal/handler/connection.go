package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/campusconnect/student-network-api/internal/payload"
	"github.com/campusconnect/student-network-api/internal/usecase"
	"github.com/campusconnect/student-network-api/shared/validation"
)

// ConnectionHTTPHandler serves connection graph routes: requests,
// responses, listings, mutuals, and suggestions.
type ConnectionHTTPHandler struct {
	logger      *zerolog.Logger
	validator   *validation.Validator
	connUsecase usecase.ConnectionUsecase
}

// NewConnectionHTTPHandler creates a new ConnectionHTTPHandler.
func NewConnectionHTTPHandler(
	logger *zerolog.Logger,
	validator *validation.Validator,
	connUsecase usecase.ConnectionUsecase,
) *ConnectionHTTPHandler {
	return &ConnectionHTTPHandler{
		logger:      logger,
		validator:   validator,
		connUsecase: connUsecase,
	}
}

// RegisterRoutes mounts the authenticated connection routes.
func (h *ConnectionHTTPHandler) RegisterRoutes(r chi.Router) {
	r.Post("/requests", h.Request)
	r.Put("/requests/{requestID}/accept", h.Accept)
	r.Put("/requests/{requestID}/reject", h.Reject)

	r.Get("/", h.ListAccepted)
	r.Get("/pending", h.ListPending)
	r.Delete("/{connectionID}", h.Remove)

	r.Get("/mutual/{userID}", h.Mutual)
	r.Get("/suggestions", h.Suggestions)
}

func (h *ConnectionHTTPHandler) Request(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	var req payload.ConnectionRequestRequest
	fields, err := decodeJSON(r, h.validator, &req)
	if err != nil {
		writeInvalidBody(w, h.logger)
		return
	}
	if fields != nil {
		writeFieldErrors(w, h.logger, fields)
		return
	}

	conn, err := h.connUsecase.Request(r.Context(), user.ID.Hex(), req.ReceiverID, req.Message)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to send connection request")

		switch {
		case errors.Is(err, usecase.ErrSelfRequest):
			writeError(w, h.logger, http.StatusBadRequest, "cannot send a connection request to yourself")
		case errors.Is(err, usecase.ErrReceiverNotFound):
			writeError(w, h.logger, http.StatusNotFound, "user not found")
		case errors.Is(err, usecase.ErrRequestsDisabled):
			writeError(w, h.logger, http.StatusForbidden, "this user is not accepting connection requests")
		case errors.Is(err, usecase.ErrAlreadyConnected):
			writeError(w, h.logger, http.StatusConflict, "you are already connected with this user")
		case errors.Is(err, usecase.ErrRequestAlreadySent):
			writeError(w, h.logger, http.StatusConflict, "connection request already sent")
		case errors.Is(err, usecase.ErrReversePending):
			writeError(w, h.logger, http.StatusConflict, "this user has already sent you a connection request")
		case errors.Is(err, usecase.ErrPairBlocked):
			writeError(w, h.logger, http.StatusConflict, "cannot send a connection request to this user")
		default:
			writeInternalError(w, h.logger)
		}
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, payload.ConnectionResponse{
		ID:          conn.ID.Hex(),
		SenderID:    conn.SenderID.Hex(),
		ReceiverID:  conn.ReceiverID.Hex(),
		Status:      conn.Status,
		Message:     conn.Message,
		RequestedAt: conn.RequestedAt,
	})
}

func (h *ConnectionHTTPHandler) Accept(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	requestID := chi.URLParam(r, "requestID")

	conn, err := h.connUsecase.Accept(r.Context(), requestID, user.ID.Hex())
	if err != nil {
		h.writeResponseError(w, err, "failed to accept connection request")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, payload.ConnectionResponse{
		ID:          conn.ID.Hex(),
		SenderID:    conn.SenderID.Hex(),
		ReceiverID:  conn.ReceiverID.Hex(),
		Status:      conn.Status,
		Message:     conn.Message,
		RequestedAt: conn.RequestedAt,
	})
}

func (h *ConnectionHTTPHandler) Reject(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	requestID := chi.URLParam(r, "requestID")

	if err := h.connUsecase.Reject(r.Context(), requestID, user.ID.Hex()); err != nil {
		h.writeResponseError(w, err, "failed to reject connection request")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, payload.MessageResponse{Message: "connection request rejected"})
}

// writeResponseError maps the accept/reject failure modes.
func (h *ConnectionHTTPHandler) writeResponseError(w http.ResponseWriter, err error, logMsg string) {
	h.logger.Error().Err(err).Msg(logMsg)

	switch {
	case errors.Is(err, usecase.ErrConnectionNotFound):
		writeError(w, h.logger, http.StatusNotFound, "connection request not found")
	case errors.Is(err, usecase.ErrNotRecipient):
		writeError(w, h.logger, http.StatusForbidden, "only the recipient can respond to this request")
	case errors.Is(err, usecase.ErrNotPending):
		writeError(w, h.logger, http.StatusConflict, "connection request is no longer pending")
	default:
		writeInternalError(w, h.logger)
	}
}

func (h *ConnectionHTTPHandler) Remove(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	connectionID := chi.URLParam(r, "connectionID")

	if err := h.connUsecase.Remove(r.Context(), connectionID, user.ID.Hex()); err != nil {
		h.logger.Error().Err(err).Msg("failed to remove connection")

		switch {
		case errors.Is(err, usecase.ErrConnectionNotFound):
			writeError(w, h.logger, http.StatusNotFound, "connection not found")
		case errors.Is(err, usecase.ErrNotParticipant):
			writeError(w, h.logger, http.StatusForbidden, "not a participant of this connection")
		case errors.Is(err, usecase.ErrNotAccepted):
			writeError(w, h.logger, http.StatusConflict, "only accepted connections can be removed")
		default:
			writeInternalError(w, h.logger)
		}
		return
	}

	writeJSON(w, h.logger, http.StatusOK, payload.MessageResponse{Message: "connection removed"})
}

func (h *ConnectionHTTPHandler) ListAccepted(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	page, limit := pageParams(r)

	entries, total, err := h.connUsecase.ListAccepted(r.Context(), user.ID.Hex(), page, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list connections")
		writeInternalError(w, h.logger)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, payload.ConnectionListResponse{
		Connections: payload.NewConnectionEntryResponses(entries),
		Pagination:  payload.Pagination{Page: page, Limit: limit, Total: total},
	})
}

func (h *ConnectionHTTPHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	page, limit := pageParams(r)

	incoming := r.URL.Query().Get("direction") != "outgoing"

	requests, total, err := h.connUsecase.ListPending(r.Context(), user.ID.Hex(), incoming, page, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list pending requests")
		writeInternalError(w, h.logger)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, payload.PendingListResponse{
		Requests:   payload.NewPendingRequestResponses(requests),
		Pagination: payload.Pagination{Page: page, Limit: limit, Total: total},
	})
}

func (h *ConnectionHTTPHandler) Mutual(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	targetID := chi.URLParam(r, "userID")

	users, err := h.connUsecase.Mutual(r.Context(), user.ID.Hex(), targetID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to compute mutual connections")
		writeInternalError(w, h.logger)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, payload.MutualConnectionsResponse{
		Users: payload.NewUserSummaryResponses(users),
		Count: len(users),
	})
}

func (h *ConnectionHTTPHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	limit := queryInt(r, "limit", 0)

	suggestions, err := h.connUsecase.Suggest(r.Context(), user.ID.Hex(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to compute suggestions")
		writeInternalError(w, h.logger)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, payload.SuggestionListResponse{
		Suggestions: payload.NewSuggestionResponses(suggestions),
	})
}
