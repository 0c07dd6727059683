package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/campusconnect/student-network-api/internal/payload"
	"github.com/campusconnect/student-network-api/internal/repository"
	"github.com/campusconnect/student-network-api/internal/usecase"
	"github.com/campusconnect/student-network-api/shared/validation"
)

const maxUploadBytes = 5 << 20

// UserHTTPHandler serves profile, search, and privacy routes.
type UserHTTPHandler struct {
	logger      *zerolog.Logger
	validator   *validation.Validator
	userUsecase usecase.UserUsecase
}

// NewUserHTTPHandler creates a new UserHTTPHandler.
func NewUserHTTPHandler(
	logger *zerolog.Logger,
	validator *validation.Validator,
	userUsecase usecase.UserUsecase,
) *UserHTTPHandler {
	return &UserHTTPHandler{
		logger:      logger,
		validator:   validator,
		userUsecase: userUsecase,
	}
}

// RegisterRoutes mounts the authenticated user routes.
func (h *UserHTTPHandler) RegisterRoutes(r chi.Router) {
	r.Get("/me", h.Me)
	r.Put("/me", h.UpdateProfile)
	r.Put("/me/picture", h.UpdateProfilePicture)
	r.Delete("/me", h.DeleteAccount)

	r.Get("/me/privacy", h.GetPrivacy)
	r.Put("/me/privacy", h.UpdatePrivacy)

	r.Get("/search", h.Search)
	r.Get("/filter", h.Filter)
	r.Get("/{userID}", h.GetProfile)
}

func (h *UserHTTPHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	writeJSON(w, h.logger, http.StatusOK, payload.NewUserResponse(user))
}

func (h *UserHTTPHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	viewer := CurrentUser(r.Context())
	targetID := chi.URLParam(r, "userID")

	profile, err := h.userUsecase.GetProfile(r.Context(), targetID, viewer.ID.Hex(), viewer.IsAdmin)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load profile")

		switch {
		case errors.Is(err, usecase.ErrUserNotFound):
			writeError(w, h.logger, http.StatusNotFound, "user not found")
		case errors.Is(err, usecase.ErrProfilePrivate):
			writeError(w, h.logger, http.StatusForbidden, "this profile is private")
		default:
			writeInternalError(w, h.logger)
		}
		return
	}

	writeJSON(w, h.logger, http.StatusOK, payload.ProfileResponse{
		User:        payload.NewUserResponse(profile.User),
		IsConnected: profile.IsConnected,
		IsSelf:      profile.IsSelf,
	})
}

func (h *UserHTTPHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	var req payload.UpdateProfileRequest
	fields, err := decodeJSON(r, h.validator, &req)
	if err != nil {
		writeInvalidBody(w, h.logger)
		return
	}
	if fields != nil {
		writeFieldErrors(w, h.logger, fields)
		return
	}

	updated, err := h.userUsecase.UpdateProfile(r.Context(), user.ID.Hex(), usecase.UpdateProfileParams{
		Name:      req.Name,
		Bio:       req.Bio,
		Phone:     req.Phone,
		LinkedIn:  req.LinkedIn,
		GitHub:    req.GitHub,
		Year:      req.Year,
		Branch:    req.Branch,
		Skills:    req.Skills,
		Interests: req.Interests,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to update profile")
		writeInternalError(w, h.logger)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, payload.NewUserResponse(updated))
}

func (h *UserHTTPHandler) UpdateProfilePicture(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid multipart upload")
		return
	}

	file, header, err := r.FormFile("picture")
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "picture file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, h.logger, http.StatusBadRequest, "picture must be an image")
		return
	}

	updated, err := h.userUsecase.UpdateProfilePicture(r.Context(), user.ID.Hex(), usecase.ProfileUpload{
		Body:        file,
		Filename:    header.Filename,
		ContentType: contentType,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to update profile picture")
		writeInternalError(w, h.logger)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, payload.NewUserResponse(updated))
}

func (h *UserHTTPHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	if err := h.userUsecase.DeleteAccount(r.Context(), user.ID.Hex()); err != nil {
		h.logger.Error().Err(err).Msg("failed to delete account")
		writeInternalError(w, h.logger)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	writeJSON(w, h.logger, http.StatusOK, payload.MessageResponse{Message: "account deleted"})
}

func (h *UserHTTPHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, h.logger, http.StatusBadRequest, "query parameter q is required")
		return
	}

	page, limit := pageParams(r)

	users, total, err := h.userUsecase.Search(r.Context(), query, page, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to search users")
		writeInternalError(w, h.logger)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, payload.UserListResponse{
		Users:      payload.NewUserSummaryResponses(users),
		Pagination: payload.Pagination{Page: page, Limit: limit, Total: total},
	})
}

func (h *UserHTTPHandler) Filter(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	params := repository.FilterUsersParams{
		Year:   queryString(r, "year"),
		Branch: queryString(r, "branch"),
	}
	if skills := r.URL.Query().Get("skills"); skills != "" {
		params.Skills = splitCSV(skills)
	}
	if interests := r.URL.Query().Get("interests"); interests != "" {
		params.Interests = splitCSV(interests)
	}

	users, total, err := h.userUsecase.Filter(r.Context(), params, page, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to filter users")
		writeInternalError(w, h.logger)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, payload.UserListResponse{
		Users:      payload.NewUserSummaryResponses(users),
		Pagination: payload.Pagination{Page: page, Limit: limit, Total: total},
	})
}

func (h *UserHTTPHandler) GetPrivacy(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	settings, err := h.userUsecase.GetPrivacy(r.Context(), user.ID.Hex())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load privacy settings")
		writeInternalError(w, h.logger)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, payload.NewPrivacySettingResponse(settings))
}

func (h *UserHTTPHandler) UpdatePrivacy(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	var req payload.PrivacySettingRequest
	fields, err := decodeJSON(r, h.validator, &req)
	if err != nil {
		writeInvalidBody(w, h.logger)
		return
	}
	if fields != nil {
		writeFieldErrors(w, h.logger, fields)
		return
	}

	settings, err := h.userUsecase.UpdatePrivacy(r.Context(), user.ID.Hex(), repository.UpdatePrivacyParams{
		ProfileVisibility:       req.ProfileVisibility,
		ShowEmail:               req.ShowEmail,
		ShowPhone:               req.ShowPhone,
		ShowConnections:         req.ShowConnections,
		ShowAchievements:        req.ShowAchievements,
		AllowConnectionRequests: req.AllowConnectionRequests,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to update privacy settings")
		writeInternalError(w, h.logger)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, payload.NewPrivacySettingResponse(settings))
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
