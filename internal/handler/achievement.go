package handler

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/campusconnect/student-network-api/internal/payload"
	"github.com/campusconnect/student-network-api/internal/repository"
	"github.com/campusconnect/student-network-api/internal/usecase"
	"github.com/campusconnect/student-network-api/shared/validation"
)

const maxAchievementUploadBytes = 25 << 20

// AchievementHTTPHandler serves the showcase feed and its admin curation
// routes.
type AchievementHTTPHandler struct {
	logger             *zerolog.Logger
	validator          *validation.Validator
	achievementUsecase usecase.AchievementUsecase
}

// NewAchievementHTTPHandler creates a new AchievementHTTPHandler.
func NewAchievementHTTPHandler(
	logger *zerolog.Logger,
	validator *validation.Validator,
	achievementUsecase usecase.AchievementUsecase,
) *AchievementHTTPHandler {
	return &AchievementHTTPHandler{
		logger:             logger,
		validator:          validator,
		achievementUsecase: achievementUsecase,
	}
}

// RegisterPublicRoutes mounts the showcase browse routes. Liking needs a
// session and is mounted by the server; viewing does not.
func (h *AchievementHTTPHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/featured", h.Featured)
	r.Get("/trending", h.Trending)
	r.Get("/{achievementID}", h.Get)
	r.Post("/{achievementID}/view", h.RecordView)
}

// RegisterAdminRoutes mounts the curation routes.
func (h *AchievementHTTPHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Put("/{achievementID}", h.Update)
	r.Delete("/{achievementID}", h.Delete)
	r.Put("/{achievementID}/featured", h.SetFeatured)
}

// Create accepts a multipart form: a JSON document under "data" plus up
// to five files under "images".
func (h *AchievementHTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAchievementUploadBytes)
	if err := r.ParseMultipartForm(maxAchievementUploadBytes); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid multipart upload")
		return
	}

	var req payload.CreateAchievementRequest
	if err := json.Unmarshal([]byte(r.FormValue("data")), &req); err != nil {
		writeInvalidBody(w, h.logger)
		return
	}

	fields, err := h.validator.Struct(&req)
	if err != nil {
		writeInternalError(w, h.logger)
		return
	}
	if fields != nil {
		writeFieldErrors(w, h.logger, fields)
		return
	}

	uploads, closers, err := collectImageUploads(r)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	defer func() {
		for _, closer := range closers {
			closer.Close()
		}
	}()

	created, err := h.achievementUsecase.Create(r.Context(), usecase.CreateAchievementParams{
		StudentID:    req.StudentID,
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Technologies: req.Technologies,
		GitHubLink:   req.GitHubLink,
		LiveLink:     req.LiveLink,
		Images:       uploads,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create achievement")

		switch {
		case errors.Is(err, usecase.ErrStudentNotFound):
			writeError(w, h.logger, http.StatusNotFound, "student not found")
		case errors.Is(err, usecase.ErrTooManyImages):
			writeError(w, h.logger, http.StatusBadRequest, "too many images")
		default:
			writeInternalError(w, h.logger)
		}
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, payload.NewAchievementResponse(created))
}

func collectImageUploads(r *http.Request) ([]usecase.ImageUpload, []multipart.File, error) {
	if r.MultipartForm == nil {
		return nil, nil, nil
	}

	headers := r.MultipartForm.File["images"]

	uploads := make([]usecase.ImageUpload, 0, len(headers))
	closers := make([]multipart.File, 0, len(headers))
	for _, header := range headers {
		contentType := header.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "image/") {
			for _, closer := range closers {
				closer.Close()
			}
			return nil, nil, errors.New("images must be image files")
		}

		file, err := header.Open()
		if err != nil {
			for _, closer := range closers {
				closer.Close()
			}
			return nil, nil, errors.New("could not read uploaded image")
		}

		closers = append(closers, file)
		uploads = append(uploads, usecase.ImageUpload{
			Body:        file,
			Filename:    header.Filename,
			ContentType: contentType,
		})
	}

	return uploads, closers, nil
}

func (h *AchievementHTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	achievementID := chi.URLParam(r, "achievementID")

	var req payload.UpdateAchievementRequest
	fields, err := decodeJSON(r, h.validator, &req)
	if err != nil {
		writeInvalidBody(w, h.logger)
		return
	}
	if fields != nil {
		writeFieldErrors(w, h.logger, fields)
		return
	}

	updated, err := h.achievementUsecase.Update(r.Context(), achievementID, repository.UpdateAchievementParams{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Technologies: req.Technologies,
		GitHubLink:   req.GitHubLink,
		LiveLink:     req.LiveLink,
		Images:       req.Images,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to update achievement")

		switch {
		case errors.Is(err, usecase.ErrAchievementNotFound):
			writeError(w, h.logger, http.StatusNotFound, "achievement not found")
		case errors.Is(err, usecase.ErrTooManyImages):
			writeError(w, h.logger, http.StatusBadRequest, "too many images")
		default:
			writeInternalError(w, h.logger)
		}
		return
	}

	writeJSON(w, h.logger, http.StatusOK, payload.NewAchievementResponse(updated))
}

func (h *AchievementHTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	achievementID := chi.URLParam(r, "achievementID")

	if err := h.achievementUsecase.Delete(r.Context(), achievementID); err != nil {
		h.logger.Error().Err(err).Msg("failed to delete achievement")

		if errors.Is(err, usecase.ErrAchievementNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "achievement not found")
			return
		}
		writeInternalError(w, h.logger)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, payload.MessageResponse{Message: "achievement deleted"})
}

func (h *AchievementHTTPHandler) SetFeatured(w http.ResponseWriter, r *http.Request) {
	achievementID := chi.URLParam(r, "achievementID")

	var req payload.SetFeaturedRequest
	if _, err := decodeJSON(r, h.validator, &req); err != nil {
		writeInvalidBody(w, h.logger)
		return
	}

	updated, err := h.achievementUsecase.SetFeatured(r.Context(), achievementID, req.Featured)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to set featured flag")

		if errors.Is(err, usecase.ErrAchievementNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "achievement not found")
			return
		}
		writeInternalError(w, h.logger)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, payload.NewAchievementResponse(updated))
}

func (h *AchievementHTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	params := repository.ListAchievementsParams{
		Branch:   queryString(r, "branch"),
		Year:     queryString(r, "year"),
		Category: queryString(r, "category"),
		Search:   queryString(r, "q"),
		SortBy:   r.URL.Query().Get("sort"),
		Page:     page,
		Limit:    limit,
	}
	if technologies := r.URL.Query().Get("technologies"); technologies != "" {
		params.Technologies = splitCSV(technologies)
	}

	achievements, total, err := h.achievementUsecase.List(r.Context(), params)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list achievements")
		writeInternalError(w, h.logger)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, payload.AchievementListResponse{
		Achievements: payload.NewAchievementResponses(achievements),
		Pagination:   payload.Pagination{Page: page, Limit: limit, Total: total},
	})
}

func (h *AchievementHTTPHandler) Featured(w http.ResponseWriter, r *http.Request) {
	limit := queryInt64(r, "limit", 0)

	achievements, err := h.achievementUsecase.Featured(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list featured achievements")
		writeInternalError(w, h.logger)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, payload.AchievementListResponse{
		Achievements: payload.NewAchievementResponses(achievements),
	})
}

func (h *AchievementHTTPHandler) Trending(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 0)
	limit := queryInt(r, "limit", 0)

	achievements, err := h.achievementUsecase.Trending(r.Context(), days, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to compute trending achievements")
		writeInternalError(w, h.logger)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, payload.AchievementListResponse{
		Achievements: payload.NewAchievementResponses(achievements),
	})
}

func (h *AchievementHTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	achievementID := chi.URLParam(r, "achievementID")

	// Anonymous viewers get the entry without the liked flag.
	viewerID := ""
	if user := CurrentUser(r.Context()); user != nil {
		viewerID = user.ID.Hex()
	}

	view, err := h.achievementUsecase.Get(r.Context(), achievementID, viewerID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load achievement")

		if errors.Is(err, usecase.ErrAchievementNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "achievement not found")
			return
		}
		writeInternalError(w, h.logger)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, payload.AchievementDetailResponse{
		Achievement:   payload.NewAchievementResponse(view.Achievement),
		LikedByViewer: view.LikedByViewer,
	})
}

func (h *AchievementHTTPHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	achievementID := chi.URLParam(r, "achievementID")

	liked, likeCount, err := h.achievementUsecase.ToggleLike(r.Context(), achievementID, user.ID.Hex())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to toggle like")

		if errors.Is(err, usecase.ErrAchievementNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "achievement not found")
			return
		}
		writeInternalError(w, h.logger)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, payload.LikeResponse{Liked: liked, LikeCount: likeCount})
}

func (h *AchievementHTTPHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	achievementID := chi.URLParam(r, "achievementID")

	views, err := h.achievementUsecase.RecordView(r.Context(), achievementID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to record view")

		if errors.Is(err, usecase.ErrAchievementNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "achievement not found")
			return
		}
		writeInternalError(w, h.logger)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, payload.ViewResponse{Views: views})
}
