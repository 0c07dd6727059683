package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/campusconnect/student-network-api/internal/payload"
	"github.com/campusconnect/student-network-api/shared/validation"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads and validates a JSON request body into dst. A non-nil
// fields map means validation failed and the caller should reply 400.
func decodeJSON(r *http.Request, validator *validation.Validator, dst any) (map[string]string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return nil, err
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("request body must contain a single JSON object")
	}

	return validator.Struct(dst)
}

func writeJSON(w http.ResponseWriter, logger *zerolog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if body == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error().Err(err).Msg("failed to encode response body")
	}
}

func writeError(w http.ResponseWriter, logger *zerolog.Logger, status int, message string) {
	writeJSON(w, logger, status, payload.ErrorResponse{Error: message})
}

func writeFieldErrors(w http.ResponseWriter, logger *zerolog.Logger, fields map[string]string) {
	writeJSON(w, logger, http.StatusBadRequest, payload.ErrorResponse{
		Error:  "validation failed",
		Fields: fields,
	})
}

func writeInternalError(w http.ResponseWriter, logger *zerolog.Logger) {
	writeError(w, logger, http.StatusInternalServerError, "something went wrong")
}

func writeInvalidBody(w http.ResponseWriter, logger *zerolog.Logger) {
	writeError(w, logger, http.StatusBadRequest, "invalid request body")
}
