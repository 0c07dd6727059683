package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/campusconnect/student-network-api/internal/config"
	"github.com/campusconnect/student-network-api/internal/payload"
	"github.com/campusconnect/student-network-api/internal/usecase"
	"github.com/campusconnect/student-network-api/shared/validation"
)

// AuthHTTPHandler serves registration, verification, and session routes.
type AuthHTTPHandler struct {
	logger      *zerolog.Logger
	validator   *validation.Validator
	authUsecase usecase.AuthUsecase
	cfg         *config.Config
}

// NewAuthHTTPHandler creates a new AuthHTTPHandler.
func NewAuthHTTPHandler(
	logger *zerolog.Logger,
	validator *validation.Validator,
	authUsecase usecase.AuthUsecase,
	cfg *config.Config,
) *AuthHTTPHandler {
	return &AuthHTTPHandler{
		logger:      logger,
		validator:   validator,
		authUsecase: authUsecase,
		cfg:         cfg,
	}
}

func (h *AuthHTTPHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req payload.RegisterRequest
	fields, err := decodeJSON(r, h.validator, &req)
	if err != nil {
		writeInvalidBody(w, h.logger)
		return
	}
	if fields != nil {
		writeFieldErrors(w, h.logger, fields)
		return
	}

	result, err := h.authUsecase.Register(r.Context(), usecase.RegisterParams{
		Name:       req.Name,
		Email:      req.Email,
		RollNumber: req.RollNumber,
		Password:   req.Password,
		Year:       req.Year,
		Branch:     req.Branch,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to register user")

		switch {
		case errors.Is(err, usecase.ErrUserAlreadyExists):
			writeError(w, h.logger, http.StatusConflict, "an account with this email or roll number already exists")
		case errors.Is(err, usecase.ErrEmailDelivery):
			writeError(w, h.logger, http.StatusBadGateway, "could not send verification email, please try again")
		default:
			writeInternalError(w, h.logger)
		}
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, payload.RegisterResponse{
		Message:          "verification code sent",
		Email:            result.Email,
		OTPExpiresInMins: int(result.OTPExpiresIn.Minutes()),
	})
}

func (h *AuthHTTPHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req payload.VerifyOTPRequest
	fields, err := decodeJSON(r, h.validator, &req)
	if err != nil {
		writeInvalidBody(w, h.logger)
		return
	}
	if fields != nil {
		writeFieldErrors(w, h.logger, fields)
		return
	}

	user, token, err := h.authUsecase.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		h.writeOTPError(w, err, "failed to verify account")
		return
	}

	h.setSessionCookie(w, token)
	writeJSON(w, h.logger, http.StatusOK, payload.AuthResponse{
		Token: token,
		User:  payload.NewUserResponse(user),
	})
}

func (h *AuthHTTPHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req payload.ResendOTPRequest
	fields, err := decodeJSON(r, h.validator, &req)
	if err != nil {
		writeInvalidBody(w, h.logger)
		return
	}
	if fields != nil {
		writeFieldErrors(w, h.logger, fields)
		return
	}

	result, err := h.authUsecase.ResendOTP(r.Context(), req.Email)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to resend verification code")

		switch {
		case errors.Is(err, usecase.ErrUserNotFound):
			writeError(w, h.logger, http.StatusNotFound, "no pending registration for this email")
		case errors.Is(err, usecase.ErrAlreadyVerified):
			writeError(w, h.logger, http.StatusConflict, "account is already verified")
		case errors.Is(err, usecase.ErrEmailDelivery):
			writeError(w, h.logger, http.StatusBadGateway, "could not send verification email, please try again")
		default:
			writeInternalError(w, h.logger)
		}
		return
	}

	writeJSON(w, h.logger, http.StatusOK, payload.RegisterResponse{
		Message:          "verification code sent",
		Email:            result.Email,
		OTPExpiresInMins: int(result.OTPExpiresIn.Minutes()),
	})
}

func (h *AuthHTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req payload.LoginRequest
	fields, err := decodeJSON(r, h.validator, &req)
	if err != nil {
		writeInvalidBody(w, h.logger)
		return
	}
	if fields != nil {
		writeFieldErrors(w, h.logger, fields)
		return
	}

	user, token, err := h.authUsecase.Login(r.Context(), req.RollNumber, req.Password)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to log in user")

		switch {
		case errors.Is(err, usecase.ErrInvalidCredentials):
			writeError(w, h.logger, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, usecase.ErrAccountLocked):
			writeError(w, h.logger, http.StatusForbidden, "account temporarily locked, try again later")
		case errors.Is(err, usecase.ErrAccountNotVerified):
			writeError(w, h.logger, http.StatusForbidden, "account not verified")
		case errors.Is(err, usecase.ErrAccountNotActive):
			writeError(w, h.logger, http.StatusForbidden, "account is not active")
		default:
			writeInternalError(w, h.logger)
		}
		return
	}

	h.setSessionCookie(w, token)
	writeJSON(w, h.logger, http.StatusOK, payload.AuthResponse{
		Token: token,
		User:  payload.NewUserResponse(user),
	})
}

func (h *AuthHTTPHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.Environment == "production",
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, h.logger, http.StatusOK, payload.MessageResponse{Message: "logged out"})
}

func (h *AuthHTTPHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req payload.ForgotPasswordRequest
	fields, err := decodeJSON(r, h.validator, &req)
	if err != nil {
		writeInvalidBody(w, h.logger)
		return
	}
	if fields != nil {
		writeFieldErrors(w, h.logger, fields)
		return
	}

	result, err := h.authUsecase.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to start password reset")

		switch {
		case errors.Is(err, usecase.ErrUserNotFound):
			writeError(w, h.logger, http.StatusNotFound, "no account with this email")
		case errors.Is(err, usecase.ErrAccountNotVerified):
			writeError(w, h.logger, http.StatusForbidden, "account not verified")
		case errors.Is(err, usecase.ErrEmailDelivery):
			writeError(w, h.logger, http.StatusBadGateway, "could not send reset email, please try again")
		default:
			writeInternalError(w, h.logger)
		}
		return
	}

	writeJSON(w, h.logger, http.StatusOK, payload.RegisterResponse{
		Message:          "password reset code sent",
		Email:            result.Email,
		OTPExpiresInMins: int(result.OTPExpiresIn.Minutes()),
	})
}

func (h *AuthHTTPHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req payload.ResetPasswordRequest
	fields, err := decodeJSON(r, h.validator, &req)
	if err != nil {
		writeInvalidBody(w, h.logger)
		return
	}
	if fields != nil {
		writeFieldErrors(w, h.logger, fields)
		return
	}

	if err := h.authUsecase.ResetPassword(r.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		h.writeOTPError(w, err, "failed to reset password")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, payload.MessageResponse{Message: "password updated, please log in"})
}

// writeOTPError maps the shared one-time-code failures for both the
// verification and password reset flows.
func (h *AuthHTTPHandler) writeOTPError(w http.ResponseWriter, err error, logMsg string) {
	h.logger.Error().Err(err).Msg(logMsg)

	var mismatch *usecase.OTPMismatchError
	switch {
	case errors.Is(err, usecase.ErrUserNotFound):
		writeError(w, h.logger, http.StatusNotFound, "no account with this email")
	case errors.Is(err, usecase.ErrAlreadyVerified):
		writeError(w, h.logger, http.StatusConflict, "account is already verified")
	case errors.Is(err, usecase.ErrOTPExpired):
		writeError(w, h.logger, http.StatusGone, "code has expired, request a new one")
	case errors.Is(err, usecase.ErrOTPAttemptsExceeded):
		writeError(w, h.logger, http.StatusTooManyRequests, "too many incorrect attempts, request a new code")
	case errors.As(err, &mismatch):
		writeError(w, h.logger, http.StatusUnauthorized, mismatch.Error())
	default:
		writeInternalError(w, h.logger)
	}
}

func (h *AuthHTTPHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.cfg.Token.ExpiresIn),
		HttpOnly: true,
		Secure:   h.cfg.Environment == "production",
		SameSite: http.SameSiteLaxMode,
	})
}
