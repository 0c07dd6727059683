package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/campusconnect/student-network-api/internal/model"
	"github.com/campusconnect/student-network-api/internal/repository"
	"github.com/campusconnect/student-network-api/shared/auth"
	"github.com/campusconnect/student-network-api/shared/ratelimit"
)

// SessionCookieName is the HTTP-only cookie carrying the session token.
const SessionCookieName = "token"

type contextKey string

const userContextKey contextKey = "currentUser"

// CurrentUser returns the authenticated account stored by Authenticate,
// or nil outside an authenticated request.
func CurrentUser(ctx context.Context) *model.User {
	user, _ := ctx.Value(userContextKey).(*model.User)
	return user
}

// AuthMiddleware authenticates requests from the session cookie or a
// bearer token and loads the account behind it.
type AuthMiddleware struct {
	logger   *zerolog.Logger
	jwtAuth  auth.JWTAuthenticator
	userRepo repository.UserRepository
}

// NewAuthMiddleware creates a new AuthMiddleware.
func NewAuthMiddleware(
	logger *zerolog.Logger,
	jwtAuth auth.JWTAuthenticator,
	userRepo repository.UserRepository,
) *AuthMiddleware {
	return &AuthMiddleware{
		logger:   logger,
		jwtAuth:  jwtAuth,
		userRepo: userRepo,
	}
}

// Authenticate rejects requests without a valid session token and
// requests whose account is no longer active or was never verified. The
// loaded account rides the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			writeError(w, m.logger, http.StatusUnauthorized, "authentication required")
			return
		}

		claims, err := m.jwtAuth.ValidateSessionToken(token)
		if err != nil {
			writeError(w, m.logger, http.StatusUnauthorized, "invalid or expired session")
			return
		}

		user, err := m.userRepo.GetUser(r.Context(), claims.UserID, repository.ActiveOnly)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				writeError(w, m.logger, http.StatusUnauthorized, "account no longer active")
				return
			}
			m.logger.Error().Err(err).Msg("failed to load authenticated user")
			writeInternalError(w, m.logger)
			return
		}

		if !user.Verified {
			writeError(w, m.logger, http.StatusForbidden, "account not verified")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin allows only administrator accounts through. Must run after
// Authenticate.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r.Context())
		if user == nil || !user.IsAdmin {
			writeError(w, m.logger, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	if token, found := strings.CutPrefix(header, "Bearer "); found {
		return token
	}

	return ""
}

// RateLimit gates a route group behind a fixed-window counter keyed by
// client IP. The limiter failing open keeps auth available when the
// counter store is down.
func RateLimit(logger *zerolog.Logger, limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := limiter.Allow(r.Context(), clientIP(r))
			if err != nil {
				logger.Error().Err(err).Msg("rate limiter unavailable")
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				writeError(w, logger, http.StatusTooManyRequests, "too many requests, try again later")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if ip, _, found := strings.Cut(forwarded, ","); found {
			return strings.TrimSpace(ip)
		}
		return strings.TrimSpace(forwarded)
	}

	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return host
}
