package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/campusconnect/student-network-api/internal/config"
	"github.com/campusconnect/student-network-api/internal/handler"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth         *handler.AuthHTTPHandler
	User         *handler.UserHTTPHandler
	Connection   *handler.ConnectionHTTPHandler
	Achievement  *handler.AchievementHTTPHandler
	Notification *handler.NotificationHTTPHandler

	AuthMiddleware *handler.AuthMiddleware
	AuthRateLimit  func(http.Handler) http.Handler
	OTPRateLimit   func(http.Handler) http.Handler
}

// Server is the HTTP front of the API.
type Server struct {
	cfg    *config.Config
	logger *zerolog.Logger
	http   *http.Server
}

// New assembles the router and the HTTP server around it.
func New(cfg *config.Config, logger *zerolog.Logger, handlers Handlers) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(requestLogger(logger))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"up"}`))
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(handlers.AuthRateLimit)
				r.Post("/register", handlers.Auth.Register)
				r.Post("/login", handlers.Auth.Login)
				r.Post("/forgot-password", handlers.Auth.ForgotPassword)
				r.Post("/reset-password", handlers.Auth.ResetPassword)
			})
			r.Group(func(r chi.Router) {
				r.Use(handlers.OTPRateLimit)
				r.Post("/verify-otp", handlers.Auth.VerifyOTP)
				r.Post("/resend-otp", handlers.Auth.ResendOTP)
			})
			r.Post("/logout", handlers.Auth.Logout)
		})

		r.Route("/achievements", func(r chi.Router) {
			handlers.Achievement.RegisterPublicRoutes(r)
			r.With(handlers.AuthMiddleware.Authenticate).
				Post("/{achievementID}/like", handlers.Achievement.ToggleLike)
		})

		r.Group(func(r chi.Router) {
			r.Use(handlers.AuthMiddleware.Authenticate)

			r.Route("/users", handlers.User.RegisterRoutes)
			r.Route("/connections", handlers.Connection.RegisterRoutes)
			r.Route("/notifications", handlers.Notification.RegisterRoutes)

			r.Route("/admin/achievements", func(r chi.Router) {
				r.Use(handlers.AuthMiddleware.RequireAdmin)
				handlers.Achievement.RegisterAdminRoutes(r)
			})
		})
	})

	return &Server{
		cfg:    cfg,
		logger: logger,
		http: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Start blocks serving requests until the listener fails or Shutdown is
// called.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.cfg.HTTPAddr).Msg("starting http server")

	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down http server")
	return s.http.Shutdown(ctx)
}

func requestLogger(logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("request completed")
		})
	}
}
