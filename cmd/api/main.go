package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/campusconnect/student-network-api/internal/config"
	"github.com/campusconnect/student-network-api/internal/handler"
	"github.com/campusconnect/student-network-api/internal/repository"
	"github.com/campusconnect/student-network-api/internal/server"
	"github.com/campusconnect/student-network-api/internal/usecase"
	"github.com/campusconnect/student-network-api/shared/auth"
	"github.com/campusconnect/student-network-api/shared/mailer"
	"github.com/campusconnect/student-network-api/shared/ratelimit"
	"github.com/campusconnect/student-network-api/shared/storage"
	"github.com/campusconnect/student-network-api/shared/validation"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg := config.New(&logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.Error().Err(err).Msg("failed to disconnect from mongodb")
		}
	}()

	if err := mongoClient.Ping(ctx, nil); err != nil {
		logger.Fatal().Err(err).Msg("failed to ping mongodb")
	}

	db := mongoClient.Database(cfg.MongoDatabase)

	rds := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rds.Close()

	if err := rds.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("failed to ping redis")
	}

	validator, err := validation.New()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize validator")
	}

	jwtAuth := auth.NewJWTAuthenticator(cfg.Token.Secret, cfg.Token.Issuer)
	mail := mailer.NewMailer(&logger)
	store := storage.NewS3ObjectStore(ctx, &logger)

	userRepo := repository.NewUserMongoRepository(ctx, &logger, db)
	connRepo := repository.NewConnectionMongoRepository(ctx, &logger, db)
	privacyRepo := repository.NewPrivacySettingMongoRepository(ctx, &logger, db)
	notifRepo := repository.NewNotificationMongoRepository(ctx, &logger, db)
	achievementRepo := repository.NewAchievementMongoRepository(ctx, &logger, db)

	otpManager := usecase.NewOTPManager(userRepo, cfg.OTP)
	authUsecase := usecase.NewAuthUsecase(userRepo, otpManager, jwtAuth, mail, cfg)
	userUsecase := usecase.NewUserUsecase(userRepo, connRepo, privacyRepo, store)
	connUsecase := usecase.NewConnectionUsecase(connRepo, userRepo, privacyRepo, notifRepo)
	achievementUsecase := usecase.NewAchievementUsecase(achievementRepo, userRepo, notifRepo, store)
	notifUsecase := usecase.NewNotificationUsecase(notifRepo)

	authLimiter := ratelimit.NewLimiter(rds, "auth", 5, 15*time.Minute)
	otpLimiter := ratelimit.NewLimiter(rds, "otp", 3, time.Hour)

	srv := server.New(cfg, &logger, server.Handlers{
		Auth:         handler.NewAuthHTTPHandler(&logger, validator, authUsecase, cfg),
		User:         handler.NewUserHTTPHandler(&logger, validator, userUsecase),
		Connection:   handler.NewConnectionHTTPHandler(&logger, validator, connUsecase),
		Achievement:  handler.NewAchievementHTTPHandler(&logger, validator, achievementUsecase),
		Notification: handler.NewNotificationHTTPHandler(&logger, notifUsecase),

		AuthMiddleware: handler.NewAuthMiddleware(&logger, jwtAuth, userRepo),
		AuthRateLimit:  handler.RateLimit(&logger, authLimiter),
		OTPRateLimit:   handler.RateLimit(&logger, otpLimiter),
	})

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-shutdownCtx.Done()

		drainCtx, drainCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer drainCancel()

		if err := srv.Shutdown(drainCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shut down http server cleanly")
		}
	}()

	if err := srv.Start(); err != nil {
		logger.Fatal().Err(err).Msg("http server failed")
	}
}
