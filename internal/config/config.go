package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// Config holds every runtime knob for the API server, parsed from the
// environment at boot.
type Config struct {
	HTTPAddr    string `env:"HTTP_ADDR"    envDefault:":8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	ClientURL   string `env:"CLIENT_URL"   envDefault:"http://localhost:3000"`

	MongoURI      string `env:"MONGO_URI"      envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"student_network"`

	RedisAddr     string `env:"REDIS_ADDR"     envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB"       envDefault:"0"`

	Token TokenConfig
	OTP   OTPConfig
	Login LoginConfig
}

// TokenConfig configures session token issuance.
type TokenConfig struct {
	Secret    string        `env:"TOKEN_SECRET"`
	Issuer    string        `env:"TOKEN_ISSUER"     envDefault:"student-network-api"`
	ExpiresIn time.Duration `env:"TOKEN_EXPIRES_IN" envDefault:"168h"`
}

// OTPConfig configures the one-time-code challenge lifecycle.
type OTPConfig struct {
	ExpiresIn   time.Duration `env:"OTP_EXPIRES_IN"   envDefault:"10m"`
	MaxAttempts int           `env:"OTP_MAX_ATTEMPTS" envDefault:"3"`
}

// LoginConfig configures the failed-login lockout window.
type LoginConfig struct {
	MaxAttempts  int           `env:"LOGIN_MAX_ATTEMPTS"  envDefault:"5"`
	LockDuration time.Duration `env:"LOGIN_LOCK_DURATION" envDefault:"1h"`
}

// New parses the configuration from environment variables. Any parse or
// validation failure is fatal.
func New(logger *zerolog.Logger) *Config {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse environment variables")
	}

	if err := cfg.validate(); err != nil {
		logger.Fatal().Err(err).Msg("failed to validate configuration")
	}

	return &cfg
}

// validate checks the settings that have no safe default.
func (c *Config) validate() error {
	if c.Token.Secret == "" {
		return fmt.Errorf("missing TOKEN_SECRET environment variable")
	}
	if c.OTP.MaxAttempts <= 0 {
		return fmt.Errorf("OTP_MAX_ATTEMPTS must be positive")
	}
	if c.Login.MaxAttempts <= 0 {
		return fmt.Errorf("LOGIN_MAX_ATTEMPTS must be positive")
	}

	return nil
}
