package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/campusconnect/student-network-api/internal/config"
	"github.com/campusconnect/student-network-api/internal/model"
	"github.com/campusconnect/student-network-api/internal/repository"
)

var (
	ErrOTPExpired          = errors.New("otp has expired")
	ErrOTPAttemptsExceeded = errors.New("maximum otp verification attempts exceeded")
)

// OTPMismatchError reports a wrong code together with the attempts still
// available before the ceiling.
type OTPMismatchError struct {
	AttemptsLeft int
}

func (e *OTPMismatchError) Error() string {
	return fmt.Sprintf("invalid otp, %d attempts left", e.AttemptsLeft)
}

// OTPManager owns the one-time-code challenge lifecycle: issuing, checking,
// expiring, and capping attempts.
type OTPManager struct {
	userRepo repository.UserRepository
	cfg      config.OTPConfig
}

// NewOTPManager creates a new OTPManager.
func NewOTPManager(userRepo repository.UserRepository, cfg config.OTPConfig) *OTPManager {
	return &OTPManager{
		userRepo: userRepo,
		cfg:      cfg,
	}
}

// Issue installs a fresh challenge on the account, invalidating any prior
// code immediately and resetting the attempt counter.
func (m *OTPManager) Issue(ctx context.Context, userID string) (string, error) {
	code, err := generateOTP()
	if err != nil {
		return "", err
	}

	expiry := time.Now().Add(m.cfg.ExpiresIn)
	if err := m.userRepo.SetOTP(ctx, userID, code, expiry); err != nil {
		return "", err
	}

	return code, nil
}

// Check validates a submitted code against the account's outstanding
// challenge. The attempts ceiling is enforced before anything else: once
// reached, even the correct code fails until a new one is issued. Expiry is
// checked before comparison. On success the challenge fields are cleared so
// the code can never be reused; markVerified additionally flips the
// account's verified flag.
func (m *OTPManager) Check(ctx context.Context, user *model.User, submitted string, markVerified bool) error {
	if user.OTPAttempts >= m.cfg.MaxAttempts {
		return ErrOTPAttemptsExceeded
	}

	if user.OTPExpiry.IsZero() || user.OTPExpiry.Before(time.Now()) {
		return ErrOTPExpired
	}

	if user.OTP != submitted {
		attempts, err := m.userRepo.IncrementOTPAttempts(ctx, user.ID.Hex())
		if err != nil {
			return err
		}

		left := m.cfg.MaxAttempts - attempts
		if left < 0 {
			left = 0
		}
		return &OTPMismatchError{AttemptsLeft: left}
	}

	return m.userRepo.ClearOTP(ctx, user.ID.Hex(), markVerified)
}

// generateOTP returns a uniformly random 6-digit numeric code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
