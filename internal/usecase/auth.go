package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/campusconnect/student-network-api/internal/config"
	"github.com/campusconnect/student-network-api/internal/model"
	"github.com/campusconnect/student-network-api/internal/repository"
	"github.com/campusconnect/student-network-api/shared/auth"
	"github.com/campusconnect/student-network-api/shared/security"
)

var (
	ErrUserAlreadyExists  = errors.New("user already exists with this email or roll number")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account temporarily locked due to multiple failed login attempts")
	ErrAccountNotVerified = errors.New("email is not verified")
	ErrAccountNotActive   = errors.New("account is not active")
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrEmailDelivery      = errors.New("failed to send email")
)

// Mailer is the outbound email transport consumed by the auth flows.
type Mailer interface {
	SendHTML(to []string, subject, htmlBody string) error
}

// AuthUsecase defines the account lifecycle operations: registration with
// OTP verification, login with lockout, and OTP-based password reset.
type AuthUsecase interface {
	Register(ctx context.Context, params RegisterParams) (*RegisterResult, error)
	VerifyOTP(ctx context.Context, email, code string) (*model.User, string, error)
	ResendOTP(ctx context.Context, email string) (*RegisterResult, error)
	Login(ctx context.Context, rollNumber, password string) (*model.User, string, error)
	ForgotPassword(ctx context.Context, email string) (*RegisterResult, error)
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

// RegisterParams defines the parameters for user registration.
type RegisterParams struct {
	Name       string
	Email      string
	RollNumber string
	Password   string
	Year       string
	Branch     string
}

// RegisterResult acknowledges an issued challenge without exposing the code.
type RegisterResult struct {
	Email        string
	OTPExpiresIn time.Duration
}

type authUsecase struct {
	userRepo repository.UserRepository
	otp      *OTPManager
	jwtAuth  auth.JWTAuthenticator
	mailer   Mailer
	cfg      *config.Config
}

// NewAuthUsecase creates a new AuthUsecase.
func NewAuthUsecase(
	userRepo repository.UserRepository,
	otp *OTPManager,
	jwtAuth auth.JWTAuthenticator,
	mailer Mailer,
	cfg *config.Config,
) AuthUsecase {
	return &authUsecase{
		userRepo: userRepo,
		otp:      otp,
		jwtAuth:  jwtAuth,
		mailer:   mailer,
		cfg:      cfg,
	}
}

// Register creates (or refreshes) an unverified account and emails it an
// OTP. A verified account with the same email or roll number is a conflict;
// an unverified one is overwritten so the student can retry registration.
// If email delivery fails for a freshly created account, the account is
// deleted again so the unique identity index does not block the retry.
func (u *authUsecase) Register(ctx context.Context, params RegisterParams) (*RegisterResult, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))
	rollNumber := strings.ToUpper(strings.TrimSpace(params.RollNumber))

	existing, err := u.findByIdentity(ctx, email, rollNumber)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Verified {
		return nil, ErrUserAlreadyExists
	}

	passwordHash, err := security.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	created := false
	user := existing
	if user != nil {
		user, err = u.userRepo.UpdateUser(ctx, user.ID.Hex(), repository.UpdateUserParams{
			Name:         &params.Name,
			PasswordHash: &passwordHash,
			Year:         &params.Year,
			Branch:       &params.Branch,
		})
		if err != nil {
			return nil, err
		}
	} else {
		user, err = u.userRepo.CreateUser(ctx, &model.User{
			Name:         params.Name,
			Email:        email,
			RollNumber:   rollNumber,
			PasswordHash: passwordHash,
			Year:         params.Year,
			Branch:       params.Branch,
		})
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, ErrUserAlreadyExists
			}
			return nil, err
		}
		created = true
	}

	code, err := u.otp.Issue(ctx, user.ID.Hex())
	if err != nil {
		return nil, err
	}

	if err := u.mailer.SendHTML([]string{user.Email}, "Verify your Student Network account",
		otpEmailBody(user.Name, code, u.cfg.OTP.ExpiresIn)); err != nil {
		if created {
			_ = u.userRepo.DeleteUser(ctx, user.ID.Hex())
		}
		return nil, ErrEmailDelivery
	}

	return &RegisterResult{Email: user.Email, OTPExpiresIn: u.cfg.OTP.ExpiresIn}, nil
}

// VerifyOTP completes registration. On success the account is marked
// verified and a session token is returned.
func (u *authUsecase) VerifyOTP(ctx context.Context, email, code string) (*model.User, string, error) {
	user, err := u.userRepo.GetUserByEmail(ctx, strings.ToLower(email), repository.ActiveOnly)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, "", ErrUserNotFound
		}
		return nil, "", err
	}

	if user.Verified {
		return nil, "", ErrAlreadyVerified
	}

	if err := u.otp.Check(ctx, user, code, true); err != nil {
		return nil, "", err
	}

	user.Verified = true
	user.OTP = ""
	user.OTPExpiry = time.Time{}
	user.OTPAttempts = 0

	token, err := u.jwtAuth.GenerateSessionToken(user.ID.Hex(), u.cfg.Token.ExpiresIn)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// ResendOTP reissues the registration challenge, invalidating the old code.
func (u *authUsecase) ResendOTP(ctx context.Context, email string) (*RegisterResult, error) {
	user, err := u.userRepo.GetUserByEmail(ctx, strings.ToLower(email), repository.ActiveOnly)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if user.Verified {
		return nil, ErrAlreadyVerified
	}

	code, err := u.otp.Issue(ctx, user.ID.Hex())
	if err != nil {
		return nil, err
	}

	if err := u.mailer.SendHTML([]string{user.Email}, "Verify your Student Network account",
		otpEmailBody(user.Name, code, u.cfg.OTP.ExpiresIn)); err != nil {
		return nil, ErrEmailDelivery
	}

	return &RegisterResult{Email: user.Email, OTPExpiresIn: u.cfg.OTP.ExpiresIn}, nil
}

// Login verifies a credential under the lockout state machine. The lock
// check runs strictly before password comparison; a locked account is
// rejected without touching the hash. An unknown roll number yields the
// same ErrInvalidCredentials as a wrong password.
func (u *authUsecase) Login(ctx context.Context, rollNumber, password string) (*model.User, string, error) {
	user, err := u.userRepo.GetUserByRollNumber(
		ctx,
		strings.ToUpper(strings.TrimSpace(rollNumber)),
		repository.AnyStatus,
	)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if user.Locked(time.Now()) {
		return nil, "", ErrAccountLocked
	}

	if !user.Verified {
		return nil, "", ErrAccountNotVerified
	}

	if user.AccountStatus != model.StatusActive {
		return nil, "", ErrAccountNotActive
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		if err := u.userRepo.RegisterFailedLogin(
			ctx,
			user.ID.Hex(),
			u.cfg.Login.MaxAttempts,
			u.cfg.Login.LockDuration,
		); err != nil {
			return nil, "", err
		}
		return nil, "", ErrInvalidCredentials
	}

	if err := u.userRepo.ResetLoginAttempts(ctx, user.ID.Hex()); err != nil {
		return nil, "", err
	}
	user.LoginAttempts = 0
	user.LockUntil = time.Time{}

	token, err := u.jwtAuth.GenerateSessionToken(user.ID.Hex(), u.cfg.Token.ExpiresIn)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// ForgotPassword issues a reset challenge to a verified account.
func (u *authUsecase) ForgotPassword(ctx context.Context, email string) (*RegisterResult, error) {
	user, err := u.userRepo.GetUserByEmail(ctx, strings.ToLower(email), repository.ActiveOnly)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if !user.Verified {
		return nil, ErrAccountNotVerified
	}

	code, err := u.otp.Issue(ctx, user.ID.Hex())
	if err != nil {
		return nil, err
	}

	if err := u.mailer.SendHTML([]string{user.Email}, "Password Reset Request",
		passwordResetEmailBody(user.Name, code, u.cfg.OTP.ExpiresIn)); err != nil {
		return nil, ErrEmailDelivery
	}

	return &RegisterResult{Email: user.Email, OTPExpiresIn: u.cfg.OTP.ExpiresIn}, nil
}

// ResetPassword checks the reset challenge and replaces the credential.
// No session is created; the student logs in with the new password.
func (u *authUsecase) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	user, err := u.userRepo.GetUserByEmail(ctx, strings.ToLower(email), repository.ActiveOnly)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrUserNotFound
		}
		return err
	}

	if err := u.otp.Check(ctx, user, code, false); err != nil {
		return err
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}

	_, err = u.userRepo.UpdateUser(ctx, user.ID.Hex(), repository.UpdateUserParams{
		PasswordHash: &passwordHash,
	})

	return err
}

func (u *authUsecase) findByIdentity(ctx context.Context, email, rollNumber string) (*model.User, error) {
	user, err := u.userRepo.GetUserByEmail(ctx, email, repository.AnyStatus)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	user, err = u.userRepo.GetUserByRollNumber(ctx, rollNumber, repository.AnyStatus)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	return nil, nil
}

func otpEmailBody(name, code string, expiresIn time.Duration) string {
	return fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Welcome to Student Network! Use the code below to verify your email address:</p>

		<h2>%s</h2>

		<p>This code will expire in %s.</p>
		<p>If you did not sign up, you can safely ignore this email.</p>

		<p>Thank you,</p>
		<p>Student Network Team</p>
	`, name, code, expiresIn)
}

func passwordResetEmailBody(name, code string, expiresIn time.Duration) string {
	return fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>We received a request to reset the password for your account.</p>
		<p>If you made this request, use the code below to choose a new password:</p>

		<h2>%s</h2>

		<p>This code will expire in %s for your security.</p>
		<p>If you did not request a password reset, you can safely ignore this email.</p>

		<p>Thank you,</p>
		<p>Student Network Team</p>
	`, name, code, expiresIn)
}
