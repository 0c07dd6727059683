package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Account lifecycle statuses. Self-deletion flips the status to
// StatusDeleted; documents are never physically removed for it.
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusDeleted   = "deleted"
)

// User represents a student account. Email and roll number are unique and
// case-normalized (email lowercased, roll number uppercased) before they
// reach the repository. The OTP fields are only populated while a challenge
// is outstanding; the lockout fields only while failed logins accumulate.
type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Name         string        `bson:"name"`
	Email        string        `bson:"email"`
	RollNumber   string        `bson:"roll_number"`
	PasswordHash string        `bson:"password_hash"`

	Year   string `bson:"year"`
	Branch string `bson:"branch"`

	Bio            string   `bson:"bio"`
	ProfilePicture string   `bson:"profile_picture"`
	Phone          string   `bson:"phone"`
	LinkedIn       string   `bson:"linked_in"`
	GitHub         string   `bson:"github"`
	Skills         []string `bson:"skills"`
	Interests      []string `bson:"interests"`

	Verified    bool      `bson:"verified"`
	OTP         string    `bson:"otp,omitempty"`
	OTPExpiry   time.Time `bson:"otp_expiry,omitempty"`
	OTPAttempts int       `bson:"otp_attempts,omitempty"`

	IsAdmin       bool   `bson:"is_admin"`
	AccountStatus string `bson:"account_status"`

	LoginAttempts int       `bson:"login_attempts,omitempty"`
	LockUntil     time.Time `bson:"lock_until,omitempty"`
	LastActive    time.Time `bson:"last_active"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Locked reports whether the account is currently inside a lockout window.
func (u *User) Locked(now time.Time) bool {
	return !u.LockUntil.IsZero() && u.LockUntil.After(now)
}
