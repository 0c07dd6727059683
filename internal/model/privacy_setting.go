package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Profile visibility scopes.
const (
	VisibilityPublic      = "public"
	VisibilityConnections = "connections"
	VisibilityPrivate     = "private"
)

// PrivacySetting is the one-per-account visibility record. It is created
// lazily on first access with the default-open values from
// DefaultPrivacySetting and may only be updated by its owner.
type PrivacySetting struct {
	ID                      bson.ObjectID `bson:"_id,omitempty"`
	UserID                  bson.ObjectID `bson:"user_id"`
	ProfileVisibility       string        `bson:"profile_visibility"`
	ShowEmail               bool          `bson:"show_email"`
	ShowPhone               bool          `bson:"show_phone"`
	ShowConnections         bool          `bson:"show_connections"`
	ShowAchievements        bool          `bson:"show_achievements"`
	AllowConnectionRequests bool          `bson:"allow_connection_requests"`
	CreatedAt               time.Time     `bson:"created_at"`
	UpdatedAt               time.Time     `bson:"updated_at"`
}

// DefaultPrivacySetting returns the fail-open defaults for an account.
func DefaultPrivacySetting(userID bson.ObjectID) *PrivacySetting {
	return &PrivacySetting{
		UserID:                  userID,
		ProfileVisibility:       VisibilityPublic,
		ShowEmail:               true,
		ShowPhone:               false,
		ShowConnections:         true,
		ShowAchievements:        true,
		AllowConnectionRequests: true,
	}
}
