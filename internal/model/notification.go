package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Notification types produced by the core.
const (
	NotificationConnectionRequest  = "connection_request"
	NotificationConnectionAccepted = "connection_accepted"
	NotificationConnectionRejected = "connection_rejected"
	NotificationAchievementAdded   = "achievement_added"
	NotificationAchievementLiked   = "achievement_liked"
	NotificationAchievementFeature = "achievement_featured"
)

// Entity names usable in a notification's weak reference.
const (
	RelatedUser        = "User"
	RelatedConnection  = "Connection"
	RelatedAchievement = "Achievement"
)

// Notification is an at-most-once delivery record addressed to one account.
// RelatedID/RelatedModel form a weak reference to the causing entity; the
// notification outlives it. Only IsRead is ever mutated after creation.
type Notification struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	UserID       bson.ObjectID `bson:"user_id"`
	Type         string        `bson:"type"`
	Title        string        `bson:"title"`
	Message      string        `bson:"message"`
	RelatedID    bson.ObjectID `bson:"related_id,omitempty"`
	RelatedModel string        `bson:"related_model,omitempty"`
	IsRead       bool          `bson:"is_read"`
	CreatedAt    time.Time     `bson:"created_at"`
}
