package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Achievement categories.
const (
	CategoryProject       = "project"
	CategoryHackathon     = "hackathon"
	CategoryResearch      = "research"
	CategoryCompetition   = "competition"
	CategoryCertification = "certification"
	CategoryPublication   = "publication"
)

// Achievement moderation statuses.
const (
	AchievementApproved = "approved"
	AchievementPending  = "pending"
	AchievementRejected = "rejected"
)

// MaxAchievementImages caps the number of hosted images per achievement.
const MaxAchievementImages = 5

// Achievement is a showcased item owned by one student. Likes is a set of
// liking-account ids toggled with atomic set operations; Views is a
// monotonic counter. Featured is admin-controlled.
type Achievement struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	Title       string        `bson:"title"`
	Description string        `bson:"description"`

	StudentID         bson.ObjectID `bson:"student_id"`
	StudentName       string        `bson:"student_name"`
	StudentRollNumber string        `bson:"student_roll_number"`
	Branch            string        `bson:"branch"`
	Year              string        `bson:"year"`

	Category     string   `bson:"category"`
	Technologies []string `bson:"technologies,omitempty"`
	GitHubLink   string   `bson:"github_link,omitempty"`
	LiveLink     string   `bson:"live_link,omitempty"`
	Images       []string `bson:"images,omitempty"`

	Likes []bson.ObjectID `bson:"likes,omitempty"`
	Views int64           `bson:"views"`

	Featured bool   `bson:"featured"`
	Status   string `bson:"status"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// LikedBy reports whether userID is in the like set.
func (a *Achievement) LikedBy(userID bson.ObjectID) bool {
	for _, id := range a.Likes {
		if id == userID {
			return true
		}
	}
	return false
}
