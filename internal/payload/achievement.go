package payload

import (
	"time"

	"github.com/campusconnect/student-network-api/internal/model"
)

type CreateAchievementRequest struct {
	StudentID    string   `json:"student_id"   validate:"required,len=24,hexadecimal"`
	Title        string   `json:"title"        validate:"required,min=3,max=200"`
	Description  string   `json:"description"  validate:"required,min=10,max=2000"`
	Category     string   `json:"category"     validate:"required,oneof=project hackathon research competition certification publication"`
	Technologies []string `json:"technologies,omitempty" validate:"omitempty,max=20,dive,min=1"`
	GitHubLink   string   `json:"github_link,omitempty"  validate:"omitempty,url"`
	LiveLink     string   `json:"live_link,omitempty"    validate:"omitempty,url"`
}

type UpdateAchievementRequest struct {
	Title        *string   `json:"title,omitempty"        validate:"omitempty,min=3,max=200"`
	Description  *string   `json:"description,omitempty"  validate:"omitempty,min=10,max=2000"`
	Category     *string   `json:"category,omitempty"     validate:"omitempty,oneof=project hackathon research competition certification publication"`
	Technologies *[]string `json:"technologies,omitempty" validate:"omitempty,max=20,dive,min=1"`
	GitHubLink   *string   `json:"github_link,omitempty"  validate:"omitempty,url"`
	LiveLink     *string   `json:"live_link,omitempty"    validate:"omitempty,url"`
	Images       *[]string `json:"images,omitempty"       validate:"omitempty,max=5,dive,url"`
}

type SetFeaturedRequest struct {
	Featured bool `json:"featured"`
}

type AchievementResponse struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	StudentID         string    `json:"student_id"`
	StudentName       string    `json:"student_name"`
	StudentRollNumber string    `json:"student_roll_number"`
	Branch            string    `json:"branch"`
	Year              string    `json:"year"`
	Category          string    `json:"category"`
	Technologies      []string  `json:"technologies,omitempty"`
	GitHubLink        string    `json:"github_link,omitempty"`
	LiveLink          string    `json:"live_link,omitempty"`
	Images            []string  `json:"images,omitempty"`
	LikeCount         int       `json:"like_count"`
	Views             int64     `json:"views"`
	Featured          bool      `json:"featured"`
	CreatedAt         time.Time `json:"created_at"`
}

// NewAchievementResponse maps a showcase entry; the raw like set never
// leaves the server, only its size does.
func NewAchievementResponse(a *model.Achievement) *AchievementResponse {
	return &AchievementResponse{
		ID:                a.ID.Hex(),
		Title:             a.Title,
		Description:       a.Description,
		StudentID:         a.StudentID.Hex(),
		StudentName:       a.StudentName,
		StudentRollNumber: a.StudentRollNumber,
		Branch:            a.Branch,
		Year:              a.Year,
		Category:          a.Category,
		Technologies:      a.Technologies,
		GitHubLink:        a.GitHubLink,
		LiveLink:          a.LiveLink,
		Images:            a.Images,
		LikeCount:         len(a.Likes),
		Views:             a.Views,
		Featured:          a.Featured,
		CreatedAt:         a.CreatedAt,
	}
}

// NewAchievementResponses maps a list of showcase entries.
func NewAchievementResponses(achievements []*model.Achievement) []*AchievementResponse {
	responses := make([]*AchievementResponse, 0, len(achievements))
	for _, a := range achievements {
		responses = append(responses, NewAchievementResponse(a))
	}
	return responses
}

type AchievementDetailResponse struct {
	Achievement   *AchievementResponse `json:"achievement"`
	LikedByViewer bool                 `json:"liked_by_viewer"`
}

type AchievementListResponse struct {
	Achievements []*AchievementResponse `json:"achievements"`
	Pagination   Pagination             `json:"pagination"`
}

type LikeResponse struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}

type ViewResponse struct {
	Views int64 `json:"views"`
}
