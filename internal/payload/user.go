package payload

import (
	"time"

	"github.com/campusconnect/student-network-api/internal/model"
)

// UserResponse is the public shape of an account. Contact fields hidden
// by the owner's privacy settings arrive empty and are omitted.
type UserResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email,omitempty"`
	RollNumber     string    `json:"roll_number"`
	Year           string    `json:"year"`
	Branch         string    `json:"branch"`
	Bio            string    `json:"bio,omitempty"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	LinkedIn       string    `json:"linkedin,omitempty"`
	GitHub         string    `json:"github,omitempty"`
	Skills         []string  `json:"skills,omitempty"`
	Interests      []string  `json:"interests,omitempty"`
	IsAdmin        bool      `json:"is_admin,omitempty"`
	LastActive     time.Time `json:"last_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewUserResponse maps an account to its public shape.
func NewUserResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:             user.ID.Hex(),
		Name:           user.Name,
		Email:          user.Email,
		RollNumber:     user.RollNumber,
		Year:           user.Year,
		Branch:         user.Branch,
		Bio:            user.Bio,
		ProfilePicture: user.ProfilePicture,
		Phone:          user.Phone,
		LinkedIn:       user.LinkedIn,
		GitHub:         user.GitHub,
		Skills:         user.Skills,
		Interests:      user.Interests,
		IsAdmin:        user.IsAdmin,
		LastActive:     user.LastActive,
		CreatedAt:      user.CreatedAt,
	}
}

// UserSummaryResponse is the list shape of an account. Contact fields are
// never part of it; they are only served through the privacy-gated profile.
type UserSummaryResponse struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	RollNumber     string   `json:"roll_number"`
	Year           string   `json:"year"`
	Branch         string   `json:"branch"`
	ProfilePicture string   `json:"profile_picture,omitempty"`
	Skills         []string `json:"skills,omitempty"`
	Interests      []string `json:"interests,omitempty"`
}

// NewUserSummaryResponse maps an account to its list shape.
func NewUserSummaryResponse(user *model.User) *UserSummaryResponse {
	return &UserSummaryResponse{
		ID:             user.ID.Hex(),
		Name:           user.Name,
		RollNumber:     user.RollNumber,
		Year:           user.Year,
		Branch:         user.Branch,
		ProfilePicture: user.ProfilePicture,
		Skills:         user.Skills,
		Interests:      user.Interests,
	}
}

// NewUserSummaryResponses maps a list of accounts to their list shapes.
func NewUserSummaryResponses(users []*model.User) []*UserSummaryResponse {
	responses := make([]*UserSummaryResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, NewUserSummaryResponse(user))
	}
	return responses
}

type ProfileResponse struct {
	User        *UserResponse `json:"user"`
	IsConnected bool          `json:"is_connected"`
	IsSelf      bool          `json:"is_self"`
}

type UpdateProfileRequest struct {
	Name      *string  `json:"name,omitempty"      validate:"omitempty,min=2,max=100"`
	Bio       *string  `json:"bio,omitempty"       validate:"omitempty,max=500"`
	Phone     *string  `json:"phone,omitempty"     validate:"omitempty,max=20"`
	LinkedIn  *string  `json:"linkedin,omitempty"  validate:"omitempty,url"`
	GitHub    *string  `json:"github,omitempty"    validate:"omitempty,url"`
	Year      *string  `json:"year,omitempty"      validate:"omitempty,oneof=1 2 3 4"`
	Branch    *string  `json:"branch,omitempty"`
	Skills    []string `json:"skills,omitempty"    validate:"omitempty,max=30,dive,min=1"`
	Interests []string `json:"interests,omitempty" validate:"omitempty,max=30,dive,min=1"`
}

type UserListResponse struct {
	Users      []*UserSummaryResponse `json:"users"`
	Pagination Pagination             `json:"pagination"`
}

type PrivacySettingRequest struct {
	ProfileVisibility       *string `json:"profile_visibility,omitempty" validate:"omitempty,oneof=public connections private"`
	ShowEmail               *bool   `json:"show_email,omitempty"`
	ShowPhone               *bool   `json:"show_phone,omitempty"`
	ShowConnections         *bool   `json:"show_connections,omitempty"`
	ShowAchievements        *bool   `json:"show_achievements,omitempty"`
	AllowConnectionRequests *bool   `json:"allow_connection_requests,omitempty"`
}

type PrivacySettingResponse struct {
	ProfileVisibility       string `json:"profile_visibility"`
	ShowEmail               bool   `json:"show_email"`
	ShowPhone               bool   `json:"show_phone"`
	ShowConnections         bool   `json:"show_connections"`
	ShowAchievements        bool   `json:"show_achievements"`
	AllowConnectionRequests bool   `json:"allow_connection_requests"`
}

// NewPrivacySettingResponse maps stored privacy settings to the API shape.
func NewPrivacySettingResponse(settings *model.PrivacySetting) *PrivacySettingResponse {
	return &PrivacySettingResponse{
		ProfileVisibility:       settings.ProfileVisibility,
		ShowEmail:               settings.ShowEmail,
		ShowPhone:               settings.ShowPhone,
		ShowConnections:         settings.ShowConnections,
		ShowAchievements:        settings.ShowAchievements,
		AllowConnectionRequests: settings.AllowConnectionRequests,
	}
}
