package payload

import (
	"time"

	"github.com/campusconnect/student-network-api/internal/model"
)

type NotificationResponse struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	RelatedID    string    `json:"related_id,omitempty"`
	RelatedModel string    `json:"related_model,omitempty"`
	IsRead       bool      `json:"is_read"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewNotificationResponse maps one notification to the API shape.
func NewNotificationResponse(n *model.Notification) *NotificationResponse {
	response := &NotificationResponse{
		ID:           n.ID.Hex(),
		Type:         n.Type,
		Title:        n.Title,
		Message:      n.Message,
		RelatedModel: n.RelatedModel,
		IsRead:       n.IsRead,
		CreatedAt:    n.CreatedAt,
	}
	if !n.RelatedID.IsZero() {
		response.RelatedID = n.RelatedID.Hex()
	}
	return response
}

// NewNotificationResponses maps a list of notifications.
func NewNotificationResponses(notifications []*model.Notification) []*NotificationResponse {
	responses := make([]*NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		responses = append(responses, NewNotificationResponse(n))
	}
	return responses
}

type NotificationListResponse struct {
	Notifications []*NotificationResponse `json:"notifications"`
	UnreadCount   int64                   `json:"unread_count"`
	Pagination    Pagination              `json:"pagination"`
}

type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}
