package payload

import (
	"time"

	"github.com/campusconnect/student-network-api/internal/usecase"
)

type ConnectionRequestRequest struct {
	ReceiverID string `json:"receiver_id" validate:"required,len=24,hexadecimal"`
	Message    string `json:"message,omitempty" validate:"omitempty,max=300"`
}

type ConnectionResponse struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"sender_id"`
	ReceiverID  string    `json:"receiver_id"`
	Status      string    `json:"status"`
	Message     string    `json:"message,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

type ConnectionEntryResponse struct {
	ConnectionID string        `json:"connection_id"`
	User         *UserSummaryResponse `json:"user"`
	ConnectedAt  time.Time     `json:"connected_at"`
}

type ConnectionListResponse struct {
	Connections []*ConnectionEntryResponse `json:"connections"`
	Pagination  Pagination                 `json:"pagination"`
}

// NewConnectionEntryResponses maps viewer-shaped accepted edges.
func NewConnectionEntryResponses(entries []*usecase.ConnectionEntry) []*ConnectionEntryResponse {
	responses := make([]*ConnectionEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, &ConnectionEntryResponse{
			ConnectionID: entry.ConnectionID.Hex(),
			User:         NewUserSummaryResponse(entry.User),
			ConnectedAt:  entry.ConnectedAt,
		})
	}
	return responses
}

type PendingRequestResponse struct {
	ConnectionID string        `json:"connection_id"`
	User         *UserSummaryResponse `json:"user"`
	Message      string        `json:"message,omitempty"`
	RequestedAt  time.Time     `json:"requested_at"`
}

type PendingListResponse struct {
	Requests   []*PendingRequestResponse `json:"requests"`
	Pagination Pagination                `json:"pagination"`
}

// NewPendingRequestResponses maps viewer-shaped pending edges.
func NewPendingRequestResponses(requests []*usecase.PendingRequest) []*PendingRequestResponse {
	responses := make([]*PendingRequestResponse, 0, len(requests))
	for _, request := range requests {
		responses = append(responses, &PendingRequestResponse{
			ConnectionID: request.ConnectionID.Hex(),
			User:         NewUserSummaryResponse(request.User),
			Message:      request.Message,
			RequestedAt:  request.RequestedAt,
		})
	}
	return responses
}

type MutualConnectionsResponse struct {
	Users []*UserSummaryResponse `json:"users"`
	Count int             `json:"count"`
}

type SuggestionResponse struct {
	User  *UserSummaryResponse `json:"user"`
	Score int           `json:"score"`
}

type SuggestionListResponse struct {
	Suggestions []*SuggestionResponse `json:"suggestions"`
}

// NewSuggestionResponses maps scored candidates.
func NewSuggestionResponses(suggestions []*usecase.Suggestion) []*SuggestionResponse {
	responses := make([]*SuggestionResponse, 0, len(suggestions))
	for _, suggestion := range suggestions {
		responses = append(responses, &SuggestionResponse{
			User:  NewUserSummaryResponse(suggestion.User),
			Score: suggestion.Score,
		})
	}
	return responses
}
