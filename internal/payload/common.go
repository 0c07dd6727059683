package payload

// ErrorResponse is the uniform error body for every failed request.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// MessageResponse carries a human-readable outcome with no other data.
type MessageResponse struct {
	Message string `json:"message"`
}

// Pagination echoes the applied page window and the total match count.
type Pagination struct {
	Page  int64 `json:"page"`
	Limit int64 `json:"limit"`
	Total int64 `json:"total"`
}
