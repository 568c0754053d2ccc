package models

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

// ServerErrorResponse is returned when a handler fails unexpectedly
type ServerErrorResponse struct {
	Detail string `json:"detail"`
}

// Error codes
const (
	ErrCodeInvalidRequest = "INVALID_REQUEST"
	ErrCodeNotFound       = "NOT_FOUND"
)

// Response status values shared by every endpoint
const (
	StatusSuccess = "success"
	StatusError   = "error"
)
