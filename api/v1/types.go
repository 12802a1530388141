// Package v1 provides API v1 data types and handlers.
package v1

// Error codes for API responses.
const (
	// Client errors (4xx)
	ErrCodeInvalidRequest = "INVALID_REQUEST"
	ErrCodeNotFound       = "NOT_FOUND"

	// Server errors (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// ChatRequest represents one mentor-chat turn request.
type ChatRequest struct {
	ThreadID string `json:"thread_id,omitempty"` // Optional, a new thread is created if empty
	Message  string `json:"message"`             // Required
}

// ChatResponse carries the assistant's reply and the thread to continue on.
type ChatResponse struct {
	ThreadID string `json:"thread_id"`
	Text     string `json:"text"`
}

// HealthResponse reports gateway liveness.
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}
