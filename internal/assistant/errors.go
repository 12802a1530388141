package assistant

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error definitions.
var (
	ErrConnectionFailed = errors.New("failed to connect to assistant service")
	ErrInvalidResponse  = errors.New("invalid response from assistant service")
)

// APIError is a structured error returned by the assistant service.
type APIError struct {
	Status  int    `json:"status"`
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("assistant api error (%d) [%s]: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("assistant api error (%d): %s", e.Status, e.Message)
}

// HTTPStatus returns the HTTP status code carried by the error.
// Used by the retry policy to classify rate-limited failures.
func (e *APIError) HTTPStatus() int {
	return e.Status
}

// errorEnvelope is the service's error response body.
type errorEnvelope struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// parseAPIError builds an APIError from a non-2xx response body.
func parseAPIError(status int, body []byte) *APIError {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		return &APIError{
			Status:  status,
			Type:    env.Error.Type,
			Code:    env.Error.Code,
			Message: env.Error.Message,
		}
	}

	msg := http.StatusText(status)
	if len(body) > 0 {
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		msg = snippet
	}
	return &APIError{Status: status, Message: msg}
}
