package transport

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized matches any 401 response.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRequestFailed matches network failures and non-401 error statuses.
	ErrRequestFailed = errors.New("request failed")
	// ErrDecode is returned when a response body cannot be decoded.
	ErrDecode = errors.New("response decode failed")
)

// DefaultErrorMessage is used when an error response carries no message.
const DefaultErrorMessage = "Something went wrong"

// APIError is returned for error status responses.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("auth backend returned %d: %s", e.Status, e.Message)
}

// Unwrap maps the status onto the package sentinels.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return ErrRequestFailed
}

// Message extracts the user-facing message carried by err, or "" when none.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}
