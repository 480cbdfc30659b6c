package dashscope

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMissingCredential is returned before any network call when no API key is set.
var ErrMissingCredential = errors.New("dashscope: API key is required")

// APIError is a non-2xx answer from the service.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
	RequestID  string `json:"request_id"`
	// Body holds the raw response when it could not be decoded.
	Body string `json:"-"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("dashscope returned %d: %s", e.StatusCode, e.Body)
	}
	if e.RequestID != "" {
		return fmt.Sprintf("dashscope returned %d (%s): %s [request_id=%s]", e.StatusCode, e.Code, e.Message, e.RequestID)
	}
	return fmt.Sprintf("dashscope returned %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// IsAuthError reports whether err is an authentication failure, either local
// (missing credential) or remote.
func IsAuthError(err error) bool {
	if errors.Is(err, ErrMissingCredential) {
		return true
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}

	switch {
	case apiErr.StatusCode == http.StatusUnauthorized, apiErr.StatusCode == http.StatusForbidden:
		return true
	case apiErr.Code == "InvalidApiKey":
		return true
	}
	return false
}
