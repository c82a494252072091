package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	// Detail is the server-supplied message, empty when the body had none.
	Detail    string
	RequestID string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("server responded %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("server responded %d: %s", e.StatusCode, e.Detail)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	}
	return false
}

// newAPIError picks the message out of the usual error body shapes:
// {"detail": "..."}, {"message": "..."} or {"error": "..."}.
func newAPIError(status int, body []byte, requestID string) *APIError {
	e := &APIError{StatusCode: status, RequestID: requestID}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return e
	}
	for _, key := range []string{"detail", "message", "error"} {
		if s, ok := payload[key].(string); ok && s != "" {
			e.Detail = s
			return e
		}
	}
	return e
}
