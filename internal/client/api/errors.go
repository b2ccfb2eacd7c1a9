package api

import (
	"errors"
	"fmt"
)

var (
	ErrNetwork        = errors.New("network error")
	ErrInvalidPayload = errors.New("invalid data format received from API")
)

// APIError is a failure reported by a remote API: a non-2xx status or a
// 2xx body with "success": false.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP error! status: %d", e.Status)
}

// UserMessage picks the text shown to the user for err: the API's own message
// when there is one, fallback otherwise.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
