package backend

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotConfigured means no backend URL is set. Reads return empty, writes are skipped.
	ErrNotConfigured = errors.New("backend not configured")

	// ErrUnauthenticated means there is no signed-in user.
	ErrUnauthenticated = errors.New("not authenticated")
)

// APIError is a non-2xx response with the message the backend put in its body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend responded %d", e.Status)
	}
	return fmt.Sprintf("backend responded %d: %s", e.Status, e.Message)
}

// IsValidation is true for 400 and 422: retrying the same request cannot help.
func (e *APIError) IsValidation() bool {
	return e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity
}

func (e *APIError) IsNotFound() bool {
	return e.Status == http.StatusNotFound
}

// IsSilent reports errors that callers turn into an empty result rather than
// an error shown to the user.
func IsSilent(err error) bool {
	return errors.Is(err, ErrNotConfigured) || errors.Is(err, ErrUnauthenticated)
}

func IsValidation(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsValidation()
}

func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsNotFound()
}

// Message returns the backend message when err carries one, else err.Error().
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

// UserMessage is what a view shows for err: the backend's own message when it sent
// one, otherwise fallback. Transport details never reach the user.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
