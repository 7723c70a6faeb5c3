package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidJSON is returned when a response body is not valid JSON.
	ErrInvalidJSON = errors.New("invalid JSON response")

	// ErrUnexpectedShape is returned when a JSON response is neither an
	// object nor an array.
	ErrUnexpectedShape = errors.New("unexpected JSON response shape (expected object/array)")
)

// previewBytes is how much of an error body is quoted in APIError messages.
const previewBytes = 200

// APIError is returned for responses outside the 2xx range.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
	RequestID  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API responded with HTTP %d: %s", e.StatusCode, e.Preview())
}

// Preview returns at most the first 200 bytes of the body, or
// "no response body" when it is empty.
func (e *APIError) Preview() string {
	if len(e.Body) == 0 {
		return "no response body"
	}
	if len(e.Body) > previewBytes {
		return string(e.Body[:previewBytes])
	}
	return string(e.Body)
}

// IsStatus reports whether err is an *APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// IsNotFound reports whether err is a 404 APIError.
func IsNotFound(err error) bool {
	return IsStatus(err, http.StatusNotFound)
}
