package openhab

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain-specific errors for the openHAB client.
var (
	// ErrRequestFailed wraps transport-level failures (DNS, refused, timeout).
	ErrRequestFailed = errors.New("openhab: request failed")

	// ErrInvalidResponse is returned when a response body cannot be decoded.
	ErrInvalidResponse = errors.New("openhab: invalid response body")

	// ErrMissingToken is returned when a call is made without a bearer token.
	ErrMissingToken = errors.New("openhab: missing access token")

	// ErrInvalidConfig is returned when the client configuration is unusable.
	ErrInvalidConfig = errors.New("openhab: invalid configuration")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Method     string
	Path       string
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("openhab: %s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// IsNotFound reports whether err is a 404 from openHAB.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// IsUnauthorized reports whether err is a 401 or 403 from openHAB.
func IsUnauthorized(err error) bool {
	var se *StatusError
	return errors.As(err, &se) &&
		(se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden)
}
