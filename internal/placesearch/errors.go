package placesearch

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnavailable means the provider could not be reached: network
	// failure, timeout, throttling wait aborted or the circuit breaker is open.
	ErrUnavailable = errors.New("place search unavailable")

	// ErrMalformedResponse means the provider answered 2xx with a body that
	// could not be decoded into places.
	ErrMalformedResponse = errors.New("malformed place search response")

	// ErrNoMatch is returned by Match when the provider has no place for the
	// given name and coordinates.
	ErrNoMatch = errors.New("no matching place")
)

// StatusError is returned when the provider answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("place search returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("place search returned status %d: %s", e.StatusCode, e.Body)
}

// IsTemporary reports whether err is a provider failure worth retrying
// later: unavailability, rate limiting, or a server-side status.
func IsTemporary(err error) bool {
	if errors.Is(err, ErrUnavailable) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500
	}
	return false
}
