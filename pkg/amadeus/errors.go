package amadeus

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthFailure means the client-credentials exchange itself failed;
	// no token is cached when this is returned.
	ErrAuthFailure = errors.New("credential exchange failed")

	// ErrRateLimited is returned on a 429 from the upstream API. The caller
	// decides whether to back off; the client never retries these itself.
	ErrRateLimited = errors.New("upstream rate limit exceeded")
)

// APIError is any other non-success upstream response, preserved with the
// status and raw body so handlers can surface upstream detail.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream api returned status %d: %s", e.Status, e.Body)
}
