package leadsapi

import (
	"errors"
	"fmt"

	"github.com/varun-vembar-tcgls/chatterist-sirrus/internal/resilience"
)

// UpstreamError reports a non-2xx response from the leads API.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("leadsapi: upstream status %d: %s", e.StatusCode, e.Body)
}

// IsUpstreamError reports whether err carries an UpstreamError and returns it.
func IsUpstreamError(err error) (*UpstreamError, bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

// isRetryable limits retries to transient upstream statuses and transport failures.
func isRetryable(err error) bool {
	if ue, ok := IsUpstreamError(err); ok {
		return resilience.IsTransientHTTPStatus(ue.StatusCode)
	}
	if errors.Is(err, ErrMissingIdentifier) {
		return false
	}
	return resilience.IsTransient(err)
}
