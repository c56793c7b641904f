package metadata

import (
	"errors"
	"fmt"
	"net/http"

	"Embeds/internal/core/embeds"
)

var (
	// ErrUnsupportedURL is returned for anything that is not an absolute http(s) URL
	ErrUnsupportedURL = errors.New("unsupported URL")

	// ErrCircuitOpen is returned while a provider host is being skipped after repeated failures
	ErrCircuitOpen = fmt.Errorf("circuit breaker open: %w", embeds.ErrProviderUnavailable)
)

// StatusError reports a non-200 response from a provider or page
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.URL, e.StatusCode)
}

// Unwrap reports server errors and rate limiting as embeds.ErrProviderUnavailable
func (e *StatusError) Unwrap() error {
	if e.temporary() {
		return embeds.ErrProviderUnavailable
	}
	return nil
}

func (e *StatusError) temporary() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

// isClientError reports a 4xx answer about the requested URL. The host is
// healthy, so these do not count against its circuit.
func isClientError(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode >= 400 && statusErr.StatusCode < 500 && !statusErr.temporary()
}
