package preflib

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed is returned when an election file cannot be parsed.
	ErrMalformed = errors.New("malformed election file")

	// ErrInvalidMaxAttempts is returned when retry is configured with no attempts.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrEmptyURL is returned when Fetch is called without a URL.
	ErrEmptyURL = errors.New("dataset url required")

	// ErrBodyTooLarge is returned when a response exceeds the fetcher's size
	// limit. It is not retried.
	ErrBodyTooLarge = errors.New("response body too large")
)

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetching %s: unexpected status %d", e.URL, e.Code)
}

// Temporary reports whether a retry may succeed.
func (e *StatusError) Temporary() bool {
	return e.Code >= 500 || e.Code == 429
}

func malformed(line int, format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrMalformed, line, fmt.Sprintf(format, args...))
}
