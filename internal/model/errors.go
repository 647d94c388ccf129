package model

import (
	"errors"
	"fmt"
)

// ErrJobNotFound is returned when the upstream API has no job with the requested ID.
var ErrJobNotFound = errors.New("job not found")

// HTTPError wraps a non-2xx upstream status code so callers can inspect it.
type HTTPError struct {
	StatusCode int
	URL        string
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d from %s: %v", e.StatusCode, e.URL, e.Err)
	}
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}
