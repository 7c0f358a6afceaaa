package transport

import (
	"errors"
	"fmt"
)

// ErrUnavailable classifies failures where no readable response could be
// obtained: connection errors, timeouts establishing the stream, and
// non-success statuses. The session manager treats this whole class as a
// trigger for the local fallback, never as a caller-visible error.
var ErrUnavailable = errors.New("reasoning service unavailable")

// StatusError is an ErrUnavailable carrying the HTTP status the service
// returned.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("reasoning service returned status %d", e.Code)
}

func (e *StatusError) Unwrap() error { return ErrUnavailable }
