package session

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout indicates no reply arrived within the session timeout.
	// The request may still complete on the device; a reply arriving
	// after the timeout is discarded as stale.
	ErrTimeout = errors.New("request timed out")

	// ErrSessionClosed indicates a request on a detached session.
	ErrSessionClosed = errors.New("session is closed")

	// ErrFrameOverflow indicates a command too large for one frame. This
	// is a caller bug, not a device condition.
	ErrFrameOverflow = errors.New("command exceeds frame capacity")
)

// TransportError wraps a send failure from the underlying port.
type TransportError struct {
	Err error
}

// Error implements error.
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport send failed: %v", e.Err)
}

// Unwrap returns the underlying port error.
func (e *TransportError) Unwrap() error {
	return e.Err
}
