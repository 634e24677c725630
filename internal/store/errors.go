package store

import (
	"fmt"
	"time"
)

// NotFoundError is returned when the document file does not exist and the
// transaction was opened without a default document.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("document %s does not exist", e.Path)
}

// ParseError is returned when the on-disk document is not valid JSON.
// Corrupt documents are surfaced, never silently reset.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("document %s is corrupt: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// LockTimeoutError is returned when the advisory lock on the document
// could not be acquired within the bounded retry window.
type LockTimeoutError struct {
	Path    string
	Waited  time.Duration
	Retries int
}

func (e *LockTimeoutError) Error() string {
	return fmt.Sprintf("timed out acquiring lock on %s after %d attempts (%s): another fspec process may be running",
		e.Path, e.Retries, e.Waited.Round(time.Millisecond))
}
