// Package lockfile provides advisory file-lock primitives used to
// serialize work-unit document transactions across CLI processes.
package lockfile

import "errors"

// ErrLockBusy is returned when a non-blocking lock attempt finds the lock
// already held by another process.
var ErrLockBusy = errors.New("file lock held by another process")
