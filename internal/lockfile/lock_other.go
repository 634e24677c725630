//go:build !unix && !windows

package lockfile

import "os"

// Platforms without advisory locking (js/wasm) run single-process, so the
// lock calls degrade to no-ops.

// FlockExclusiveNonBlock is a no-op on platforms without file locking.
func FlockExclusiveNonBlock(f *os.File) error { return nil }

// FlockSharedNonBlock is a no-op on platforms without file locking.
func FlockSharedNonBlock(f *os.File) error { return nil }

// FlockUnlock is a no-op on platforms without file locking.
func FlockUnlock(f *os.File) error { return nil }
