// Package store implements the transactional read-modify-write primitive
// for the shared JSON documents. Each transaction holds an exclusive
// advisory lock on a sidecar lock file for the whole load-mutate-write
// cycle, and commits by writing a temp file in the same directory and
// renaming it over the target. A crash mid-write therefore never leaves a
// truncated document, and readers outside a transaction only ever see
// stale-but-complete content.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/fspec-dev/fspec/internal/debug"
	"github.com/fspec-dev/fspec/internal/lockfile"
)

// Lock acquisition retry bounds. Each attempt is non-blocking; backoff
// sleeps between attempts and gives up after lockMaxElapsed. Vars rather
// than consts so tests can shrink the timeout window.
var (
	lockInitialInterval = 25 * time.Millisecond
	lockMaxInterval     = 500 * time.Millisecond
	lockMaxElapsed      = 10 * time.Second
)

// SetLockTimeout overrides the total time spent retrying lock
// acquisition. Zero restores the default.
func SetLockTimeout(d time.Duration) {
	if d <= 0 {
		lockMaxElapsed = 10 * time.Second
		return
	}
	lockMaxElapsed = d
}

func newLockBackoff() *backoff.ExponentialBackOff {
	// BackOff implementations are stateful; always return a fresh instance.
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = lockInitialInterval
	bo.MaxInterval = lockMaxInterval
	bo.MaxElapsedTime = lockMaxElapsed
	return bo
}

type fileLock struct {
	file *os.File
	path string
}

func (l *fileLock) release() {
	_ = lockfile.FlockUnlock(l.file)
	_ = l.file.Close()
}

// acquireLock takes the sidecar <path>.lock with an exclusive flock,
// retrying with exponential backoff until lockMaxElapsed.
func acquireLock(path string) (*fileLock, error) {
	lockPath := path + ".lock"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating document directory: %w", err)
	}
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644) // #nosec G304 - path comes from project config
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	start := time.Now()
	attempts := 0
	bo := newLockBackoff()
	err = backoff.Retry(func() error {
		attempts++
		lockErr := lockfile.FlockExclusiveNonBlock(f)
		if errors.Is(lockErr, lockfile.ErrLockBusy) {
			debug.Logf("lock busy on %s (attempt %d)\n", lockPath, attempts)
			return lockErr // retryable
		}
		if lockErr != nil {
			return backoff.Permanent(lockErr)
		}
		return nil
	}, bo)
	if err != nil {
		_ = f.Close()
		if errors.Is(err, lockfile.ErrLockBusy) {
			return nil, &LockTimeoutError{Path: path, Waited: time.Since(start), Retries: attempts}
		}
		return nil, fmt.Errorf("acquiring lock on %s: %w", path, err)
	}

	return &fileLock{file: f, path: lockPath}, nil
}

// load reads and unmarshals the document. When the file is absent it
// falls back to defaultDoc ("ensure" semantics); with a nil defaultDoc the
// absence is a NotFoundError.
func load[T any](path string, defaultDoc func() *T) (*T, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from project config
	if os.IsNotExist(err) {
		if defaultDoc == nil {
			return nil, &NotFoundError{Path: path}
		}
		return defaultDoc(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	doc := new(T)
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return doc, nil
}

// write serializes the document to a temp file in the target directory
// and renames it over the target.
func write[T any](path string, doc *T) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating document directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file over %s: %w", path, err)
	}
	return nil
}

// Transaction runs one atomic load-mutate-write cycle against the JSON
// document at path. The mutate callback operates on the in-memory
// document; if it returns an error, nothing is written and the error
// propagates to the caller unchanged. defaultDoc supplies the initial
// document when the file does not exist yet; pass nil to require an
// existing file.
func Transaction[T any](path string, defaultDoc func() *T, mutate func(*T) error) (*T, error) {
	lock, err := acquireLock(path)
	if err != nil {
		return nil, err
	}
	defer lock.release()

	doc, err := load(path, defaultDoc)
	if err != nil {
		return nil, err
	}

	if err := mutate(doc); err != nil {
		return nil, err
	}

	if err := write(path, doc); err != nil {
		return nil, err
	}

	debug.Logf("committed transaction on %s\n", path)
	return doc, nil
}

// Read loads the document without mutating it, holding a shared lock so a
// concurrent commit's rename cannot interleave with the read. defaultDoc
// has the same ensure semantics as Transaction but nothing is written.
func Read[T any](path string, defaultDoc func() *T) (*T, error) {
	lockPath := path + ".lock"
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644) // #nosec G304 - path comes from project config
	if err != nil {
		if os.IsNotExist(err) {
			// Missing directory means no document either; let load apply
			// its ensure semantics.
			return load(path, defaultDoc)
		}
		return nil, fmt.Errorf("opening lock file: %w", err)
	}
	defer func() { _ = f.Close() }()

	// A busy lock is fine for readers: atomic renames guarantee the file
	// is always a complete document, possibly stale.
	if err := lockfile.FlockSharedNonBlock(f); err == nil {
		defer func() { _ = lockfile.FlockUnlock(f) }()
	}

	return load(path, defaultDoc)
}
