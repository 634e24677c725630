// Package watch observes the work-units document for external changes
// and invokes a refresh callback. Writes land via atomic rename, so the
// watcher listens on the containing directory rather than the file
// itself and debounces rapid event bursts.
package watch

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fspec-dev/fspec/internal/debug"
)

// DebounceDelay coalesces rapid write bursts into one refresh.
const DebounceDelay = 500 * time.Millisecond

// Watcher re-runs onChange whenever the watched document is rewritten.
type Watcher struct {
	path     string
	onChange func()
	errs     func(error)
}

// New creates a watcher for the document at path. onChange runs after
// each debounced change; onError receives non-fatal watcher errors and
// may be nil.
func New(path string, onChange func(), onError func(error)) *Watcher {
	if onError == nil {
		onError = func(error) {}
	}
	return &Watcher{path: path, onChange: onChange, errs: onError}
}

// Run blocks until ctx is cancelled, invoking the callback on changes.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = fsw.Close() }() // Best effort cleanup

	// Watch the directory: atomic renames replace the file inode, and a
	// watch on the old inode would go quiet after the first write.
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	base := filepath.Base(w.path)
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			debug.Logf("watch: %s on %s\n", event.Op, event.Name)
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(DebounceDelay, w.onChange)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.errs(err)
		}
	}
}
