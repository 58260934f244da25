// Package file provides a bond.Watcher over a file on disk.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/zoobzio/bond"
)

// Watcher emits the contents of a file whenever they change.
//
// The parent directory is watched rather than the file itself, so editors
// and deploy tools that replace the file atomically through a rename keep
// producing updates.
type Watcher struct {
	path string
}

// New creates a Watcher for path.
func New(path string) *Watcher {
	return &Watcher{path: filepath.Clean(path)}
}

var _ bond.Watcher = (*Watcher)(nil)

// Watch emits the current contents immediately, then again after every
// write that changes them. The channel closes when ctx is done.
func (w *Watcher) Watch(ctx context.Context) (<-chan []byte, error) {
	if _, err := os.Stat(w.path); err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", w.path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}

	out := make(chan []byte)
	go w.run(ctx, fsw, out)
	return out, nil
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher, out chan<- []byte) {
	defer close(out)
	defer fsw.Close()

	em := bond.NewEmitter(out)
	emit := func() bool {
		data, err := os.ReadFile(w.path)
		if err != nil {
			return true
		}
		return em.Emit(ctx, data)
	}

	if !emit() {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !emit() {
				return
			}

		case _, ok := <-fsw.Errors:
			if !ok {
				return
			}
		}
	}
}
