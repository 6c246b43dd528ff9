package store

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchSettle groups the burst of events an atomic replace produces.
const watchSettle = 200 * time.Millisecond

// Watch calls fn whenever the file at path is created, written or replaced,
// until ctx is done. The parent directory is watched because atomic saves
// replace the file rather than writing it in place.
func Watch(ctx context.Context, path string, fn func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	name := filepath.Clean(path)

	settle := time.NewTimer(watchSettle)
	stopTimer(settle)

	for {
		select {
		case <-ctx.Done():
			settle.Stop()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}
			stopTimer(settle)
			settle.Reset(watchSettle)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err

		case <-settle.C:
			fn()
		}
	}
}
