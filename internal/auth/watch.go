package auth

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// ErrWatchUnsupported is returned by Watch when the durable mirror is not
// file-backed (keyring storage has no change notification).
var ErrWatchUnsupported = errors.New("credential watching requires the file mirror")

// Watch re-hydrates the in-memory credential whenever another process
// rotates the mirrored file (a login or refresh in a second terminal, the
// CLI analog of a second browser tab sharing tab-scoped storage). Each
// re-hydration is signalled on the returned channel. The watcher stops when
// ctx is cancelled.
func (s *Store) Watch(ctx context.Context) (<-chan struct{}, error) {
	path := s.mirror.filePath()
	if path == "" {
		return nil, ErrWatchUnsupported
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory, not the file: atomic rename replaces the inode.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	changed := make(chan struct{}, 1)
	go func() {
		defer watcher.Close()
		defer close(changed)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != path {
					continue
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
					continue
				}
				s.Hydrate()
				select {
				case changed <- struct{}{}:
				default: // a pending signal already covers this change
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return changed, nil
}
