package dictionary

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce groups the burst of events an editor produces on save.
const DefaultDebounce = 200 * time.Millisecond

// Watch reloads the store whenever its file changes on disk, until ctx is
// done. The parent directory is watched so atomic replacements are seen.
// onReload, if non-nil, is called after every reload attempt.
func (s *Store) Watch(ctx context.Context, debounce time.Duration, onReload func(error)) error {
	if s.path == "" {
		return errors.New("dictionary: watch requires a file-backed store")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	target, err := filepath.Abs(s.path)
	if err != nil {
		return fmt.Errorf("resolve dictionary path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create dictionary watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	s.logger.Info("watching dictionary file", "path", target)

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || name != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			s.logger.Debug("dictionary file event", "op", event.Op.String(), "path", event.Name)
			timer.Reset(debounce)
		case <-timer.C:
			err := s.Reload()
			if onReload != nil {
				onReload(err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("dictionary watcher error", "error", err)
		}
	}
}
