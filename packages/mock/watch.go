package mock

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchDebounceDelay is the debounce delay for routes file events
var WatchDebounceDelay = 300 * time.Millisecond

// Watch reloads the routes file whenever it changes, until ctx is done.
// Reload errors are logged and leave the previous routes in place.
func (s *Server) Watch(ctx context.Context, path string) error {
	if err := s.LoadFile(path); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Editors often replace files instead of writing them, so watch the directory
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	target := filepath.Clean(path)
	go func() {
		defer watcher.Close()

		var debounceTimer *time.Timer
		defer func() {
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
					if err := s.LoadFile(path); err != nil {
						s.logger.Error().Err(err).Str("file", path).Msg("routes reload failed")
						return
					}
					s.logger.Info().Str("file", path).Int("routes", len(s.GetRoutes())).Msg("routes reloaded")
				})

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn().Err(err).Msg("watcher error")
			}
		}
	}()

	return nil
}
