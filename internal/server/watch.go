package server

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the data file whenever it is written, until ctx is done.
// Editors that replace the file on save fire Create rather than Write, so
// the containing directory is watched and events are filtered by name.
func (s *Server) Watch(ctx context.Context) error {
	input := s.opts.Pipeline.Input
	if input == "" {
		return fmt.Errorf("watch: server has no input file")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(input)
	if err != nil {
		return fmt.Errorf("watch %s: %w", input, err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", input, err)
	}
	s.logger.Info("watching for changes", "file", input)

	debounce := s.opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 || filepath.Clean(ev.Name) != abs {
				continue
			}
			// Saves arrive as bursts; reload once they settle.
			timer.Reset(debounce)

		case <-timer.C:
			if err := s.Reload(ctx); err != nil {
				s.logger.Warn("reload failed, keeping previous chart", "file", input, "error", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watcher error", "error", err)
		}
	}
}
