package knowledge

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow coalesces the burst of fsnotify events an editor save
// produces into a single reload.
const debounceWindow = 250 * time.Millisecond

// Watch reloads the store whenever a JSON file in its data directory
// changes. It blocks until ctx is cancelled and returns nil on a clean
// shutdown. A store with no data directory has nothing to watch.
func (s *Store) Watch(ctx context.Context) error {
	if s.dataDir == "" {
		<-ctx.Done()
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(s.dataDir); err != nil {
		return err
	}
	s.logger.Info("watching knowledge data directory", "dir", s.dataDir)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !isTableEvent(ev) {
				continue
			}
			s.logger.Debug("knowledge file changed", "file", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				fire = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounceWindow)
			}

		case <-fire:
			timer = nil
			fire = nil
			if err := s.Reload(); err != nil {
				// A half-written or invalid file keeps the previous
				// snapshot in place; log and wait for the next change.
				s.logger.Error("knowledge reload failed, keeping previous tables", "error", err)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("knowledge watcher error", "error", err)
		}
	}
}

// isTableEvent reports whether the event touches a recognized table
// file in a way that warrants a reload.
func isTableEvent(ev fsnotify.Event) bool {
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) && !ev.Op.Has(fsnotify.Remove) {
		return false
	}
	name := filepath.Base(ev.Name)
	switch name {
	case builtinsFile, librariesFile, packagesFile, idiomsFile, strategiesFile:
		return true
	}
	// Editors often write to a temp name and rename over the target.
	return strings.HasSuffix(name, ".json")
}
