package vault

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow coalesces the bursts editors emit for one save.
const debounceWindow = 50 * time.Millisecond

// Watch re-imports markdown files under dir as they change, until the
// context is done. dir is the OS path backing the importer's filesystem
// root. File removals are logged, never destructive.
func (i *Importer) Watch(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := addRecursive(watcher, dir); err != nil {
		return err
	}

	deb := newDebouncer(debounceWindow)
	defer deb.stop()

	i.log.Info("watching vault", "dir", dir)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			i.handleEvent(watcher, dir, deb, event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			i.log.Error("watcher error", "error", err)
		}
	}
}

func (i *Importer) handleEvent(watcher *fsnotify.Watcher, dir string, deb *debouncer, event fsnotify.Event) {
	// New directories join the watch set
	if event.Has(fsnotify.Create) {
		if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
			if err := watcher.Add(event.Name); err != nil {
				i.log.Warn("failed to watch new directory", "dir", event.Name, "error", err)
			}
			return
		}
	}

	if !strings.EqualFold(filepath.Ext(event.Name), ".md") {
		return
	}

	rel, err := filepath.Rel(dir, event.Name)
	if err != nil {
		i.log.Warn("event outside vault root", "path", event.Name, "error", err)
		return
	}
	name := filepath.ToSlash(rel)

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		i.log.Info("file removed from vault", "file", name)
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	deb.add(name, func() {
		res, err := i.importFile(name)
		if err != nil {
			i.log.Warn("file import failed", "file", name, "error", err)
			return
		}
		if res != fileSkipped {
			i.log.Info("file re-imported", "file", name)
		}
	})
}

func addRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := watcher.Add(p); err != nil {
				return fmt.Errorf("failed to watch %s: %w", p, err)
			}
		}
		return nil
	})
}

// debouncer coalesces per-key bursts into one callback per quiet window.
type debouncer struct {
	mu      sync.Mutex
	window  time.Duration
	timers  map[string]*time.Timer
	stopped bool
}

func newDebouncer(window time.Duration) *debouncer {
	return &debouncer{window: window, timers: make(map[string]*time.Timer)}
}

func (d *debouncer) add(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if t, ok := d.timers[key]; ok {
		t.Reset(d.window)
		return
	}
	d.timers[key] = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		delete(d.timers, key)
		stopped := d.stopped
		d.mu.Unlock()
		if !stopped {
			fn()
		}
	})
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for key, t := range d.timers {
		t.Stop()
		delete(d.timers, key)
	}
}
