package catalog

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// SeedWatcher reloads the catalog's built-in dishes whenever the seed CSV changes.
type SeedWatcher struct {
	catalog *Catalog
	path    string
	watcher *fsnotify.Watcher
}

// NewSeedWatcher watches the directory holding path, since editors often
// replace a file rather than write to it in place.
func NewSeedWatcher(c *Catalog, path string) (*SeedWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating seed watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watching %s: %w", path, err)
	}
	return &SeedWatcher{catalog: c, path: filepath.Clean(path), watcher: w}, nil
}

// Reload parses the seed file and swaps it in. A broken file keeps the current seed.
func (sw *SeedWatcher) Reload() error {
	seed, err := LoadSeedCSV(sw.path)
	if err != nil {
		return err
	}
	sw.catalog.ReloadSeed(seed)
	return nil
}

// Watch blocks until ctx is done or the watcher is closed.
func (sw *SeedWatcher) Watch(ctx context.Context) {
	defer sw.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != sw.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := sw.Reload(); err != nil {
				sw.catalog.log.Warn("Seed reload failed, keeping current dishes", "path", sw.path, "error", err)
				continue
			}
			sw.catalog.log.Info("Seed catalog reloaded", "path", sw.path)
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			sw.catalog.log.Warn("Seed watcher error", "error", err)
		}
	}
}
