package dynloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fsnotify/fsnotify"
)

// Discovery finds candidate library files in a directory, either by a
// one-shot scan or by watching for files appearing while the process runs.
// It only produces paths; opening them stays the caller's decision.
type Discovery struct {
	dir    string
	exts   map[string]bool
	logger Logger
}

// NewDiscovery creates a discovery over dir for the extensions the loader's
// engines handle. Extra extensions may be passed for custom engines.
func NewDiscovery(dir string, logger Logger, extraExts ...string) *Discovery {
	if logger == nil {
		logger = noopLogger{}
	}
	exts := map[string]bool{".so": true, ".dylib": true, ".go": true}
	for _, e := range extraExts {
		exts[e] = true
	}
	return &Discovery{dir: dir, exts: exts, logger: logger}
}

// Scan returns the matching files directly under the directory, sorted by
// path for deterministic registration order. A missing directory yields an
// empty result, not an error.
func (d *Discovery) Scan() ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", d.dir, err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !d.exts[filepath.Ext(entry.Name())] {
			continue
		}
		paths = append(paths, filepath.Join(d.dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// Watch blocks until ctx is done, invoking found for every matching file
// created or rewritten under the directory. Drivers typically run it in its
// own goroutine alongside the synchronous core.
func (d *Discovery) Watch(ctx context.Context, found func(path string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(d.dir); err != nil {
		return fmt.Errorf("watch %s: %w", d.dir, err)
	}
	d.logger.Info("Watching for libraries", "dir", d.dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !d.exts[filepath.Ext(event.Name)] {
				continue
			}
			d.logger.Debug("Discovered library candidate", "path", event.Name, "op", event.Op)
			found(event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			d.logger.Error("Watcher error", "dir", d.dir, "error", err)
		}
	}
}
