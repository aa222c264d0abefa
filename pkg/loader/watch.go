package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rubiojr/signalscope/pkg/log"
)

// settleDelay lets writers finish before the snapshot is re-read.
var settleDelay = 150 * time.Millisecond

// Watch reloads snap whenever the file at path is written or replaced. The
// parent directory is watched so atomic renames are seen. It returns when
// ctx ends.
func Watch(ctx context.Context, path string, snap *Snapshot) error {
	logger := log.ForService("watch")

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			logger.Warnf("failed to close watcher: %v", err)
		}
	}()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}
	logger.Infof("watching %s for changes", abs)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				logger.Debugf("%s changed (%s)", event.Name, event.Op)
				pending = time.After(settleDelay)
			}
		case <-pending:
			pending = nil
			logger.Infof("snapshot changed, reloading %s", abs)
			snap.Reload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("watcher error: %v", err)
		}
	}
}
