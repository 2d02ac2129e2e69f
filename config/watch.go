package config

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors the overlay file at path and calls onChange with the
// reloaded Config each time it is written or replaced. Reload failures are
// passed to onError and the previous config stays active. Watch blocks until
// ctx is cancelled.
//
// The parent directory is watched rather than the file, so saves that
// rename a new file over path keep triggering reloads.
func Watch(ctx context.Context, path string, base *Config, onChange func(*Config), onError func(error)) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			// A rename over path arrives as Create.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cfg, err := LoadFile(path, base)
			if err != nil {
				onError(err)
				continue
			}
			onChange(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			onError(err)
		}
	}
}
