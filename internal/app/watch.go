package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/felixgeelhaar/fctl/internal/domain/reconcile"
	"github.com/felixgeelhaar/fctl/internal/ports"
)

// DefaultWatchDebounce folds an editor's save burst (write, rename,
// chmod) into one reload.
const DefaultWatchDebounce = 500 * time.Millisecond

// WatchOptions tunes watch mode.
type WatchOptions struct {
	// Debounce is how long file events must stay quiet before a reload
	// fires. Zero means DefaultWatchDebounce.
	Debounce time.Duration
	// OnReload receives the outcome of every reload the watcher runs,
	// including the one on entry.
	OnReload func(report *reconcile.Report, err error)
}

// Watch reloads on every tracked-file change until the context is
// canceled. One reload always runs on entry, after the watch is
// registered, so an edit made while fctl was starting is never missed.
func (h *Harness) Watch(ctx context.Context, opts WatchOptions) error {
	m, err := h.Manifest()
	if err != nil {
		return err
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// Tracked files sit flat in the deploy root; watching the directory
	// also catches atomic saves that replace the file inode.
	if err := watcher.Add(m.DeployRoot); err != nil {
		return fmt.Errorf("failed to watch %s: %w", m.DeployRoot, err)
	}

	tracked := make(map[string]bool)
	for _, name := range reconcile.DefaultDependencies().TrackedFiles() {
		tracked[name] = true
	}

	h.logger.Info(ctx, "watching for config changes",
		ports.F("dir", m.DeployRoot),
		ports.F("debounce", debounce.String()))

	var mu sync.Mutex
	var pending *time.Timer
	defer func() {
		mu.Lock()
		if pending != nil {
			pending.Stop()
		}
		mu.Unlock()
	}()

	fire := func() {
		if ctx.Err() != nil {
			return
		}
		report, err := h.Reload(ctx)
		if opts.OnReload != nil {
			opts.OnReload(report, err)
		}
	}
	fire()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(event.Name)
			if !tracked[name] {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			h.logger.Debug(ctx, "tracked file changed",
				ports.F("file", name),
				ports.F("op", event.Op.String()))
			mu.Lock()
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(debounce, fire)
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			h.logger.Warn(ctx, "file watcher error", ports.F("error", err.Error()))
		}
	}
}
