package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/m3rciful/ledgerbot/core/logger"
)

// Initializer is the part of Store the watcher needs.
type Initializer interface {
	EnsureInitialized(ctx context.Context) error
}

const watchDebounce = 100 * time.Millisecond

// Watcher restores the ledger header when the file is deleted or moved away
// while the bot is running.
type Watcher struct {
	store  Initializer
	target string
	fsw    *fsnotify.Watcher
}

// NewWatcher starts watching the directory that holds path. The watch is
// active when NewWatcher returns.
func NewWatcher(store Initializer, path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve ledger path: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{store: store, target: abs, fsw: fsw}, nil
}

// Run handles events until ctx is cancelled, then releases the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.target || !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			logger.LogEvent(ctx, logger.Ledger, slog.LevelWarn, "ledger.watch.removed",
				slog.String("path", w.target), slog.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if err := w.store.EnsureInitialized(ctx); err != nil {
				logger.LogEvent(ctx, logger.Ledger, slog.LevelError, "ledger.watch.restore",
					slog.String("status", "fail"), slog.Any("err", err))
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.LogEvent(ctx, logger.Ledger, slog.LevelWarn, "ledger.watch.error", slog.Any("err", err))
		}
	}
}

// Watch watches path and restores it through store until ctx is cancelled.
func Watch(ctx context.Context, store Initializer, path string) error {
	w, err := NewWatcher(store, path)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}
