// Package watch triggers a refresh when battle-log exports in a directory
// change, with a polling ticker as backup for missed file events.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Options tunes a Watcher.
type Options struct {
	// Debounce collapses bursts of writes into one refresh.
	Debounce time.Duration
	// Poll triggers a refresh on a fixed interval even without file
	// events. Zero disables polling.
	Poll time.Duration
	Log  zerolog.Logger
}

// Watcher watches one directory for battle-log changes.
type Watcher struct {
	dir  string
	opts Options
}

// New creates a watcher for dir.
func New(dir string, opts Options) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	return &Watcher{dir: dir, opts: opts}
}

// IsBattleLog reports whether a path looks like a battle-log export.
func IsBattleLog(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".json" || ext == ".jsonl"
}

// Run blocks until ctx is cancelled, calling refresh after each burst of
// relevant file events and on every poll tick. Refresh errors are logged
// and do not stop the loop.
func (w *Watcher) Run(ctx context.Context, refresh func(context.Context) error) (err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer func() {
		if closeErr := watcher.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}

	var pollC <-chan time.Time
	if w.opts.Poll > 0 {
		ticker := time.NewTicker(w.opts.Poll)
		defer ticker.Stop()
		pollC = ticker.C
	}

	debounce := time.NewTimer(w.opts.Debounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	run := func(reason string) {
		if err := refresh(ctx); err != nil {
			w.opts.Log.Warn().Err(err).Str("reason", reason).Msg("refresh failed")
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !IsBattleLog(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.opts.Log.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("battle log changed")
			debounce.Reset(w.opts.Debounce)

		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.opts.Log.Warn().Err(werr).Msg("file watcher error")

		case <-debounce.C:
			run("file")

		case <-pollC:
			run("poll")
		}
	}
}
