// Package watcher hands audio files dropped into a directory to a handler,
// one at a time.
package watcher

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/papercomputeco/earful/pkg/audio"
)

// Handler processes one audio file. A returned error is logged and watching
// continues.
type Handler func(ctx context.Context, path string) error

// DefaultSettleDelay is how long a file must go without writes before it is
// handed to the handler.
const DefaultSettleDelay = 500 * time.Millisecond

// Option configures a Watcher.
type Option func(*Watcher)

// WithSettleDelay overrides DefaultSettleDelay. Non-positive values are ignored.
func WithSettleDelay(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// Watcher watches a single directory for new audio files.
type Watcher struct {
	dir     string
	handler Handler
	logger  *zap.Logger
	settle  time.Duration

	// pending maps a path to the time of its last create or write event.
	pending map[string]time.Time

	// ready is closed once the directory is being watched.
	ready chan struct{}
}

// New creates a Watcher for dir.
func New(dir string, handler Handler, logger *zap.Logger, opts ...Option) *Watcher {
	w := &Watcher{
		dir:     dir,
		handler: handler,
		logger:  logger,
		settle:  DefaultSettleDelay,
		pending: make(map[string]time.Time),
		ready:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Ready is closed when Run has started watching.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run blocks until ctx is cancelled or the underlying watcher fails.
// A file is handed off once no create or write event has been seen for it
// for the settle delay, so files still being copied in are not read early.
// Handlers run sequentially on the calling goroutine.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	w.logger.Info("watching for audio files", zap.String("dir", w.dir))
	close(w.ready)

	tick := w.settle / 4
	if tick <= 0 {
		tick = w.settle
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.observe(event)

		case now := <-ticker.C:
			for _, path := range w.settled(now) {
				if ctx.Err() != nil {
					return nil
				}
				w.handle(ctx, path)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

func (w *Watcher) observe(event fsnotify.Event) {
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		// Rename is reported for the old name; the new name arrives as Create.
		delete(w.pending, event.Name)
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		if !audio.IsAudioFile(event.Name) {
			w.logger.Debug("ignoring non-audio file", zap.String("path", event.Name))
			return
		}
		w.pending[event.Name] = time.Now()
	}
}

// settled removes and returns the pending paths that have been quiet for the
// settle delay, oldest first.
func (w *Watcher) settled(now time.Time) []string {
	type entry struct {
		path string
		last time.Time
	}

	var ready []entry
	for path, last := range w.pending {
		if now.Sub(last) >= w.settle {
			ready = append(ready, entry{path: path, last: last})
			delete(w.pending, path)
		}
	}
	sort.Slice(ready, func(i, j int) bool {
		return ready[i].last.Before(ready[j].last)
	})

	paths := make([]string, len(ready))
	for i, e := range ready {
		paths[i] = e.path
	}
	return paths
}

func (w *Watcher) handle(ctx context.Context, path string) {
	// The file may have been moved away after its last event.
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return
	}

	w.logger.Debug("new audio file", zap.String("path", path), zap.Int64("size", info.Size()))
	if err := w.handler(ctx, path); err != nil {
		w.logger.Error("failed to process audio file", zap.String("path", path), zap.Error(err))
	}
}
