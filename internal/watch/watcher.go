// Package watch reports media files that appear in a folder once they have
// stopped changing.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"

	"github.com/mantonx/mediaconv/internal/media/catalog"
	"github.com/mantonx/mediaconv/internal/utils"
)

// Handler receives a batch of settled files, sorted by path
type Handler func(paths []string)

// Options configures a Watcher
type Options struct {
	Dir       string
	Recursive bool

	// Debounce is how long a file must go without events before it is
	// reported.
	Debounce time.Duration

	// Ignore filters paths the caller already knows about, such as its own
	// conversion outputs.
	Ignore func(path string) bool
}

// Watcher monitors one directory tree
type Watcher struct {
	logger  hclog.Logger
	opts    Options
	handler Handler
	watcher *fsnotify.Watcher

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	eventQueue chan string
}

// New creates a watcher for opts.Dir. Nothing is watched until Start.
func New(logger hclog.Logger, opts Options, handler Handler) (*Watcher, error) {
	if handler == nil {
		return nil, fmt.Errorf("watch handler is required")
	}
	info, err := os.Stat(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch path is not a directory: %s", opts.Dir)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 2 * time.Second
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		logger:     logger.Named("watch"),
		opts:       opts,
		handler:    handler,
		watcher:    fsw,
		ctx:        ctx,
		cancel:     cancel,
		eventQueue: make(chan string, 1000),
	}, nil
}

// Start adds the directory (and subdirectories when recursive) and begins
// processing events.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.opts.Dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.opts.Dir, err)
	}
	if w.opts.Recursive {
		w.addRecursiveWatch(w.opts.Dir)
	}

	w.wg.Add(2)
	go w.watchEvents()
	go w.processFileEvents()

	w.logger.Info("watching folder", "dir", w.opts.Dir, "recursive", w.opts.Recursive, "debounce", w.opts.Debounce)
	return nil
}

// Stop ends monitoring. Files still settling are dropped.
func (w *Watcher) Stop() error {
	w.cancel()
	err := w.watcher.Close()
	w.wg.Wait()
	w.logger.Info("watch stopped", "dir", w.opts.Dir)
	return err
}

func (w *Watcher) addRecursiveWatch(root string) {
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && path != root {
			if err := w.watcher.Add(path); err != nil {
				w.logger.Debug("failed to add watch for subdirectory", "path", path, "error", err)
			}
		}
		return nil
	})
}

func (w *Watcher) watchEvents() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", "error", err)

		case <-w.ctx.Done():
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	if event.Has(fsnotify.Create) && w.opts.Recursive {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(event.Name); err != nil {
				w.logger.Error("failed to add watch for new directory", "path", event.Name, "error", err)
			}
			w.addRecursiveWatch(event.Name)
			return
		}
	}

	if !catalog.IsSupported(catalog.Extension(event.Name)) {
		return
	}

	select {
	case w.eventQueue <- event.Name:
	case <-time.After(time.Second):
		w.logger.Warn("file event queue full, dropping event", "path", event.Name)
	case <-w.ctx.Done():
	}
}

// processFileEvents holds each path until it has been quiet for the
// debounce interval, then reports all settled paths together. A path whose
// content is unchanged since it was last reported is not reported again.
func (w *Watcher) processFileEvents() {
	defer w.wg.Done()

	lastSeen := make(map[string]time.Time)
	reported := make(map[string]string)
	tick := w.opts.Debounce / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case path := <-w.eventQueue:
			lastSeen[path] = time.Now()

		case now := <-ticker.C:
			var settled []string
			for path, seen := range lastSeen {
				if now.Sub(seen) < w.opts.Debounce {
					continue
				}
				delete(lastSeen, path)
				if w.accept(path, reported) {
					settled = append(settled, path)
				}
			}
			if len(settled) > 0 {
				sort.Strings(settled)
				w.logger.Debug("files settled", "count", len(settled))
				w.handler(settled)
			}

		case <-w.ctx.Done():
			return
		}
	}
}

func (w *Watcher) accept(path string, reported map[string]string) bool {
	if w.opts.Ignore != nil && w.opts.Ignore(path) {
		return false
	}
	if !catalog.IsValidCandidate(path) {
		return false
	}

	fp, err := utils.Fingerprint(path)
	if err != nil {
		w.logger.Debug("cannot fingerprint file", "path", path, "error", err)
		return false
	}
	if reported[path] == fp {
		w.logger.Debug("file unchanged since last report", "path", path)
		return false
	}
	reported[path] = fp
	return true
}
