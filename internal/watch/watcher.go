// SPDX-License-Identifier: MPL-2.0

// Package watch re-resolves build descriptions when they change.
//
// A Watcher monitors a directory tree and calls OnChange once per burst of
// changes to files matching the description patterns. Events arriving within
// the debounce window are coalesced into one call.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/buildgraph/buildgraph/internal/loader"
)

// DefaultDebounce is the quiet period used when Config.Debounce is not set.
const DefaultDebounce = 300 * time.Millisecond

// ErrAlreadyRunning is returned by a second call to Run.
var ErrAlreadyRunning = errors.New("watch: already running")

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Root is the directory to watch. Empty means the working directory.
		Root string
		// Patterns select the files whose changes matter, relative to Root.
		// Empty means loader.DefaultPatterns.
		Patterns []string
		// Exclude lists directories and files that are never watched.
		Exclude []string
		// Debounce is the quiet period after the last event.
		Debounce time.Duration
		// OnChange receives the changed paths relative to Root, sorted.
		OnChange func(ctx context.Context, changed []string) error
		Logger   *log.Logger
	}

	// Watcher monitors one directory tree. Run may be called only once.
	Watcher struct {
		cfg      Config
		root     string
		fsw      *fsnotify.Watcher
		logger   *log.Logger
		debounce time.Duration
		started  atomic.Bool
	}
)

// New validates cfg and registers every directory below Root that is not
// excluded.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Patterns) == 0 {
		cfg.Patterns = loader.DefaultPatterns
	}
	if err := loader.ValidatePatterns(cfg.Patterns); err != nil {
		return nil, err
	}
	if err := loader.ValidatePatterns(cfg.Exclude); err != nil {
		return nil, err
	}

	root := cfg.Root
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve %s: %w", root, err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}
	w := &Watcher{cfg: cfg, root: abs, fsw: fsw, logger: logger, debounce: debounce}
	if err := w.addTree(abs); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run processes events until ctx is canceled. It returns nil on
// cancellation and an error when the watcher breaks down. Run returns only
// after an OnChange call in progress has finished.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer func() {
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("close watcher", "err", err)
		}
	}()

	b := &batch{pending: make(map[string]struct{})}
	b.fire = func() {
		if !b.enter() {
			return
		}
		defer b.inflight.Done()
		w.flush(ctx, b)
	}
	defer b.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: event channel closed")
			}
			w.handle(evt, b)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: error channel closed")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: %w", err)
			}
			w.logger.Warn("watch error", "err", err)
		}
	}
}

func (w *Watcher) handle(evt fsnotify.Event, b *batch) {
	rel, err := filepath.Rel(w.root, evt.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)
	if matchAny(w.cfg.Exclude, rel) {
		return
	}
	if evt.Has(fsnotify.Create) {
		if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
			if err := w.addTree(evt.Name); err != nil {
				w.logger.Warn("watch new directory", "dir", rel, "err", err)
			}
			return
		}
	}
	if !matchAny(w.cfg.Patterns, rel) {
		return
	}
	w.logger.Debug("description changed", "file", rel, "op", evt.Op.String())
	b.add(rel, w.debounce)
}

// flush hands the pending paths to OnChange. A flush that finds the previous
// call still running reschedules itself instead of running concurrently.
func (w *Watcher) flush(ctx context.Context, b *batch) {
	if ctx.Err() != nil {
		return
	}
	if !b.running.CompareAndSwap(false, true) {
		b.reschedule(w.debounce)
		return
	}
	defer b.running.Store(false)

	changed := b.drain()
	if len(changed) == 0 || w.cfg.OnChange == nil {
		return
	}
	if err := w.cfg.OnChange(ctx, changed); err != nil {
		w.logger.Error("re-resolve failed", "err", err)
	}
}

// addTree watches dir and every directory below it that is not excluded.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("skipping unreadable path", "path", path, "err", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(w.root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if rel != "." && (matchAny(w.cfg.Exclude, rel) || matchAny(w.cfg.Exclude, rel+"/")) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch: add %s: %w", path, err)
		}
		return nil
	})
}

// batch accumulates changed paths between two flushes.
type batch struct {
	mu       sync.Mutex
	pending  map[string]struct{}
	timer    *time.Timer
	fire     func()
	running  atomic.Bool
	stopped  bool
	inflight sync.WaitGroup
}

// enter registers a flush unless the batch is stopped.
func (b *batch) enter() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return false
	}
	b.inflight.Add(1)
	return true
}

func (b *batch) add(rel string, debounce time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending[rel] = struct{}{}
	if b.timer == nil {
		b.timer = time.AfterFunc(debounce, b.fire)
		return
	}
	b.timer.Reset(debounce)
}

func (b *batch) reschedule(debounce time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Reset(debounce)
	}
}

func (b *batch) drain() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	changed := slices.Sorted(maps.Keys(b.pending))
	clear(b.pending)
	return changed
}

// stop cancels the pending flush and waits for a running one.
func (b *batch) stop() {
	b.mu.Lock()
	b.stopped = true
	if b.timer != nil {
		b.timer.Stop()
	}
	b.mu.Unlock()
	b.inflight.Wait()
}

func matchAny(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, rel); err == nil && ok {
			return true
		}
	}
	return false
}
