// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package watch re-runs work on source files as they change.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrNilHandler is returned by New without a handler.
var ErrNilHandler = errors.New("handler must not be nil")

// Change is one file system change.
type Change struct {
	// Path is the path of the changed file.
	Path string

	// Op is the type of change.
	Op Op

	// Time is when the change was detected.
	Time time.Time
}

// Op is the type of a file operation.
type Op int

const (
	// OpCreate indicates a file was created.
	OpCreate Op = iota

	// OpWrite indicates a file was modified.
	OpWrite

	// OpRemove indicates a file was deleted.
	OpRemove

	// OpRename indicates a file was renamed away.
	OpRename
)

// String returns the string representation of the operation.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpWrite:
		return "write"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Handler is called with each debounced batch of changes.
type Handler func(ctx context.Context, changes []Change)

// Options configures a Watcher.
type Options struct {
	// Debounce is how long to wait for more changes before calling the
	// handler. Default: 200ms.
	Debounce time.Duration

	// Ignore lists file or directory names, or glob patterns matched
	// against each path element below the root.
	Ignore []string

	// Include lists the file extensions reported. Empty reports all files.
	Include []string

	// BufferSize is the capacity of the change channel. Default: 1024.
	BufferSize int

	// Logger receives watch errors. Default: slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns the watcher defaults.
func DefaultOptions() Options {
	return Options{
		Debounce:   200 * time.Millisecond,
		Ignore:     []string{".git", "node_modules", "*.swp", "*.tmp", "*~"},
		BufferSize: 1024,
	}
}

// Watcher watches a directory tree and hands debounced batches of changes
// to a Handler.
//
// # Description
//
// Changes are collected into a batch. When the debounce window expires
// without new changes, the batch is de-duplicated per path and passed to
// the handler. Directories created while watching are added
// automatically.
//
// # Thread Safety
//
// Safe for concurrent use. The handler is called from a single goroutine,
// so batches never overlap.
type Watcher struct {
	root     string
	watcher  *fsnotify.Watcher
	handler  Handler
	debounce time.Duration
	ignore   []string
	include  map[string]struct{}
	logger   *slog.Logger

	changes  chan Change
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu       sync.RWMutex
	watching bool
}

// New creates a Watcher for root. Call Start to begin watching.
//
// # Inputs
//
//   - root: Directory to watch recursively.
//   - handler: Called with batched changes after the debounce window.
//   - opts: Configuration; zero fields take the DefaultOptions values.
//
// # Outputs
//
//   - *Watcher: Ready-to-start watcher.
//   - error: ErrNilHandler, or a failure creating the fsnotify watcher.
func New(root string, handler Handler, opts Options) (*Watcher, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	defaults := DefaultOptions()
	if opts.Debounce <= 0 {
		opts.Debounce = defaults.Debounce
	}
	if opts.Ignore == nil {
		opts.Ignore = defaults.Ignore
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = defaults.BufferSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	var include map[string]struct{}
	if len(opts.Include) > 0 {
		include = make(map[string]struct{}, len(opts.Include))
		for _, ext := range opts.Include {
			include[ext] = struct{}{}
		}
	}

	return &Watcher{
		root:     filepath.Clean(root),
		watcher:  fw,
		handler:  handler,
		debounce: opts.Debounce,
		ignore:   opts.Ignore,
		include:  include,
		logger:   opts.Logger,
		changes:  make(chan Change, opts.BufferSize),
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching.
//
// # Behavior
//
// Spawns two goroutines: an event processor converting fsnotify events
// into Changes and a debouncer calling the handler. Both exit when Stop
// is called or ctx is canceled; a pending batch is flushed on exit.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return nil
	}
	w.watching = true
	w.mu.Unlock()

	if err := w.addRecursive(w.root); err != nil {
		w.Stop()
		return err
	}

	w.wg.Add(2)
	go w.processEvents(ctx)
	go w.debounceLoop(ctx)
	return nil
}

// Run starts the watcher and blocks until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	w.Stop()
	return nil
}

// Stop stops the watcher and waits for a running handler call to return.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.watcher.Close()
		w.wg.Wait()

		w.mu.Lock()
		w.watching = false
		w.mu.Unlock()
	})
}

// Watching reports whether the watcher is active.
func (w *Watcher) Watching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.watching
}

// addRecursive adds dir and all of its non-ignored subdirectories.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.shouldIgnore(path) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// shouldIgnore reports whether any path element below the root matches an
// ignore pattern.
func (w *Watcher) shouldIgnore(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." {
		return false
	}
	for _, elem := range strings.Split(filepath.ToSlash(rel), "/") {
		for _, pattern := range w.ignore {
			if elem == pattern {
				return true
			}
			if matched, _ := filepath.Match(pattern, elem); matched {
				return true
			}
		}
	}
	return false
}

func (w *Watcher) included(path string) bool {
	if w.include == nil {
		return true
	}
	_, ok := w.include[filepath.Ext(path)]
	return ok
}

// processEvents converts fsnotify events into Changes.
func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.shouldIgnore(event.Name) {
				continue
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(event.Name); err != nil {
						w.logger.Warn("watching new directory failed",
							slog.String("path", event.Name),
							slog.String("error", err.Error()))
					}
					continue
				}
			}
			if !w.included(event.Name) {
				continue
			}

			change := Change{Path: event.Name, Op: convertOp(event.Op), Time: time.Now()}
			select {
			case w.changes <- change:
			default:
				w.logger.Warn("change buffer full, dropping event",
					slog.String("path", event.Name))
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", slog.String("error", err.Error()))
		}
	}
}

func convertOp(op fsnotify.Op) Op {
	switch {
	case op.Has(fsnotify.Create):
		return OpCreate
	case op.Has(fsnotify.Write):
		return OpWrite
	case op.Has(fsnotify.Remove):
		return OpRemove
	case op.Has(fsnotify.Rename):
		return OpRename
	default:
		return OpWrite
	}
}

// debounceLoop batches changes and calls the handler once the debounce
// window passes without new changes.
func (w *Watcher) debounceLoop(ctx context.Context) {
	defer w.wg.Done()
	var batch []Change
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		if len(batch) > 0 {
			w.handler(ctx, Deduplicate(batch))
			batch = nil
		}
		if timer != nil {
			timer.Stop()
			timer = nil
			timerC = nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case <-w.done:
			flush()
			return
		case change := <-w.changes:
			batch = append(batch, change)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case <-timerC:
			flush()
		}
	}
}

// Deduplicate keeps the latest change per path, in order of first
// appearance.
func Deduplicate(changes []Change) []Change {
	seen := make(map[string]int, len(changes))
	result := make([]Change, 0, len(changes))
	for _, change := range changes {
		if idx, ok := seen[change.Path]; ok {
			result[idx] = change
			continue
		}
		seen[change.Path] = len(result)
		result = append(result, change)
	}
	return result
}

// Existing returns the paths of changes whose file still exists.
func Existing(changes []Change) []string {
	paths := make([]string, 0, len(changes))
	for _, c := range changes {
		if c.Op == OpRemove || c.Op == OpRename {
			continue
		}
		if info, err := os.Stat(c.Path); err == nil && info.Mode().IsRegular() {
			paths = append(paths, c.Path)
		}
	}
	return paths
}
