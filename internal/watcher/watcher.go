// Package watcher watches a block tree and signals, debounced, when a
// rebuild is due.
package watcher

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors every directory below Root.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	root      string
	ext       string
	debounce  time.Duration
	logger    *slog.Logger
	onChange  chan struct{}
	done      chan struct{}
}

// Config holds watcher configuration options.
type Config struct {
	Root        string
	Extension   string
	DebounceDur time.Duration
	Logger      *slog.Logger
}

// DefaultConfig returns the defaults for watching root.
func DefaultConfig(root string) Config {
	return Config{
		Root:        root,
		Extension:   ".html",
		DebounceDur: 300 * time.Millisecond,
	}
}

// New creates a watcher. Call Start to begin watching.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ext := cfg.Extension
	if ext == "" {
		ext = ".html"
	}
	return &Watcher{
		fsWatcher: fsw,
		root:      cfg.Root,
		ext:       ext,
		debounce:  cfg.DebounceDur,
		logger:    logger,
		onChange:  make(chan struct{}, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start adds every directory below the root and returns a channel that
// receives one signal per burst of relevant changes.
func (w *Watcher) Start() (<-chan struct{}, error) {
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && skipped(d.Name()) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
	if err != nil {
		return nil, fmt.Errorf("watching %s: %w", w.root, err)
	}

	go w.loop()

	return w.onChange, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		pending bool
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.isRelevantEvent(event) {
				continue
			}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			pending = true

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			if pending {
				select {
				case w.onChange <- struct{}{}:
				default:
				}
				pending = false
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "err", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// isRelevantEvent reports whether the event can change the registry. New
// directories are added to the watch list as a side effect.
func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	base := filepath.Base(event.Name)
	if skipped(base) {
		return false
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.fsWatcher.Add(event.Name); err != nil {
				w.logger.Warn("cannot watch new directory", "dir", event.Name, "err", err)
			}
			return true
		}
	}

	if filepath.Ext(base) == w.ext {
		return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0
	}
	// Removing or renaming a directory drops every leaf below it.
	return filepath.Ext(base) == "" && event.Op&(fsnotify.Remove|fsnotify.Rename) != 0
}

func skipped(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}
