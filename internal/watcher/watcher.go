// Package watcher reports changes to files under registered assets
// directories, debounced, as pubsub events.
package watcher

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/assetq/internal/log"
	"github.com/zjrosen/assetq/internal/pubsub"
)

// Dir is an assets directory owned by a namespace.
type Dir struct {
	Namespace string
	Path      string
}

// Change is the payload of a published event.
type Change struct {
	Namespace string
	File      string // relative to the assets directory, slash separated
	Path      string // absolute
}

// Config holds watcher configuration options.
type Config struct {
	Dirs     []Dir
	Debounce time.Duration
}

// DefaultConfig returns sensible defaults for the watcher.
func DefaultConfig(dirs ...Dir) Config {
	return Config{
		Dirs:     dirs,
		Debounce: 100 * time.Millisecond,
	}
}

// Watcher monitors assets directories and publishes a Change per touched
// file once events for it have been quiet for the debounce interval.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	dirs      []Dir
	debounce  time.Duration
	pub       pubsub.Publisher[Change]

	pending map[string]fsnotify.Op

	started  bool
	done     chan struct{}
	exited   chan struct{}
	stopOnce sync.Once
}

// New creates a watcher publishing to pub.
func New(cfg Config, pub pubsub.Publisher[Change]) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	dirs := make([]Dir, 0, len(cfg.Dirs))
	for _, d := range cfg.Dirs {
		dirs = append(dirs, Dir{Namespace: d.Namespace, Path: filepath.Clean(d.Path)})
	}
	// Longest path first so nested assets directories win.
	sort.SliceStable(dirs, func(i, j int) bool { return len(dirs[i].Path) > len(dirs[j].Path) })

	return &Watcher{
		fsWatcher: fsw,
		dirs:      dirs,
		debounce:  cfg.Debounce,
		pub:       pub,
		pending:   make(map[string]fsnotify.Op),
		done:      make(chan struct{}),
		exited:    make(chan struct{}),
	}, nil
}

// Start adds every directory tree to the watch list and begins publishing.
func (w *Watcher) Start() error {
	for _, d := range w.dirs {
		if err := w.addTree(d.Path, false); err != nil {
			return err
		}
	}
	w.started = true
	go w.loop()
	return nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsWatcher.Close()
		if w.started {
			<-w.exited
		}
	})
	return err
}

// addTree watches root and every directory below it. With seed set, files
// already present are queued as created; they may have been written before
// the watch existed.
func (w *Watcher) addTree(root string, seed bool) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		if path != root && ignored(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if err := w.fsWatcher.Add(path); err != nil {
				return fmt.Errorf("watching directory %s: %w", path, err)
			}
			log.Debug(log.CatWatcher, "watching", "dir", path)
			return nil
		}
		if seed {
			w.pending[path] |= fsnotify.Create
		}
		return nil
	})
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	defer close(w.exited)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		var fire <-chan time.Time
		if timer != nil {
			fire = timer.C
		}

		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.track(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)

		case <-fire:
			timer = nil
			w.flush()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Warn(log.CatWatcher, "watch error", "error", err)

		case <-w.done:
			return
		}
	}
}

// track records event and reports whether it should (re)start the debounce.
func (w *Watcher) track(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if ignored(filepath.Base(event.Name)) {
		return false
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name, true); err != nil {
				log.Warn(log.CatWatcher, "watch new directory failed", "dir", event.Name, "error", err)
			}
			return len(w.pending) > 0
		}
	}

	w.pending[event.Name] |= event.Op
	return true
}

// flush publishes one event per pending file, in path order.
func (w *Watcher) flush() {
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		op := w.pending[p]
		change, ok := w.resolve(p)
		if !ok {
			continue
		}
		kind := classify(p, op)
		log.Debug(log.CatWatcher, "asset changed", "event", kind, "namespace", change.Namespace, "file", change.File)
		w.pub.Publish(kind, change)
	}
	w.pending = make(map[string]fsnotify.Op)
}

// resolve maps an absolute path to the namespace whose directory holds it.
func (w *Watcher) resolve(path string) (Change, bool) {
	path = filepath.Clean(path)
	for _, d := range w.dirs {
		rel, err := filepath.Rel(d.Path, path)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return Change{Namespace: d.Namespace, File: filepath.ToSlash(rel), Path: path}, true
	}
	return Change{}, false
}

func classify(path string, op fsnotify.Op) pubsub.EventType {
	if op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		if _, err := os.Stat(path); err != nil {
			return pubsub.DeletedEvent
		}
	}
	if op&fsnotify.Create != 0 {
		return pubsub.CreatedEvent
	}
	return pubsub.UpdatedEvent
}

// ignored matches dotfiles and editor backups.
func ignored(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") || strings.HasSuffix(name, ".swp")
}
