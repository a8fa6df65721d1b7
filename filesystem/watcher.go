package filesystem

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jesspatton/testexplorer/logging"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const settleDelay = 100 * time.Millisecond

// Watcher reports changed files below a workspace root. Bursts of writes
// (editors saving through a temp file, formatters) are collected until the
// tree has been quiet for settleDelay, then every distinct path is sent once.
type Watcher struct {
	fs      *fsnotify.Watcher
	root    string
	ignorer *Ignorer
	log     zerolog.Logger

	// Events carries changed file paths in sorted order per batch.
	Events chan string

	mu      sync.Mutex
	batch   map[string]struct{}
	flush   *time.Timer
	done    chan struct{}
	closing sync.Once
}

// NewWatcher watches root and every directory below it that is not ignored.
func NewWatcher(root string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create watcher")
	}

	w := &Watcher{
		fs:      fsw,
		root:    root,
		ignorer: NewIgnorer(root),
		log:     logging.For("watcher"),
		Events:  make(chan string, 32),
		batch:   make(map[string]struct{}),
		done:    make(chan struct{}),
	}

	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, errors.Wrapf(err, "watch %s", root)
	}

	go w.loop()
	return w, nil
}

// Close stops the watcher. Pending paths are dropped.
func (w *Watcher) Close() {
	w.closing.Do(func() {
		close(w.done)
		w.mu.Lock()
		if w.flush != nil {
			w.flush.Stop()
		}
		w.mu.Unlock()
		w.fs.Close()
	})
}

// fsnotify is not recursive, so each directory is registered on its own.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.shouldIgnore(path) {
			return filepath.SkipDir
		}
		return w.fs.Add(path)
	})
}

func (w *Watcher) shouldIgnore(path string) bool {
	if w.ignorer == nil {
		return (&Ignorer{patterns: defaultIgnorePatterns}).ShouldIgnore(path, filepath.Dir(path))
	}
	return w.ignorer.ShouldIgnore(path, w.root)
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("watcher error")
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	// Permission changes never affect test results.
	if event.Op == fsnotify.Chmod || w.shouldIgnore(event.Name) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.log.Warn().Err(err).Str("dir", event.Name).Msg("cannot watch new directory")
			}
			return
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.batch[event.Name] = struct{}{}
	if w.flush != nil {
		w.flush.Stop()
	}
	w.flush = time.AfterFunc(settleDelay, w.send)
}

func (w *Watcher) send() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.batch))
	for p := range w.batch {
		paths = append(paths, p)
	}
	w.batch = make(map[string]struct{})
	w.mu.Unlock()

	sort.Strings(paths)
	w.log.Debug().Strs("paths", paths).Msg("files changed")
	for _, p := range paths {
		select {
		case w.Events <- p:
		case <-w.done:
			return
		}
	}
}
