package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// DefaultDebounce is the quiet period after the last event before a run
	DefaultDebounce = 300 * time.Millisecond
	// DefaultMaxRunsPerMinute bounds how often runs may start
	DefaultMaxRunsPerMinute = 30
)

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	"vendor":       true,
	"node_modules": true,
}

// RunFunc is called once per debounced batch of changes. changed is the last
// file that triggered the batch.
type RunFunc func(ctx context.Context, changed string)

type Watcher struct {
	paths      []string
	extensions []string
	debounce   time.Duration
	limiter    *rate.Limiter
	logger     logrus.FieldLogger
}

type Option func(*Watcher)

func WithPaths(paths ...string) Option {
	return func(w *Watcher) {
		w.paths = paths
	}
}

// WithExtensions limits runs to files with one of exts (".go"). An empty
// list matches every file.
func WithExtensions(exts ...string) Option {
	return func(w *Watcher) {
		w.extensions = exts
	}
}

func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

func WithMaxRunsPerMinute(n int) Option {
	return func(w *Watcher) {
		if n > 0 {
			w.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
		}
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(w *Watcher) {
		w.logger = l
	}
}

func New(opts ...Option) *Watcher {
	w := &Watcher{
		paths:    []string{"."},
		debounce: DefaultDebounce,
		logger:   logrus.StandardLogger(),
	}
	WithMaxRunsPerMinute(DefaultMaxRunsPerMinute)(w)
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Matches reports whether a change to path should trigger a run.
func (w *Watcher) Matches(path string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	ext := filepath.Ext(path)
	for _, e := range w.extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// Run watches the configured paths and calls run for every debounced batch of
// matching changes until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context, run RunFunc) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	for _, p := range w.paths {
		if err := w.addRecursive(fw, p); err != nil {
			return err
		}
	}

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		changed string
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

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(fw, event.Name); err != nil {
						w.logger.WithError(err).Warn("cannot watch new directory")
					}
					continue
				}
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !w.Matches(event.Name) {
				continue
			}

			w.logger.WithField("file", event.Name).Trace("change detected")
			changed = event.Name
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			fire = timer.C

		case <-fire:
			fire = nil
			if w.limiter != nil {
				if err := w.limiter.Wait(ctx); err != nil {
					return nil
				}
			}
			w.logger.WithField("file", changed).Debug("re-running after change")
			run(ctx, changed)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("watcher error")
		}
	}
}

func (w *Watcher) addRecursive(fw *fsnotify.Watcher, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("cannot watch %s: %w", root, err)
	}
	if !info.IsDir() {
		return fw.Add(root)
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (skipDirs[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}
