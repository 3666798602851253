// Package watch restarts a program whenever files under the project root
// change. It backs `cpm dev --watch` when nodemon is not installed.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"go.uber.org/zap"
)

// DefaultDebounce coalesces editor save bursts into one restart.
const DefaultDebounce = 300 * time.Millisecond

// DefaultIgnore is always excluded from watching.
var DefaultIgnore = []string{".git", "node_modules", "target", "pkg"}

// Options configure a Watcher.
type Options struct {
	Debounce time.Duration
	// Ignore holds extra gitignore style patterns relative to the root.
	Ignore []string
	Logger *zap.Logger
}

// Watcher observes every non-ignored directory below a root.
type Watcher struct {
	root     string
	fsw      *fsnotify.Watcher
	matcher  gitignore.Matcher
	debounce time.Duration
	logger   *zap.Logger
}

// New starts watching root. Patterns from root/.gitignore are honoured on top
// of DefaultIgnore and opts.Ignore.
func New(root string, opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		root:     root,
		fsw:      fsw,
		matcher:  NewMatcher(root, opts.Ignore),
		debounce: opts.Debounce,
		logger:   opts.Logger,
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.logger == nil {
		w.logger = zap.NewNop()
	}
	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// NewMatcher builds the ignore matcher for root from the built-in patterns,
// extra and the project's .gitignore.
func NewMatcher(root string, extra []string) gitignore.Matcher {
	lines := append(append([]string{}, DefaultIgnore...), extra...)
	if data, err := os.ReadFile(filepath.Join(root, ".gitignore")); err == nil {
		lines = append(lines, strings.Split(string(data), "\n")...)
	}
	var patterns []gitignore.Pattern
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	return gitignore.NewMatcher(patterns)
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Ignored reports whether the path relative to the root is excluded.
func (w *Watcher) Ignored(rel string, isDir bool) bool {
	segments := splitPath(rel)
	if len(segments) == 0 {
		return false
	}
	return w.matcher.Match(segments, isDir)
}

func (w *Watcher) addTree(dir string) error {
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
		rel, _ := filepath.Rel(w.root, path)
		if path != w.root && w.Ignored(rel, true) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Debug("watch add failed", zap.String("path", path), zap.Error(err))
		}
		return nil
	})
}

// Changes emits debounced batches of changed paths, relative to the root and
// sorted. The channel closes when ctx ends or the watcher is closed.
func (w *Watcher) Changes(ctx context.Context) <-chan []string {
	out := make(chan []string)
	go func() {
		defer close(out)
		pending := map[string]struct{}{}
		timer := time.NewTimer(time.Hour)
		timer.Stop()
		defer timer.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.fsw.Events:
				if !ok {
					return
				}
				rel, ok := w.accept(ev)
				if !ok {
					continue
				}
				pending[rel] = struct{}{}
				timer.Reset(w.debounce)
			case err, ok := <-w.fsw.Errors:
				if !ok {
					return
				}
				w.logger.Warn("watch error", zap.Error(err))
			case <-timer.C:
				if len(pending) == 0 {
					continue
				}
				batch := make([]string, 0, len(pending))
				for p := range pending {
					batch = append(batch, p)
				}
				sort.Strings(batch)
				pending = map[string]struct{}{}
				select {
				case out <- batch:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

func (w *Watcher) accept(ev fsnotify.Event) (string, bool) {
	if ev.Op == fsnotify.Chmod {
		return "", false
	}
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		return "", false
	}
	info, statErr := os.Stat(ev.Name)
	isDir := statErr == nil && info.IsDir()
	if w.Ignored(rel, isDir) {
		return "", false
	}
	if isDir && ev.Has(fsnotify.Create) {
		if err := w.addTree(ev.Name); err != nil {
			w.logger.Debug("watch new directory failed", zap.String("path", ev.Name), zap.Error(err))
		}
	}
	return filepath.ToSlash(rel), true
}

// Run starts fn and restarts it after every change batch until ctx ends.
// onRestart sees the batch that caused a restart.
func (w *Watcher) Run(ctx context.Context, fn func(context.Context) error, onRestart func([]string), onExit func(error)) error {
	return Supervise(ctx, w.Changes(ctx), fn, onRestart, onExit)
}

// ErrStopped is returned by Supervise when the change source closes while the
// caller's context is still live.
var ErrStopped = errors.New("file watcher stopped")

// Supervise runs fn, cancelling and restarting it for every batch received
// on changes. When fn returns on its own, Supervise reports it to onExit and
// waits for the next change. It returns nil once ctx is done.
func Supervise(ctx context.Context, changes <-chan []string, fn func(context.Context) error, onRestart func([]string), onExit func(error)) error {
	for {
		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() { done <- fn(runCtx) }()
		running := true

		stop := func() {
			cancel()
			if running {
				<-done
			}
		}

	wait:
		for {
			select {
			case <-ctx.Done():
				stop()
				return nil
			case err := <-done:
				running = false
				done = nil
				if onExit != nil {
					onExit(err)
				}
			case batch, ok := <-changes:
				if !ok {
					stop()
					if ctx.Err() != nil {
						return nil
					}
					return ErrStopped
				}
				stop()
				if onRestart != nil {
					onRestart(batch)
				}
				break wait
			}
		}
	}
}

func splitPath(path string) []string {
	var segments []string
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part != "" && part != "." {
			segments = append(segments, part)
		}
	}
	return segments
}
