package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/toyz/annoroute/internal/utils"
)

// ChangeHandler receives the files changed during one debounce window
type ChangeHandler func(paths []string)

// Watcher reports source file changes under a set of scan patterns,
// grouping bursts of events into one callback
type Watcher struct {
	fsw        *fsnotify.Watcher
	delay      time.Duration
	extensions []string
	dirFilter  utils.DirectoryFilter
	recursive  map[string]bool
	onError    func(error)
}

// NewWatcher creates a watcher for files with the given extensions
func NewWatcher(delay time.Duration, extensions []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if len(extensions) == 0 {
		extensions = utils.DefaultExtensions
	}
	return &Watcher{
		fsw:        fsw,
		delay:      delay,
		extensions: extensions,
		dirFilter:  utils.DefaultDirectoryFilter(),
		recursive:  make(map[string]bool),
		onError:    func(error) {},
	}, nil
}

// OnError sets the callback for watcher errors; they never stop the watch
func (w *Watcher) OnError(fn func(error)) {
	if fn != nil {
		w.onError = fn
	}
}

// AddPattern watches the directory a scan pattern names. Patterns ending in
// "/..." also watch every subdirectory, including ones created later. A file
// pattern watches the directory holding it.
func (w *Watcher) AddPattern(pattern string) error {
	root, recursive := utils.SplitPattern(pattern)

	info, err := os.Stat(root)
	if err != nil {
		return utils.WrapProcessError(pattern, err)
	}
	if !info.IsDir() {
		return w.fsw.Add(filepath.Dir(root))
	}
	if !recursive {
		return w.fsw.Add(root)
	}
	return w.addTree(root)
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && !w.dirFilter(path, d) {
			return filepath.SkipDir
		}
		w.recursive[filepath.Clean(path)] = true
		return w.fsw.Add(path)
	})
}

// Run delivers batched changes to onChange until ctx is done
func (w *Watcher) Run(ctx context.Context, onChange ChangeHandler) error {
	pending := make(map[string]bool)
	timer := time.NewTimer(w.delay)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.handleEvent(event) {
				if len(pending) == 0 {
					timer.Reset(w.delay)
				}
				pending[filepath.Clean(event.Name)] = true
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.onError(err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			pending = make(map[string]bool)
			onChange(paths)
		}
	}
}

// handleEvent reports whether the event concerns a watched source file and
// starts watching directories created under a recursive root
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if w.recursive[filepath.Dir(filepath.Clean(event.Name))] {
				if err := w.addTree(event.Name); err != nil {
					w.onError(err)
				}
			}
			return false
		}
	}

	return w.isSource(event.Name)
}

func (w *Watcher) isSource(path string) bool {
	name := filepath.Base(path)
	if strings.HasSuffix(name, "_test.go") {
		return false
	}
	for _, ext := range w.extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// Close stops watching
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
