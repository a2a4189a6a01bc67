/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

package filemap

import (
	"path"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"bennypowers.dev/deltabundle/fs"
)

// Stat records the last-observed size and modification time of a file.
// Events are not filtered against it: a touch that leaves size and mtime
// unchanged is still reported as a change.
type Stat struct {
	Size    int64
	ModTime time.Time
}

// Delta is a coalesced batch of changes, handed to subscribers once the
// debounce window has elapsed with no further activity.
type Delta struct {
	Touched []string
	Deleted []string
}

// Options configures a FileMap.
type Options struct {
	// Ignore, if set, excludes any path matching it from the crawl and
	// from subsequent watch events.
	Ignore *regexp.Regexp

	// IncludeDotfiles includes dot-prefixed files and directories, which
	// are skipped by default (matching the conventional source-tree
	// crawl policy of ignoring ".git", ".cache", etc).
	IncludeDotfiles bool

	// DebounceWindow is the quiet period after the last observed event
	// before a Delta is flushed to subscribers. Defaults to 50ms.
	DebounceWindow time.Duration
}

type subscription struct {
	predicate func(path string) bool
	ch        chan Delta
}

// FileMap crawls a root directory and then maintains a live view of it
// via a Backend, publishing coalesced Deltas to subscribers.
type FileMap struct {
	filesystem fs.FileSystem
	backend    Backend
	root       string
	opts       Options

	mu    sync.RWMutex
	files map[string]Stat

	subMu sync.Mutex
	subs  []*subscription

	pendingMu sync.Mutex
	pending   map[string]bool // path -> touched(true) / deleted(false)
	timer     *time.Timer

	errs chan error

	closeOnce sync.Once
	closed    chan struct{}
}

// New crawls root eagerly and returns a FileMap ready to Start watching.
func New(filesystem fs.FileSystem, backend Backend, root string, opts Options) (*FileMap, error) {
	if opts.DebounceWindow <= 0 {
		opts.DebounceWindow = 50 * time.Millisecond
	}

	fm := &FileMap{
		filesystem: filesystem,
		backend:    backend,
		root:       root,
		opts:       opts,
		files:      make(map[string]Stat),
		pending:    make(map[string]bool),
		errs:       make(chan error, 16),
		closed:     make(chan struct{}),
	}

	if err := fm.crawl(); err != nil {
		return nil, err
	}

	return fm, nil
}

func (fm *FileMap) crawl() error {
	return fm.crawlDir(fm.root)
}

// crawlDir registers dir with the watch backend and recurses into its
// children, skipping any entry shouldIgnore rejects before descending
// (so an ignored directory like node_modules is never walked).
func (fm *FileMap) crawlDir(dir string) error {
	if err := fm.backend.Add(dir); err != nil {
		return err
	}

	entries, err := fm.filesystem.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		childPath := path.Join(dir, entry.Name())
		if fm.shouldIgnore(childPath) {
			continue
		}

		info, err := fm.filesystem.Lstat(childPath)
		if err != nil {
			continue
		}

		if info.IsDir() {
			if err := fm.crawlDir(childPath); err != nil {
				return err
			}
			continue
		}

		fm.mu.Lock()
		fm.files[childPath] = Stat{Size: info.Size(), ModTime: info.ModTime()}
		fm.mu.Unlock()
	}

	return nil
}

func (fm *FileMap) shouldIgnore(p string) bool {
	base := path.Base(p)
	if !fm.opts.IncludeDotfiles && strings.HasPrefix(base, ".") {
		return true
	}
	if fm.opts.Ignore != nil && fm.opts.Ignore.MatchString(p) {
		return true
	}
	return false
}

// Start begins consuming Backend events and publishing debounced Deltas.
// It returns once the watcher goroutine is running; it does not block.
func (fm *FileMap) Start() {
	go fm.loop()
}

// Errs returns a channel of *WatcherError values reported by the
// Backend. The channel has a small buffer; once it is full, each new
// error is dropped rather than blocking the watch loop, since a watcher
// error is diagnostic, not something a
// FileMap can recover by waiting on a slow consumer.
func (fm *FileMap) Errs() <-chan error { return fm.errs }

func (fm *FileMap) loop() {
	for {
		select {
		case ev, ok := <-fm.backend.Events():
			if !ok {
				return
			}
			fm.handleEvent(ev)
		case err, ok := <-fm.backend.Errors():
			if !ok {
				return
			}
			fm.reportErr(err)
		case <-fm.closed:
			return
		}
	}
}

func (fm *FileMap) reportErr(err error) {
	werr := &WatcherError{Root: fm.root, Err: err}
	select {
	case fm.errs <- werr:
	default:
	}
}

func (fm *FileMap) handleEvent(ev Event) {
	if fm.shouldIgnore(ev.Path) {
		return
	}

	switch {
	case ev.Op&OpRemove != 0 || ev.Op&OpRename != 0:
		fm.mu.Lock()
		_, known := fm.files[ev.Path]
		delete(fm.files, ev.Path)
		fm.mu.Unlock()
		if known {
			fm.markPending(ev.Path, false)
		}
	default:
		info, err := fm.filesystem.Lstat(ev.Path)
		if err != nil {
			fm.mu.Lock()
			_, known := fm.files[ev.Path]
			delete(fm.files, ev.Path)
			fm.mu.Unlock()
			if known {
				fm.markPending(ev.Path, false)
			}
			return
		}
		if info.IsDir() {
			_ = fm.backend.Add(ev.Path)
			return
		}
		fm.mu.Lock()
		fm.files[ev.Path] = Stat{Size: info.Size(), ModTime: info.ModTime()}
		fm.mu.Unlock()
		fm.markPending(ev.Path, true)
	}
}

// markPending records the latest observed op for path and (re)arms the
// debounce timer. A later touch overwrites an earlier delete for the same
// path within one window, and vice versa, so a rapid delete+recreate
// coalesces into a single touch rather than spurious churn.
func (fm *FileMap) markPending(p string, touched bool) {
	fm.pendingMu.Lock()
	defer fm.pendingMu.Unlock()

	fm.pending[p] = touched

	if fm.timer != nil {
		fm.timer.Stop()
	}
	fm.timer = time.AfterFunc(fm.opts.DebounceWindow, fm.flush)
}

func (fm *FileMap) flush() {
	fm.pendingMu.Lock()
	pending := fm.pending
	fm.pending = make(map[string]bool)
	fm.pendingMu.Unlock()

	if len(pending) == 0 {
		return
	}

	var delta Delta
	for p, touched := range pending {
		if touched {
			delta.Touched = append(delta.Touched, p)
		} else {
			delta.Deleted = append(delta.Deleted, p)
		}
	}
	sort.Strings(delta.Touched)
	sort.Strings(delta.Deleted)

	fm.publish(delta)
}

func (fm *FileMap) publish(delta Delta) {
	fm.subMu.Lock()
	defer fm.subMu.Unlock()

	for _, sub := range fm.subs {
		filtered := filterDelta(delta, sub.predicate)
		if len(filtered.Touched) == 0 && len(filtered.Deleted) == 0 {
			continue
		}
		select {
		case sub.ch <- filtered:
		default:
			// Slow subscriber: drop rather than block the watch loop.
		}
	}
}

func filterDelta(delta Delta, predicate func(string) bool) Delta {
	if predicate == nil {
		return delta
	}
	var out Delta
	for _, p := range delta.Touched {
		if predicate(p) {
			out.Touched = append(out.Touched, p)
		}
	}
	for _, p := range delta.Deleted {
		if predicate(p) {
			out.Deleted = append(out.Deleted, p)
		}
	}
	return out
}

// Subscribe registers predicate to filter published Deltas, returning a
// channel of matching Deltas and a cancel function that unregisters it.
// A nil predicate matches every path.
func (fm *FileMap) Subscribe(predicate func(path string) bool) (<-chan Delta, func()) {
	sub := &subscription{predicate: predicate, ch: make(chan Delta, 8)}

	fm.subMu.Lock()
	fm.subs = append(fm.subs, sub)
	fm.subMu.Unlock()

	cancel := func() {
		fm.subMu.Lock()
		defer fm.subMu.Unlock()
		for i, s := range fm.subs {
			if s == sub {
				fm.subs = append(fm.subs[:i], fm.subs[i+1:]...)
				close(sub.ch)
				return
			}
		}
	}

	return sub.ch, cancel
}

// Stat returns the last-known size/mtime for path, as observed by the
// crawl or a subsequent watch event.
func (fm *FileMap) Stat(path string) (Stat, bool) {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	st, ok := fm.files[path]
	return st, ok
}

// Paths returns every currently-known file path, sorted.
func (fm *FileMap) Paths() []string {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	paths := make([]string, 0, len(fm.files))
	for p := range fm.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Close stops the watch loop and the underlying backend.
func (fm *FileMap) Close() error {
	var err error
	fm.closeOnce.Do(func() {
		close(fm.closed)
		err = fm.backend.Close()
	})
	return err
}
