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

// Package filemap maintains a live, incrementally-updated view of a
// directory tree: an initial crawl followed by a stream of touch/delete
// events driven by an OS-level file watcher backend.
package filemap

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Op describes the kind of change a Backend observed.
type Op uint8

const (
	OpCreate Op = 1 << iota
	OpWrite
	OpRemove
	OpRename
	OpChmod
)

func (op Op) String() string {
	var names []string
	if op&OpCreate != 0 {
		names = append(names, "CREATE")
	}
	if op&OpWrite != 0 {
		names = append(names, "WRITE")
	}
	if op&OpRemove != 0 {
		names = append(names, "REMOVE")
	}
	if op&OpRename != 0 {
		names = append(names, "RENAME")
	}
	if op&OpChmod != 0 {
		names = append(names, "CHMOD")
	}
	if len(names) == 0 {
		return ""
	}
	out := names[0]
	for _, n := range names[1:] {
		out += "|" + n
	}
	return out
}

// Event is a single raw change reported by a Backend.
type Event struct {
	Path string
	Op   Op
}

// Backend abstracts the OS-level watch mechanism so filemap's crawl and
// coalescing logic can be tested without touching a real filesystem.
type Backend interface {
	Add(path string) error
	Remove(path string) error
	Close() error
	Events() <-chan Event
	Errors() <-chan error
}

// FSNotifyBackend implements Backend using fsnotify, the production watch
// mechanism.
type FSNotifyBackend struct {
	watcher *fsnotify.Watcher
	events  chan Event
	errors  chan error
	mu      sync.RWMutex
	closed  bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewFSNotifyBackend creates a Backend backed by a real fsnotify.Watcher.
func NewFSNotifyBackend() (*FSNotifyBackend, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("filemap: creating fsnotify watcher: %w", err)
	}

	b := &FSNotifyBackend{
		watcher: watcher,
		events:  make(chan Event, 256),
		errors:  make(chan error, 16),
		done:    make(chan struct{}),
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.translate()
	}()

	return b, nil
}

// Add implements Backend.
func (b *FSNotifyBackend) Add(path string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return fmt.Errorf("filemap: backend is closed")
	}
	return b.watcher.Add(path)
}

// Remove implements Backend.
func (b *FSNotifyBackend) Remove(path string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return fmt.Errorf("filemap: backend is closed")
	}
	return b.watcher.Remove(path)
}

// Close implements Backend. It signals the translation goroutine to stop
// and waits for it to exit before closing the underlying watcher and the
// event/error channels, so no send-on-closed-channel race is possible.
func (b *FSNotifyBackend) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.done)
	b.mu.Unlock()

	b.wg.Wait()

	err := b.watcher.Close()
	close(b.events)
	close(b.errors)
	return err
}

// Events implements Backend.
func (b *FSNotifyBackend) Events() <-chan Event { return b.events }

// Errors implements Backend.
func (b *FSNotifyBackend) Errors() <-chan error { return b.errors }

func (b *FSNotifyBackend) translate() {
	for {
		select {
		case ev, ok := <-b.watcher.Events:
			if !ok {
				return
			}
			op := translateOp(ev.Op)
			b.mu.RLock()
			if !b.closed {
				select {
				case b.events <- Event{Path: ev.Name, Op: op}:
				case <-b.done:
					b.mu.RUnlock()
					return
				}
			}
			b.mu.RUnlock()

		case err, ok := <-b.watcher.Errors:
			if !ok {
				return
			}
			b.mu.RLock()
			if !b.closed {
				select {
				case b.errors <- err:
				case <-b.done:
					b.mu.RUnlock()
					return
				}
			}
			b.mu.RUnlock()

		case <-b.done:
			return
		}
	}
}

func translateOp(op fsnotify.Op) Op {
	var out Op
	if op&fsnotify.Create != 0 {
		out |= OpCreate
	}
	if op&fsnotify.Write != 0 {
		out |= OpWrite
	}
	if op&fsnotify.Remove != 0 {
		out |= OpRemove
	}
	if op&fsnotify.Rename != 0 {
		out |= OpRename
	}
	if op&fsnotify.Chmod != 0 {
		out |= OpChmod
	}
	return out
}
