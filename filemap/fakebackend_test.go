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

import "sync"

// fakeBackend is an in-memory Backend double driven directly by tests via
// emit, with no dependency on a real OS watch mechanism.
type fakeBackend struct {
	mu      sync.Mutex
	added   map[string]bool
	events  chan Event
	errors  chan error
	closeCh chan struct{}
	closed  bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		added:   make(map[string]bool),
		events:  make(chan Event, 64),
		errors:  make(chan error, 4),
		closeCh: make(chan struct{}),
	}
}

func (b *fakeBackend) Add(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.added[path] = true
	return nil
}

func (b *fakeBackend) Remove(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.added, path)
	return nil
}

func (b *fakeBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	close(b.closeCh)
	close(b.events)
	close(b.errors)
	return nil
}

func (b *fakeBackend) Events() <-chan Event { return b.events }
func (b *fakeBackend) Errors() <-chan error { return b.errors }

func (b *fakeBackend) emit(ev Event) {
	b.events <- ev
}

func (b *fakeBackend) emitErr(err error) {
	b.errors <- err
}
