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

package resolve

import (
	"fmt"
	"sync"
)

// HasteMap is a flat namespace of module names to file paths, independent
// of node_modules layout. Entries are registered directly by a caller
// that already knows the mapping; nothing here scans files for an
// `@providesModule`-style pragma. A name claimed by two files is a
// HasteConflictError: Haste names must be globally unique.
type HasteMap struct {
	mu    sync.RWMutex
	names map[string]string // module name -> absolute file path
}

// NewHasteMap creates an empty HasteMap.
func NewHasteMap() *HasteMap {
	return &HasteMap{names: make(map[string]string)}
}

// HasteConflictError reports that name is already claimed by a different file.
type HasteConflictError struct {
	Name     string
	Existing string
	New      string
}

func (e *HasteConflictError) Error() string {
	return fmt.Sprintf("haste module name %q is provided by both %q and %q", e.Name, e.Existing, e.New)
}

// Set claims name for filePath. It returns a HasteConflictError without
// modifying the map if name is already claimed by a different file.
func (h *HasteMap) Set(name, filePath string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.names[name]; ok && existing != filePath {
		return &HasteConflictError{Name: name, Existing: existing, New: filePath}
	}
	h.names[name] = filePath
	return nil
}

// Lookup returns the file path registered for name, if any.
func (h *HasteMap) Lookup(name string) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	path, ok := h.names[name]
	return path, ok
}

// Delete removes the entry for filePath under name. Used when a watcher
// event reports the file was deleted or no longer declares the pragma,
// so a later file claiming the same name doesn't spuriously conflict.
func (h *HasteMap) Delete(name, filePath string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.names[name]; ok && existing == filePath {
		delete(h.names, name)
	}
}
