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

package transform

import (
	"fmt"
	"sync"
)

// Key identifies a single cached transform result.
type Key struct {
	FilePath        string
	ContentHash     string
	OptionsFingerprint string
}

func (k Key) String() string {
	return fmt.Sprintf("%s@%s#%s", k.FilePath, k.ContentHash, k.OptionsFingerprint)
}

// Store is one layer of a layered Cache, e.g. an in-memory layer backed
// by an on-disk or remote layer. Get's error return is reserved for a
// layer that fails to answer (a corrupt on-disk entry, an I/O error) as
// distinct from an ordinary miss, which is (zero, false, nil).
type Store interface {
	Get(key Key) (Result, bool, error)
	Set(key Key, result Result) error
}

// MemoryStore is a Store kept entirely in memory. Its Get never fails.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Result
}

// NewMemoryStore creates an empty in-memory Store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Result)}
}

// Get implements Store.
func (s *MemoryStore) Get(key Key) (Result, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.entries[key.String()]
	return res, ok, nil
}

// Set implements Store.
func (s *MemoryStore) Set(key Key, result Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key.String()] = result
	return nil
}

// Cache chains Stores in priority order: Get checks each layer in turn
// and backfills faster layers on a hit from a slower one; Set writes to
// every layer in parallel and aggregates failures. A Cache with zero
// layers is a permanent no-op, so disabling caching never requires
// special-casing call sites.
type Cache struct {
	layers []Store
}

// NewCache builds a Cache from layers in priority order (fastest first).
func NewCache(layers ...Store) *Cache {
	return &Cache{layers: layers}
}

// Get checks each layer in order, stopping at the first hit. Every layer
// ahead of the hit is backfilled with the found result so it's faster to
// reach next time. A layer read failure aborts immediately with a
// *CacheReadError rather than falling through to a slower layer, since a
// failed read is not the same claim as a genuine miss.
func (c *Cache) Get(key Key) (Result, bool, error) {
	for i, layer := range c.layers {
		res, ok, err := layer.Get(key)
		if err != nil {
			return Result{}, false, &CacheReadError{Key: key, Layer: i, Err: err}
		}
		if ok {
			for _, behind := range c.layers[:i] {
				_ = behind.Set(key, res)
			}
			return res, true, nil
		}
	}
	return Result{}, false, nil
}

// Set writes result to every layer concurrently, returning a
// *CacheWriteError if any layer's write fails. A zero-layer Cache's Set
// is a no-op. The returned error is non-fatal by convention: callers may
// discard it and keep using the freshly computed Result.
func (c *Cache) Set(key Key, result Result) error {
	if len(c.layers) == 0 {
		return nil
	}

	errs := make([]error, len(c.layers))
	var wg sync.WaitGroup
	for i, layer := range c.layers {
		wg.Add(1)
		go func(i int, layer Store) {
			defer wg.Done()
			errs[i] = layer.Set(key, result)
		}(i, layer)
	}
	wg.Wait()

	failed := 0
	firstLayer := -1
	var firstErr error
	for i, err := range errs {
		if err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
				firstLayer = i
			}
		}
	}
	if failed == 0 {
		return nil
	}
	return &CacheWriteError{Key: key, Layer: firstLayer, Failed: failed, Total: len(c.layers), Err: firstErr}
}
