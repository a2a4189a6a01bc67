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

package packagejson

import (
	"sync"

	"bennypowers.dev/deltabundle/fs"
)

// Cache memoizes parsed package.json files keyed by their path, so the
// resolver's ancestor-directory walk doesn't re-parse the same file for
// every module that shares a package.
type Cache interface {
	Get(path string) (*PackageJSON, bool)
	Set(path string, pkg *PackageJSON)
	Invalidate(path string)
	GetOrLoad(path string, load func() (*PackageJSON, error)) (*PackageJSON, error)
}

// cacheEntry holds a loaded (or failed) package.json, guarded by a
// sync.Once so concurrent GetOrLoad calls for the same path only parse
// the file once.
type cacheEntry struct {
	once sync.Once
	pkg  *PackageJSON
	err  error
}

// MemoryCache is an in-memory Cache, safe for concurrent use by the
// resolver's bounded-concurrency directory probing.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*PackageJSON
	loading sync.Map // path -> *cacheEntry, for in-flight GetOrLoad dedup
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]*PackageJSON),
	}
}

// Get returns the cached package.json for path, if present.
func (c *MemoryCache) Get(path string) (*PackageJSON, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pkg, ok := c.entries[path]
	return pkg, ok
}

// Set stores pkg under path.
func (c *MemoryCache) Set(path string, pkg *PackageJSON) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = pkg
}

// Invalidate removes path from the cache, used when the watcher reports
// the package.json file itself changed.
func (c *MemoryCache) Invalidate(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
	c.loading.Delete(path)
}

// GetOrLoad returns the cached entry for path, or calls load exactly once
// across concurrent callers and caches the result (including failures,
// so a missing package.json isn't re-stat'd on every lookup).
func (c *MemoryCache) GetOrLoad(path string, load func() (*PackageJSON, error)) (*PackageJSON, error) {
	if pkg, ok := c.Get(path); ok {
		return pkg, nil
	}

	entryAny, _ := c.loading.LoadOrStore(path, &cacheEntry{})
	entry := entryAny.(*cacheEntry)

	entry.once.Do(func() {
		entry.pkg, entry.err = load()
		if entry.err == nil {
			c.Set(path, entry.pkg)
		}
	})

	return entry.pkg, entry.err
}

// ParseFileCached parses the package.json at path through cache, loading
// it from filesystem on a cache miss.
func ParseFileCached(cache Cache, filesystem fs.FileSystem, path string) (*PackageJSON, error) {
	return cache.GetOrLoad(path, func() (*PackageJSON, error) {
		return ParseFile(filesystem, path)
	})
}
