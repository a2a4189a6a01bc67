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

// Package graph maintains the module dependency graph: the set of
// modules reachable from a set of entry points, their resolved
// dependency edges, and the inverse edges needed to garbage-collect
// modules that become unreachable after an incremental update.
package graph

import (
	"sort"
	"sync"
	"sync/atomic"
)

// ID is the stable numeric identifier assigned to a module on first
// insertion into a Graph, per spec.md's data model. It stays the same
// across incremental updates for as long as the module's path remains
// present; if the path is later deleted and reappears, it is treated as
// a brand new module and gets a new ID (spec.md invariant G3).
type ID int64

// IDFactory mints a fresh ID each time it is called. It must never
// return a value it has already returned, even for the same path — path
// stability (the same live module keeping the same ID across deltas) is
// the Graph's responsibility, not the factory's: the Graph only calls
// idFactory when a path is being inserted for the first time, or
// re-inserted after its previous entry was deleted.
type IDFactory func(path string) ID

// NewSequentialIDFactory returns an IDFactory backed by a monotonic
// counter shared across every call, so no two calls of the returned
// factory ever produce the same ID, regardless of path.
func NewSequentialIDFactory() IDFactory {
	var next int64
	return func(path string) ID {
		return ID(atomic.AddInt64(&next, 1))
	}
}

// Dependency is one resolved edge from a module to another. Module is
// zero when the specifier resolved to the empty-module sentinel: the
// dependency is recorded (preserving its source-order slot and
// Specifier) but has no target module and contributes no forward or
// inverse edge. Zero is never a module's real ID (IDFactory
// implementations start numbering at 1).
type Dependency struct {
	Specifier string
	Module    ID
	IsAsync   bool
}

// IsNull reports whether d has no resolved target module.
func (d Dependency) IsNull() bool { return d.Module == 0 }

// Module is one node in the graph.
type Module struct {
	ID           ID
	Path         string
	Code         string
	Map          string
	Fingerprint  string
	Dependencies []Dependency

	// inverse is the set of module IDs with a Dependency pointing at
	// this module, maintained alongside Dependencies so removal can
	// find every affected parent without a full scan.
	inverse map[ID]struct{}
}

// InverseDependencies returns the sorted IDs of every module that
// depends on m.
func (m *Module) InverseDependencies() []ID {
	out := make([]ID, 0, len(m.inverse))
	for id := range m.inverse {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Graph is a flat arena of modules reachable from EntryPoints. All
// methods are safe for concurrent use.
type Graph struct {
	mu          sync.RWMutex
	EntryPoints []ID
	modules     map[ID]*Module
	byPath      map[string]ID
	idOf        IDFactory
}

// New creates an empty Graph using idFactory to assign module IDs.
func New(idFactory IDFactory) *Graph {
	return &Graph{
		modules: make(map[ID]*Module),
		byPath:  make(map[string]ID),
		idOf:    idFactory,
	}
}

// idFor returns the ID already assigned to path in byPath, or asks
// idFactory to mint a new one and records it. Every caller that needs
// an ID for a path — whether loading a new module or resolving a
// dependency target — goes through this instead of calling idFactory
// directly, so a path keeps the same ID for as long as it stays in
// byPath and gets a fresh one the moment that entry is removed (i.e.
// the module was deleted and the path later reappears).
func idFor(byPath map[string]ID, idFactory IDFactory, path string) ID {
	if id, ok := byPath[path]; ok {
		return id
	}
	id := idFactory(path)
	byPath[path] = id
	return id
}

// ModuleByPath returns the module currently registered at path, if any.
func (g *Graph) ModuleByPath(path string) (*Module, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	id, ok := g.byPath[path]
	if !ok {
		return nil, false
	}
	m, ok := g.modules[id]
	return m, ok
}

// HasPath reports whether path currently has a module in the graph.
func (g *Graph) HasPath(path string) bool {
	_, ok := g.ModuleByPath(path)
	return ok
}

// Get returns the module with id, if present.
func (g *Graph) Get(id ID) (*Module, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	m, ok := g.modules[id]
	return m, ok
}

// Has reports whether id is present in the graph.
func (g *Graph) Has(id ID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.modules[id]
	return ok
}

// Size returns the number of modules currently in the graph.
func (g *Graph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.modules)
}

// ModuleIDs returns every module ID currently in the graph, sorted.
func (g *Graph) ModuleIDs() []ID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := make([]ID, 0, len(g.modules))
	for id := range g.modules {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// upsert inserts or replaces the module at id, carrying over the
// previous entry's inverse edge set (or starting an empty one) and
// indexing its path in byPath. It adds no inverse edges for m's own
// dependencies; callers record those with addInverseEdge.
func (g *Graph) upsert(m *Module) {
	existing, had := g.modules[m.ID]
	if had {
		m.inverse = existing.inverse
	} else {
		m.inverse = make(map[ID]struct{})
	}
	g.modules[m.ID] = m
	g.byPath[m.Path] = m.ID
}

// addInverseEdge records that from depends on to, keeping to's inverse
// set in sync with the forward edge just added.
func (g *Graph) addInverseEdge(from, to ID) {
	target, ok := g.modules[to]
	if !ok {
		return
	}
	if target.inverse == nil {
		target.inverse = make(map[ID]struct{})
	}
	target.inverse[from] = struct{}{}
}

// removeInverseEdge removes the record that from depends on to.
func (g *Graph) removeInverseEdge(from, to ID) {
	target, ok := g.modules[to]
	if !ok {
		return
	}
	delete(target.inverse, from)
}

// Validate checks the structural invariants of the current graph
// state: every module is reachable from an entry point, every
// dependency edge has a matching inverse edge, and every resolved
// dependency points at a module present in the graph. Module ID
// uniqueness holds by construction of the underlying map and needs no
// separate check. It is intended for tests and debugging, not the hot
// incremental-update path.
func (g *Graph) Validate() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	reachable := make(map[ID]bool)
	queue := append([]ID{}, g.EntryPoints...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if reachable[id] {
			continue
		}
		reachable[id] = true
		m, ok := g.modules[id]
		if !ok {
			return &UnreachableDependencyError{From: id, To: id}
		}
		for _, dep := range m.Dependencies {
			if dep.IsNull() {
				continue
			}
			queue = append(queue, dep.Module)
		}
	}

	for id, m := range g.modules {
		if !reachable[id] {
			return &OrphanModuleError{ID: id}
		}
		for _, dep := range m.Dependencies {
			if dep.IsNull() {
				continue
			}
			target, ok := g.modules[dep.Module]
			if !ok {
				return &UnreachableDependencyError{From: id, To: dep.Module}
			}
			if _, ok := target.inverse[id]; !ok {
				return &MissingInverseEdgeError{From: id, To: dep.Module}
			}
		}
	}

	return nil
}
