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

package graph

import (
	"context"
	"fmt"
)

// Delta is the set of modules that changed during an Update call.
type Delta struct {
	Added    []ID
	Modified []ID
	Deleted  []ID

	// Reset is true when the caller should discard its previous view of
	// the graph entirely rather than apply Added/Modified/Deleted, used
	// by the revision journal when a requested base revision is too old
	// to have a recorded delta (spec's reset fallback).
	Reset bool
}

// workingGraph is a mutable scratch copy of a Graph's module map and
// path index, used so Update can fail partway through and discard its
// work without having mutated the live Graph (atomic rollback on batch
// failure).
type workingGraph struct {
	modules map[ID]*Module
	byPath  map[string]ID
}

func cloneModules(src map[ID]*Module) map[ID]*Module {
	out := make(map[ID]*Module, len(src))
	for id, m := range src {
		clone := *m
		clone.Dependencies = append([]Dependency(nil), m.Dependencies...)
		clone.inverse = make(map[ID]struct{}, len(m.inverse))
		for k := range m.inverse {
			clone.inverse[k] = struct{}{}
		}
		out[id] = &clone
	}
	return out
}

func cloneByPath(src map[string]ID) map[string]ID {
	out := make(map[string]ID, len(src))
	for path, id := range src {
		out[path] = id
	}
	return out
}

// Update applies a watcher-reported batch of touched and deleted file
// paths to g, reloading affected modules via loader. Changes are
// computed against a scratch copy of the module map and only committed
// to g once the whole batch succeeds; any loader error leaves g
// untouched and returns the error (atomic rollback).
func Update(ctx context.Context, g *Graph, idFactory IDFactory, loader Loader, touchedPaths, deletedPaths []string) (Delta, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	work := &workingGraph{modules: cloneModules(g.modules), byPath: cloneByPath(g.byPath)}

	delta := Delta{}
	reprocess := make(map[string]bool)

	for _, path := range touchedPaths {
		reprocess[path] = true
	}

	for _, path := range deletedPaths {
		id, ok := work.byPath[path]
		if !ok {
			continue
		}
		m, ok := work.modules[id]
		if !ok {
			continue
		}
		for _, dep := range m.Dependencies {
			if dep.IsNull() {
				continue
			}
			work.removeInverseEdge(id, dep.Module)
		}
		for parent := range m.inverse {
			if parentModule, ok := work.modules[parent]; ok {
				reprocess[parentModule.Path] = true
			}
		}
		delete(work.modules, id)
		delete(work.byPath, path)
		delta.Deleted = append(delta.Deleted, id)
	}

	queue := make([]string, 0, len(reprocess))
	for path := range reprocess {
		queue = append(queue, path)
	}
	visited := make(map[ID]bool)

	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]

		id := idFor(work.byPath, idFactory, path)
		if visited[id] {
			continue
		}
		visited[id] = true

		loaded, err := loader.Load(ctx, path)
		if err != nil {
			// Rollback: only the working copy was mutated and it is
			// discarded here; g is untouched since g.modules was never
			// reassigned.
			return Delta{}, fmt.Errorf("graph: loading %s: %w", path, err)
		}

		prev, existed := work.modules[id]
		var oldDeps []Dependency
		if existed {
			oldDeps = prev.Dependencies
		}

		m := &Module{ID: id, Path: path, Code: loaded.Code, Map: loaded.Map, Fingerprint: loaded.Fingerprint}
		if existed {
			m.inverse = prev.inverse
		} else {
			m.inverse = make(map[ID]struct{})
		}
		work.modules[id] = m

		newDeps := make([]Dependency, 0, len(loaded.Dependencies))
		for _, dep := range loaded.Dependencies {
			var depID ID
			if dep.Path != "" {
				depID = idFor(work.byPath, idFactory, dep.Path)
			}
			newDeps = append(newDeps, Dependency{Specifier: dep.Specifier, Module: depID, IsAsync: dep.IsAsync})
		}
		m.Dependencies = newDeps

		removed, added := diffDependencies(oldDeps, newDeps)
		for _, dep := range removed {
			if dep.IsNull() {
				continue
			}
			work.removeInverseEdge(id, dep.Module)
		}
		for _, dep := range added {
			if dep.IsNull() {
				continue
			}
			if _, ok := work.modules[dep.Module]; !ok {
				queue = append(queue, findPathForDependency(loaded.Dependencies, dep.Specifier))
			}
		}

		if existed {
			if prev.Fingerprint != m.Fingerprint {
				delta.Modified = append(delta.Modified, id)
			}
		} else {
			delta.Added = append(delta.Added, id)
		}
	}

	for from, m := range work.modules {
		for _, dep := range m.Dependencies {
			if dep.IsNull() {
				continue
			}
			work.addInverseEdge(from, dep.Module)
		}
	}

	orphans := work.sweepOrphans(g.EntryPoints)
	for _, id := range orphans {
		alreadyDeleted := false
		for _, d := range delta.Deleted {
			if d == id {
				alreadyDeleted = true
				break
			}
		}
		if !alreadyDeleted {
			delta.Deleted = append(delta.Deleted, id)
		}
	}

	g.modules = work.modules
	g.byPath = work.byPath
	return delta, nil
}

func (w *workingGraph) addInverseEdge(from, to ID) {
	target, ok := w.modules[to]
	if !ok {
		return
	}
	if target.inverse == nil {
		target.inverse = make(map[ID]struct{})
	}
	target.inverse[from] = struct{}{}
}

func (w *workingGraph) removeInverseEdge(from, to ID) {
	target, ok := w.modules[to]
	if !ok {
		return
	}
	delete(target.inverse, from)
}

// sweepOrphans removes every module unreachable from entryPoints (via a
// mark phase over forward edges) from w.modules and returns their IDs.
// Because orphan detection follows forward reachability rather than
// refcounting inverse edges one at a time, a cyclic group of modules
// that lost its only external reference is collected as a whole instead
// of being stuck at a permanent non-zero refcount.
func (w *workingGraph) sweepOrphans(entryPoints []ID) []ID {
	reachable := make(map[ID]bool)
	queue := append([]ID{}, entryPoints...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if reachable[id] {
			continue
		}
		reachable[id] = true
		m, ok := w.modules[id]
		if !ok {
			continue
		}
		for _, dep := range m.Dependencies {
			if dep.IsNull() {
				continue
			}
			queue = append(queue, dep.Module)
		}
	}

	var orphans []ID
	for id := range w.modules {
		if !reachable[id] {
			orphans = append(orphans, id)
		}
	}
	for _, id := range orphans {
		m := w.modules[id]
		for _, dep := range m.Dependencies {
			if dep.IsNull() {
				continue
			}
			w.removeInverseEdge(id, dep.Module)
		}
		delete(w.modules, id)
		delete(w.byPath, m.Path)
	}
	return orphans
}

func diffDependencies(oldDeps, newDeps []Dependency) (removed, added []Dependency) {
	oldSet := make(map[ID]Dependency, len(oldDeps))
	for _, d := range oldDeps {
		oldSet[d.Module] = d
	}
	newSet := make(map[ID]Dependency, len(newDeps))
	for _, d := range newDeps {
		newSet[d.Module] = d
	}
	for id, d := range oldSet {
		if _, ok := newSet[id]; !ok {
			removed = append(removed, d)
		}
	}
	for id, d := range newSet {
		if _, ok := oldSet[id]; !ok {
			added = append(added, d)
		}
	}
	return removed, added
}

func findPathForDependency(deps []ResolvedDependency, specifier string) string {
	for _, d := range deps {
		if d.Specifier == specifier {
			return d.Path
		}
	}
	return ""
}
