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

// Build traverses from entryPaths using loader, populating an empty
// Graph from scratch via a work-queue breadth-first walk: each module is
// loaded at most once, and every resolved dependency is enqueued the
// first time it's discovered.
func Build(ctx context.Context, idFactory IDFactory, loader Loader, entryPaths []string) (*Graph, error) {
	g := New(idFactory)

	queue := make([]string, 0, len(entryPaths))
	seen := make(map[ID]bool)

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, entry := range entryPaths {
		id := idFor(g.byPath, idFactory, entry)
		g.EntryPoints = append(g.EntryPoints, id)
		if !seen[id] {
			seen[id] = true
			queue = append(queue, entry)
		}
	}

	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]

		id := idFor(g.byPath, idFactory, path)
		if _, already := g.modules[id]; already {
			continue
		}

		loaded, err := loader.Load(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("graph: loading %s: %w", path, err)
		}

		m := &Module{
			ID:          id,
			Path:        path,
			Code:        loaded.Code,
			Map:         loaded.Map,
			Fingerprint: loaded.Fingerprint,
		}
		g.upsert(m)

		for _, dep := range loaded.Dependencies {
			// An empty Path marks the empty-module sentinel (G4): the
			// dependency keeps its source-order slot and specifier but
			// resolves to no module, so it is never enqueued for loading.
			var depID ID
			if dep.Path != "" {
				depID = idFor(g.byPath, idFactory, dep.Path)
			}
			m.Dependencies = append(m.Dependencies, Dependency{
				Specifier: dep.Specifier,
				Module:    depID,
				IsAsync:   dep.IsAsync,
			})

			if depID == 0 {
				continue
			}
			if !g.moduleExistsOrQueuedLocked(depID, seen) {
				seen[depID] = true
				queue = append(queue, dep.Path)
			}
		}
	}

	// Second pass: every module is loaded now, so forward edges can be
	// reconciled into inverse edges in one place (addInverseEdge is a
	// no-op if the target somehow never finished loading, which Build
	// never leaves true on success, and a no-op for a null dependency
	// since no module is ever registered under the empty ID).
	for from, m := range g.modules {
		for _, dep := range m.Dependencies {
			if dep.IsNull() {
				continue
			}
			g.addInverseEdge(from, dep.Module)
		}
	}

	return g, nil
}

func (g *Graph) moduleExistsOrQueuedLocked(id ID, seen map[ID]bool) bool {
	if seen[id] {
		return true
	}
	_, ok := g.modules[id]
	return ok
}
