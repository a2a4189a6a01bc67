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

package bundler

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"bennypowers.dev/deltabundle/graph"
)

// RevisionID numbers the states of a single named graph, starting at 1
// for the graph produced by BuildGraph. It is monotonic per graph id,
// not shared across graphs.
type RevisionID int64

// journalCap bounds how many past deltas each graph keeps. A GetDelta
// call for a revision older than what's retained falls back to Reset.
const journalCap = 64

type revisionEntry struct {
	id    RevisionID
	delta graph.Delta
}

// graphActor owns one named graph and serializes every operation on it
// through cmds, so BuildGraph/Update/GetDelta/EndGraph for the same
// graph id never race, while distinct graph ids run fully in parallel.
type graphActor struct {
	g         *graph.Graph
	journal   []revisionEntry
	revision  RevisionID
	cmds      chan func()
	closeOnce sync.Once
}

func newGraphActor(g *graph.Graph) *graphActor {
	a := &graphActor{g: g, cmds: make(chan func(), 8)}
	go a.run()
	return a
}

func (a *graphActor) run() {
	for cmd := range a.cmds {
		cmd()
	}
}

func (a *graphActor) submit(fn func()) {
	done := make(chan struct{})
	a.cmds <- func() {
		fn()
		close(done)
	}
	<-done
}

func (a *graphActor) recordRevision(delta graph.Delta) RevisionID {
	a.revision++
	a.journal = append(a.journal, revisionEntry{id: a.revision, delta: delta})
	if len(a.journal) > journalCap {
		a.journal = a.journal[len(a.journal)-journalCap:]
	}
	return a.revision
}

func (a *graphActor) close() {
	a.closeOnce.Do(func() {
		close(a.cmds)
	})
}

// Bundler maintains a set of independently built and updated module
// graphs, each identified by a caller-chosen graph id (typically a
// platform+entry-point key).
type Bundler struct {
	mu     sync.RWMutex
	actors map[string]*graphActor
	loader graph.Loader
	idOf   graph.IDFactory
	sf     singleflight.Group
}

// New creates a Bundler backed by loader for resolving and transforming
// modules, using idOf to mint each newly discovered module's stable ID.
func New(loader graph.Loader, idOf graph.IDFactory) *Bundler {
	return &Bundler{
		actors: make(map[string]*graphActor),
		loader: loader,
		idOf:   idOf,
	}
}

// BuildGraph performs (or joins an in-flight) initial build of the named
// graph from entryPaths. Concurrent calls with the same graphID dedupe
// onto a single build via singleflight; a graphID that already exists
// returns an error instead of rebuilding silently.
func (b *Bundler) BuildGraph(ctx context.Context, graphID string, entryPaths []string) (*graph.Graph, RevisionID, error) {
	type buildResult struct {
		g   *graph.Graph
		rev RevisionID
	}

	v, err, _ := b.sf.Do(graphID, func() (any, error) {
		b.mu.RLock()
		_, exists := b.actors[graphID]
		b.mu.RUnlock()
		if exists {
			return nil, fmt.Errorf("bundler: graph %q already built", graphID)
		}

		g, err := graph.Build(ctx, b.idOf, b.loader, entryPaths)
		if err != nil {
			return nil, err
		}

		actor := newGraphActor(g)
		var rev RevisionID
		actor.submit(func() {
			rev = actor.recordRevision(graph.Delta{Added: g.ModuleIDs()})
		})

		b.mu.Lock()
		b.actors[graphID] = actor
		b.mu.Unlock()

		return buildResult{g: g, rev: rev}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	res := v.(buildResult)
	return res.g, res.rev, nil
}

// Update applies a touched/deleted file batch to the named graph and
// returns the resulting delta and its new revision. It blocks until any
// other Update/GetDelta already queued for the same graph completes.
func (b *Bundler) Update(ctx context.Context, graphID string, touched, deleted []string) (graph.Delta, RevisionID, error) {
	actor, err := b.actorFor(graphID)
	if err != nil {
		return graph.Delta{}, 0, err
	}

	var delta graph.Delta
	var rev RevisionID
	var updateErr error
	actor.submit(func() {
		delta, updateErr = graph.Update(ctx, actor.g, b.idOf, b.loader, touched, deleted)
		if updateErr != nil {
			return
		}
		rev = actor.recordRevision(delta)
	})
	if updateErr != nil {
		return graph.Delta{}, 0, updateErr
	}
	return delta, rev, nil
}

// GetDelta returns the cumulative delta for the named graph since the
// given revision, along with the latest revision. If since is older
// than the retained journal (or unknown), it returns a Reset delta
// listing every module currently in the graph instead of a partial one.
func (b *Bundler) GetDelta(graphID string, since RevisionID) (graph.Delta, RevisionID, error) {
	actor, err := b.actorFor(graphID)
	if err != nil {
		return graph.Delta{}, 0, err
	}

	var result graph.Delta
	var latest RevisionID
	actor.submit(func() {
		latest = actor.revision
		if since == actor.revision {
			result = graph.Delta{}
			return
		}

		startIdx := -1
		for i, entry := range actor.journal {
			if entry.id == since {
				startIdx = i
				break
			}
		}
		if startIdx == -1 && (since != 0 || actor.journal[0].id != 1) {
			result = graph.Delta{Reset: true, Added: actor.g.ModuleIDs()}
			return
		}

		merged := graph.Delta{}
		for _, entry := range actor.journal[startIdx+1:] {
			merged.Added = append(merged.Added, entry.delta.Added...)
			merged.Modified = append(merged.Modified, entry.delta.Modified...)
			merged.Deleted = append(merged.Deleted, entry.delta.Deleted...)
		}
		result = merged
	})
	return result, latest, nil
}

// EndGraph discards the named graph and stops its actor goroutine.
func (b *Bundler) EndGraph(graphID string) error {
	b.mu.Lock()
	actor, ok := b.actors[graphID]
	if ok {
		delete(b.actors, graphID)
	}
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("bundler: graph %q not found", graphID)
	}
	actor.close()
	return nil
}

func (b *Bundler) actorFor(graphID string) (*graphActor, error) {
	b.mu.RLock()
	actor, ok := b.actors[graphID]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("bundler: graph %q not found", graphID)
	}
	return actor, nil
}
