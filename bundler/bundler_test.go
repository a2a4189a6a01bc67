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
	"sync"
	"testing"

	"bennypowers.dev/deltabundle/graph"
)

type fakeLoader struct {
	mu    sync.Mutex
	files map[string]graph.LoadedModule
	calls int
}

func (f *fakeLoader) Load(ctx context.Context, path string) (graph.LoadedModule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	m, ok := f.files[path]
	if !ok {
		return graph.LoadedModule{}, errNotFound(path)
	}
	return m, nil
}

type errNotFound string

func (e errNotFound) Error() string { return "not found: " + string(e) }

func TestBuildGraphAndGetDeltaFromZero(t *testing.T) {
	l := &fakeLoader{files: map[string]graph.LoadedModule{
		"/entry.js": {Fingerprint: "f1", Dependencies: []graph.ResolvedDependency{{Specifier: "./a", Path: "/a.js"}}},
		"/a.js":     {Fingerprint: "f2"},
	}}
	b := New(l, graph.NewSequentialIDFactory())

	g, rev, err := b.BuildGraph(context.Background(), "main", []string{"/entry.js"})
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	if g.Size() != 2 {
		t.Fatalf("expected 2 modules, got %d", g.Size())
	}
	if rev != 1 {
		t.Fatalf("expected initial revision 1, got %d", rev)
	}

	delta, latest, err := b.GetDelta("main", 0)
	if err != nil {
		t.Fatalf("GetDelta: %v", err)
	}
	if latest != 1 {
		t.Fatalf("expected latest revision 1, got %d", latest)
	}
	if len(delta.Added) != 2 {
		t.Fatalf("expected 2 added modules since revision 0, got %v", delta.Added)
	}
}

func TestBuildGraphRejectsDuplicateID(t *testing.T) {
	l := &fakeLoader{files: map[string]graph.LoadedModule{"/entry.js": {Fingerprint: "f1"}}}
	b := New(l, graph.NewSequentialIDFactory())

	if _, _, err := b.BuildGraph(context.Background(), "main", []string{"/entry.js"}); err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	if _, _, err := b.BuildGraph(context.Background(), "main", []string{"/entry.js"}); err == nil {
		t.Fatal("expected error rebuilding an existing graph id")
	}
}

func TestUpdateAdvancesRevisionAndDelta(t *testing.T) {
	l := &fakeLoader{files: map[string]graph.LoadedModule{
		"/entry.js": {Fingerprint: "f1"},
	}}
	b := New(l, graph.NewSequentialIDFactory())

	g, _, err := b.BuildGraph(context.Background(), "main", []string{"/entry.js"})
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	entryMod, _ := g.ModuleByPath("/entry.js")
	entryID := entryMod.ID

	l.mu.Lock()
	l.files["/entry.js"] = graph.LoadedModule{Fingerprint: "f1-new", Dependencies: []graph.ResolvedDependency{{Specifier: "./b", Path: "/b.js"}}}
	l.files["/b.js"] = graph.LoadedModule{Fingerprint: "f3"}
	l.mu.Unlock()

	delta, rev, err := b.Update(context.Background(), "main", []string{"/entry.js"}, nil)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if rev != 2 {
		t.Fatalf("expected revision 2, got %d", rev)
	}
	bMod, ok := g.ModuleByPath("/b.js")
	if !ok {
		t.Fatalf("expected /b.js in graph")
	}
	if len(delta.Added) != 1 || delta.Added[0] != bMod.ID {
		t.Fatalf("expected /b.js added, got %v", delta.Added)
	}
	if len(delta.Modified) != 1 || delta.Modified[0] != entryID {
		t.Fatalf("expected /entry.js modified, got %v", delta.Modified)
	}

	partial, latest, err := b.GetDelta("main", 1)
	if err != nil {
		t.Fatalf("GetDelta: %v", err)
	}
	if latest != 2 {
		t.Fatalf("expected latest revision 2, got %d", latest)
	}
	if len(partial.Added) != 1 || len(partial.Modified) != 1 {
		t.Fatalf("expected partial delta since revision 1 to match the update, got %+v", partial)
	}
}

func TestGetDeltaResetsOnUnknownRevision(t *testing.T) {
	l := &fakeLoader{files: map[string]graph.LoadedModule{"/entry.js": {Fingerprint: "f1"}}}
	b := New(l, graph.NewSequentialIDFactory())

	if _, _, err := b.BuildGraph(context.Background(), "main", []string{"/entry.js"}); err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}

	delta, _, err := b.GetDelta("main", 9999)
	if err != nil {
		t.Fatalf("GetDelta: %v", err)
	}
	if !delta.Reset {
		t.Fatal("expected Reset delta for an unknown revision")
	}
	if len(delta.Added) != 1 {
		t.Fatalf("expected reset delta to list every current module, got %v", delta.Added)
	}
}

func TestEndGraphRemovesGraph(t *testing.T) {
	l := &fakeLoader{files: map[string]graph.LoadedModule{"/entry.js": {Fingerprint: "f1"}}}
	b := New(l, graph.NewSequentialIDFactory())

	if _, _, err := b.BuildGraph(context.Background(), "main", []string{"/entry.js"}); err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	if err := b.EndGraph("main"); err != nil {
		t.Fatalf("EndGraph: %v", err)
	}
	if _, _, err := b.Update(context.Background(), "main", nil, nil); err == nil {
		t.Fatal("expected error updating an ended graph")
	}
	if err := b.EndGraph("main"); err == nil {
		t.Fatal("expected error ending an already-ended graph")
	}
}

func TestConcurrentBuildGraphDedupesViaSingleflight(t *testing.T) {
	l := &fakeLoader{files: map[string]graph.LoadedModule{"/entry.js": {Fingerprint: "f1"}}}
	b := New(l, graph.NewSequentialIDFactory())

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := b.BuildGraph(context.Background(), "main", []string{"/entry.js"})
			errs[i] = err
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		}
	}
	if successes == 0 {
		t.Fatal("expected at least one BuildGraph call to succeed")
	}
	l.mu.Lock()
	calls := l.calls
	l.mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected the entry point loaded exactly once across deduped builds, got %d", calls)
	}
}
