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
	"testing"

	"bennypowers.dev/deltabundle/internal/mapfs"
	"bennypowers.dev/deltabundle/packagejson"
	"bennypowers.dev/deltabundle/resolve"
	"bennypowers.dev/deltabundle/transform"
)

// stubTransformer returns a fixed dependency list regardless of content,
// so tests can drive ModuleLoader.Load through a chosen set of specifiers
// without a real parser.
type stubTransformer struct {
	deps []transform.Dependency
}

func (s *stubTransformer) Transform(filePath string, content []byte, opts transform.Options) (transform.Result, error) {
	return transform.Result{Code: string(content), Dependencies: s.deps}, nil
}

func TestModuleLoaderRecordsNullDependencyForBrowserStub(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/app/package.json", `{"name":"app","browser":{"./server-only.js":false}}`, 0644)
	mfs.AddFile("/app/entry.js", "entry", 0644)
	mfs.AddFile("/app/a.js", "a", 0644)
	mfs.AddFile("/app/server-only.js", "module.exports = require('fs')", 0644)

	pool := transform.NewPool(&stubTransformer{deps: []transform.Dependency{
		{Specifier: "./a"},
		{Specifier: "./server-only.js"},
	}}, nil, 1, 0)
	defer pool.Close()

	loader := NewModuleLoader(mfs, packagejson.NewMemoryCache(), pool, resolve.DefaultOptions(), transform.Options{})

	loaded, err := loader.Load(context.Background(), "/app/entry.js")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Dependencies) != 2 {
		t.Fatalf("expected 2 dependency slots, got %d: %+v", len(loaded.Dependencies), loaded.Dependencies)
	}
	if loaded.Dependencies[0].Specifier != "./a" || loaded.Dependencies[0].Path != "/app/a.js" {
		t.Errorf("unexpected dependency[0]: %+v", loaded.Dependencies[0])
	}
	if loaded.Dependencies[1].Specifier != "./server-only.js" || loaded.Dependencies[1].Path != "" {
		t.Errorf("expected dependency[1] to carry a null (empty) resolved path, got %+v", loaded.Dependencies[1])
	}
}
