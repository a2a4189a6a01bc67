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
	"testing"

	"bennypowers.dev/deltabundle/internal/mapfs"
)

func TestResolveExportSimpleString(t *testing.T) {
	pkg, err := Parse([]byte(`{"name":"foo","exports":"./index.js"}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, err := pkg.ResolveExport(".", nil)
	if err != nil {
		t.Fatalf("ResolveExport: %v", err)
	}
	if got != "index.js" {
		t.Errorf("got %q, want %q", got, "index.js")
	}
}

func TestResolveExportConditional(t *testing.T) {
	pkg, err := Parse([]byte(`{
		"name": "foo",
		"exports": {
			".": {
				"import": "./esm/index.js",
				"default": "./cjs/index.js"
			}
		}
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, err := pkg.ResolveExport(".", &ResolveOptions{Conditions: []string{"import", "default"}})
	if err != nil {
		t.Fatalf("ResolveExport: %v", err)
	}
	if got != "esm/index.js" {
		t.Errorf("got %q, want %q", got, "esm/index.js")
	}
}

func TestResolveExportPlatformOverride(t *testing.T) {
	pkg, err := Parse([]byte(`{
		"name": "foo",
		"exports": {
			".": {
				"react-native": "./native/index.js",
				"default": "./index.js"
			}
		}
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, err := pkg.ResolveExport(".", &ResolveOptions{Platform: "react-native"})
	if err != nil {
		t.Fatalf("ResolveExport: %v", err)
	}
	if got != "native/index.js" {
		t.Errorf("got %q, want %q", got, "native/index.js")
	}
}

func TestResolveExportSubpath(t *testing.T) {
	pkg, err := Parse([]byte(`{
		"name": "foo",
		"exports": {
			".": "./index.js",
			"./button": "./button.js"
		}
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, err := pkg.ResolveExport("./button", nil)
	if err != nil {
		t.Fatalf("ResolveExport: %v", err)
	}
	if got != "button.js" {
		t.Errorf("got %q, want %q", got, "button.js")
	}
}

func TestResolveExportWildcard(t *testing.T) {
	pkg, err := Parse([]byte(`{
		"name": "foo",
		"exports": {
			"./*": "./dist/*.js"
		}
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, err := pkg.ResolveExport("./button", nil)
	if err != nil {
		t.Fatalf("ResolveExport: %v", err)
	}
	if got != "dist/button.js" {
		t.Errorf("got %q, want %q", got, "dist/button.js")
	}
}

func TestResolveExportNotExported(t *testing.T) {
	pkg, err := Parse([]byte(`{
		"name": "foo",
		"exports": {
			".": "./index.js"
		}
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := pkg.ResolveExport("./internal/secret", nil); err != ErrNotExported {
		t.Errorf("got err %v, want ErrNotExported", err)
	}
}

func TestMainFieldChain(t *testing.T) {
	pkg, err := Parse([]byte(`{
		"name": "foo",
		"main": "./lib/index.js",
		"react-native": "./native/index.js"
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, ok := pkg.MainField(&ResolveOptions{MainFields: []string{"react-native", "main"}})
	if !ok || got != "native/index.js" {
		t.Errorf("got (%q, %v), want (%q, true)", got, ok, "native/index.js")
	}
}

func TestBrowserReplacementEmptyModule(t *testing.T) {
	pkg, err := Parse([]byte(`{
		"name": "foo",
		"browser": {
			"./server-only.js": false
		}
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, isEmpty, ok := pkg.BrowserReplacement("server-only.js")
	if !ok || !isEmpty {
		t.Errorf("got (isEmpty=%v, ok=%v), want (true, true)", isEmpty, ok)
	}
}

func TestWorkspacePatternsArrayForm(t *testing.T) {
	pkg, err := Parse([]byte(`{"name":"root","workspaces":["packages/*"]}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := pkg.WorkspacePatterns()
	if len(got) != 1 || got[0] != "packages/*" {
		t.Errorf("got %v, want [packages/*]", got)
	}
}

func TestWorkspacePatternsObjectForm(t *testing.T) {
	pkg, err := Parse([]byte(`{"name":"root","workspaces":{"packages":["apps/*","libs/*"]}}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := pkg.WorkspacePatterns()
	if len(got) != 2 {
		t.Errorf("got %v, want 2 entries", got)
	}
}

func TestGetOrLoadCachesAcrossCalls(t *testing.T) {
	calls := 0
	cache := NewMemoryCache()
	load := func() (*PackageJSON, error) {
		calls++
		return &PackageJSON{Name: "foo"}, nil
	}

	for range 3 {
		pkg, err := cache.GetOrLoad("/a/package.json", load)
		if err != nil {
			t.Fatalf("GetOrLoad: %v", err)
		}
		if pkg.Name != "foo" {
			t.Errorf("got name %q, want foo", pkg.Name)
		}
	}

	if calls != 1 {
		t.Errorf("load called %d times, want 1", calls)
	}
}

func TestPackageForFileWalksAncestors(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/repo/package.json", `{"name":"root"}`, 0644)
	mfs.AddFile("/repo/src/deep/module.js", `module.exports = {}`, 0644)

	cache := NewMemoryCache()
	pkg, dir, err := PackageForFile(cache, mfs, "/repo/src/deep/module.js")
	if err != nil {
		t.Fatalf("PackageForFile: %v", err)
	}
	if pkg == nil || pkg.Name != "root" {
		t.Fatalf("got pkg %+v, want name root", pkg)
	}
	if dir != "/repo" {
		t.Errorf("got dir %q, want /repo", dir)
	}
}

func TestPackageForFileNoPackageJSON(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/repo/src/module.js", `module.exports = {}`, 0644)

	cache := NewMemoryCache()
	pkg, _, err := PackageForFile(cache, mfs, "/repo/src/module.js")
	if err != nil {
		t.Fatalf("PackageForFile: %v", err)
	}
	if pkg != nil {
		t.Errorf("got pkg %+v, want nil", pkg)
	}
}
