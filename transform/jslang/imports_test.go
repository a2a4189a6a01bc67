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

package jslang

import (
	"strings"
	"testing"

	"bennypowers.dev/deltabundle/transform"
)

func TestExtractDependenciesStaticImport(t *testing.T) {
	deps, err := ExtractDependencies([]byte(`import { foo } from "./foo.js";`))
	if err != nil {
		t.Fatalf("ExtractDependencies: %v", err)
	}
	if len(deps) != 1 || deps[0].Specifier != "./foo.js" || deps[0].IsAsync {
		t.Errorf("got %+v, want one sync dependency on ./foo.js", deps)
	}
}

func TestExtractDependenciesReexport(t *testing.T) {
	deps, err := ExtractDependencies([]byte(`export { foo } from "./foo.js";`))
	if err != nil {
		t.Fatalf("ExtractDependencies: %v", err)
	}
	if len(deps) != 1 || deps[0].Specifier != "./foo.js" {
		t.Errorf("got %+v, want one dependency on ./foo.js", deps)
	}
}

func TestExtractDependenciesRequire(t *testing.T) {
	deps, err := ExtractDependencies([]byte(`const foo = require("./foo.js");`))
	if err != nil {
		t.Fatalf("ExtractDependencies: %v", err)
	}
	if len(deps) != 1 || deps[0].Specifier != "./foo.js" || deps[0].IsAsync {
		t.Errorf("got %+v, want one sync dependency on ./foo.js", deps)
	}
}

func TestExtractDependenciesDynamicImport(t *testing.T) {
	deps, err := ExtractDependencies([]byte(`const mod = await import("./lazy.js");`))
	if err != nil {
		t.Fatalf("ExtractDependencies: %v", err)
	}
	if len(deps) != 1 || deps[0].Specifier != "./lazy.js" || !deps[0].IsAsync {
		t.Errorf("got %+v, want one async dependency on ./lazy.js", deps)
	}
}

func TestExtractDependenciesMultiple(t *testing.T) {
	src := `
import a from "a";
import b from "b";
export { c } from "c";
const d = require("d");
`
	deps, err := ExtractDependencies([]byte(src))
	if err != nil {
		t.Fatalf("ExtractDependencies: %v", err)
	}
	if len(deps) != 4 {
		t.Fatalf("got %d dependencies, want 4: %+v", len(deps), deps)
	}
}

func TestTransformerProducesDependenciesAndFoldsCode(t *testing.T) {
	tr := NewTransformer()
	src := `
import a from "a";
const x = true ? 1 : 2;
`
	res, err := tr.Transform("/app/widget.ts", []byte(src), transform.Options{Dev: false})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if len(res.Dependencies) != 1 || res.Dependencies[0].Specifier != "a" {
		t.Errorf("got deps %+v, want one dependency on a", res.Dependencies)
	}
	if !strings.Contains(res.Code, "const x = 1;") {
		t.Errorf("got code %q, want folded ternary", res.Code)
	}
}
