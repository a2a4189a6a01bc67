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

import "context"

// ResolvedDependency is one dependency a Loader discovered and resolved
// while loading a module, already turned into a concrete file path. Path
// is empty when the specifier resolved to the empty-module sentinel
// (e.g. a browser-field stub or an asset filtered out of the bundle): the
// dependency still occupies its source-order slot, but carries no target.
type ResolvedDependency struct {
	Specifier string
	Path      string
	IsAsync   bool
}

// LoadedModule is the result of loading and transforming a single file.
type LoadedModule struct {
	Code         string
	Map          string
	Fingerprint  string
	Dependencies []ResolvedDependency
}

// Loader resolves and transforms a single module by path. The graph
// package calls it once per module discovered during a build or update,
// deliberately staying agnostic of how resolution and transformation are
// actually implemented (package resolve and package transform, in this
// repository's bundler wiring).
type Loader interface {
	Load(ctx context.Context, path string) (LoadedModule, error)
}
