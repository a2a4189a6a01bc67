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

// Package bundler wires the resolver, transform pool, and dependency
// graph into the embedder-facing incremental API: buildGraph, getDelta,
// and endGraph over a set of independently-updatable named graphs.
package bundler

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	"bennypowers.dev/deltabundle/fs"
	"bennypowers.dev/deltabundle/graph"
	"bennypowers.dev/deltabundle/packagejson"
	"bennypowers.dev/deltabundle/resolve"
	"bennypowers.dev/deltabundle/transform"
)

// ModuleLoader is the concrete graph.Loader: it reads a file, runs it
// through the transform pool, and resolves every discovered specifier
// against the origin file, turning the reference Transformer's output
// into the graph-shaped ResolvedDependency list.
type ModuleLoader struct {
	FS            fs.FileSystem
	PackageCache  packagejson.Cache
	Pool          *transform.Pool
	ResolveOpts   resolve.Options
	TransformOpts transform.Options
}

// NewModuleLoader builds a ModuleLoader from its collaborators.
func NewModuleLoader(filesystem fs.FileSystem, pkgCache packagejson.Cache, pool *transform.Pool, resolveOpts resolve.Options, transformOpts transform.Options) *ModuleLoader {
	return &ModuleLoader{
		FS:            filesystem,
		PackageCache:  pkgCache,
		Pool:          pool,
		ResolveOpts:   resolveOpts,
		TransformOpts: transformOpts,
	}
}

// Load implements graph.Loader.
func (l *ModuleLoader) Load(ctx context.Context, path string) (graph.LoadedModule, error) {
	content, err := l.FS.ReadFile(path)
	if err != nil {
		return graph.LoadedModule{}, fmt.Errorf("bundler: reading %s: %w", path, err)
	}

	result, err := l.Pool.Transform(ctx, path, content, l.TransformOpts)
	if err != nil {
		return graph.LoadedModule{}, fmt.Errorf("bundler: transforming %s: %w", path, err)
	}

	deps := make([]graph.ResolvedDependency, 0, len(result.Dependencies))
	for _, dep := range result.Dependencies {
		resolution, err := resolve.Resolve(l.FS, l.PackageCache, path, dep.Specifier, l.ResolveOpts)
		if err != nil {
			return graph.LoadedModule{}, fmt.Errorf("bundler: resolving %q from %s: %w", dep.Specifier, path, err)
		}

		switch resolution.Kind {
		case resolve.KindSourceFile:
			deps = append(deps, graph.ResolvedDependency{
				Specifier: dep.Specifier,
				Path:      resolution.File,
				IsAsync:   dep.IsAsync,
			})
		case resolve.KindAssetFiles:
			if len(resolution.Assets) == 0 {
				// No asset survived platform/scale filtering: record the
				// specifier with a null resolved target rather than
				// dropping it, so it still occupies its source-order slot.
				deps = append(deps, graph.ResolvedDependency{
					Specifier: dep.Specifier,
					IsAsync:   dep.IsAsync,
				})
				continue
			}
			deps = append(deps, graph.ResolvedDependency{
				Specifier: dep.Specifier,
				Path:      resolution.Assets[0],
				IsAsync:   dep.IsAsync,
			})
		case resolve.KindEmpty:
			// The browser field replaced this specifier with the empty
			// module sentinel: it has no file, so its resolved target is
			// null (graph.Dependency.Module == 0), but it still occupies
			// its slot in Dependencies so source order is preserved.
			deps = append(deps, graph.ResolvedDependency{
				Specifier: dep.Specifier,
				IsAsync:   dep.IsAsync,
			})
		}
	}

	return graph.LoadedModule{
		Code:         result.Code,
		Map:          result.Map,
		Fingerprint:  fingerprintContent(content),
		Dependencies: deps,
	}, nil
}

func fingerprintContent(content []byte) string {
	sum := sha1.Sum(content)
	return hex.EncodeToString(sum[:])
}
