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

// Package wiring assembles the concrete collaborators (filesystem,
// package cache, transform pool, bundler) shared by the build and watch
// commands, so neither has to repeat the other's construction code.
package wiring

import (
	"time"

	"bennypowers.dev/deltabundle/bundler"
	"bennypowers.dev/deltabundle/fs"
	"bennypowers.dev/deltabundle/graph"
	"bennypowers.dev/deltabundle/packagejson"
	"bennypowers.dev/deltabundle/resolve"
	"bennypowers.dev/deltabundle/transform"
	"bennypowers.dev/deltabundle/transform/jslang"
)

// Env bundles the wired-up collaborators a CLI command needs to drive
// the bundler library.
type Env struct {
	FS          fs.FileSystem
	Pool        *transform.Pool
	Bundler     *bundler.Bundler
	ResolveOpts resolve.Options
	PkgCache    packagejson.Cache
}

// New assembles an Env using the OS filesystem, the reference
// tree-sitter based transformer, an in-memory transform cache, and a
// fixed-size worker pool.
func New(platform string, dev bool, workers int, softTimeout time.Duration) (*Env, error) {
	filesystem := fs.NewOSFileSystem()
	pkgCache := packagejson.NewMemoryCache()

	resolveOpts := resolve.DefaultOptions().WithPlatform(platform)

	cache := transform.NewCache(transform.NewMemoryStore())
	pool := transform.NewPool(jslang.NewTransformer(), cache, workers, softTimeout)

	transformOpts := transform.Options{Platform: platform, Dev: dev}
	loader := bundler.NewModuleLoader(filesystem, pkgCache, pool, resolveOpts, transformOpts)

	b := bundler.New(loader, graph.NewSequentialIDFactory())

	return &Env{FS: filesystem, Pool: pool, Bundler: b, ResolveOpts: resolveOpts, PkgCache: pkgCache}, nil
}

// Close releases the worker pool.
func (e *Env) Close() {
	e.Pool.Close()
}
