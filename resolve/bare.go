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

package resolve

import (
	"path"
	"strings"

	"bennypowers.dev/deltabundle/fs"
	"bennypowers.dev/deltabundle/packagejson"
)

// nodeBuiltins lists Node.js core module names with no browser equivalent,
// rejected up front with FailedToResolveUnsupportedError rather than an
// opaque not-found.
var nodeBuiltins = map[string]bool{
	"fs": true, "path": true, "os": true, "child_process": true,
	"net": true, "tls": true, "dgram": true, "dns": true, "cluster": true,
	"worker_threads": true, "v8": true, "vm": true, "repl": true,
}

// resolveBare resolves a bare specifier ("react", "@scope/pkg/subpath")
// first against the Haste namespace, then by walking node_modules
// directories from origin's directory up to the filesystem root.
func resolveBare(filesystem fs.FileSystem, cache packagejson.Cache, origin, specifier string, opts Options) (Resolution, error) {
	if opts.Haste != nil {
		if filePath, ok := opts.Haste.Lookup(specifier); ok {
			return resolveFileOrDir(filesystem, cache, origin, filePath, opts)
		}
	}

	pkgName, subpath := splitBareSpecifier(specifier)

	var searched []string

	if !opts.DisableHierarchicalLookup {
		for dir := path.Dir(origin); ; {
			candidateDir := path.Join(dir, "node_modules", pkgName)
			searched = append(searched, candidateDir)

			if res, ok, err := tryPackageDir(filesystem, cache, origin, candidateDir, subpath, opts); err != nil {
				return Resolution{}, err
			} else if ok {
				return res, nil
			}

			parent := path.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	if target, ok := opts.ExtraNodeModules[pkgName]; ok {
		searched = append(searched, target)
		if res, ok, err := tryPackageDir(filesystem, cache, origin, target, subpath, opts); err != nil {
			return Resolution{}, err
		} else if ok {
			return res, nil
		}
	}

	for _, modulesPath := range opts.NodeModulesPaths {
		candidateDir := path.Join(modulesPath, pkgName)
		searched = append(searched, candidateDir)
		if res, ok, err := tryPackageDir(filesystem, cache, origin, candidateDir, subpath, opts); err != nil {
			return Resolution{}, err
		} else if ok {
			return res, nil
		}
	}

	if nodeBuiltins[pkgName] {
		return Resolution{}, &FailedToResolveUnsupportedError{
			Origin:    origin,
			Specifier: specifier,
			Reason:    "node builtin module has no bundled equivalent",
		}
	}

	return Resolution{}, &FailedToResolveNameError{
		Origin:       origin,
		Specifier:    specifier,
		SearchedDirs: searched,
	}
}

// tryPackageDir resolves subpath against candidateDir once it's known (or
// assumed, for an ExtraNodeModules/NodeModulesPaths override) to house
// the package, first via package.json "exports", falling back to plain
// path probing under candidateDir/subpath.
func tryPackageDir(filesystem fs.FileSystem, cache packagejson.Cache, origin, candidateDir, subpath string, opts Options) (Resolution, bool, error) {
	if !filesystem.Exists(candidateDir) {
		return Resolution{}, false, nil
	}

	if opts.EnablePackageExports {
		if res, err := resolveViaExports(filesystem, cache, origin, candidateDir, subpath, opts); err == nil {
			return res, true, nil
		}
	}

	target := candidateDir
	if subpath != "" {
		target = path.Join(candidateDir, subpath)
	}
	res, err := resolveFileOrDir(filesystem, cache, origin, target, opts)
	if err != nil {
		return Resolution{}, false, err
	}
	return res, true, nil
}

// resolveViaExports resolves subpath (empty for the package root itself)
// against pkgDir's package.json "exports" map, honoring configured
// conditions and platform overrides. It returns an error (never
// FailedToResolve*) when the package has no matching export, so the
// caller falls back to plain path probing.
func resolveViaExports(filesystem fs.FileSystem, cache packagejson.Cache, origin, pkgDir, subpath string, opts Options) (Resolution, error) {
	pkgJSONPath := path.Join(pkgDir, "package.json")
	if !filesystem.Exists(pkgJSONPath) {
		return Resolution{}, packagejson.ErrNotExported
	}
	pkg, err := packagejson.ParseFileCached(cache, filesystem, pkgJSONPath)
	if err != nil {
		return Resolution{}, err
	}
	exportKey := "."
	if subpath != "" {
		exportKey = "./" + subpath
	}
	target, err := pkg.ResolveExport(exportKey, opts.packagejsonOptions())
	if err != nil {
		return Resolution{}, err
	}
	return resolveFileOrDir(filesystem, cache, origin, path.Join(pkgDir, target), opts)
}

// splitBareSpecifier splits a bare specifier into its package name
// (handling @scope/name) and the remaining subpath, if any.
func splitBareSpecifier(specifier string) (pkgName, subpath string) {
	parts := strings.SplitN(specifier, "/", 2)
	if strings.HasPrefix(specifier, "@") && len(parts) == 2 {
		scopedParts := strings.SplitN(parts[1], "/", 2)
		pkgName = parts[0] + "/" + scopedParts[0]
		if len(scopedParts) == 2 {
			subpath = scopedParts[1]
		}
		return pkgName, subpath
	}
	pkgName = parts[0]
	if len(parts) == 2 {
		subpath = parts[1]
	}
	return pkgName, subpath
}
