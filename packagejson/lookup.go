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
	"path"

	"bennypowers.dev/deltabundle/fs"
)

// PackageForFile walks up from the directory containing filePath, looking
// for the nearest ancestor package.json, and returns both the parsed
// package and the directory it was found in. Used to classify a resolved
// module into its owning package and to find the nearest package.json
// from which bare-specifier node_modules resolution begins.
func PackageForFile(cache Cache, filesystem fs.FileSystem, filePath string) (pkg *PackageJSON, pkgDir string, err error) {
	dir := path.Dir(filePath)
	for {
		candidate := path.Join(dir, "package.json")
		if filesystem.Exists(candidate) {
			pkg, err = ParseFileCached(cache, filesystem, candidate)
			if err != nil {
				return nil, "", err
			}
			return pkg, dir, nil
		}
		parent := path.Dir(dir)
		if parent == dir {
			return nil, "", nil
		}
		dir = parent
	}
}
