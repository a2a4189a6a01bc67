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
	"sort"
	"strings"

	"bennypowers.dev/deltabundle/fs"
	"bennypowers.dev/deltabundle/packagejson"
)

// Resolve turns specifier, required from origin, into a Resolution.
// origin must be an absolute file path. Resolve never mutates its inputs
// and performs no caching of its own beyond the package.json cache.
func Resolve(filesystem fs.FileSystem, cache packagejson.Cache, origin, specifier string, opts Options) (Resolution, error) {
	if opts.ResolveRequest != nil {
		res, err := opts.ResolveRequest(origin, specifier, opts.Platform)
		if err != ErrContinueResolution {
			return res, err
		}
	}

	switch classify(specifier) {
	case specifierRelative, specifierAbsolute:
		base := specifier
		if classify(specifier) == specifierRelative {
			base = path.Join(path.Dir(origin), specifier)
		}
		return resolveFileOrDir(filesystem, cache, origin, base, opts)
	default:
		return resolveBare(filesystem, cache, origin, specifier, opts)
	}
}

type specifierKind int

const (
	specifierBare specifierKind = iota
	specifierRelative
	specifierAbsolute
)

func classify(specifier string) specifierKind {
	switch {
	case strings.HasPrefix(specifier, "./"), strings.HasPrefix(specifier, "../"), specifier == ".", specifier == "..":
		return specifierRelative
	case strings.HasPrefix(specifier, "/"):
		return specifierAbsolute
	default:
		return specifierBare
	}
}

// resolveFileOrDir probes basePath (with no extension assumed) as a file
// with every configured extension, then as a directory, per resolver
// step 4. It returns FailedToResolvePathError listing every candidate
// tried if none match.
func resolveFileOrDir(filesystem fs.FileSystem, cache packagejson.Cache, origin, basePath string, opts Options) (Resolution, error) {
	var tried []string

	if res, ok, err := probeFile(filesystem, cache, origin, basePath, opts, &tried); err != nil {
		return Resolution{}, err
	} else if ok {
		return res, nil
	}

	if res, ok, err := probeDirectory(filesystem, cache, origin, basePath, opts, &tried); err != nil {
		return Resolution{}, err
	} else if ok {
		return res, nil
	}

	return Resolution{}, &FailedToResolvePathError{
		Origin:         origin,
		Specifier:      basePath,
		CandidatePaths: tried,
	}
}

// probeFile tries basePath verbatim, then basePath with each platform+source
// extension, then each asset extension (with resolution suffixes).
func probeFile(filesystem fs.FileSystem, cache packagejson.Cache, origin, basePath string, opts Options, tried *[]string) (Resolution, bool, error) {
	if res, ok := tryExactFile(filesystem, cache, origin, basePath, opts, tried); ok {
		return res, true, nil
	}

	// basePath may already carry an asset extension (e.g. a specifier of
	// "./icon.png"): probe density/resolution variants of that exact name
	// before trying to append further extensions.
	if stem, ext, ok := splitKnownAssetExt(basePath, opts.AssetExts); ok {
		if res, ok := probeAsset(filesystem, stem, ext, opts, tried); ok {
			return res, true, nil
		}
	}

	for _, ext := range platformOrderedExts(opts.Platform, opts.SourceExts, opts.PreferNativePlatform) {
		candidate := basePath + "." + ext
		*tried = append(*tried, candidate)
		if isRegularFile(filesystem, candidate, opts) {
			return applyBrowserReplacement(filesystem, cache, origin, candidate, opts)
		}
	}

	for _, ext := range opts.AssetExts {
		if res, ok := probeAsset(filesystem, basePath, ext, opts, tried); ok {
			return res, true, nil
		}
	}

	return Resolution{}, false, nil
}

// splitKnownAssetExt reports whether basePath already ends with one of
// assetExts, returning the name with that extension stripped.
func splitKnownAssetExt(basePath string, assetExts []string) (stem, ext string, ok bool) {
	for _, candidate := range assetExts {
		suffix := "." + candidate
		if strings.HasSuffix(basePath, suffix) {
			return strings.TrimSuffix(basePath, suffix), candidate, true
		}
	}
	return "", "", false
}

func tryExactFile(filesystem fs.FileSystem, cache packagejson.Cache, origin, candidate string, opts Options, tried *[]string) (Resolution, bool) {
	*tried = append(*tried, candidate)
	if !isRegularFile(filesystem, candidate, opts) {
		return Resolution{}, false
	}
	res, ok, err := applyBrowserReplacement(filesystem, cache, origin, candidate, opts)
	if err != nil || !ok {
		return Resolution{}, false
	}
	return res, true
}

func probeAsset(filesystem fs.FileSystem, basePath, ext string, opts Options, tried *[]string) (Resolution, bool) {
	resolutions := opts.AssetResolutions

	var assets []string
	for _, suffix := range append(append([]string{}, resolutions...), "") {
		candidate := basePath + suffix + "." + ext
		*tried = append(*tried, candidate)
		if isRegularFile(filesystem, candidate, opts) {
			assets = append(assets, candidate)
		}
	}

	if len(assets) == 0 {
		return Resolution{}, false
	}
	sort.Strings(assets)
	return Resolution{Kind: KindAssetFiles, Assets: assets}, true
}

// probeDirectory treats basePath as a package directory: it consults
// package.json exports/main fields, falling back to an index.* probe.
func probeDirectory(filesystem fs.FileSystem, cache packagejson.Cache, origin, dirPath string, opts Options, tried *[]string) (Resolution, bool, error) {
	pkgJSONPath := path.Join(dirPath, "package.json")
	*tried = append(*tried, pkgJSONPath)

	if filesystem.Exists(pkgJSONPath) {
		pkg, err := packagejson.ParseFileCached(cache, filesystem, pkgJSONPath)
		if err != nil {
			return Resolution{}, false, err
		}
		if opts.EnablePackageExports {
			if target, err := pkg.ResolveExport(".", opts.packagejsonOptions()); err == nil {
				candidate := path.Join(dirPath, target)
				if res, ok, _ := probeFile(filesystem, cache, origin, candidate, opts, tried); ok {
					return res, true, nil
				}
			}
		}
		if target, ok := pkg.MainField(opts.packagejsonOptions()); ok {
			candidate := path.Join(dirPath, target)
			if res, ok, _ := probeFile(filesystem, cache, origin, candidate, opts, tried); ok {
				return res, true, nil
			}
		}
	}

	indexBase := path.Join(dirPath, "index")
	if res, ok, err := probeFile(filesystem, cache, origin, indexBase, opts, tried); err != nil {
		return Resolution{}, false, err
	} else if ok {
		return res, true, nil
	}

	return Resolution{}, false, nil
}

// applyBrowserReplacement consults the nearest ancestor package's browser
// field for a stub or empty-module replacement for candidate, per the
// resolver's empty-module sentinel step.
func applyBrowserReplacement(filesystem fs.FileSystem, cache packagejson.Cache, origin, candidate string, opts Options) (Resolution, bool, error) {
	pkg, pkgDir, err := packagejson.PackageForFile(cache, filesystem, candidate)
	if err != nil {
		return Resolution{}, false, err
	}
	if pkg == nil {
		return Resolution{Kind: KindSourceFile, File: candidate}, true, nil
	}

	rel, err := relPath(pkgDir, candidate)
	if err != nil {
		return Resolution{Kind: KindSourceFile, File: candidate}, true, nil
	}

	replacement, isEmpty, ok := pkg.BrowserReplacement(rel)
	if !ok {
		return Resolution{Kind: KindSourceFile, File: candidate}, true, nil
	}
	if isEmpty {
		return Resolution{Kind: KindEmpty}, true, nil
	}

	replaced := path.Join(pkgDir, replacement)
	var tried []string
	return probeFile(filesystem, cache, origin, replaced, opts, &tried)
}

// relPath returns target relative to base, both "/"-separated paths with
// base a prefix of target (guaranteed here since target was built by
// joining onto a directory derived from base's ancestor walk).
func relPath(base, target string) (string, error) {
	prefix := strings.TrimSuffix(base, "/") + "/"
	if !strings.HasPrefix(target, prefix) {
		return "", &FailedToResolvePathError{Specifier: target, CandidatePaths: []string{base}}
	}
	return strings.TrimPrefix(target, prefix), nil
}

func isRegularFile(filesystem fs.FileSystem, p string, opts Options) bool {
	if opts.blocked(p) {
		return false
	}
	info, err := filesystem.Stat(p)
	return err == nil && !info.IsDir()
}

// platformOrderedExts prepends platform-qualified variants (e.g. "ios.ts"
// before "ts") for each source extension, per resolver step 2's platform
// extension priority. When preferNativePlatform is set, a ".native.<ext>"
// variant is inserted between the platform-qualified and platform-agnostic
// forms (e.g. "ios.ts", "native.ts", "ts"), per resolver.preferNativePlatform.
func platformOrderedExts(platform string, sourceExts []string, preferNativePlatform bool) []string {
	if platform == "" && !preferNativePlatform {
		return sourceExts
	}
	ordered := make([]string, 0, len(sourceExts)*3)
	if platform != "" {
		for _, ext := range sourceExts {
			ordered = append(ordered, platform+"."+ext)
		}
	}
	if preferNativePlatform {
		for _, ext := range sourceExts {
			ordered = append(ordered, "native."+ext)
		}
	}
	ordered = append(ordered, sourceExts...)
	return ordered
}
