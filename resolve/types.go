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

// Package resolve implements specifier-to-module resolution: turning a
// require/import specifier plus an origin file into a concrete source
// file, a set of platform-specific asset files, or the empty-module
// sentinel.
package resolve

import (
	"regexp"

	"bennypowers.dev/deltabundle/packagejson"
)

// Kind classifies a successful Resolution.
type Kind int

const (
	// KindSourceFile resolves to a single JavaScript/TypeScript source file.
	KindSourceFile Kind = iota
	// KindAssetFiles resolves to one or more platform/resolution variants
	// of a non-source asset (image, font, etc).
	KindAssetFiles
	// KindEmpty resolves to the empty-module sentinel, produced when a
	// browser-field replacement maps a module to false.
	KindEmpty
)

// Resolution is the result of successfully resolving a specifier.
type Resolution struct {
	Kind Kind

	// File is populated when Kind == KindSourceFile.
	File string

	// Assets is populated when Kind == KindAssetFiles, one entry per
	// resolution variant (e.g. icon@2x.png), sorted by path.
	Assets []string
}

// Options configures a single Resolve call. It is immutable; use the
// With* methods to derive a modified copy, mirroring the configuration
// surface's functional-options-by-copy idiom.
type Options struct {
	// Platform selects platform-specific extensions (e.g. "ios", "android")
	// and condition/main-field overrides.
	Platform string

	// SourceExts lists source file extensions to probe, in priority order
	// (without the leading dot), e.g. []string{"ts", "tsx", "js", "jsx", "json"}.
	SourceExts []string

	// AssetExts lists non-source asset extensions to probe.
	AssetExts []string

	// AssetResolutions lists density/resolution suffixes to probe for asset
	// files, e.g. []string{"@2x", "@3x"}. An empty slice probes only the
	// base name.
	AssetResolutions []string

	// Conditions is the ordered package.json "exports" condition list.
	Conditions []string

	// MainFields lists, in priority order, legacy package.json fields to
	// fall back to when "exports" is absent.
	MainFields []string

	// EnablePackageExports toggles whether a package.json "exports" map is
	// consulted at all. When false, resolution skips straight to
	// MainFields/react-native/browser, as if no package declared "exports".
	EnablePackageExports bool

	// DisableHierarchicalLookup, when true, skips walking up through each
	// ancestor directory's node_modules for a bare specifier: only
	// ExtraNodeModules and NodeModulesPaths are consulted.
	DisableHierarchicalLookup bool

	// ExtraNodeModules maps a bare package name to a directory to resolve
	// it against, consulted after the hierarchical node_modules walk (or
	// instead of it, when DisableHierarchicalLookup is set) fails to find
	// the package.
	ExtraNodeModules map[string]string

	// NodeModulesPaths lists additional directories (each containing
	// package directories directly, not another "node_modules" level) to
	// search for a bare specifier after the hierarchical walk and
	// ExtraNodeModules both fail.
	NodeModulesPaths []string

	// PreferNativePlatform, when true, inserts a ".native.<ext>" candidate
	// between the platform-qualified and platform-agnostic variants of
	// each source extension during file probing.
	PreferNativePlatform bool

	// BlockList lists patterns matched against a fully-joined candidate
	// path; a match is treated as if the candidate didn't exist, so
	// probing continues to the next candidate.
	BlockList []*regexp.Regexp

	// ResolveRequest, if set, is consulted before the standard algorithm
	// runs. Returning ErrContinueResolution falls through to the standard
	// algorithm; any other return (including a zero Resolution) is final.
	ResolveRequest func(origin, specifier, platform string) (Resolution, error)

	// Haste resolves Haste module names (spec §6.1), consulted before
	// node_modules package resolution for bare specifiers. Nil disables
	// Haste lookups entirely.
	Haste *HasteMap
}

// blocked reports whether candidate matches any configured BlockList
// pattern, in which case it must be treated as nonexistent.
func (o Options) blocked(candidate string) bool {
	for _, re := range o.BlockList {
		if re != nil && re.MatchString(candidate) {
			return true
		}
	}
	return false
}

// WithPlatform returns a copy of o with Platform set.
func (o Options) WithPlatform(platform string) Options {
	o.Platform = platform
	return o
}

// WithResolveRequest returns a copy of o with ResolveRequest set.
func (o Options) WithResolveRequest(fn func(origin, specifier, platform string) (Resolution, error)) Options {
	o.ResolveRequest = fn
	return o
}

// WithHaste returns a copy of o with Haste set.
func (o Options) WithHaste(h *HasteMap) Options {
	o.Haste = h
	return o
}

func (o Options) packagejsonOptions() *packagejson.ResolveOptions {
	return &packagejson.ResolveOptions{
		Conditions: o.Conditions,
		Platform:   o.Platform,
		MainFields: o.MainFields,
	}
}

// DefaultOptions returns the conventional extension/condition/main-field
// configuration used when the caller hasn't customized resolution.
func DefaultOptions() Options {
	return Options{
		SourceExts:           []string{"ts", "tsx", "js", "jsx", "json"},
		AssetExts:            []string{"png", "jpg", "jpeg", "gif", "webp", "svg", "ttf", "otf"},
		AssetResolutions:     []string{"@3x", "@2x"},
		Conditions:           packagejson.DefaultConditions,
		MainFields:           []string{"main"},
		EnablePackageExports: true,
	}
}
