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

// Package packagejson provides parsing and conditional-export resolution
// for package.json files, as consumed by the resolve and graph packages.
package packagejson

import (
	"encoding/json"
	"errors"
	"strings"

	"bennypowers.dev/deltabundle/fs"
)

// workspacesObjectFormat represents the object form of the workspaces field.
type workspacesObjectFormat struct {
	Packages []string `json:"packages"`
}

// ErrNotExported is returned when a subpath is not exported by the package.
var ErrNotExported = errors.New("not exported by package.json")

// DefaultConditions is the default export condition priority for browser environments.
var DefaultConditions = []string{"browser", "import", "default"}

// ResolveOptions configures how conditional exports and main fields are resolved.
type ResolveOptions struct {
	// Conditions is the ordered list of conditions to try when resolving
	// a package's "exports" map. Defaults to DefaultConditions.
	Conditions []string

	// Platform is consulted against per-platform condition overrides
	// (resolver.conditionsByPlatform in the configuration surface) before
	// falling back to Conditions.
	Platform string

	// MainFields lists, in priority order, the legacy package.json fields
	// to consult when "exports" is absent (e.g. "react-native", "browser",
	// "main"). Defaults to []string{"main"}.
	MainFields []string
}

func (o *ResolveOptions) conditions() []string {
	if o != nil && len(o.Conditions) > 0 {
		return o.Conditions
	}
	return DefaultConditions
}

func (o *ResolveOptions) mainFields() []string {
	if o != nil && len(o.MainFields) > 0 {
		return o.MainFields
	}
	return []string{"main"}
}

// PackageJSON represents the subset of package.json relevant to resolution.
type PackageJSON struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Main            string            `json:"main,omitempty"`
	Module          string            `json:"module,omitempty"`
	Browser         any               `json:"browser,omitempty"`
	ReactNative     string            `json:"react-native,omitempty"`
	Exports         any               `json:"exports,omitempty"`
	Imports         any               `json:"imports,omitempty"`
	Dependencies    map[string]string `json:"dependencies,omitempty"`
	DevDependencies map[string]string `json:"devDependencies,omitempty"`
	RawWorkspaces   json.RawMessage   `json:"workspaces,omitempty"`
}

// WorkspacePatterns returns the workspace glob patterns from the workspaces field.
func (pkg *PackageJSON) WorkspacePatterns() []string {
	if len(pkg.RawWorkspaces) == 0 {
		return nil
	}
	var patterns []string
	if err := json.Unmarshal(pkg.RawWorkspaces, &patterns); err == nil {
		return patterns
	}
	var obj workspacesObjectFormat
	if err := json.Unmarshal(pkg.RawWorkspaces, &obj); err == nil {
		return obj.Packages
	}
	return nil
}

// ExportEntry represents a single non-wildcard export from a package.
type ExportEntry struct {
	Subpath string // e.g. ".", "./button"
	Target  string // resolved relative target, no leading "./"
}

// WildcardExport represents a wildcard export pattern, e.g. "./*" -> "dist/*".
type WildcardExport struct {
	Pattern string
	Target  string
}

// Parse parses package.json data.
func Parse(data []byte) (*PackageJSON, error) {
	var pkg PackageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, err
	}
	return &pkg, nil
}

// ParseFile parses a package.json file using the given filesystem.
func ParseFile(filesystem fs.FileSystem, path string) (*PackageJSON, error) {
	data, err := filesystem.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// MainField resolves the legacy main-field chain (react-native / browser /
// main, in the order given by opts.MainFields) to a relative path, used by
// the resolver's directory-probing step (spec step 4) once "exports" either
// doesn't exist or is disabled.
func (pkg *PackageJSON) MainField(opts *ResolveOptions) (string, bool) {
	for _, field := range opts.mainFields() {
		switch field {
		case "react-native":
			if pkg.ReactNative != "" {
				return trimDotSlash(pkg.ReactNative), true
			}
		case "browser":
			if s, ok := pkg.Browser.(string); ok && s != "" {
				return trimDotSlash(s), true
			}
		case "module":
			if pkg.Module != "" {
				return trimDotSlash(pkg.Module), true
			}
		case "main":
			if pkg.Main != "" {
				return trimDotSlash(pkg.Main), true
			}
		}
	}
	return "", false
}

// BrowserReplacement looks up a browser-field stub/replacement for a
// relative require target, per the resolver's empty-module sentinel step
// (spec step 5): an entry mapped to `false` marks the module empty.
func (pkg *PackageJSON) BrowserReplacement(relTarget string) (replacement string, isEmpty bool, ok bool) {
	m, isMap := pkg.Browser.(map[string]any)
	if !isMap {
		return "", false, false
	}
	for _, key := range []string{relTarget, "./" + relTarget} {
		val, present := m[key]
		if !present {
			continue
		}
		switch v := val.(type) {
		case bool:
			return "", !v, true
		case string:
			return v, false, true
		}
	}
	return "", false, false
}

// ResolveExport resolves a subpath export ("." or "./subpath") to its
// resolved target path (no leading "./"). Pass nil for opts to use defaults.
func (pkg *PackageJSON) ResolveExport(subpath string, opts *ResolveOptions) (string, error) {
	if pkg.Exports == nil {
		if main, ok := pkg.MainField(opts); ok {
			if subpath == "." {
				return main, nil
			}
		}
		return "", ErrNotExported
	}

	if exportStr, ok := pkg.Exports.(string); ok {
		if subpath == "." {
			return trimDotSlash(exportStr), nil
		}
		return "", ErrNotExported
	}

	exportsMap, ok := pkg.Exports.(map[string]any)
	if !ok {
		return "", ErrNotExported
	}

	if !hasSubpathKeys(exportsMap) {
		if subpath == "." {
			return resolveConditions(exportsMap, opts)
		}
		return "", ErrNotExported
	}

	exportValue, ok := exportsMap[subpath]
	if !ok {
		if resolved, matched := resolveWildcardSubpath(exportsMap, subpath, opts); matched {
			return resolved, nil
		}
		return "", ErrNotExported
	}

	return resolveExportValue(exportValue, opts)
}

// resolveWildcardSubpath matches subpath against any "./prefix/*" pattern
// keys in exportsMap, substituting the matched remainder into the target.
func resolveWildcardSubpath(exportsMap map[string]any, subpath string, opts *ResolveOptions) (string, bool) {
	for pattern, targetValue := range exportsMap {
		if !strings.Contains(pattern, "*") {
			continue
		}
		prefix, suffix, ok := splitWildcard(pattern)
		if !ok || !strings.HasPrefix(subpath, prefix) || !strings.HasSuffix(subpath, suffix) {
			continue
		}
		match := strings.TrimSuffix(strings.TrimPrefix(subpath, prefix), suffix)
		target := resolveWildcardTarget(targetValue, opts)
		if target == "" {
			continue
		}
		tPrefix, tSuffix, ok := splitWildcard(target)
		if !ok {
			continue
		}
		return trimDotSlash(tPrefix + match + tSuffix), true
	}
	return "", false
}

func splitWildcard(pattern string) (prefix, suffix string, ok bool) {
	idx := strings.Index(pattern, "*")
	if idx < 0 {
		return "", "", false
	}
	return pattern[:idx], pattern[idx+1:], true
}

// ExportEntries returns all non-wildcard export entries from the package.
func (pkg *PackageJSON) ExportEntries(opts *ResolveOptions) []ExportEntry {
	var entries []ExportEntry

	if pkg.Exports == nil {
		if main, ok := pkg.MainField(opts); ok {
			entries = append(entries, ExportEntry{Subpath: ".", Target: main})
		}
		return entries
	}

	if exportStr, ok := pkg.Exports.(string); ok {
		entries = append(entries, ExportEntry{Subpath: ".", Target: trimDotSlash(exportStr)})
		return entries
	}

	exportsMap, ok := pkg.Exports.(map[string]any)
	if !ok {
		return entries
	}

	if !hasSubpathKeys(exportsMap) {
		if resolved, err := resolveConditions(exportsMap, opts); err == nil {
			entries = append(entries, ExportEntry{Subpath: ".", Target: resolved})
		}
		return entries
	}

	for subpath, exportValue := range exportsMap {
		if strings.Contains(subpath, "*") {
			continue
		}
		resolved, err := resolveExportValue(exportValue, opts)
		if err != nil {
			continue
		}
		entries = append(entries, ExportEntry{Subpath: subpath, Target: resolved})
	}

	return entries
}

// WildcardExports returns all wildcard export patterns from the package.
func (pkg *PackageJSON) WildcardExports(opts *ResolveOptions) []WildcardExport {
	var wildcards []WildcardExport

	exportsMap, ok := pkg.Exports.(map[string]any)
	if !ok {
		return wildcards
	}

	for pattern, targetValue := range exportsMap {
		if !strings.Contains(pattern, "*") {
			continue
		}
		targetStr := resolveWildcardTarget(targetValue, opts)
		if targetStr == "" || !strings.Contains(targetStr, "*") {
			continue
		}
		target := trimDotSlash(targetStr)
		wildcardIdx := strings.Index(target, "*")
		wildcards = append(wildcards, WildcardExport{
			Pattern: pattern,
			Target:  target[:wildcardIdx],
		})
	}

	return wildcards
}

func resolveWildcardTarget(value any, opts *ResolveOptions) string {
	switch v := value.(type) {
	case string:
		return v
	case map[string]any:
		if result, err := resolveConditions(v, opts); err == nil {
			return result
		}
	case []any:
		for _, item := range v {
			if result := resolveWildcardTarget(item, opts); result != "" {
				return result
			}
		}
	}
	return ""
}

// HasTrailingSlashExport reports whether the package should also expose a
// trailing-slash import ("pkg/" -> base URL), used by resolvers that
// generate directory-style entries.
func (pkg *PackageJSON) HasTrailingSlashExport(opts *ResolveOptions) bool {
	if len(pkg.WildcardExports(opts)) > 0 {
		return true
	}
	return pkg.Exports == nil
}

func resolveExportValue(value any, opts *ResolveOptions) (string, error) {
	switch v := value.(type) {
	case string:
		return trimDotSlash(v), nil
	case map[string]any:
		return resolveConditions(v, opts)
	}
	return "", ErrNotExported
}

// resolveConditions walks the platform-specific override first (if
// opts.Platform names a condition present in the map), then opts.Conditions,
// recursing into nested condition maps.
func resolveConditions(conditions map[string]any, opts *ResolveOptions) (string, error) {
	list := opts.conditions()
	if opts != nil && opts.Platform != "" {
		list = append([]string{opts.Platform}, list...)
	}

	for _, cond := range list {
		value, ok := conditions[cond]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case map[string]any:
			if result, err := resolveConditions(v, opts); err == nil {
				return result, nil
			}
		case string:
			return trimDotSlash(v), nil
		}
	}

	return "", ErrNotExported
}

func hasSubpathKeys(exportsMap map[string]any) bool {
	for key := range exportsMap {
		if strings.HasPrefix(key, ".") {
			return true
		}
	}
	return false
}

func trimDotSlash(path string) string {
	return strings.TrimPrefix(path, "./")
}
