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
	"fmt"
	"sort"

	ts "github.com/tree-sitter/go-tree-sitter"

	"bennypowers.dev/deltabundle/transform"
)

// orderedDependency pairs a Dependency with the byte offset of its specifier
// so results can be sorted into source order once every pattern's matches
// have been collected.
type orderedDependency struct {
	dep   transform.Dependency
	start uint
}

// ExtractDependencies parses content and returns every import/require/
// re-export/dynamic-import specifier found, in source order.
func ExtractDependencies(content []byte) ([]transform.Dependency, error) {
	qm, err := getQueryManager()
	if err != nil {
		return nil, err
	}

	parser := getParser()
	defer putParser(parser)

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("jslang: failed to parse content")
	}
	defer tree.Close()

	query, err := qm.Query("imports")
	if err != nil {
		return nil, err
	}

	cursor := ts.NewQueryCursor()
	defer cursor.Close()

	captureNames := query.CaptureNames()
	matches := cursor.Matches(query, tree.RootNode(), content)

	var ordered []orderedDependency
	for {
		match := matches.Next()
		if match == nil {
			break
		}
		for _, capture := range match.Captures {
			name := captureNames[capture.Index]
			start := capture.Node.StartByte()
			switch name {
			case "import.spec", "reexport.spec", "require.spec":
				ordered = append(ordered, orderedDependency{
					dep:   transform.Dependency{Specifier: capture.Node.Utf8Text(content), IsAsync: false},
					start: start,
				})
			case "dynamicImport.spec":
				ordered = append(ordered, orderedDependency{
					dep:   transform.Dependency{Specifier: capture.Node.Utf8Text(content), IsAsync: true},
					start: start,
				})
			}
		}
	}

	// The query's four patterns are matched independently, so results can
	// interleave out of document order (e.g. a require() nested deeper in
	// the tree than a later import). Sort by byte offset so dependency
	// order always matches first-appearance order in the source, per
	// spec.md's source-order invariant.
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].start < ordered[j].start })

	deps := make([]transform.Dependency, len(ordered))
	for i, o := range ordered {
		deps[i] = o.dep
	}
	return deps, nil
}
