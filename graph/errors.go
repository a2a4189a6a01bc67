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

import "fmt"

// UnreachableDependencyError reports a dependency edge pointing at a
// module absent from the graph.
type UnreachableDependencyError struct {
	From ID
	To   ID
}

func (e *UnreachableDependencyError) Error() string {
	return fmt.Sprintf("graph: module %d depends on %d, which is not in the graph", e.From, e.To)
}

// OrphanModuleError reports a module present in the graph but not
// reachable from any entry point.
type OrphanModuleError struct {
	ID ID
}

func (e *OrphanModuleError) Error() string {
	return fmt.Sprintf("graph: module %d is present but unreachable from any entry point", e.ID)
}

// MissingInverseEdgeError reports a forward edge with no matching
// inverse edge.
type MissingInverseEdgeError struct {
	From ID
	To   ID
}

func (e *MissingInverseEdgeError) Error() string {
	return fmt.Sprintf("graph: edge %d -> %d has no matching inverse edge", e.From, e.To)
}
