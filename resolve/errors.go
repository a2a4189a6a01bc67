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
	"errors"
	"fmt"
	"strings"
)

// ErrContinueResolution is returned by a custom ResolveRequest hook to
// signal that the standard resolution algorithm should run as normal.
var ErrContinueResolution = errors.New("resolve: continue with standard resolution")

// FailedToResolvePathError is returned when a relative or absolute
// specifier could not be matched to any file or directory, after probing
// every candidate extension.
type FailedToResolvePathError struct {
	Origin         string
	Specifier      string
	CandidatePaths []string
}

func (e *FailedToResolvePathError) Error() string {
	return fmt.Sprintf("could not resolve %q from %q; tried:\n  %s",
		e.Specifier, e.Origin, strings.Join(e.CandidatePaths, "\n  "))
}

// FailedToResolveNameError is returned when a bare specifier's package
// could not be found in any node_modules directory walking up from the
// origin, nor in the Haste module index.
type FailedToResolveNameError struct {
	Origin       string
	Specifier    string
	SearchedDirs []string
}

func (e *FailedToResolveNameError) Error() string {
	return fmt.Sprintf("could not resolve module %q from %q; searched:\n  %s",
		e.Specifier, e.Origin, strings.Join(e.SearchedDirs, "\n  "))
}

// FailedToResolveUnsupportedError is returned for specifier forms the
// resolver recognizes but intentionally does not resolve, e.g. a bare
// Node.js builtin ("fs", "path") with no configured shim.
type FailedToResolveUnsupportedError struct {
	Origin    string
	Specifier string
	Reason    string
}

func (e *FailedToResolveUnsupportedError) Error() string {
	return fmt.Sprintf("unsupported specifier %q from %q: %s", e.Specifier, e.Origin, e.Reason)
}
