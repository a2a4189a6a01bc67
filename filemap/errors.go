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

package filemap

import "fmt"

// WatcherError wraps an error surfaced by a Backend's Errors channel,
// e.g. fsnotify reporting a dropped event queue or a removed watch root.
// It is non-fatal: the FileMap keeps running and callers observe it
// through Errs rather than having Start or a subscription fail.
type WatcherError struct {
	Root string
	Err  error
}

func (e *WatcherError) Error() string {
	return fmt.Sprintf("filemap: %s: %v", e.Root, e.Err)
}

func (e *WatcherError) Unwrap() error { return e.Err }
