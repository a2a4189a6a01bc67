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

package transform

import "fmt"

// TransformError wraps a failure returned by a Transformer while
// processing a single file. It is fatal to the Transform call that
// triggered it, but leaves the Pool and its other workers unaffected.
type TransformError struct {
	FilePath string
	Err      error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform: %s: %v", e.FilePath, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

// WorkerCrash is reported when a Transformer panics while processing a
// job. The owning worker goroutine recovers and keeps running; only the
// job that triggered the panic fails.
type WorkerCrash struct {
	FilePath string
	Panic    any
}

func (e *WorkerCrash) Error() string {
	return fmt.Sprintf("transform: worker crashed processing %s: %v", e.FilePath, e.Panic)
}

// CacheWriteError aggregates the Store-level failures encountered while
// writing a single Result to a Cache's layers. It is non-fatal: a Pool
// that fails to populate a cache layer still returns the freshly
// computed Result to its caller.
type CacheWriteError struct {
	Key     Key
	Layer   int
	Failed  int
	Total   int
	Err     error
}

func (e *CacheWriteError) Error() string {
	return fmt.Sprintf("transform cache: %s: %d/%d layer write(s) failed (first at layer %d): %v",
		e.Key, e.Failed, e.Total, e.Layer, e.Err)
}

func (e *CacheWriteError) Unwrap() error { return e.Err }

// CacheReadError is returned when a Store layer fails to answer a Get,
// as opposed to a plain cache miss. It is fatal: the caller cannot tell
// whether the entry exists, so Cache.Get aborts rather than silently
// falling through to a slower layer or recomputing.
type CacheReadError struct {
	Key   Key
	Layer int
	Err   error
}

func (e *CacheReadError) Error() string {
	return fmt.Sprintf("transform cache: %s: layer %d read failed: %v", e.Key, e.Layer, e.Err)
}

func (e *CacheReadError) Unwrap() error { return e.Err }
