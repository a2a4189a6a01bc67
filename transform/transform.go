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

// Package transform runs source files through a Transformer to produce
// compiled code, a source map, and a dependency list, backed by a
// layered cache and a bounded worker pool.
package transform

// Dependency is a single require/import specifier discovered in a file,
// in source order.
type Dependency struct {
	Specifier string
	IsAsync   bool
}

// Result is the output of transforming one file.
type Result struct {
	Code         string
	Map          string
	Dependencies []Dependency
}

// Options carries the per-call transform configuration that participates
// in the cache key and the in-flight dedup key; workers are chosen by file
// path alone.
type Options struct {
	Platform     string
	Dev          bool
	Minify       bool
	InlineRequires bool
}

// Fingerprint returns a stable string identifying this Options value, used
// as part of the cache/dedup key so two calls with different transform
// configurations for the same file never collide.
func (o Options) Fingerprint() string {
	dev := "0"
	if o.Dev {
		dev = "1"
	}
	minify := "0"
	if o.Minify {
		minify = "1"
	}
	inline := "0"
	if o.InlineRequires {
		inline = "1"
	}
	return o.Platform + ":" + dev + ":" + minify + ":" + inline
}

// Transformer converts raw file content into a Result. Implementations
// are called concurrently from multiple Pool workers and must not share
// mutable state across calls without their own synchronization.
type Transformer interface {
	Transform(filePath string, content []byte, opts Options) (Result, error)
}
