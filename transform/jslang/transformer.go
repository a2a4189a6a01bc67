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

import "bennypowers.dev/deltabundle/transform"

// Transformer implements transform.Transformer using tree-sitter-typescript:
// when opts.InlineRequires is set or opts.Dev is false it folds
// compile-time-constant expressions (otherwise the code is left as is),
// then extracts the resulting dependency list. Source maps are not produced by this reference
// implementation; Result.Map is left empty.
type Transformer struct{}

// NewTransformer creates a jslang Transformer.
func NewTransformer() *Transformer {
	return &Transformer{}
}

// Transform implements transform.Transformer.
func (t *Transformer) Transform(filePath string, content []byte, opts transform.Options) (transform.Result, error) {
	code := content
	if opts.InlineRequires || !opts.Dev {
		folded, err := FoldConstants(content)
		if err != nil {
			return transform.Result{}, err
		}
		code = folded
	}

	deps, err := ExtractDependencies(code)
	if err != nil {
		return transform.Result{}, err
	}

	return transform.Result{
		Code:         string(code),
		Dependencies: deps,
	}, nil
}
