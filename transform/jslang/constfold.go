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
	"strconv"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// constValue is a compile-time-known JavaScript value. kind distinguishes
// undefined (no JS literal spelling matches "undefined" used as a value
// rather than the identifier) from the other, directly-renderable kinds.
type constValue struct {
	kind constKind
	b    bool
	n    float64
	s    string
}

type constKind int

const (
	constUndefined constKind = iota
	constNull
	constBool
	constNumber
	constString
)

func (v constValue) truthy() bool {
	switch v.kind {
	case constUndefined, constNull:
		return false
	case constBool:
		return v.b
	case constNumber:
		return v.n != 0
	case constString:
		return v.s != ""
	}
	return false
}

// render returns the canonical JS source text for v. Negative zero is
// rendered as "-0" rather than folding to "0", since code may depend on
// the Object.is distinction between the two.
func (v constValue) render() string {
	switch v.kind {
	case constUndefined:
		return "undefined"
	case constNull:
		return "null"
	case constBool:
		if v.b {
			return "true"
		}
		return "false"
	case constNumber:
		if v.n == 0 && isNegativeZero(v.n) {
			return "-0"
		}
		return strconv.FormatFloat(v.n, 'g', -1, 64)
	case constString:
		return strconv.Quote(v.s)
	}
	return ""
}

func isNegativeZero(f float64) bool {
	return f == 0 && 1/f < 0
}

// FoldConstants parses content and rewrites every statically-evaluable
// ternary, logical (&&/||/??), unary (!/void/-/+ on a literal), and
// if/else whose condition is a literal, replacing it with its computed
// value. Expressions that aren't fully literal (e.g. `a ? 1 : 2` where
// `a` is a variable) are left untouched; only their literal sub-parts,
// if any, fold recursively via the usual depth-first walk.
//
// Optional chaining (?.) and `export default` are preserved verbatim: neither is a foldable
// constant-expression form this pass recognizes, so their nodes are
// simply walked into rather than rewritten.
func FoldConstants(content []byte) ([]byte, error) {
	parser := getParser()
	defer putParser(parser)

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("jslang: failed to parse content")
	}
	defer tree.Close()

	edits := collectFoldEdits(tree.RootNode(), content, nil)
	return applyEdits(content, edits), nil
}

type edit struct {
	start, end uint
	replace    string
}

func collectFoldEdits(node *ts.Node, src []byte, edits []edit) []edit {
	if node == nil {
		return edits
	}

	switch node.Kind() {
	case "if_statement":
		if e, ok := tryFoldIf(node, src); ok {
			return append(edits, e)
		}
	case "ternary_expression":
		if text, ok := tryFoldTernary(node, src); ok {
			return append(edits, edit{start: node.StartByte(), end: node.EndByte(), replace: text})
		}
	case "binary_expression":
		if text, ok := tryFoldLogical(node, src); ok {
			return append(edits, edit{start: node.StartByte(), end: node.EndByte(), replace: text})
		}
	case "unary_expression", "parenthesized_expression":
		if v, ok := tryFold(node, src); ok {
			return append(edits, edit{start: node.StartByte(), end: node.EndByte(), replace: v.render()})
		}
	}

	count := node.NamedChildCount()
	for i := uint(0); i < count; i++ {
		child := node.NamedChild(i)
		edits = collectFoldEdits(child, src, edits)
	}
	return edits
}

// tryFoldIf evaluates an if_statement's condition; when it is a
// compile-time constant, the whole statement is replaced by whichever
// branch applies (or removed entirely, for a false condition with no
// else clause).
func tryFoldIf(node *ts.Node, src []byte) (edit, bool) {
	cond := node.ChildByFieldName("condition")
	if cond == nil {
		return edit{}, false
	}
	// condition is wrapped in parentheses in the grammar; unwrap it.
	inner := cond
	if inner.NamedChildCount() == 1 {
		inner = inner.NamedChild(0)
	}

	v, ok := tryFold(inner, src)
	if !ok {
		return edit{}, false
	}

	consequence := node.ChildByFieldName("consequence")
	alternative := node.ChildByFieldName("alternative")

	var replacement string
	if v.truthy() {
		if consequence != nil {
			replacement = string(src[consequence.StartByte():consequence.EndByte()])
		}
	} else if alternative != nil {
		replacement = string(src[alternative.StartByte():alternative.EndByte()])
	}

	return edit{start: node.StartByte(), end: node.EndByte(), replace: replacement}, true
}

// tryFold attempts to fully evaluate node to a constValue. It recognizes
// literals directly and recurses through ternary/logical/unary/
// parenthesized forms; any other node kind (identifiers, calls, member
// access, optional chaining) fails, leaving the expression untouched.
func tryFold(node *ts.Node, src []byte) (constValue, bool) {
	if node == nil {
		return constValue{}, false
	}

	switch node.Kind() {
	case "true":
		return constValue{kind: constBool, b: true}, true
	case "false":
		return constValue{kind: constBool, b: false}, true
	case "null":
		return constValue{kind: constNull}, true
	case "undefined":
		return constValue{kind: constUndefined}, true
	case "number":
		text := node.Utf8Text(src)
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return constValue{}, false
		}
		return constValue{kind: constNumber, n: f}, true
	case "string":
		return constValue{kind: constString, s: stringLiteralValue(node, src)}, true
	case "parenthesized_expression":
		if node.NamedChildCount() != 1 {
			return constValue{}, false
		}
		return tryFold(node.NamedChild(0), src)
	case "unary_expression":
		return tryFoldUnary(node, src)
	case "binary_expression":
		return tryFoldLogicalScalar(node, src)
	case "ternary_expression":
		return tryFoldTernaryScalar(node, src)
	default:
		return constValue{}, false
	}
}

func stringLiteralValue(node *ts.Node, src []byte) string {
	var sb strings.Builder
	count := node.NamedChildCount()
	for i := uint(0); i < count; i++ {
		child := node.NamedChild(i)
		if child.Kind() == "string_fragment" {
			sb.WriteString(child.Utf8Text(src))
		}
	}
	return sb.String()
}

// operatorText returns the literal operator token between a binary or
// unary expression's operand fields, since tree-sitter-javascript does
// not expose the operator as a named field.
func operatorText(node *ts.Node, src []byte, skip []*ts.Node) string {
	count := node.ChildCount()
	for i := uint(0); i < count; i++ {
		child := node.Child(i)
		if child.IsNamed() {
			continue
		}
		text := child.Utf8Text(src)
		if strings.TrimSpace(text) == "" {
			continue
		}
		return text
	}
	return ""
}

func tryFoldUnary(node *ts.Node, src []byte) (constValue, bool) {
	arg := node.ChildByFieldName("argument")
	if arg == nil {
		return constValue{}, false
	}
	op := operatorText(node, src, nil)

	if op == "void" {
		if _, ok := tryFold(arg, src); !ok {
			return constValue{}, false
		}
		return constValue{kind: constUndefined}, true
	}

	v, ok := tryFold(arg, src)
	if !ok {
		return constValue{}, false
	}

	switch op {
	case "!":
		return constValue{kind: constBool, b: !v.truthy()}, true
	case "-":
		if v.kind != constNumber {
			return constValue{}, false
		}
		return constValue{kind: constNumber, n: -v.n}, true
	case "+":
		if v.kind != constNumber {
			return constValue{}, false
		}
		return constValue{kind: constNumber, n: v.n}, true
	default:
		return constValue{}, false
	}
}

// tryFoldLogicalScalar folds short-circuiting &&, ||, and ?? (nullish
// coalescing, which short-circuits on null/undefined rather than
// truthiness), plus literal equality (===, !==, ==, !=), all the way
// down to a constValue. It's used where the result must itself be a
// scalar to feed into further evaluation (a condition, a unary
// operand, an equality operand) — for replacement-text purposes, where
// the winning side of && / || / ?? need not reduce any further than
// its own source text, see tryFoldLogical below. Arithmetic and
// relational operators (<, +, etc.) share the binary_expression node
// kind but aren't folded here, since the spec only calls for equality
// among the comparison forms.
func tryFoldLogicalScalar(node *ts.Node, src []byte) (constValue, bool) {
	left := node.ChildByFieldName("left")
	right := node.ChildByFieldName("right")
	if left == nil || right == nil {
		return constValue{}, false
	}
	op := operatorText(node, src, []*ts.Node{left, right})

	switch op {
	case "&&":
		lv, ok := tryFold(left, src)
		if !ok {
			return constValue{}, false
		}
		if !lv.truthy() {
			return lv, true
		}
		rv, ok := tryFold(right, src)
		if !ok {
			return constValue{}, false
		}
		return rv, true
	case "||":
		lv, ok := tryFold(left, src)
		if !ok {
			return constValue{}, false
		}
		if lv.truthy() {
			return lv, true
		}
		rv, ok := tryFold(right, src)
		if !ok {
			return constValue{}, false
		}
		return rv, true
	case "??":
		lv, ok := tryFold(left, src)
		if !ok {
			return constValue{}, false
		}
		if lv.kind != constNull && lv.kind != constUndefined {
			return lv, true
		}
		rv, ok := tryFold(right, src)
		if !ok {
			return constValue{}, false
		}
		return rv, true
	case "===", "!==", "==", "!=":
		lv, ok := tryFold(left, src)
		if !ok {
			return constValue{}, false
		}
		rv, ok := tryFold(right, src)
		if !ok {
			return constValue{}, false
		}
		strict := op == "===" || op == "!=="
		eq, ok := literalsEqual(lv, rv, strict)
		if !ok {
			return constValue{}, false
		}
		if op == "!==" || op == "!=" {
			eq = !eq
		}
		return constValue{kind: constBool, b: eq}, true
	default:
		return constValue{}, false
	}
}

// literalsEqual compares two fully-evaluated literals. Only comparisons
// between values of the same kind are folded, except that loose
// equality (strict=false) additionally treats null and undefined as
// equal to each other, per the `==` coercion table; mixed-type
// comparisons beyond that (e.g. `1 == "1"`) involve coercion rules this
// pass doesn't model and are left for the runtime to evaluate.
func literalsEqual(a, b constValue, strict bool) (bool, bool) {
	if a.kind != b.kind {
		if !strict && (a.kind == constNull || a.kind == constUndefined) && (b.kind == constNull || b.kind == constUndefined) {
			return true, true
		}
		return false, false
	}
	switch a.kind {
	case constUndefined, constNull:
		return true, true
	case constBool:
		return a.b == b.b, true
	case constNumber:
		return a.n == b.n, true
	case constString:
		return a.s == b.s, true
	}
	return false, false
}

// tryFoldTernaryScalar evaluates a ternary all the way down to a
// constValue, for the scalar contexts described on tryFoldLogicalScalar.
func tryFoldTernaryScalar(node *ts.Node, src []byte) (constValue, bool) {
	cond := node.ChildByFieldName("condition")
	cons := node.ChildByFieldName("consequence")
	alt := node.ChildByFieldName("alternative")
	if cond == nil || cons == nil || alt == nil {
		return constValue{}, false
	}
	cv, ok := tryFold(cond, src)
	if !ok {
		return constValue{}, false
	}
	if cv.truthy() {
		return tryFold(cons, src)
	}
	return tryFold(alt, src)
}

// tryFoldTernary evaluates a ternary's condition and, once it is a
// compile-time constant, resolves to whichever branch applies — the
// same selection tryFoldIf makes for if/else. Unlike
// tryFoldTernaryScalar, the winning branch is not required to reduce
// to a constValue: foldBranchText falls back to the branch's raw
// source text when it isn't itself a foldable literal, so an object or
// array literal, a bare identifier, or a call expression on the
// winning side still produces a valid replacement.
func tryFoldTernary(node *ts.Node, src []byte) (string, bool) {
	cond := node.ChildByFieldName("condition")
	cons := node.ChildByFieldName("consequence")
	alt := node.ChildByFieldName("alternative")
	if cond == nil || cons == nil || alt == nil {
		return "", false
	}
	cv, ok := tryFold(cond, src)
	if !ok {
		return "", false
	}
	if cv.truthy() {
		return foldBranchText(cons, src), true
	}
	return foldBranchText(alt, src), true
}

// tryFoldLogical resolves &&, ||, and ?? to whichever operand the
// short-circuit rule selects, and equality (===, !==, ==, !=) to its
// computed boolean. As with tryFoldTernary, a selected && / || / ??
// operand is spliced in by raw source text via foldBranchText rather
// than required to reduce to a constValue, so `true && {a: 1}` folds
// to `{a: 1}` instead of silently failing to fold at all. Arithmetic
// and relational operators fold nothing here, same as
// tryFoldLogicalScalar.
func tryFoldLogical(node *ts.Node, src []byte) (string, bool) {
	left := node.ChildByFieldName("left")
	right := node.ChildByFieldName("right")
	if left == nil || right == nil {
		return "", false
	}
	op := operatorText(node, src, []*ts.Node{left, right})

	switch op {
	case "&&":
		lv, ok := tryFold(left, src)
		if !ok {
			return "", false
		}
		if !lv.truthy() {
			return foldBranchText(left, src), true
		}
		return foldBranchText(right, src), true
	case "||":
		lv, ok := tryFold(left, src)
		if !ok {
			return "", false
		}
		if lv.truthy() {
			return foldBranchText(left, src), true
		}
		return foldBranchText(right, src), true
	case "??":
		lv, ok := tryFold(left, src)
		if !ok {
			return "", false
		}
		if lv.kind != constNull && lv.kind != constUndefined {
			return foldBranchText(left, src), true
		}
		return foldBranchText(right, src), true
	case "===", "!==", "==", "!=":
		v, ok := tryFoldLogicalScalar(node, src)
		if !ok {
			return "", false
		}
		return v.render(), true
	default:
		return "", false
	}
}

// foldBranchText renders the text a selected ternary/logical branch
// should be replaced with: the branch's own fold result if it has one
// (a literal, a further nested ternary/logical, a parenthesized
// sub-expression), or else its raw source bytes unchanged. A branch
// never fails to produce text here, since "leave it as written" is
// always a valid answer once it has already been selected as the
// winner by a folded condition.
func foldBranchText(node *ts.Node, src []byte) string {
	if v, ok := tryFold(node, src); ok {
		return v.render()
	}
	switch node.Kind() {
	case "ternary_expression":
		if text, ok := tryFoldTernary(node, src); ok {
			return text
		}
	case "binary_expression":
		if text, ok := tryFoldLogical(node, src); ok {
			return text
		}
	case "parenthesized_expression":
		if node.NamedChildCount() == 1 {
			return foldBranchText(node.NamedChild(0), src)
		}
	}
	return string(src[node.StartByte():node.EndByte()])
}

// applyEdits rewrites src, replacing each edit's byte range with its
// replacement text. Edits may be nested (an outer ternary containing a
// foldable inner unary); only the outermost edit in a nested group is
// kept, since collectFoldEdits stops descending once a node folds.
func applyEdits(src []byte, edits []edit) []byte {
	if len(edits) == 0 {
		return src
	}

	kept := dropNested(edits)

	var sb strings.Builder
	cursor := uint(0)
	for _, e := range kept {
		if e.start < cursor {
			continue
		}
		sb.Write(src[cursor:e.start])
		sb.WriteString(e.replace)
		cursor = e.end
	}
	sb.Write(src[cursor:])
	return []byte(sb.String())
}

func dropNested(edits []edit) []edit {
	var kept []edit
	for _, e := range edits {
		nested := false
		for _, other := range kept {
			if other.start <= e.start && e.end <= other.end {
				nested = true
				break
			}
		}
		if !nested {
			kept = append(kept, e)
		}
	}
	return kept
}
