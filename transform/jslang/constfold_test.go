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
	"strings"
	"testing"
)

func TestFoldTernaryLiteralCondition(t *testing.T) {
	out, err := FoldConstants([]byte(`const x = true ? 1 : 2;`))
	if err != nil {
		t.Fatalf("FoldConstants: %v", err)
	}
	if !strings.Contains(string(out), "const x = 1;") {
		t.Errorf("got %q, want folded to 1", out)
	}
}

func TestFoldLogicalAnd(t *testing.T) {
	out, err := FoldConstants([]byte(`const x = false && doSomething();`))
	if err != nil {
		t.Fatalf("FoldConstants: %v", err)
	}
	if !strings.Contains(string(out), "const x = false;") {
		t.Errorf("got %q, want short-circuited to false", out)
	}
}

func TestFoldLogicalOr(t *testing.T) {
	out, err := FoldConstants([]byte(`const x = true || doSomething();`))
	if err != nil {
		t.Fatalf("FoldConstants: %v", err)
	}
	if !strings.Contains(string(out), "const x = true;") {
		t.Errorf("got %q, want short-circuited to true", out)
	}
}

func TestFoldUnaryNot(t *testing.T) {
	out, err := FoldConstants([]byte(`const x = !false;`))
	if err != nil {
		t.Fatalf("FoldConstants: %v", err)
	}
	if !strings.Contains(string(out), "const x = true;") {
		t.Errorf("got %q, want true", out)
	}
}

func TestFoldVoidExpression(t *testing.T) {
	out, err := FoldConstants([]byte(`const x = void 0;`))
	if err != nil {
		t.Fatalf("FoldConstants: %v", err)
	}
	if !strings.Contains(string(out), "const x = undefined;") {
		t.Errorf("got %q, want undefined", out)
	}
}

func TestFoldPreservesNegativeZero(t *testing.T) {
	out, err := FoldConstants([]byte(`const x = -0;`))
	if err != nil {
		t.Fatalf("FoldConstants: %v", err)
	}
	if !strings.Contains(string(out), "-0") {
		t.Errorf("got %q, want -0 preserved", out)
	}
}

func TestFoldIfStatementTrueBranch(t *testing.T) {
	out, err := FoldConstants([]byte(`if (true) { doA(); } else { doB(); }`))
	if err != nil {
		t.Fatalf("FoldConstants: %v", err)
	}
	got := string(out)
	if !strings.Contains(got, "doA()") || strings.Contains(got, "doB()") {
		t.Errorf("got %q, want only doA() retained", got)
	}
}

func TestFoldIfStatementFalseBranchNoElse(t *testing.T) {
	out, err := FoldConstants([]byte("if (false) { doA(); }\nafter();"))
	if err != nil {
		t.Fatalf("FoldConstants: %v", err)
	}
	got := string(out)
	if strings.Contains(got, "doA()") {
		t.Errorf("got %q, want doA() removed", got)
	}
	if !strings.Contains(got, "after()") {
		t.Errorf("got %q, want after() retained", got)
	}
}

func TestFoldLeavesNonLiteralConditionUntouched(t *testing.T) {
	src := `const x = someVar ? 1 : 2;`
	out, err := FoldConstants([]byte(src))
	if err != nil {
		t.Fatalf("FoldConstants: %v", err)
	}
	if string(out) != src {
		t.Errorf("got %q, want unchanged %q", out, src)
	}
}

func TestFoldPreservesOptionalChaining(t *testing.T) {
	src := `const x = a?.b?.c;`
	out, err := FoldConstants([]byte(src))
	if err != nil {
		t.Fatalf("FoldConstants: %v", err)
	}
	if string(out) != src {
		t.Errorf("got %q, want optional chaining preserved unchanged", out)
	}
}

func TestFoldLiteralEqualityTernary(t *testing.T) {
	out, err := FoldConstants([]byte(`var a = 'android' === 'android' ? {a:1} : {a:0};`))
	if err != nil {
		t.Fatalf("FoldConstants: %v", err)
	}
	if !strings.Contains(string(out), "var a = {a:1};") {
		t.Errorf("got %q, want folded to {a:1}", out)
	}
}

func TestFoldLiteralInequality(t *testing.T) {
	out, err := FoldConstants([]byte(`const x = 'ios' === 'android' ? 1 : 2;`))
	if err != nil {
		t.Fatalf("FoldConstants: %v", err)
	}
	if !strings.Contains(string(out), "const x = 2;") {
		t.Errorf("got %q, want folded to 2", out)
	}
}

func TestFoldLooseEqualityNullUndefined(t *testing.T) {
	out, err := FoldConstants([]byte(`const x = null == undefined;`))
	if err != nil {
		t.Fatalf("FoldConstants: %v", err)
	}
	if !strings.Contains(string(out), "const x = true;") {
		t.Errorf("got %q, want true", out)
	}
}

func TestFoldStrictEqualityNullUndefinedNotEqual(t *testing.T) {
	out, err := FoldConstants([]byte(`const x = null === undefined;`))
	if err != nil {
		t.Fatalf("FoldConstants: %v", err)
	}
	if !strings.Contains(string(out), "const x = false;") {
		t.Errorf("got %q, want false", out)
	}
}

func TestFoldNullishCoalescing(t *testing.T) {
	out, err := FoldConstants([]byte(`const x = null ?? 42;`))
	if err != nil {
		t.Fatalf("FoldConstants: %v", err)
	}
	if !strings.Contains(string(out), "const x = 42;") {
		t.Errorf("got %q, want 42", out)
	}
}

func TestFoldNullishCoalescingLeftNonNullish(t *testing.T) {
	out, err := FoldConstants([]byte(`const x = 0 ?? 42;`))
	if err != nil {
		t.Fatalf("FoldConstants: %v", err)
	}
	if !strings.Contains(string(out), "const x = 0;") {
		t.Errorf("got %q, want 0 (nullish only checks null/undefined, not falsiness)", out)
	}
}

func TestFoldTernaryWithObjectLiteralBranch(t *testing.T) {
	out, err := FoldConstants([]byte(`const config = false ? { mode: "dev" } : { mode: "prod" };`))
	if err != nil {
		t.Fatalf("FoldConstants: %v", err)
	}
	if !strings.Contains(string(out), `const config = { mode: "prod" };`) {
		t.Errorf("got %q, want folded to the selected (else) branch's object literal", out)
	}
}

func TestFoldTernaryWithIdentifierBranch(t *testing.T) {
	out, err := FoldConstants([]byte(`const handler = true ? onSuccess : onFailure;`))
	if err != nil {
		t.Fatalf("FoldConstants: %v", err)
	}
	if !strings.Contains(string(out), "const handler = onSuccess;") {
		t.Errorf("got %q, want folded to the winning branch's identifier", out)
	}
}

func TestFoldLogicalAndWithObjectLiteralOperand(t *testing.T) {
	out, err := FoldConstants([]byte(`const x = true && { a: 1 };`))
	if err != nil {
		t.Fatalf("FoldConstants: %v", err)
	}
	if !strings.Contains(string(out), "const x = { a: 1 };") {
		t.Errorf("got %q, want folded to the right operand's object literal", out)
	}
}

func TestFoldLogicalOrWithCallOperand(t *testing.T) {
	out, err := FoldConstants([]byte(`const x = false || computeDefault();`))
	if err != nil {
		t.Fatalf("FoldConstants: %v", err)
	}
	if !strings.Contains(string(out), "const x = computeDefault();") {
		t.Errorf("got %q, want folded to the right operand's call expression", out)
	}
}

func TestFoldPreservesExportDefault(t *testing.T) {
	src := `export default function widget() { return true ? 1 : 2; }`
	out, err := FoldConstants([]byte(src))
	if err != nil {
		t.Fatalf("FoldConstants: %v", err)
	}
	got := string(out)
	if !strings.HasPrefix(got, "export default function widget()") {
		t.Errorf("got %q, want export default preserved", got)
	}
	if !strings.Contains(got, "return 1;") {
		t.Errorf("got %q, want inner ternary folded", got)
	}
}
