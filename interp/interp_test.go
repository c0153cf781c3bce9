// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package interp

import (
	"strings"
	"testing"

	"github.com/LMikhail/bnf-parser-generator/grammar"
	"github.com/LMikhail/bnf-parser-generator/parser"
)

func parse(t *testing.T, source string) *grammar.Grammar {
	t.Helper()
	g, err := parser.Parse(source)
	if err != nil {
		t.Fatalf("Parse returned error %s, want success\ngrammar:\n%s", err, source)
	}
	return g
}

// outcome is one accept/reject expectation for a constructed parser.
type outcome struct {
	input string
	ok    bool
}

func runOutcomes(t *testing.T, source string, outcomes []outcome) {
	t.Helper()
	p := New(parse(t, source))
	for _, o := range outcomes {
		if got := p.Accepts(o.input); got != o.ok {
			t.Errorf("Accepts(%q) = %v, want %v\ngrammar:\n%s", o.input, got, o.ok, source)
		}
	}
}

const arithmeticSource = `expr ::= term {("+" | "-") term}
term ::= factor {("*" | "/") factor}
factor ::= NUM | "(" expr ")"
NUM ::= ('0'..'9')+
`

func TestArithmetic(t *testing.T) {
	runOutcomes(t, arithmeticSource, []outcome{
		{"2+3*4", true},
		{"(10-5)/2", true},
		{"1", true},
		{"((((7))))", true},
		{"2+", false},
		{"", false},
		{"2 + 3", false}, // no whitespace rule in this grammar
		{"+2", false},
	})
}

func TestArithmeticAST(t *testing.T) {
	p := New(parse(t, arithmeticSource))
	node, err := p.Parse("2+3*4")
	if err != nil {
		t.Fatalf("Parse returned error %s, want success", err)
	}
	if node.Rule != "expr" {
		t.Errorf("root rule = %q, want expr", node.Rule)
	}
	if node.Start != 0 || node.End != 5 {
		t.Errorf("root span = [%d,%d), want [0,5)", node.Start, node.End)
	}
	if len(node.Children) != 2 {
		t.Fatalf("root has %d children %v, want 2 terms", len(node.Children), node.Children)
	}
	if got := node.Children[0].Value("2+3*4"); got != "2" {
		t.Errorf("first term = %q, want \"2\"", got)
	}
	if got := node.Children[1].Value("2+3*4"); got != "3*4" {
		t.Errorf("second term = %q, want \"3*4\"", got)
	}
}

func TestErrorPosition(t *testing.T) {
	p := New(parse(t, arithmeticSource))
	_, err := p.Parse("2+")
	if err == nil {
		t.Fatal("Parse(2+) succeeded, want error")
	}
	if !strings.Contains(err.Error(), "at byte 2") {
		t.Errorf("error = %q, want failure at byte 2", err)
	}
}

func TestExactConsumption(t *testing.T) {
	runOutcomes(t, `s ::= "a" "b"`, []outcome{
		{"ab", true},
		{"abc", false}, // trailing input
		{"a", false},
		{"", false},
	})
}

func TestList(t *testing.T) {
	source := `list ::= "[" [elem {"," elem}] "]"
elem ::= 'a'..'z'+
`
	runOutcomes(t, source, []outcome{
		{"[x,yz,q]", true},
		{"[]", true},
		{"[x]", true},
		{"[x,]", false},
		{"[,x]", false},
		{"x", false},
	})
}

func TestParameterDispatch(t *testing.T) {
	source := `greet[N:enum{sing, plur}] ::= noun[N] verb[N]
noun[sing] ::= "cat"
noun[plur] ::= "cats"
verb[sing] ::= "runs"
verb[plur] ::= "run"
`
	p := New(parse(t, source))
	node, err := p.Parse("catsrun")
	if err != nil {
		t.Fatalf("Parse(catsrun) returned error %s, want success", err)
	}
	// Agreement held: the plural specialisations matched.
	if len(node.Children) != 2 {
		t.Fatalf("greet has %d children, want noun and verb", len(node.Children))
	}
	if got := node.Children[0].Value("catsrun"); got != "cats" {
		t.Errorf("noun matched %q, want \"cats\"", got)
	}
	if got := node.Children[1].Value("catsrun"); got != "run" {
		t.Errorf("verb matched %q, want \"run\"", got)
	}
	// Mixed agreement must fail.
	for _, bad := range []string{"catrun", "catsruns", "cat", "runs"} {
		if p.Accepts(bad) {
			t.Errorf("Accepts(%q) = true, want false", bad)
		}
	}
	if !p.Accepts("catruns") {
		t.Error("Accepts(catruns) = false, want true with singular agreement")
	}
}

func TestLeftRecursionIsSafe(t *testing.T) {
	// The left-recursive branch exhausts the depth budget and fails;
	// ordered choice then reaches the plain term branch. Inputs
	// matching a single term parse; nothing loops forever.
	source := `expr ::= expr "+" term | term
term ::= "x"
`
	runOutcomes(t, source, []outcome{
		{"x", true},
		{"y", false},
		{"", false},
	})
}

func TestOrderedChoiceAsymmetry(t *testing.T) {
	// For "ab": the first grammar commits to "a" and then rejects the
	// trailing "b"; swapping the alternatives changes acceptance.
	runOutcomes(t, `s ::= "a" | "ab"`, []outcome{
		{"a", true},
		{"ab", false},
	})
	runOutcomes(t, `s ::= "ab" | "a"`, []outcome{
		{"a", true},
		{"ab", true},
	})
}

func TestNullableRepetitionTerminates(t *testing.T) {
	// The loop body can match empty; the repetition must stop instead
	// of spinning.
	runOutcomes(t, `s ::= {["x"]}`, []outcome{
		{"", true},
		{"x", true},
		{"xxx", true},
		{"y", false},
	})
	runOutcomes(t, `s ::= (["x"])+ "y"`, []outcome{
		{"y", true},
		{"xy", true},
		{"xxy", true},
	})
}

func TestCharRangeSingleScalar(t *testing.T) {
	runOutcomes(t, `s ::= 'a'..'a'`, []outcome{
		{"a", true},
		{"b", false},
		{"", false},
	})
}

func TestUnicodeRangeMatchesScalars(t *testing.T) {
	// The Cyrillic range must compare scalar values, not bytes.
	runOutcomes(t, `s ::= 'а'..'я'+`, []outcome{
		{"привет", true},
		{"мир", true},
		{"hi", false},
	})
}

func TestContextActions(t *testing.T) {
	source := `s ::= tag {store(k, tag)} "-" {lookup(k)} tag
tag ::= 'a'..'z'+
`
	runOutcomes(t, source, []outcome{
		{"ab-cd", true},
	})
	// A lookup with nothing stored fails.
	runOutcomes(t, `s ::= {lookup(missing)} "x"`, []outcome{
		{"x", false},
	})
	// A store alone consumes no input.
	runOutcomes(t, `s ::= "x" {store(k, s)}`, []outcome{
		{"x", true},
	})
}

func TestCheckPredicate(t *testing.T) {
	source := `s ::= "x" {check(allowed)}`
	p := New(parse(t, source))
	// Unregistered predicates accept.
	if !p.Accepts("x") {
		t.Error("Accepts(x) = false with no predicate registered, want true")
	}
	p.Checks = map[string]func() bool{"allowed": func() bool { return false }}
	if p.Accepts("x") {
		t.Error("Accepts(x) = true with denying predicate, want false")
	}
}

func TestDepthLimit(t *testing.T) {
	source := `a ::= "(" a ")" | "x"`
	p := New(parse(t, source))
	if !p.Accepts("((x))") {
		t.Error("Accepts(((x))) = false, want true")
	}
	p.MaxDepth = 3
	if p.Accepts("((((x))))") {
		t.Error("Accepts with tiny depth budget = true, want false")
	}
	if _, err := p.Parse("((((x))))"); err == nil ||
		!strings.Contains(err.Error(), "recursion depth") {
		t.Errorf("error = %v, want recursion depth message", err)
	}
}

func TestEnumParameterisedStart(t *testing.T) {
	// With greet as the start symbol, the top-level parse tries the
	// enum members in order.
	source := `greet[N:enum{sing, plur}] ::= noun[N]
noun[sing] ::= "cat"
noun[plur] ::= "cats"
`
	runOutcomes(t, source, []outcome{
		{"cat", true},
		{"cats", true},
		{"catss", false},
	})
}
