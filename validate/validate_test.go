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

package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LMikhail/bnf-parser-generator/grammar"
	"github.com/LMikhail/bnf-parser-generator/parser"
)

func parse(t *testing.T, source string) *grammar.Grammar {
	t.Helper()
	g, err := parser.Parse(source)
	require.NoError(t, err, "grammar source:\n%s", source)
	return g
}

func TestValidGrammars(t *testing.T) {
	sources := []string{
		`a ::= "x"`,
		`expr ::= term {("+" | "-") term}; term ::= factor {("*" | "/") factor}; factor ::= NUM | "(" expr ")"; NUM ::= ("0".."9")+`,
		`list ::= "[" [elem {"," elem}] "]"; elem ::= 'a'..'z'+`,
		// Left recursion is allowed here; ordered choice handles it in
		// the emitted parser.
		`expr ::= expr "+" term | term; term ::= "x"`,
		`greet[N:enum{sing, plur}] ::= noun[N] verb[N]; noun[sing] ::= "cat"; noun[plur] ::= "cats"; verb[sing] ::= "runs"; verb[plur] ::= "run"`,
		`s ::= {store(k, v)} "x" {lookup(k)}`,
	}
	for _, source := range sources {
		g := parse(t, source)
		r := Validate(g)
		require.True(t, r.Valid(), "Validate(%q) errors: %s", source, r.Errors)
	}
}

func TestEmptyGrammar(t *testing.T) {
	g := parse(t, "# nothing here\n")
	r := Validate(g)
	require.False(t, r.Valid())
	require.Contains(t, r.Errors.Error(), "Grammar is empty")
}

func TestUndefinedNonTerminal(t *testing.T) {
	g := parse(t, `s ::= undef`)
	r := Validate(g)
	require.False(t, r.Valid())
	require.Contains(t, r.Errors.Error(), "Undefined non-terminal: undef")
}

func TestUndefinedReportedOnce(t *testing.T) {
	g := parse(t, `s ::= undef undef undef`)
	r := Validate(g)
	count := 0
	for _, d := range r.Errors {
		if strings.Contains(d.Message, "Undefined non-terminal") {
			count++
		}
	}
	require.Equal(t, 1, count, "errors: %s", r.Errors)
}

func TestNonProductive(t *testing.T) {
	tests := []struct {
		source string
		rule   string
	}{
		{`a ::= a`, "a"},
		{`a ::= a "x"`, "a"},
		{`a ::= b; b ::= a`, "a"},
		{`s ::= t; t ::= t "x" | t "y"`, "t"},
	}
	for _, tt := range tests {
		g := parse(t, tt.source)
		r := Validate(g)
		require.False(t, r.Valid(), "Validate(%q) should fail", tt.source)
		require.Contains(t, r.Errors.Error(),
			`rule "`+tt.rule+`" is not productive`, "source %q", tt.source)
	}
}

func TestOptionalAndStarAreProductive(t *testing.T) {
	// A rule that can match empty is productive even when its inner
	// expression refers back to itself.
	for _, source := range []string{`a ::= {a}`, `a ::= [a]`, `a ::= a?`, `a ::= a*`} {
		g := parse(t, source)
		r := Validate(g)
		require.True(t, r.Valid(), "Validate(%q) errors: %s", source, r.Errors)
	}
}

func TestUnreachableWarning(t *testing.T) {
	g := parse(t, "s ::= t\nt ::= \"x\"\ndead ::= \"y\"")
	r := Validate(g)
	require.True(t, r.Valid(), "errors: %s", r.Errors)
	require.Len(t, r.Warnings, 1)
	require.Contains(t, r.Warnings[0].Message, "unreachable rule: dead")
}

func TestEmptyTerminal(t *testing.T) {
	g := parse(t, `a ::= ""`)
	r := Validate(g)
	require.False(t, r.Valid())
	require.Contains(t, r.Errors.Error(), "empty terminal")
}

func TestDuplicateRule(t *testing.T) {
	g := parse(t, "a ::= \"x\"\na ::= \"y\"")
	r := Validate(g)
	require.False(t, r.Valid())
	require.Contains(t, r.Errors.Error(), `rule "a" is defined more than once`)
}

func TestFamilyArityMismatch(t *testing.T) {
	g := parse(t, "noun[sing] ::= \"cat\"\nnoun[sing, plur] ::= \"cats\"")
	r := Validate(g)
	require.False(t, r.Valid())
	require.Contains(t, r.Errors.Error(), "disagree on parameter count")
}

func TestArgumentCount(t *testing.T) {
	g := parse(t, `s ::= noun; noun[sing] ::= "cat"; noun[plur] ::= "cats"`)
	r := Validate(g)
	require.False(t, r.Valid())
	require.Contains(t, r.Errors.Error(), "expects 1 argument(s), got 0")
}

func TestArgumentIdentifiers(t *testing.T) {
	// N is a formal of greet; sing/plur are members of the callee's
	// value set; anything else is an error.
	valid := `greet[N:enum{sing, plur}] ::= noun[N] noun[sing]; noun[sing] ::= "cat"; noun[plur] ::= "cats"`
	r := Validate(parse(t, valid))
	require.True(t, r.Valid(), "errors: %s", r.Errors)

	invalid := `greet[N:enum{sing, plur}] ::= noun[dual]; noun[sing] ::= "cat"; noun[plur] ::= "cats"`
	r = Validate(parse(t, invalid))
	require.False(t, r.Valid())
	require.Contains(t, r.Errors.Error(), `argument "dual"`)
}

func TestEnumArgumentOnDeclaredParam(t *testing.T) {
	source := `s ::= item[big]; item[size:enum{big, small}] ::= "x"`
	r := Validate(parse(t, source))
	require.True(t, r.Valid(), "errors: %s", r.Errors)

	bad := `s ::= item[huge]; item[size:enum{big, small}] ::= "x"`
	r = Validate(parse(t, bad))
	require.False(t, r.Valid())
	require.Contains(t, r.Errors.Error(), `argument "huge"`)
}

func TestBatchedDiagnostics(t *testing.T) {
	// One run reports all problems at once.
	g := parse(t, "s ::= undef\nloop ::= loop\ndead ::= \"x\"")
	r := Validate(g)
	require.False(t, r.Valid())
	joined := r.Errors.Error()
	require.Contains(t, joined, "Undefined non-terminal: undef")
	require.Contains(t, joined, `rule "loop" is not productive`)
	require.NotEmpty(t, r.Warnings)
}
