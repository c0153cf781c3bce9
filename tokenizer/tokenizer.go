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

// Package tokenizer derives a longest-match lexer from a grammar.
//
// Rules whose right-hand sides transitively consist of terminals and
// ASCII character ranges are compiled into regular expressions, one
// per rule, cached on the tokenizer instance. At each input position
// the longest match across those rules wins; ties go to the rule
// declared first.
//
// Character ranges above 0x7F are not supported here and make a rule
// ineligible; the generated parsers handle them, this utility does
// not.
package tokenizer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/LMikhail/bnf-parser-generator/diag"
	"github.com/LMikhail/bnf-parser-generator/grammar"
	"github.com/LMikhail/bnf-parser-generator/ucs"
)

// maxInlineDepth bounds non-terminal inlining during regex synthesis
// and breaks reference cycles.
const maxInlineDepth = 100

// Token is one lexeme recognised by a grammar-derived tokenizer. Type
// is the producing rule name; Pos is the byte offset in the input.
type Token struct {
	Type   string
	Value  string
	Line   int
	Column int
	Pos    int
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d:%d", t.Type, t.Value, t.Line, t.Column)
}

// Tokenizer matches input against the terminal-like rules of one
// grammar. It is not safe for concurrent use; the compiled patterns
// are cached per instance.
type Tokenizer struct {
	g              *grammar.Grammar
	skipWhitespace bool
	skipComments   bool

	terminalRules []string
	terminalMemo  map[string]bool
	patterns      map[string]*regexp.Regexp
}

func New(g *grammar.Grammar) *Tokenizer {
	return &Tokenizer{
		g:              g,
		skipWhitespace: true,
		skipComments:   true,
		terminalMemo:   make(map[string]bool),
		patterns:       make(map[string]*regexp.Regexp),
	}
}

// SetSkipWhitespace toggles skipping of ASCII whitespace between
// tokens. On by default.
func (t *Tokenizer) SetSkipWhitespace(skip bool) {
	t.skipWhitespace = skip
}

// SetSkipComments toggles skipping of `# ...` line comments between
// tokens. On by default.
func (t *Tokenizer) SetSkipComments(skip bool) {
	t.skipComments = skip
}

// TerminalRules returns the names of the rules this tokenizer matches
// against, in declaration order.
func (t *Tokenizer) TerminalRules() []string {
	if t.terminalRules == nil {
		t.terminalRules = []string{}
		for _, name := range t.g.RuleNames() {
			if t.isTerminalLike(name, make(map[string]bool)) {
				t.terminalRules = append(t.terminalRules, name)
			}
		}
	}
	return t.terminalRules
}

func (t *Tokenizer) isTerminalLike(name string, visiting map[string]bool) bool {
	if done, ok := t.terminalMemo[name]; ok {
		return done
	}
	defs := t.g.Definitions(name)
	// Parameterised rules and specialisation families are never
	// terminal-like.
	if len(defs) != 1 || len(defs[0].Params) > 0 {
		t.terminalMemo[name] = false
		return false
	}
	if visiting[name] {
		return false
	}
	visiting[name] = true
	r := t.nodeTerminalLike(defs[0].RHS, visiting)
	delete(visiting, name)
	t.terminalMemo[name] = r
	return r
}

func (t *Tokenizer) nodeTerminalLike(e grammar.Expr, visiting map[string]bool) bool {
	switch v := e.(type) {
	case *grammar.Terminal:
		return true
	case *grammar.CharRange:
		return v.End <= 0x7F
	case *grammar.NonTerminal:
		if len(v.Args) > 0 || t.g.Rule(v.Name) == nil {
			return false
		}
		return t.isTerminalLike(v.Name, visiting)
	case *grammar.Alternative:
		for _, c := range v.Choices {
			if !t.nodeTerminalLike(c, visiting) {
				return false
			}
		}
		return true
	case *grammar.Sequence:
		for _, c := range v.Elements {
			if !t.nodeTerminalLike(c, visiting) {
				return false
			}
		}
		return true
	case *grammar.Group:
		return t.nodeTerminalLike(v.Content, visiting)
	case *grammar.Optional:
		return t.nodeTerminalLike(v.Content, visiting)
	case *grammar.ZeroOrMore:
		return t.nodeTerminalLike(v.Content, visiting)
	case *grammar.OneOrMore:
		return t.nodeTerminalLike(v.Content, visiting)
	}
	return false
}

// pattern compiles (and caches) the anchored regex for one
// terminal-like rule.
func (t *Tokenizer) pattern(name string) (*regexp.Regexp, error) {
	if re, ok := t.patterns[name]; ok {
		return re, nil
	}
	frag, err := t.regexFor(t.g.Rule(name).RHS, maxInlineDepth)
	if err != nil {
		return nil, fmt.Errorf("rule %q: %s", name, err)
	}
	re, err := regexp.Compile("^(?:" + frag + ")")
	if err != nil {
		return nil, fmt.Errorf("rule %q: bad generated pattern: %s", name, err)
	}
	t.patterns[name] = re
	return re, nil
}

func (t *Tokenizer) regexFor(e grammar.Expr, depth int) (string, error) {
	switch v := e.(type) {
	case *grammar.Terminal:
		return regexp.QuoteMeta(v.Value), nil
	case *grammar.CharRange:
		return "[" + escapeClassByte(byte(v.Start)) + "-" + escapeClassByte(byte(v.End)) + "]", nil
	case *grammar.NonTerminal:
		if depth <= 0 {
			return "", fmt.Errorf("inline expansion depth exceeded at %q", v.Name)
		}
		return t.regexFor(t.g.Rule(v.Name).RHS, depth-1)
	case *grammar.Alternative:
		parts := make([]string, len(v.Choices))
		for i, c := range v.Choices {
			frag, err := t.regexFor(c, depth)
			if err != nil {
				return "", err
			}
			parts[i] = frag
		}
		return "(" + strings.Join(parts, "|") + ")", nil
	case *grammar.Sequence:
		var b strings.Builder
		b.WriteByte('(')
		for _, c := range v.Elements {
			frag, err := t.regexFor(c, depth)
			if err != nil {
				return "", err
			}
			b.WriteString(frag)
		}
		b.WriteByte(')')
		return b.String(), nil
	case *grammar.Group:
		frag, err := t.regexFor(v.Content, depth)
		if err != nil {
			return "", err
		}
		return "(" + frag + ")", nil
	case *grammar.Optional:
		frag, err := t.regexFor(v.Content, depth)
		if err != nil {
			return "", err
		}
		return "(" + frag + ")?", nil
	case *grammar.ZeroOrMore:
		frag, err := t.regexFor(v.Content, depth)
		if err != nil {
			return "", err
		}
		return "(" + frag + ")*", nil
	case *grammar.OneOrMore:
		frag, err := t.regexFor(v.Content, depth)
		if err != nil {
			return "", err
		}
		return "(" + frag + ")+", nil
	}
	return "", fmt.Errorf("construct %T cannot appear in a terminal-like rule", e)
}

func escapeClassByte(b byte) string {
	switch b {
	case '\\', ']', '^', '-':
		return "\\" + string(b)
	}
	return string(b)
}

// Tokenize splits the input into tokens, longest match first, and
// terminates the result with a synthetic EOF token.
func (t *Tokenizer) Tokenize(input string) ([]Token, error) {
	rules := t.TerminalRules()
	tokens := []Token{}
	pos, line, column := 0, 1, 1
	for pos < len(input) {
		pos, line, column = t.skipIgnored(input, pos, line, column)
		if pos >= len(input) {
			break
		}
		bestLen := -1
		bestRule := ""
		for _, name := range rules {
			re, err := t.pattern(name)
			if err != nil {
				return nil, err
			}
			m := re.FindString(input[pos:])
			if len(m) > bestLen {
				bestLen = len(m)
				bestRule = name
			}
		}
		if bestLen <= 0 {
			scalar, _ := ucs.ExtractScalar(input, pos)
			return nil, diag.Errorf(line, column, "Unexpected character %q", scalar)
		}
		value := input[pos : pos+bestLen]
		tokens = append(tokens, Token{
			Type:   bestRule,
			Value:  value,
			Line:   line,
			Column: column,
			Pos:    pos,
		})
		pos, line, column = advance(value, pos, line, column)
	}
	tokens = append(tokens, Token{Type: "EOF", Line: line, Column: column, Pos: pos})
	return tokens, nil
}

// skipIgnored consumes whitespace and comments according to the skip
// toggles.
func (t *Tokenizer) skipIgnored(input string, pos, line, column int) (int, int, int) {
	for pos < len(input) {
		c := input[pos]
		switch {
		case t.skipWhitespace && (c == ' ' || c == '\t' || c == '\r'):
			pos++
			column++
		case t.skipWhitespace && c == '\n':
			pos++
			line++
			column = 1
		case t.skipComments && c == '#':
			for pos < len(input) && input[pos] != '\n' {
				pos++
				column++
			}
			if pos < len(input) {
				pos++
				line++
				column = 1
			}
		default:
			return pos, line, column
		}
	}
	return pos, line, column
}

func advance(consumed string, pos, line, column int) (int, int, int) {
	for it := ucs.NewIterator(consumed); !it.AtEnd(); it.Next() {
		if it.Scalar() == "\n" {
			line++
			column = 1
		} else {
			column++
		}
	}
	return pos + len(consumed), line, column
}
