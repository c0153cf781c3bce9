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

// Package parser builds the grammar intermediate representation from a
// token stream produced by the lexer.
//
// The grammar of grammars, loosest binding first:
//
//	Grammar     := { Rule }
//	Rule        := Identifier [ "[" ParamList "]" ] "::=" Expression { NEWLINE | ";" }
//	Expression  := Alternative
//	Alternative := Sequence { "|" Sequence }
//	Sequence    := Factor { Factor }
//	Factor      := Primary [ "+" | "*" | "?" ]
//	Primary     := NonTerminalRef | TerminalOrRange
//	             | "(" Expression ")" | "[" Expression "]"
//	             | "{" ( ContextAction | Expression ) "}"
package parser

import (
	"github.com/LMikhail/bnf-parser-generator/diag"
	"github.com/LMikhail/bnf-parser-generator/grammar"
	"github.com/LMikhail/bnf-parser-generator/lexer"
	"github.com/LMikhail/bnf-parser-generator/ucs"
)

// startNames are rule names that win the start-symbol election, in
// priority order.
var startNames = []string{"json", "program", "start", "grammar", "root"}

type parser struct {
	tokens []lexer.Token
	pos    int
}

// Parse lexes and parses grammar source text.
func Parse(source string) (*grammar.Grammar, error) {
	tokens, err := lexer.Tokenize(source)
	if err != nil {
		return nil, err
	}
	return ParseTokens(tokens)
}

// ParseTokens parses a lexed token stream into a grammar. COMMENT
// tokens are skipped as whitespace.
func ParseTokens(tokens []lexer.Token) (*grammar.Grammar, error) {
	var kept []lexer.Token
	for _, t := range tokens {
		if t.Kind != lexer.COMMENT {
			kept = append(kept, t)
		}
	}
	p := &parser{tokens: kept}
	g := grammar.New()
	p.skipSeparators()
	for !p.at(lexer.EOF) {
		rule, err := p.parseRule()
		if err != nil {
			return nil, err
		}
		g.AddRule(rule)
		if !p.at(lexer.EOF) {
			if !p.at(lexer.NEWLINE) && !p.at(lexer.SEMICOLON) {
				return nil, p.errorf("expected end of rule, found %s", p.peek())
			}
			p.skipSeparators()
		}
	}
	g.StartSymbol = chooseStartSymbol(g)
	return g, nil
}

func (p *parser) peek() lexer.Token {
	return p.tokens[p.pos]
}

func (p *parser) peekAt(offset int) lexer.Token {
	i := p.pos + offset
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[i]
}

func (p *parser) at(kind lexer.Kind) bool {
	return p.peek().Kind == kind
}

func (p *parser) advance() lexer.Token {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind lexer.Kind) (lexer.Token, error) {
	if !p.at(kind) {
		return lexer.Token{}, p.errorf("expected %s, found %s", kind, p.peek())
	}
	return p.advance(), nil
}

func (p *parser) errorf(format string, args ...interface{}) error {
	t := p.peek()
	return diag.Errorf(t.Line, t.Column, format, args...)
}

func (p *parser) skipSeparators() {
	for p.at(lexer.NEWLINE) || p.at(lexer.SEMICOLON) {
		p.advance()
	}
}

func (p *parser) parseRule() (*grammar.Rule, error) {
	name, err := p.expect(lexer.IDENTIFIER)
	if err != nil {
		return nil, err
	}
	var params []grammar.Param
	if p.at(lexer.LBRACKET) {
		params, err = p.parseParamList()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.DEFINE); err != nil {
		return nil, err
	}
	rhs, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &grammar.Rule{Name: name.Value, Params: params, RHS: rhs}, nil
}

func (p *parser) parseExpression() (grammar.Expr, error) {
	return p.parseAlternative()
}

func (p *parser) parseAlternative() (grammar.Expr, error) {
	first, err := p.parseSequence()
	if err != nil {
		return nil, err
	}
	if !p.at(lexer.ALTERNATIVE) {
		return first, nil
	}
	choices := []grammar.Expr{first}
	for p.at(lexer.ALTERNATIVE) {
		p.advance()
		next, err := p.parseSequence()
		if err != nil {
			return nil, err
		}
		choices = append(choices, next)
	}
	return &grammar.Alternative{Choices: choices}, nil
}

// atSequenceEnd reports whether the current token terminates a
// sequence: | ) ] } NEWLINE ; EOF.
func (p *parser) atSequenceEnd() bool {
	switch p.peek().Kind {
	case lexer.ALTERNATIVE, lexer.RPAREN, lexer.RBRACKET, lexer.RBRACE,
		lexer.NEWLINE, lexer.SEMICOLON, lexer.EOF:
		return true
	}
	return false
}

func (p *parser) parseSequence() (grammar.Expr, error) {
	var elements []grammar.Expr
	for !p.atSequenceEnd() {
		f, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		elements = append(elements, f)
	}
	if len(elements) == 0 {
		return nil, p.errorf("expected expression, found %s", p.peek())
	}
	if len(elements) == 1 {
		return elements[0], nil
	}
	return &grammar.Sequence{Elements: elements}, nil
}

func (p *parser) parseFactor() (grammar.Expr, error) {
	primary, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	switch p.peek().Kind {
	case lexer.PLUS:
		p.advance()
		return &grammar.OneOrMore{Content: primary}, nil
	case lexer.STAR:
		p.advance()
		return &grammar.ZeroOrMore{Content: primary}, nil
	case lexer.QUESTION:
		p.advance()
		return &grammar.Optional{Content: primary}, nil
	}
	return primary, nil
}

func (p *parser) parsePrimary() (grammar.Expr, error) {
	switch p.peek().Kind {
	case lexer.IDENTIFIER:
		return p.parseNonTerminalRef()
	case lexer.TERMINAL:
		return p.parseTerminalOrRange()
	case lexer.LPAREN:
		p.advance()
		content, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		return &grammar.Group{Content: content}, nil
	case lexer.LBRACKET:
		p.advance()
		content, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RBRACKET); err != nil {
			return nil, err
		}
		return &grammar.Optional{Content: content}, nil
	case lexer.LBRACE:
		return p.parseBraced()
	}
	return nil, p.errorf("expected expression, found %s", p.peek())
}

// parseBraced resolves `{ ... }` into either a context action or a
// zero-or-more repetition. The lookahead is bounded: IDENTIFIER
// followed by `(` means a context action.
func (p *parser) parseBraced() (grammar.Expr, error) {
	p.advance() // consume '{'
	if p.at(lexer.IDENTIFIER) && p.peekAt(1).Kind == lexer.LPAREN {
		action, err := p.parseContextAction()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RBRACE); err != nil {
			return nil, err
		}
		return action, nil
	}
	content, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	return &grammar.ZeroOrMore{Content: content}, nil
}

func (p *parser) parseContextAction() (grammar.Expr, error) {
	name := p.advance()
	var kind grammar.ActionKind
	var arity int
	switch name.Value {
	case "store":
		kind, arity = grammar.Store, 2
	case "lookup":
		kind, arity = grammar.Lookup, 1
	case "check":
		kind, arity = grammar.Check, 1
	default:
		return nil, diag.Errorf(name.Line, name.Column,
			"unknown context action %q, expected store, lookup or check", name.Value)
	}
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	var args []string
	if p.at(lexer.IDENTIFIER) {
		args = append(args, p.advance().Value)
		for p.at(lexer.COMMA) {
			p.advance()
			arg, err := p.expect(lexer.IDENTIFIER)
			if err != nil {
				return nil, err
			}
			args = append(args, arg.Value)
		}
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	if len(args) != arity {
		return nil, diag.Errorf(name.Line, name.Column,
			"context action %s takes %d argument(s), got %d", name.Value, arity, len(args))
	}
	return &grammar.ContextAction{Kind: kind, Args: args}, nil
}

// parseNonTerminalRef parses an identifier with an optional argument
// list. The `[` must be adjacent to the identifier; a detached `[`
// starts an optional expression instead.
func (p *parser) parseNonTerminalRef() (grammar.Expr, error) {
	name := p.advance()
	bracket := p.peek()
	if bracket.Kind != lexer.LBRACKET ||
		bracket.Line != name.Line || bracket.Column != name.End() {
		return &grammar.NonTerminal{Name: name.Value}, nil
	}
	p.advance() // consume '['
	var args []string
	arg, err := p.expect(lexer.IDENTIFIER)
	if err != nil {
		return nil, err
	}
	args = append(args, arg.Value)
	for p.at(lexer.COMMA) {
		p.advance()
		arg, err := p.expect(lexer.IDENTIFIER)
		if err != nil {
			return nil, err
		}
		args = append(args, arg.Value)
	}
	if _, err := p.expect(lexer.RBRACKET); err != nil {
		return nil, err
	}
	return &grammar.NonTerminal{Name: name.Value, Args: args}, nil
}

func (p *parser) parseTerminalOrRange() (grammar.Expr, error) {
	lo := p.advance()
	if !p.at(lexer.DOTDOT) {
		return &grammar.Terminal{Value: lo.Value}, nil
	}
	p.advance() // consume '..'
	hi, err := p.expect(lexer.TERMINAL)
	if err != nil {
		return nil, err
	}
	if ucs.Length(lo.Value) != 1 {
		return nil, diag.Errorf(lo.Line, lo.Column,
			"character range bound %q must be a single character", lo.Value)
	}
	if ucs.Length(hi.Value) != 1 {
		return nil, diag.Errorf(hi.Line, hi.Column,
			"character range bound %q must be a single character", hi.Value)
	}
	start := ucs.UTF8ToCodepoint(lo.Value)
	end := ucs.UTF8ToCodepoint(hi.Value)
	if start > end {
		return nil, diag.Errorf(lo.Line, lo.Column,
			"invalid character range: %q exceeds %q", lo.Value, hi.Value)
	}
	return &grammar.CharRange{Start: start, End: end}, nil
}

// parseParamList parses `[ Param { "," Param } ]` in a rule
// definition.
func (p *parser) parseParamList() ([]grammar.Param, error) {
	p.advance() // consume '['
	var params []grammar.Param
	for {
		param, err := p.parseParam()
		if err != nil {
			return nil, err
		}
		params = append(params, param)
		if !p.at(lexer.COMMA) {
			break
		}
		p.advance()
	}
	if _, err := p.expect(lexer.RBRACKET); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *parser) parseParam() (grammar.Param, error) {
	name, err := p.expect(lexer.IDENTIFIER)
	if err != nil {
		return grammar.Param{}, err
	}
	param := grammar.Param{Name: name.Value, Type: grammar.StringParam}
	if !p.at(lexer.COLON) {
		return param, nil
	}
	p.advance() // consume ':'
	typeTok, err := p.expect(lexer.IDENTIFIER)
	if err != nil {
		return grammar.Param{}, err
	}
	switch typeTok.Value {
	case "int", "integer":
		param.Type = grammar.IntegerParam
	case "string", "str":
		param.Type = grammar.StringParam
	case "bool", "boolean":
		param.Type = grammar.BooleanParam
	case "enum":
		param.Type = grammar.EnumParam
		values, err := p.parseEnumValues()
		if err != nil {
			return grammar.Param{}, err
		}
		param.EnumValues = values
	default:
		return grammar.Param{}, diag.Errorf(typeTok.Line, typeTok.Column,
			"unknown parameter type %q", typeTok.Value)
	}
	return param, nil
}

func (p *parser) parseEnumValues() ([]string, error) {
	if _, err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}
	var values []string
	seen := make(map[string]bool)
	for {
		v, err := p.expect(lexer.IDENTIFIER)
		if err != nil {
			return nil, err
		}
		if seen[v.Value] {
			return nil, diag.Errorf(v.Line, v.Column,
				"duplicate enumeration value %q", v.Value)
		}
		seen[v.Value] = true
		values = append(values, v.Value)
		if !p.at(lexer.COMMA) {
			break
		}
		p.advance()
	}
	if _, err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	return values, nil
}

// chooseStartSymbol elects the grammar's start symbol: a specially
// named rule first, then the first rule that references another
// non-terminal, then the first rule.
func chooseStartSymbol(g *grammar.Grammar) string {
	for _, name := range startNames {
		if g.Rule(name) != nil {
			return name
		}
	}
	for _, r := range g.Rules {
		references := false
		grammar.Walk(r.RHS, func(e grammar.Expr) {
			if _, ok := e.(*grammar.NonTerminal); ok {
				references = true
			}
		})
		if references {
			return r.Name
		}
	}
	if len(g.Rules) > 0 {
		return g.Rules[0].Name
	}
	return ""
}
