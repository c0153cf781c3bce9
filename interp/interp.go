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

// Package interp runs a grammar directly over an input string with
// the same semantics the code emitter compiles in: recursive descent,
// ordered choice with backtracking, greedy repetition with an
// empty-match guard, runtime parameter dispatch and context actions.
//
// The emitter remains the product; the interpreter is the executable
// reference for its semantics and backs the end-to-end tests.
package interp

import (
	"fmt"

	"github.com/LMikhail/bnf-parser-generator/grammar"
	"github.com/LMikhail/bnf-parser-generator/ucs"
)

// Node is one AST node of an interpreted parse.
type Node struct {
	Rule     string
	Start    int
	End      int
	Children []*Node
}

// Value returns the input slice this node matched.
func (n *Node) Value(input string) string {
	return input[n.Start:n.End]
}

// Parser interprets one grammar. Checks maps predicate names used by
// {check(...)} actions to their implementations; missing predicates
// accept.
type Parser struct {
	Checks map[string]func() bool
	// MaxDepth bounds rule nesting; the default is 1000.
	MaxDepth int

	g *grammar.Grammar

	input       string
	context     map[string]string
	lastCapture map[string]string
	depth       int
	farthest    int
	message     string
}

func New(g *grammar.Grammar) *Parser {
	return &Parser{g: g, MaxDepth: 1000}
}

// Parse matches the whole input against the start symbol. A start
// rule with enum parameters is tried once per member combination, in
// declaration order.
func (p *Parser) Parse(input string) (*Node, error) {
	start := p.g.Rule(p.g.StartSymbol)
	if start == nil {
		return nil, fmt.Errorf("start symbol %q is not defined", p.g.StartSymbol)
	}
	params := p.startParams()
	for _, param := range params {
		if len(param.values) == 0 {
			return nil, fmt.Errorf("start symbol %q has a non-enum parameter %q",
				p.g.StartSymbol, param.name)
		}
	}
	p.input = input
	p.farthest = 0
	p.message = ""
	var node *Node
	tried := p.eachCombination(params, nil, func(args []string) bool {
		p.context = make(map[string]string)
		p.lastCapture = make(map[string]string)
		p.depth = 0
		n, end, ok := p.callRule(p.g.StartSymbol, args, 0)
		if !ok {
			return false
		}
		if end != len(input) {
			p.fail(end, "unexpected trailing input")
			return false
		}
		node = n
		return true
	})
	if !tried {
		return nil, fmt.Errorf("parse error at byte %d: %s", p.farthest, p.message)
	}
	return node, nil
}

// Accepts reports whether the input is in the grammar's language.
func (p *Parser) Accepts(input string) bool {
	_, err := p.Parse(input)
	return err == nil
}

type startParam struct {
	name   string
	values []string
}

func (p *Parser) startParams() []startParam {
	defs := p.g.Definitions(p.g.StartSymbol)
	if len(defs) == 1 {
		var r []startParam
		for _, param := range defs[0].Params {
			r = append(r, startParam{name: param.Name, values: param.EnumValues})
		}
		return r
	}
	arity := len(defs[0].Params)
	r := make([]startParam, arity)
	for i := 0; i < arity; i++ {
		r[i].name = fmt.Sprintf("p%d", i)
		seen := make(map[string]bool)
		for _, def := range defs {
			v := def.Params[i].Name
			if !seen[v] {
				seen[v] = true
				r[i].values = append(r[i].values, v)
			}
		}
	}
	return r
}

// eachCombination enumerates argument tuples in declaration order and
// stops at the first accepted attempt.
func (p *Parser) eachCombination(params []startParam, prefix []string, attempt func([]string) bool) bool {
	if len(params) == 0 {
		return attempt(prefix)
	}
	for _, v := range params[0].values {
		next := append(append([]string{}, prefix...), v)
		if p.eachCombination(params[1:], next, attempt) {
			return true
		}
	}
	return false
}

func (p *Parser) fail(pos int, format string, args ...interface{}) {
	if pos >= p.farthest {
		p.farthest = pos
		p.message = fmt.Sprintf(format, args...)
	}
}

// callRule applies one rule (or one specialisation of a family) at
// pos. args are the evaluated argument values.
func (p *Parser) callRule(name string, args []string, pos int) (*Node, int, bool) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > p.MaxDepth {
		p.fail(pos, "maximum recursion depth exceeded")
		return nil, pos, false
	}
	defs := p.g.Definitions(name)
	if len(defs) == 0 {
		p.fail(pos, "undefined rule %q", name)
		return nil, pos, false
	}
	node := &Node{Rule: name, Start: pos}
	var end int
	var ok bool
	if len(defs) == 1 {
		env := make(map[string]string)
		for i, param := range defs[0].Params {
			if i < len(args) {
				env[param.Name] = args[i]
			}
		}
		end, ok = p.eval(defs[0].RHS, pos, env, node)
	} else {
		// A specialisation family dispatches on the argument values.
		matched := false
		for _, def := range defs {
			if !patternMatches(def, args) {
				continue
			}
			matched = true
			end, ok = p.eval(def.RHS, pos, make(map[string]string), node)
			break
		}
		if !matched {
			p.fail(pos, "no matching definition of %q for %v", name, args)
			return nil, pos, false
		}
	}
	if !ok {
		return nil, pos, false
	}
	node.End = end
	p.lastCapture[name] = p.input[pos:end]
	return node, end, true
}

func patternMatches(def *grammar.Rule, args []string) bool {
	if len(def.Params) != len(args) {
		return false
	}
	for i, param := range def.Params {
		if param.Name != args[i] {
			return false
		}
	}
	return true
}

// eval matches expr at pos. It returns the new position and whether
// the match succeeded; child nodes are attached to parent as they
// complete.
func (p *Parser) eval(expr grammar.Expr, pos int, env map[string]string, parent *Node) (int, bool) {
	switch v := expr.(type) {
	case *grammar.Terminal:
		if len(p.input)-pos < len(v.Value) || p.input[pos:pos+len(v.Value)] != v.Value {
			p.fail(pos, "expected %s", grammar.Quote(v.Value))
			return pos, false
		}
		return pos + len(v.Value), true
	case *grammar.CharRange:
		scalar, n := ucs.ExtractScalar(p.input, pos)
		if n == 0 {
			p.fail(pos, "expected character in range %s, got end of input", v)
			return pos, false
		}
		cp := ucs.UTF8ToCodepoint(scalar)
		if cp < v.Start || cp > v.End {
			p.fail(pos, "expected character in range %s", v)
			return pos, false
		}
		return pos + n, true
	case *grammar.NonTerminal:
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			if bound, ok := env[a]; ok {
				args[i] = bound
			} else {
				args[i] = a
			}
		}
		child, end, ok := p.callRule(v.Name, args, pos)
		if !ok {
			return pos, false
		}
		parent.Children = append(parent.Children, child)
		return end, true
	case *grammar.Alternative:
		mark := len(parent.Children)
		for _, choice := range v.Choices {
			end, ok := p.eval(choice, pos, env, parent)
			if ok {
				return end, true
			}
			parent.Children = parent.Children[:mark]
		}
		return pos, false
	case *grammar.Sequence:
		cur := pos
		for _, elem := range v.Elements {
			end, ok := p.eval(elem, cur, env, parent)
			if !ok {
				return pos, false
			}
			cur = end
		}
		return cur, true
	case *grammar.Group:
		return p.eval(v.Content, pos, env, parent)
	case *grammar.Optional:
		mark := len(parent.Children)
		if end, ok := p.eval(v.Content, pos, env, parent); ok {
			return end, true
		}
		parent.Children = parent.Children[:mark]
		return pos, true
	case *grammar.ZeroOrMore:
		return p.evalLoop(v.Content, pos, env, parent), true
	case *grammar.OneOrMore:
		end, ok := p.eval(v.Content, pos, env, parent)
		if !ok {
			return pos, false
		}
		return p.evalLoop(v.Content, end, env, parent), true
	case *grammar.ContextAction:
		return pos, p.evalAction(v, pos)
	}
	p.fail(pos, "unhandled construct %T", expr)
	return pos, false
}

// evalLoop repeats content greedily; an iteration that consumes
// nothing ends the loop.
func (p *Parser) evalLoop(content grammar.Expr, pos int, env map[string]string, parent *Node) int {
	for {
		mark := len(parent.Children)
		end, ok := p.eval(content, pos, env, parent)
		if !ok {
			parent.Children = parent.Children[:mark]
			return pos
		}
		if end == pos {
			return pos
		}
		pos = end
	}
}

func (p *Parser) evalAction(a *grammar.ContextAction, pos int) bool {
	switch a.Kind {
	case grammar.Store:
		p.context[a.Args[0]] = p.lastCapture[a.Args[1]]
		return true
	case grammar.Lookup:
		if _, ok := p.context[a.Args[0]]; !ok {
			p.fail(pos, "lookup failed: %s", a.Args[0])
			return false
		}
		return true
	case grammar.Check:
		if check, ok := p.Checks[a.Args[0]]; ok && !check() {
			p.fail(pos, "check failed: %s", a.Args[0])
			return false
		}
		return true
	}
	return false
}
