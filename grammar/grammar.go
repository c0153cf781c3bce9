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

// Package grammar defines the intermediate representation of BNF/EBNF
// grammars: a closed set of expression variants, rules with typed
// parameters and the grammar container.
//
// The representation is pure data. It is built once by the parser and
// never mutated afterwards; rules own their right-hand sides and the
// grammar owns its rules. Non-terminal references are by name and are
// resolved through the rule table.
package grammar

// Expr is one grammar expression. The set of implementations is closed:
// Terminal, NonTerminal, CharRange, Alternative, Sequence, Group,
// Optional, ZeroOrMore, OneOrMore and ContextAction.
type Expr interface {
	String() string
	isExpr()
}

// Terminal is a literal string matched byte-exactly.
type Terminal struct {
	Value string
}

// NonTerminal is a reference to another rule by name. Args holds the
// argument identifiers of a parameterised reference, in call order.
type NonTerminal struct {
	Name string
	Args []string
}

// CharRange is an inclusive range of Unicode scalar values.
type CharRange struct {
	Start rune
	End   rune
}

// Alternative is an ordered choice between two or more expressions.
// The order is semantically significant: the first matching choice wins.
type Alternative struct {
	Choices []Expr
}

// Sequence is a concatenation of two or more expressions.
type Sequence struct {
	Elements []Expr
}

// Group is a parenthesised expression. It is semantically transparent
// and exists only to preserve the original notation when printing.
type Group struct {
	Content Expr
}

// Optional matches its content or the empty string.
type Optional struct {
	Content Expr
}

// ZeroOrMore greedily repeats its content, allowing zero iterations.
type ZeroOrMore struct {
	Content Expr
}

// OneOrMore greedily repeats its content, requiring at least one
// iteration.
type OneOrMore struct {
	Content Expr
}

// ActionKind enumerates the built-in context actions.
type ActionKind int

const (
	Store ActionKind = iota
	Lookup
	Check
)

func (k ActionKind) String() string {
	switch k {
	case Store:
		return "store"
	case Lookup:
		return "lookup"
	case Check:
		return "check"
	}
	return "unknown"
}

// ContextAction is a side-effecting pseudo-expression that consumes no
// input. Store takes a key and a capture name, Lookup a key, Check the
// name of a user predicate.
type ContextAction struct {
	Kind ActionKind
	Args []string
}

func (*Terminal) isExpr()      {}
func (*NonTerminal) isExpr()   {}
func (*CharRange) isExpr()     {}
func (*Alternative) isExpr()   {}
func (*Sequence) isExpr()      {}
func (*Group) isExpr()         {}
func (*Optional) isExpr()      {}
func (*ZeroOrMore) isExpr()    {}
func (*OneOrMore) isExpr()     {}
func (*ContextAction) isExpr() {}

// ParamType enumerates the rule parameter types.
type ParamType int

const (
	StringParam ParamType = iota
	IntegerParam
	BooleanParam
	EnumParam
)

func (t ParamType) String() string {
	switch t {
	case StringParam:
		return "string"
	case IntegerParam:
		return "int"
	case BooleanParam:
		return "bool"
	case EnumParam:
		return "enum"
	}
	return "unknown"
}

// Param is one formal rule parameter. EnumValues is set only for
// EnumParam and keeps the declaration order of the members.
type Param struct {
	Name       string
	Type       ParamType
	EnumValues []string
}

// Rule is one production rule.
type Rule struct {
	Name   string
	Params []Param
	RHS    Expr
}

// Grammar is an ordered collection of rules plus the start symbol.
// Several rules may share a name: such definitions form a
// specialisation family dispatched on parameter values.
type Grammar struct {
	Rules       []*Rule
	StartSymbol string

	byName map[string][]*Rule
}

func New() *Grammar {
	return &Grammar{byName: make(map[string][]*Rule)}
}

// AddRule appends a rule, keeping declaration order.
func (g *Grammar) AddRule(r *Rule) {
	if g.byName == nil {
		g.byName = make(map[string][]*Rule)
	}
	g.Rules = append(g.Rules, r)
	g.byName[r.Name] = append(g.byName[r.Name], r)
}

// Rule returns the first definition of the named rule, or nil.
func (g *Grammar) Rule(name string) *Rule {
	defs := g.byName[name]
	if len(defs) == 0 {
		return nil
	}
	return defs[0]
}

// Definitions returns all definitions sharing the given name, in
// declaration order.
func (g *Grammar) Definitions(name string) []*Rule {
	return g.byName[name]
}

// RuleNames returns the distinct rule names in declaration order.
func (g *Grammar) RuleNames() []string {
	var names []string
	seen := make(map[string]bool)
	for _, r := range g.Rules {
		if !seen[r.Name] {
			seen[r.Name] = true
			names = append(names, r.Name)
		}
	}
	return names
}

// Terminals collects every terminal literal of the grammar in
// declaration order, including duplicates.
func (g *Grammar) Terminals() []string {
	var r []string
	for _, rule := range g.Rules {
		Walk(rule.RHS, func(e Expr) {
			if t, ok := e.(*Terminal); ok {
				r = append(r, t.Value)
			}
		})
	}
	return r
}

// NonTerminals returns the names of all defined rules in declaration
// order, one entry per definition.
func (g *Grammar) NonTerminals() []string {
	r := make([]string, len(g.Rules))
	for i, rule := range g.Rules {
		r[i] = rule.Name
	}
	return r
}

// Walk calls fn for e and every expression below it, in depth-first
// declaration order.
func Walk(e Expr, fn func(Expr)) {
	if e == nil {
		return
	}
	fn(e)
	switch v := e.(type) {
	case *Alternative:
		for _, c := range v.Choices {
			Walk(c, fn)
		}
	case *Sequence:
		for _, c := range v.Elements {
			Walk(c, fn)
		}
	case *Group:
		Walk(v.Content, fn)
	case *Optional:
		Walk(v.Content, fn)
	case *ZeroOrMore:
		Walk(v.Content, fn)
	case *OneOrMore:
		Walk(v.Content, fn)
	}
}
