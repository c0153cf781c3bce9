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

// Package validate runs the semantic analyses over a parsed grammar:
// reference integrity, reachability and productivity. All findings are
// batched into one result; warnings do not stop the pipeline.
package validate

import (
	"fmt"

	"github.com/LMikhail/bnf-parser-generator/diag"
	"github.com/LMikhail/bnf-parser-generator/grammar"
)

// Result carries the batched findings of one validation run.
type Result struct {
	Errors   diag.List
	Warnings diag.List
}

// Valid reports whether the grammar passed validation. Warnings do
// not make a grammar invalid.
func (r *Result) Valid() bool {
	return len(r.Errors) == 0
}

func (r *Result) errorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, diag.Diagnostic{
		Severity: diag.Error,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (r *Result) warningf(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, diag.Diagnostic{
		Severity: diag.Warning,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Validate analyses the grammar and returns all errors and warnings
// found.
func Validate(g *grammar.Grammar) *Result {
	r := &Result{}
	if len(g.Rules) == 0 {
		r.errorf("Grammar is empty")
		return r
	}
	checkDefinitions(g, r)
	if g.StartSymbol != "" && g.Rule(g.StartSymbol) == nil {
		r.errorf("start symbol %q is not defined", g.StartSymbol)
	}
	checkReferences(g, r)
	checkReachability(g, r)
	checkProductivity(g, r)
	return r
}

// checkDefinitions verifies that repeated definitions of a rule name
// form a well-formed specialisation family: same arity, plain value
// patterns, no repeated pattern. It also rejects empty terminals.
func checkDefinitions(g *grammar.Grammar, r *Result) {
	for _, name := range g.RuleNames() {
		defs := g.Definitions(name)
		if len(defs) > 1 {
			checkFamily(name, defs, r)
		}
	}
	for _, rule := range g.Rules {
		rule := rule
		grammar.Walk(rule.RHS, func(e grammar.Expr) {
			if t, ok := e.(*grammar.Terminal); ok && t.Value == "" {
				r.errorf("rule %q contains an empty terminal", rule.Name)
			}
		})
	}
}

func checkFamily(name string, defs []*grammar.Rule, r *Result) {
	arity := len(defs[0].Params)
	if arity == 0 {
		r.errorf("rule %q is defined more than once", name)
		return
	}
	seen := make(map[string]bool)
	for _, def := range defs {
		if len(def.Params) != arity {
			r.errorf("definitions of rule %q disagree on parameter count", name)
			return
		}
		key := ""
		for _, p := range def.Params {
			if p.Type != grammar.StringParam || len(p.EnumValues) > 0 {
				r.errorf("specialised definition of rule %q must use plain value patterns", name)
				return
			}
			key += p.Name + "\x00"
		}
		if seen[key] {
			r.errorf("rule %q is defined more than once", name)
			return
		}
		seen[key] = true
	}
}

// paramCount returns the number of formal parameters a reference to
// the named rule must supply.
func paramCount(g *grammar.Grammar, name string) int {
	defs := g.Definitions(name)
	if len(defs) == 0 {
		return 0
	}
	return len(defs[0].Params)
}

// allowedValues collects the identifiers accepted at argument position
// i of the named rule: the enum members of a declared enum parameter,
// or the value patterns of a specialisation family.
func allowedValues(g *grammar.Grammar, name string, i int) []string {
	defs := g.Definitions(name)
	if len(defs) == 0 {
		return nil
	}
	if len(defs) == 1 {
		p := defs[0].Params[i]
		if p.Type == grammar.EnumParam {
			return p.EnumValues
		}
		return nil
	}
	var values []string
	seen := make(map[string]bool)
	for _, def := range defs {
		v := def.Params[i].Name
		if !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	return values
}

func checkReferences(g *grammar.Grammar, r *Result) {
	reportedUndefined := make(map[string]bool)
	for _, rule := range g.Rules {
		formals := make(map[string]bool)
		for _, p := range rule.Params {
			formals[p.Name] = true
		}
		enclosing := rule
		grammar.Walk(rule.RHS, func(e grammar.Expr) {
			nt, ok := e.(*grammar.NonTerminal)
			if !ok {
				return
			}
			if g.Rule(nt.Name) == nil {
				if !reportedUndefined[nt.Name] {
					reportedUndefined[nt.Name] = true
					r.errorf("Undefined non-terminal: %s", nt.Name)
				}
				return
			}
			want := paramCount(g, nt.Name)
			if len(nt.Args) != want {
				r.errorf("non-terminal %q referenced from %q expects %d argument(s), got %d",
					nt.Name, enclosing.Name, want, len(nt.Args))
				return
			}
			for i, arg := range nt.Args {
				if formals[arg] {
					continue
				}
				if !contains(allowedValues(g, nt.Name, i), arg) {
					r.errorf("argument %q in reference to %q from %q is neither a parameter of %q nor an enumeration value of the callee",
						arg, nt.Name, enclosing.Name, enclosing.Name)
				}
			}
		})
	}
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// checkReachability warns about rules that cannot be reached from the
// start symbol.
func checkReachability(g *grammar.Grammar, r *Result) {
	if g.Rule(g.StartSymbol) == nil {
		return
	}
	reached := make(map[string]bool)
	var visit func(name string)
	visit = func(name string) {
		if reached[name] {
			return
		}
		reached[name] = true
		for _, def := range g.Definitions(name) {
			grammar.Walk(def.RHS, func(e grammar.Expr) {
				if nt, ok := e.(*grammar.NonTerminal); ok && g.Rule(nt.Name) != nil {
					visit(nt.Name)
				}
			})
		}
	}
	visit(g.StartSymbol)
	for _, name := range g.RuleNames() {
		if !reached[name] {
			r.warningf("unreachable rule: %s", name)
		}
	}
}

// checkProductivity runs the fixed point that decides which rules can
// derive at least one terminal string, and reports the rest as errors.
func checkProductivity(g *grammar.Grammar, r *Result) {
	productive := make(map[string]bool)
	for changed := true; changed; {
		changed = false
		for _, rule := range g.Rules {
			if productive[rule.Name] {
				continue
			}
			if exprProductive(rule.RHS, productive) {
				productive[rule.Name] = true
				changed = true
			}
		}
	}
	for _, name := range g.RuleNames() {
		if !productive[name] {
			r.errorf("rule %q is not productive", name)
		}
	}
}

func exprProductive(e grammar.Expr, productive map[string]bool) bool {
	switch v := e.(type) {
	case *grammar.Terminal, *grammar.CharRange:
		return true
	case *grammar.Optional, *grammar.ZeroOrMore, *grammar.ContextAction:
		// These match the empty string, so they always produce.
		return true
	case *grammar.NonTerminal:
		return productive[v.Name]
	case *grammar.Alternative:
		for _, c := range v.Choices {
			if exprProductive(c, productive) {
				return true
			}
		}
		return false
	case *grammar.Sequence:
		for _, c := range v.Elements {
			if !exprProductive(c, productive) {
				return false
			}
		}
		return true
	case *grammar.Group:
		return exprProductive(v.Content, productive)
	case *grammar.OneOrMore:
		return exprProductive(v.Content, productive)
	}
	return false
}
