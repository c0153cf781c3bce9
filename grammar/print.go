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

package grammar

import (
	"fmt"
	"strings"

	"github.com/LMikhail/bnf-parser-generator/ucs"
)

// Quote renders s as a double-quoted terminal literal using only the
// escape forms the grammar lexer understands.
func Quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for it := ucs.NewIterator(s); !it.AtEnd(); it.Next() {
		writeEscaped(&b, it.Scalar(), '"')
	}
	b.WriteByte('"')
	return b.String()
}

// QuoteScalar renders a single scalar as a single-quoted literal, the
// form used by character range bounds.
func QuoteScalar(scalar string) string {
	var b strings.Builder
	b.WriteByte('\'')
	writeEscaped(&b, scalar, '\'')
	b.WriteByte('\'')
	return b.String()
}

func writeEscaped(b *strings.Builder, scalar string, quote byte) {
	switch scalar {
	case "\n":
		b.WriteString(`\n`)
		return
	case "\t":
		b.WriteString(`\t`)
		return
	case "\r":
		b.WriteString(`\r`)
		return
	case `\`:
		b.WriteString(`\\`)
		return
	case string(quote):
		b.WriteByte('\\')
		b.WriteByte(quote)
		return
	}
	cp := ucs.UTF8ToCodepoint(scalar)
	if cp < 0x20 || cp == 0x7F {
		b.WriteString(fmt.Sprintf(`\u%04X`, cp))
		return
	}
	b.WriteString(scalar)
}

func (t *Terminal) String() string {
	return Quote(t.Value)
}

func (n *NonTerminal) String() string {
	if len(n.Args) == 0 {
		return n.Name
	}
	return n.Name + "[" + strings.Join(n.Args, ", ") + "]"
}

func (c *CharRange) String() string {
	lo, _ := ucs.CodepointToUTF8(c.Start)
	hi, _ := ucs.CodepointToUTF8(c.End)
	return QuoteScalar(lo) + ".." + QuoteScalar(hi)
}

func (a *Alternative) String() string {
	parts := make([]string, len(a.Choices))
	for i, c := range a.Choices {
		parts[i] = c.String()
	}
	return strings.Join(parts, " | ")
}

func (s *Sequence) String() string {
	parts := make([]string, len(s.Elements))
	for i, e := range s.Elements {
		// A bare alternative inside a sequence needs parentheses to
		// keep the printed form re-parseable.
		if _, ok := e.(*Alternative); ok {
			parts[i] = "(" + e.String() + ")"
		} else {
			parts[i] = e.String()
		}
	}
	return strings.Join(parts, " ")
}

func (g *Group) String() string {
	return "(" + g.Content.String() + ")"
}

func (o *Optional) String() string {
	return "[" + o.Content.String() + "]"
}

func (z *ZeroOrMore) String() string {
	return "{" + z.Content.String() + "}"
}

func (o *OneOrMore) String() string {
	switch o.Content.(type) {
	case *Alternative, *Sequence:
		return "(" + o.Content.String() + ")+"
	}
	return o.Content.String() + "+"
}

func (a *ContextAction) String() string {
	return "{" + a.Kind.String() + "(" + strings.Join(a.Args, ", ") + ")}"
}

func (p Param) String() string {
	switch p.Type {
	case StringParam:
		return p.Name
	case EnumParam:
		return p.Name + ":enum{" + strings.Join(p.EnumValues, ", ") + "}"
	}
	return p.Name + ":" + p.Type.String()
}

func (r *Rule) String() string {
	var b strings.Builder
	b.WriteString(r.Name)
	if len(r.Params) > 0 {
		parts := make([]string, len(r.Params))
		for i, p := range r.Params {
			parts[i] = p.String()
		}
		b.WriteString("[" + strings.Join(parts, ", ") + "]")
	}
	b.WriteString(" ::= ")
	b.WriteString(r.RHS.String())
	return b.String()
}

// String renders the grammar back to its textual notation. The result
// re-parses to a structurally equal grammar.
func (g *Grammar) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Grammar (start: %s)\n", g.StartSymbol)
	for _, r := range g.Rules {
		b.WriteString(r.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// Dump renders the grammar as an s-expression tree for test
// comparison.
func (g *Grammar) Dump() string {
	var b strings.Builder
	fmt.Fprintf(&b, "(Grammar text(%q)", g.StartSymbol)
	for _, r := range g.Rules {
		b.WriteByte(' ')
		dumpRule(&b, r)
	}
	b.WriteByte(')')
	return b.String()
}

func dumpRule(b *strings.Builder, r *Rule) {
	fmt.Fprintf(b, "(Rule text(%q)", r.Name)
	for _, p := range r.Params {
		fmt.Fprintf(b, " (Param text(%q))", p.String())
	}
	b.WriteByte(' ')
	dumpExpr(b, r.RHS)
	b.WriteByte(')')
}

func dumpExpr(b *strings.Builder, e Expr) {
	switch v := e.(type) {
	case *Terminal:
		fmt.Fprintf(b, "(Terminal text(%q))", v.Value)
	case *NonTerminal:
		fmt.Fprintf(b, "(NonTerminal text(%q)", v.Name)
		for _, a := range v.Args {
			fmt.Fprintf(b, " (Arg text(%q))", a)
		}
		b.WriteByte(')')
	case *CharRange:
		fmt.Fprintf(b, "(CharRange text(%q))",
			fmt.Sprintf("%U..%U", v.Start, v.End))
	case *Alternative:
		b.WriteString("(Alternative")
		dumpChildren(b, v.Choices)
	case *Sequence:
		b.WriteString("(Sequence")
		dumpChildren(b, v.Elements)
	case *Group:
		b.WriteString("(Group ")
		dumpExpr(b, v.Content)
		b.WriteByte(')')
	case *Optional:
		b.WriteString("(Optional ")
		dumpExpr(b, v.Content)
		b.WriteByte(')')
	case *ZeroOrMore:
		b.WriteString("(ZeroOrMore ")
		dumpExpr(b, v.Content)
		b.WriteByte(')')
	case *OneOrMore:
		b.WriteString("(OneOrMore ")
		dumpExpr(b, v.Content)
		b.WriteByte(')')
	case *ContextAction:
		fmt.Fprintf(b, "(ContextAction text(%q)", v.Kind.String())
		for _, a := range v.Args {
			fmt.Fprintf(b, " (Arg text(%q))", a)
		}
		b.WriteByte(')')
	}
}

func dumpChildren(b *strings.Builder, children []Expr) {
	for _, c := range children {
		b.WriteByte(' ')
		dumpExpr(b, c)
	}
	b.WriteByte(')')
}
