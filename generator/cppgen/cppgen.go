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

// Package cppgen emits a self-contained C++ recursive-descent parser
// for a grammar.
//
// The generated parser matches with ordered choice and save/restore
// backtracking on a byte cursor. Every alternative and optional
// introduces one save point; sequences reuse the save of their
// enclosing construct. Repetition never loops on an empty match.
package cppgen

import (
	"fmt"
	"strings"

	"github.com/LMikhail/bnf-parser-generator/generator"
	"github.com/LMikhail/bnf-parser-generator/grammar"
)

func init() {
	generator.Register("cpp", func() generator.Backend { return New() })
}

// Backend generates C++17 sources.
type Backend struct{}

func New() *Backend {
	return &Backend{}
}

func (*Backend) Language() string {
	return "cpp"
}

func (*Backend) FileExtension() string {
	return ".cpp"
}

func (b *Backend) Generate(g *grammar.Grammar, opts generator.Options) (*generator.Generated, error) {
	opts = opts.WithDefaults()
	e := &emitter{
		g:          g,
		opts:       opts,
		enumNames:  make(map[string]bool),
		checkSeen:  make(map[string]bool),
		classNames: make(map[string]string),
		funcNames:  make(map[string]string),
		params:     make(map[string][]paramInfo),
	}
	if err := e.prepare(); err != nil {
		return nil, err
	}
	parserFile := generator.File{
		Name:    generator.DefaultFileName(opts.Stem, b.FileExtension()),
		Content: e.emitParser(),
	}
	result := &generator.Generated{
		Parser:   parserFile,
		Warnings: e.warnings,
	}
	if opts.Executable {
		result.Main = &generator.File{
			Name:    generator.SnakeCase(opts.Stem) + "_main" + b.FileExtension(),
			Content: e.emitMain(parserFile.Name),
		}
	}
	return result, nil
}

// paramInfo describes one formal parameter of an emitted rule
// function.
type paramInfo struct {
	cppName  string
	typ      grammar.ParamType
	enumName string
	values   []string
}

type enumDecl struct {
	name   string
	values []string
}

type emitter struct {
	g    *grammar.Grammar
	opts generator.Options

	buf      strings.Builder
	depth    int
	varCount int

	params     map[string][]paramInfo
	enums      []enumDecl
	enumNames  map[string]bool
	checks     []string
	checkSeen  map[string]bool
	classNames map[string]string
	funcNames  map[string]string
	warnings   []string
}

// prepare resolves names, parameter signatures and enum types before
// any text is emitted.
func (e *emitter) prepare() error {
	start := e.g.Rule(e.g.StartSymbol)
	if start == nil {
		return fmt.Errorf("start symbol %q is not defined", e.g.StartSymbol)
	}
	usedClasses := make(map[string]bool)
	usedFuncs := make(map[string]bool)
	for _, name := range e.g.RuleNames() {
		class := generator.PascalCase(name) + "Node"
		for usedClasses[class] {
			class += "_"
		}
		usedClasses[class] = true
		e.classNames[name] = class

		fn := "parse_" + generator.SnakeCase(name)
		for usedFuncs[fn] {
			fn += "_"
		}
		usedFuncs[fn] = true
		e.funcNames[name] = fn
	}
	// Declared parameters first, so that family parameters can reuse
	// caller enum types.
	for _, name := range e.g.RuleNames() {
		defs := e.g.Definitions(name)
		if len(defs) != 1 {
			continue
		}
		var infos []paramInfo
		for _, p := range defs[0].Params {
			info := paramInfo{
				cppName: generator.SanitizeIdentifier(p.Name),
				typ:     p.Type,
				values:  p.EnumValues,
			}
			if p.Type == grammar.EnumParam {
				info.enumName = e.addEnum(
					generator.PascalCase(name)+generator.PascalCase(p.Name), p.EnumValues)
			}
			infos = append(infos, info)
		}
		e.params[name] = infos
	}
	for _, name := range e.g.RuleNames() {
		defs := e.g.Definitions(name)
		if len(defs) < 2 {
			continue
		}
		arity := len(defs[0].Params)
		for _, def := range defs {
			if len(def.Params) != arity {
				return fmt.Errorf("definitions of rule %q disagree on parameter count", name)
			}
		}
		var infos []paramInfo
		for i := 0; i < arity; i++ {
			values := familyValues(defs, i)
			enumName := e.findCallerEnum(name, i, values)
			if enumName == "" {
				enumName = e.addEnum(
					fmt.Sprintf("%sValue%d", generator.PascalCase(name), i), values)
			}
			infos = append(infos, paramInfo{
				cppName:  fmt.Sprintf("p%d", i),
				typ:      grammar.EnumParam,
				enumName: enumName,
				values:   values,
			})
		}
		e.params[name] = infos
	}
	// A parameterised start symbol is runnable only when every
	// parameter is an enum: the top-level parse tries the members in
	// declaration order.
	for _, p := range e.params[e.g.StartSymbol] {
		if p.typ != grammar.EnumParam {
			return fmt.Errorf("start symbol %q has a non-enum parameter %q", e.g.StartSymbol, p.cppName)
		}
	}
	// Collect the user predicates referenced by check actions.
	for _, rule := range e.g.Rules {
		grammar.Walk(rule.RHS, func(x grammar.Expr) {
			a, ok := x.(*grammar.ContextAction)
			if !ok || a.Kind != grammar.Check {
				return
			}
			name := generator.SanitizeIdentifier(a.Args[0])
			if !e.checkSeen[name] {
				e.checkSeen[name] = true
				e.checks = append(e.checks, name)
			}
		})
	}
	return nil
}

func familyValues(defs []*grammar.Rule, i int) []string {
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

// findCallerEnum looks for a declared enum parameter whose members
// cover the family's value set, so that call sites passing that
// formal keep a single C++ enum type.
func (e *emitter) findCallerEnum(family string, i int, values []string) string {
	for _, rule := range e.g.Rules {
		for _, p := range rule.Params {
			if p.Type != grammar.EnumParam {
				continue
			}
			info := e.declaredParam(rule.Name, p.Name)
			if info == nil {
				continue
			}
			if covers(p.EnumValues, values) && e.callsWith(rule, family, i, p.Name) {
				return info.enumName
			}
		}
	}
	return ""
}

func (e *emitter) declaredParam(ruleName, paramName string) *paramInfo {
	for idx := range e.params[ruleName] {
		if e.params[ruleName][idx].cppName == generator.SanitizeIdentifier(paramName) {
			return &e.params[ruleName][idx]
		}
	}
	return nil
}

// callsWith reports whether the rule passes the named formal at
// argument position i of a reference to the family.
func (e *emitter) callsWith(rule *grammar.Rule, family string, i int, formal string) bool {
	found := false
	grammar.Walk(rule.RHS, func(x grammar.Expr) {
		nt, ok := x.(*grammar.NonTerminal)
		if ok && nt.Name == family && i < len(nt.Args) && nt.Args[i] == formal {
			found = true
		}
	})
	return found
}

func covers(enumValues, values []string) bool {
	set := make(map[string]bool, len(enumValues))
	for _, v := range enumValues {
		set[v] = true
	}
	for _, v := range values {
		if !set[v] {
			return false
		}
	}
	return true
}

func (e *emitter) addEnum(name string, values []string) string {
	for e.enumNames[name] {
		name += "_"
	}
	e.enumNames[name] = true
	e.enums = append(e.enums, enumDecl{name: name, values: values})
	return name
}

// ---- text emission ----

func (e *emitter) line(format string, args ...interface{}) {
	if format == "" {
		e.buf.WriteByte('\n')
		return
	}
	e.buf.WriteString(strings.Repeat(e.opts.IndentStyle, e.depth))
	fmt.Fprintf(&e.buf, format, args...)
	e.buf.WriteByte('\n')
}

func (e *emitter) in()  { e.depth++ }
func (e *emitter) out() { e.depth-- }

func (e *emitter) fresh(prefix string) string {
	e.varCount++
	return fmt.Sprintf("%s%d", prefix, e.varCount)
}

func cppType(p paramInfo) string {
	switch p.typ {
	case grammar.IntegerParam:
		return "long"
	case grammar.BooleanParam:
		return "bool"
	case grammar.EnumParam:
		return p.enumName
	}
	return "const std::string&"
}

// cppString renders a Go string as a C++ string literal. Non-ASCII
// and control bytes use octal escapes, which cannot swallow the
// following characters the way hex escapes do.
func cppString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if c < 0x20 || c >= 0x7F {
				fmt.Fprintf(&b, `\%03o`, c)
			} else {
				b.WriteByte(c)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

func (e *emitter) emitParser() string {
	e.buf.Reset()
	e.line("// Parser for the %s grammar.", e.opts.Stem)
	e.line("// Generated by bnf-parser-generator. DO NOT EDIT.")
	e.line("")
	e.line("#include <cstdint>")
	e.line("#include <iostream>")
	e.line("#include <map>")
	e.line("#include <memory>")
	e.line("#include <string>")
	e.line("#include <vector>")
	e.line("")
	if e.opts.Namespace != "" {
		e.line("namespace %s {", e.opts.Namespace)
		e.line("")
	}
	e.emitASTClasses()
	e.emitEnums()
	e.emitParserClass()
	if e.opts.Namespace != "" {
		e.line("}  // namespace %s", e.opts.Namespace)
	}
	return e.buf.String()
}

func (e *emitter) emitASTClasses() {
	e.line("class ASTNode {")
	e.line("public:")
	e.in()
	e.line("explicit ASTNode(const std::string& type) : type(type) {}")
	e.line("virtual ~ASTNode() = default;")
	e.line("")
	e.line("std::string type;")
	e.line("std::string value;")
	if !e.opts.OmitPositions {
		e.line("size_t pos = 0;")
		e.line("size_t line = 1;")
		e.line("size_t column = 1;")
	}
	e.line("std::vector<std::unique_ptr<ASTNode>> children;")
	e.line("")
	e.line("void print(std::ostream& out, size_t depth = 0) const {")
	e.in()
	e.line("out << std::string(depth * 2, ' ') << type;")
	e.line("if (!value.empty()) {")
	e.in()
	e.line(`out << ": \"" << value << "\"";`)
	e.out()
	e.line("}")
	e.line("out << '\\n';")
	e.line("for (const auto& child : children) {")
	e.in()
	e.line("child->print(out, depth + 1);")
	e.out()
	e.line("}")
	e.out()
	e.line("}")
	e.out()
	e.line("};")
	e.line("")
	for _, name := range e.g.RuleNames() {
		e.line("class %s : public ASTNode {", e.classNames[name])
		e.line("public:")
		e.in()
		e.line("%s() : ASTNode(%s) {}", e.classNames[name], cppString(name))
		e.out()
		e.line("};")
		e.line("")
	}
}

func (e *emitter) emitEnums() {
	for _, en := range e.enums {
		values := make([]string, len(en.values))
		for i, v := range en.values {
			values[i] = generator.SanitizeIdentifier(v)
		}
		e.line("enum class %s { %s };", en.name, strings.Join(values, ", "))
		e.line("")
	}
}

func (e *emitter) emitParserClass() {
	e.line("class %s {", e.opts.ParserName)
	e.line("public:")
	e.in()
	e.line("explicit %s(const std::string& input) : input_(input) {}", e.opts.ParserName)
	e.line("virtual ~%s() = default;", e.opts.ParserName)
	e.line("")
	e.emitTopLevelParse()
	e.line("const std::string& error_message() const { return error_; }")
	e.line("size_t error_pos() const { return error_pos_; }")
	e.line("size_t error_line() const { return error_line_; }")
	e.line("size_t error_column() const { return error_column_; }")
	e.out()
	e.line("")
	if len(e.checks) > 0 {
		e.line("protected:")
		e.in()
		e.line("// Override these predicates to give check() actions real")
		e.line("// semantics. They accept by default.")
		for _, name := range e.checks {
			e.line("virtual bool check_%s() { return true; }", name)
		}
		e.out()
		e.line("")
	}
	e.line("private:")
	e.in()
	e.emitRuntimeHelpers()
	for _, name := range e.g.RuleNames() {
		e.emitRuleFunction(name)
	}
	e.emitFields()
	e.out()
	e.line("};")
	e.line("")
}

func (e *emitter) emitTopLevelParse() {
	params := e.params[e.g.StartSymbol]
	e.line("// parse runs the start rule and requires the whole input to be")
	e.line("// consumed. On failure it returns null and records the error.")
	e.line("std::unique_ptr<ASTNode> parse() {")
	e.in()
	e.line("error_.clear();")
	e.line("error_pos_ = 0;")
	e.line("error_line_ = 1;")
	e.line("error_column_ = 1;")
	if len(params) == 0 {
		e.emitParseAttempt(nil)
		e.line("return root;")
		e.out()
		e.line("}")
		e.line("")
		return
	}
	// An enum-parameterised start symbol: try the members in
	// declaration order until one parse consumes the whole input.
	var argNames []string
	for i, p := range params {
		arg := fmt.Sprintf("v%d", i)
		var members []string
		for _, v := range p.values {
			members = append(members, p.enumName+"::"+generator.SanitizeIdentifier(v))
		}
		e.line("for (%s %s : {%s}) {", p.enumName, arg, strings.Join(members, ", "))
		e.in()
		argNames = append(argNames, arg)
	}
	e.emitParseAttempt(argNames)
	e.line("if (root) {")
	e.in()
	e.line("return root;")
	e.out()
	e.line("}")
	for range params {
		e.out()
		e.line("}")
	}
	e.line("return nullptr;")
	e.out()
	e.line("}")
	e.line("")
}

// emitParseAttempt resets the cursor state and runs the start rule
// once, leaving the result in `root`.
func (e *emitter) emitParseAttempt(args []string) {
	e.line("pos_ = 0;")
	e.line("line_ = 1;")
	e.line("column_ = 1;")
	e.line("depth_ = 0;")
	e.line("context_.clear();")
	e.line("last_capture_.clear();")
	e.line("std::unique_ptr<ASTNode> root = %s(%s);", e.funcNames[e.g.StartSymbol], strings.Join(args, ", "))
	e.line("if (root && pos_ != input_.size()) {")
	e.in()
	e.line(`fail("unexpected trailing input");`)
	e.line("root.reset();")
	e.out()
	e.line("}")
}

func (e *emitter) emitRuntimeHelpers() {
	e.line("struct Save {")
	e.in()
	e.line("size_t pos;")
	e.line("size_t line;")
	e.line("size_t column;")
	e.out()
	e.line("};")
	e.line("")
	e.line("Save save() const { return Save{pos_, line_, column_}; }")
	e.line("")
	e.line("void restore(const Save& s) {")
	e.in()
	e.line("pos_ = s.pos;")
	e.line("line_ = s.line;")
	e.line("column_ = s.column;")
	e.out()
	e.line("}")
	e.line("")
	e.line("// fail keeps the failure that made it farthest into the input.")
	e.line("void fail(const std::string& message) {")
	e.in()
	e.line("if (pos_ >= error_pos_) {")
	e.in()
	e.line("error_ = message;")
	e.line("error_pos_ = pos_;")
	e.line("error_line_ = line_;")
	e.line("error_column_ = column_;")
	e.out()
	e.line("}")
	e.out()
	e.line("}")
	e.line("")
	e.line("void advance(size_t n) {")
	e.in()
	e.line("for (size_t i = 0; i < n && pos_ < input_.size(); ++i) {")
	e.in()
	e.line("if (input_[pos_] == '\\n') {")
	e.in()
	e.line("++line_;")
	e.line("column_ = 1;")
	e.out()
	e.line("} else {")
	e.in()
	e.line("++column_;")
	e.out()
	e.line("}")
	e.line("++pos_;")
	e.out()
	e.line("}")
	e.out()
	e.line("}")
	e.line("")
	e.line("bool match_literal(const std::string& literal, const char* expected) {")
	e.in()
	e.line("if (pos_ + literal.size() > input_.size() ||")
	e.line("    input_.compare(pos_, literal.size(), literal) != 0) {")
	e.in()
	e.line("fail(expected);")
	e.line("return false;")
	e.out()
	e.line("}")
	e.line("advance(literal.size());")
	e.line("return true;")
	e.out()
	e.line("}")
	e.line("")
	e.line("static size_t scalar_length(unsigned char lead) {")
	e.in()
	e.line("if ((lead & 0x80) == 0x00) return 1;")
	e.line("if ((lead & 0xE0) == 0xC0) return 2;")
	e.line("if ((lead & 0xF0) == 0xE0) return 3;")
	e.line("if ((lead & 0xF8) == 0xF0) return 4;")
	e.line("return 1;")
	e.out()
	e.line("}")
	e.line("")
	e.line("// decode_scalar reads the UTF-8 scalar at pos; ill-formed input")
	e.line("// decodes as the single lead byte.")
	e.line("uint32_t decode_scalar(size_t pos, size_t* length) const {")
	e.in()
	e.line("unsigned char lead = static_cast<unsigned char>(input_[pos]);")
	e.line("size_t n = scalar_length(lead);")
	e.line("if (pos + n > input_.size()) {")
	e.in()
	e.line("*length = 1;")
	e.line("return lead;")
	e.out()
	e.line("}")
	e.line("for (size_t i = 1; i < n; ++i) {")
	e.in()
	e.line("if ((static_cast<unsigned char>(input_[pos + i]) & 0xC0) != 0x80) {")
	e.in()
	e.line("*length = 1;")
	e.line("return lead;")
	e.out()
	e.line("}")
	e.out()
	e.line("}")
	e.line("*length = n;")
	e.line("switch (n) {")
	e.line("case 1:")
	e.in()
	e.line("return lead;")
	e.out()
	e.line("case 2:")
	e.in()
	e.line("return (uint32_t(lead & 0x1F) << 6) |")
	e.line("       uint32_t(input_[pos + 1] & 0x3F);")
	e.out()
	e.line("case 3:")
	e.in()
	e.line("return (uint32_t(lead & 0x0F) << 12) |")
	e.line("       (uint32_t(input_[pos + 1] & 0x3F) << 6) |")
	e.line("       uint32_t(input_[pos + 2] & 0x3F);")
	e.out()
	e.line("default:")
	e.in()
	e.line("return (uint32_t(lead & 0x07) << 18) |")
	e.line("       (uint32_t(input_[pos + 1] & 0x3F) << 12) |")
	e.line("       (uint32_t(input_[pos + 2] & 0x3F) << 6) |")
	e.line("       uint32_t(input_[pos + 3] & 0x3F);")
	e.out()
	e.line("}")
	e.out()
	e.line("}")
	e.line("")
	e.line("bool match_range(uint32_t lo, uint32_t hi, const char* expected) {")
	e.in()
	e.line("if (pos_ >= input_.size()) {")
	e.in()
	e.line("fail(expected);")
	e.line("return false;")
	e.out()
	e.line("}")
	e.line("size_t length = 0;")
	e.line("uint32_t cp = decode_scalar(pos_, &length);")
	e.line("if (cp < lo || cp > hi) {")
	e.in()
	e.line("fail(expected);")
	e.line("return false;")
	e.out()
	e.line("}")
	e.line("advance(length);")
	e.line("return true;")
	e.out()
	e.line("}")
	e.line("")
}

func (e *emitter) emitRuleFunction(name string) {
	defs := e.g.Definitions(name)
	params := e.params[name]
	var sig []string
	for _, p := range params {
		sig = append(sig, cppType(p)+" "+p.cppName)
	}
	e.line("std::unique_ptr<ASTNode> %s(%s) {", e.funcNames[name], strings.Join(sig, ", "))
	e.in()
	e.line("if (++depth_ > kMaxRecursionDepth) {")
	e.in()
	e.line(`fail("maximum recursion depth exceeded");`)
	e.line("--depth_;")
	e.line("return nullptr;")
	e.out()
	e.line("}")
	if e.opts.Debug {
		e.line(`std::cerr << "enter %s at byte " << pos_ << '\n';`, name)
	}
	e.line("auto node = std::make_unique<%s>();", e.classNames[name])
	if !e.opts.OmitPositions {
		e.line("node->pos = pos_;")
		e.line("node->line = line_;")
		e.line("node->column = column_;")
	}
	e.line("size_t start_pos = pos_;")
	e.line("bool ok = true;")
	if len(defs) == 1 {
		env := make(map[string]string)
		for i, p := range defs[0].Params {
			env[p.Name] = params[i].cppName
		}
		e.genExpr(defs[0].RHS, "ok", name, env)
	} else {
		e.line("ok = false;")
		for i, def := range defs {
			var conds []string
			for j, p := range def.Params {
				conds = append(conds, fmt.Sprintf("%s == %s::%s",
					params[j].cppName, params[j].enumName,
					generator.SanitizeIdentifier(p.Name)))
			}
			if i == 0 {
				e.line("if (%s) {", strings.Join(conds, " && "))
			} else {
				e.line("} else if (%s) {", strings.Join(conds, " && "))
			}
			e.in()
			e.line("ok = true;")
			e.genExpr(def.RHS, "ok", name, make(map[string]string))
			e.out()
		}
		e.line("} else {")
		e.in()
		e.line("fail(%s);", cppString("no matching definition of "+name))
		e.out()
		e.line("}")
	}
	e.line("--depth_;")
	e.line("if (!ok) {")
	e.in()
	if e.opts.Debug {
		e.line(`std::cerr << "fail %s at byte " << pos_ << '\n';`, name)
	}
	e.line("return nullptr;")
	e.out()
	e.line("}")
	e.line("if (node->children.empty()) {")
	e.in()
	e.line("node->value = input_.substr(start_pos, pos_ - start_pos);")
	e.out()
	e.line("}")
	e.line("last_capture_[%s] = input_.substr(start_pos, pos_ - start_pos);", cppString(name))
	if e.opts.Debug {
		e.line(`std::cerr << "match %s through byte " << pos_ << '\n';`, name)
	}
	e.line("return node;")
	e.out()
	e.line("}")
	e.line("")
}

// genExpr emits statements that attempt expr and assign the outcome
// to the named boolean. env maps grammar formals to C++ parameter
// names of the enclosing rule function.
func (e *emitter) genExpr(expr grammar.Expr, ok, ruleName string, env map[string]string) {
	switch v := expr.(type) {
	case *grammar.Terminal:
		e.line("%s = match_literal(%s, %s);", ok, cppString(v.Value),
			cppString("expected "+grammar.Quote(v.Value)))
	case *grammar.CharRange:
		e.line("%s = match_range(0x%X, 0x%X, %s);", ok, v.Start, v.End,
			cppString("expected character in range "+v.String()))
	case *grammar.NonTerminal:
		e.genCall(v, ok, ruleName, env)
	case *grammar.Group:
		e.genExpr(v.Content, ok, ruleName, env)
	case *grammar.Sequence:
		e.line("do {")
		e.in()
		for i, child := range v.Elements {
			if i > 0 {
				e.line("if (!%s) break;", ok)
			}
			e.genExpr(child, ok, ruleName, env)
		}
		e.out()
		e.line("} while (false);")
	case *grammar.Alternative:
		save := e.fresh("save")
		mark := e.fresh("mark")
		e.line("{")
		e.in()
		e.line("Save %s = save();", save)
		e.line("size_t %s = node->children.size();", mark)
		for i, choice := range v.Choices {
			if i > 0 {
				e.line("if (!%s) {", ok)
				e.in()
				e.line("restore(%s);", save)
				e.line("node->children.resize(%s);", mark)
				e.genExpr(choice, ok, ruleName, env)
				e.out()
				e.line("}")
			} else {
				e.genExpr(choice, ok, ruleName, env)
			}
		}
		e.out()
		e.line("}")
	case *grammar.Optional:
		save := e.fresh("save")
		mark := e.fresh("mark")
		e.line("{")
		e.in()
		e.line("Save %s = save();", save)
		e.line("size_t %s = node->children.size();", mark)
		e.genExpr(v.Content, ok, ruleName, env)
		e.line("if (!%s) {", ok)
		e.in()
		e.line("restore(%s);", save)
		e.line("node->children.resize(%s);", mark)
		e.out()
		e.line("}")
		e.line("%s = true;", ok)
		e.out()
		e.line("}")
	case *grammar.ZeroOrMore:
		e.genLoop(v.Content, ok, ruleName, env)
		e.line("%s = true;", ok)
	case *grammar.OneOrMore:
		e.genExpr(v.Content, ok, ruleName, env)
		e.line("if (%s) {", ok)
		e.in()
		e.genLoop(v.Content, ok, ruleName, env)
		e.line("%s = true;", ok)
		e.out()
		e.line("}")
	case *grammar.ContextAction:
		e.genAction(v, ok)
	}
}

// genLoop emits the greedy repetition shared by ZeroOrMore and the
// tail of OneOrMore. An iteration that consumes nothing ends the loop
// so that nullable bodies cannot spin forever.
func (e *emitter) genLoop(content grammar.Expr, ok, ruleName string, env map[string]string) {
	save := e.fresh("save")
	mark := e.fresh("mark")
	inner := e.fresh("ok")
	e.line("for (;;) {")
	e.in()
	e.line("Save %s = save();", save)
	e.line("size_t %s = node->children.size();", mark)
	e.line("bool %s = true;", inner)
	e.genExpr(content, inner, ruleName, env)
	e.line("if (!%s) {", inner)
	e.in()
	e.line("restore(%s);", save)
	e.line("node->children.resize(%s);", mark)
	e.line("break;")
	e.out()
	e.line("}")
	e.line("if (pos_ == %s.pos) {", save)
	e.in()
	e.line("break;")
	e.out()
	e.line("}")
	e.out()
	e.line("}")
}

func (e *emitter) genCall(nt *grammar.NonTerminal, ok, ruleName string, env map[string]string) {
	callee := e.params[nt.Name]
	var args []string
	for i, a := range nt.Args {
		if cpp, bound := env[a]; bound {
			args = append(args, cpp)
			continue
		}
		if i < len(callee) && callee[i].typ == grammar.EnumParam {
			args = append(args, callee[i].enumName+"::"+generator.SanitizeIdentifier(a))
			continue
		}
		args = append(args, generator.SanitizeIdentifier(a))
	}
	child := e.fresh("child")
	e.line("{")
	e.in()
	e.line("std::unique_ptr<ASTNode> %s = %s(%s);", child, e.funcNames[nt.Name], strings.Join(args, ", "))
	e.line("%s = %s != nullptr;", ok, child)
	e.line("if (%s) {", ok)
	e.in()
	e.line("node->children.push_back(std::move(%s));", child)
	e.out()
	e.line("}")
	e.out()
	e.line("}")
}

func (e *emitter) genAction(a *grammar.ContextAction, ok string) {
	switch a.Kind {
	case grammar.Store:
		e.line("context_[%s] = last_capture_[%s];", cppString(a.Args[0]), cppString(a.Args[1]))
		e.line("%s = true;", ok)
	case grammar.Lookup:
		e.line("%s = context_.count(%s) > 0;", ok, cppString(a.Args[0]))
		e.line("if (!%s) {", ok)
		e.in()
		e.line("fail(%s);", cppString("lookup failed: "+a.Args[0]))
		e.out()
		e.line("}")
	case grammar.Check:
		e.line("%s = check_%s();", ok, generator.SanitizeIdentifier(a.Args[0]))
		e.line("if (!%s) {", ok)
		e.in()
		e.line("fail(%s);", cppString("check failed: "+a.Args[0]))
		e.out()
		e.line("}")
	}
}

func (e *emitter) emitFields() {
	e.line("std::string input_;")
	e.line("size_t pos_ = 0;")
	e.line("size_t line_ = 1;")
	e.line("size_t column_ = 1;")
	e.line("size_t depth_ = 0;")
	e.line("std::string error_;")
	e.line("size_t error_pos_ = 0;")
	e.line("size_t error_line_ = 1;")
	e.line("size_t error_column_ = 1;")
	e.line("std::map<std::string, std::string> context_;")
	e.line("std::map<std::string, std::string> last_capture_;")
	e.line("static constexpr size_t kMaxRecursionDepth = %d;", e.opts.MaxRecursionDepth)
}

// emitMain writes the standalone entry point that includes the parser
// translation unit.
func (e *emitter) emitMain(parserFileName string) string {
	var b strings.Builder
	ns := ""
	if e.opts.Namespace != "" {
		ns = e.opts.Namespace + "::"
	}
	fmt.Fprintf(&b, "// Entry point for the %s parser.\n", e.opts.Stem)
	b.WriteString("// Generated by bnf-parser-generator. DO NOT EDIT.\n\n")
	fmt.Fprintf(&b, "#include %q\n\n", parserFileName)
	b.WriteString("#include <fstream>\n")
	b.WriteString("#include <iostream>\n")
	b.WriteString("#include <sstream>\n")
	b.WriteString("#include <string>\n\n")
	b.WriteString("int main(int argc, char** argv) {\n")
	i := e.opts.IndentStyle
	b.WriteString(i + "std::string filename;\n")
	b.WriteString(i + "bool show_ast = false;\n")
	b.WriteString(i + "bool verbose = false;\n")
	b.WriteString(i + "for (int a = 1; a < argc; ++a) {\n")
	b.WriteString(i + i + "std::string arg = argv[a];\n")
	b.WriteString(i + i + "if (arg == \"--help\" || arg == \"-h\") {\n")
	b.WriteString(i + i + i + "std::cout << \"usage: \" << argv[0] << \" [--ast] [--verbose] FILE\\n\";\n")
	b.WriteString(i + i + i + "return 0;\n")
	b.WriteString(i + i + "} else if (arg == \"--ast\") {\n")
	b.WriteString(i + i + i + "show_ast = true;\n")
	b.WriteString(i + i + "} else if (arg == \"--verbose\") {\n")
	b.WriteString(i + i + i + "verbose = true;\n")
	b.WriteString(i + i + "} else {\n")
	b.WriteString(i + i + i + "filename = arg;\n")
	b.WriteString(i + i + "}\n")
	b.WriteString(i + "}\n")
	b.WriteString(i + "if (filename.empty()) {\n")
	b.WriteString(i + i + "std::cerr << \"usage: \" << argv[0] << \" [--ast] [--verbose] FILE\\n\";\n")
	b.WriteString(i + i + "return 1;\n")
	b.WriteString(i + "}\n")
	b.WriteString(i + "std::ifstream in(filename);\n")
	b.WriteString(i + "if (!in) {\n")
	b.WriteString(i + i + "std::cerr << \"cannot open \" << filename << '\\n';\n")
	b.WriteString(i + i + "return 1;\n")
	b.WriteString(i + "}\n")
	b.WriteString(i + "std::stringstream buffer;\n")
	b.WriteString(i + "buffer << in.rdbuf();\n")
	b.WriteString(i + "std::string text = buffer.str();\n")
	fmt.Fprintf(&b, "%s%s%s parser(text);\n", i, ns, e.opts.ParserName)
	b.WriteString(i + "std::unique_ptr<" + ns + "ASTNode> ast = parser.parse();\n")
	b.WriteString(i + "if (!ast) {\n")
	b.WriteString(i + i + "std::cerr << \"parse error at byte \" << parser.error_pos()\n")
	b.WriteString(i + i + "          << \" (line \" << parser.error_line()\n")
	b.WriteString(i + i + "          << \", column \" << parser.error_column()\n")
	b.WriteString(i + i + "          << \"): \" << parser.error_message() << '\\n';\n")
	b.WriteString(i + i + "return 1;\n")
	b.WriteString(i + "}\n")
	b.WriteString(i + "if (verbose) {\n")
	b.WriteString(i + i + "std::cout << \"parsed \" << text.size() << \" bytes\\n\";\n")
	b.WriteString(i + "}\n")
	b.WriteString(i + "std::cout << \"parse successful\\n\";\n")
	b.WriteString(i + "if (show_ast) {\n")
	b.WriteString(i + i + "ast->print(std::cout);\n")
	b.WriteString(i + "}\n")
	b.WriteString(i + "return 0;\n")
	b.WriteString("}\n")
	return b.String()
}
