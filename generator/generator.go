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

// Package generator defines the code-emission interface shared by all
// target-language backends, plus the options, naming and output-layout
// conventions. Concrete backends live in subpackages and register
// themselves here.
package generator

import (
	"fmt"
	"sort"
	"sync"

	"github.com/LMikhail/bnf-parser-generator/grammar"
)

// Options controls code generation.
type Options struct {
	// Stem is the grammar file name without directory or extension;
	// it seeds the default parser and file names.
	Stem string
	// ParserName overrides the generated parser class name.
	ParserName string
	// Namespace wraps the generated code in a namespace or package.
	Namespace string
	// Debug adds rule-entry traces to the generated parser.
	Debug bool
	// Executable also emits a main translation unit.
	Executable bool
	// OmitPositions drops the byte/line/column fields from AST nodes;
	// by default every node records where it matched.
	OmitPositions bool
	// IndentStyle is the indent unit of the emitted code.
	IndentStyle string
	// MaxRecursionDepth bounds rule nesting in the generated parser.
	MaxRecursionDepth int
}

// WithDefaults fills the unset fields.
func (o Options) WithDefaults() Options {
	if o.Stem == "" {
		o.Stem = "grammar"
	}
	if o.ParserName == "" {
		o.ParserName = DefaultParserName(o.Stem)
	}
	if o.IndentStyle == "" {
		o.IndentStyle = "    "
	}
	if o.MaxRecursionDepth == 0 {
		o.MaxRecursionDepth = 1000
	}
	return o
}

// File is one generated output file.
type File struct {
	Name    string
	Content string
}

// Generated is the result of one backend run.
type Generated struct {
	// Parser is the self-contained parser translation unit.
	Parser File
	// Main is the optional entry-point unit, set when
	// Options.Executable is true.
	Main *File
	// Messages and Warnings are informational notes for the caller.
	Messages []string
	Warnings []string
}

// Files returns all generated files in emission order.
func (g *Generated) Files() []File {
	files := []File{g.Parser}
	if g.Main != nil {
		files = append(files, *g.Main)
	}
	return files
}

// Backend emits a parser for one target language.
type Backend interface {
	Language() string
	FileExtension() string
	Generate(g *grammar.Grammar, opts Options) (*Generated, error)
}

var (
	backendsMu sync.Mutex
	backends   = make(map[string]func() Backend)
)

// Register makes a backend constructor available under its language
// tag. Backends call it from init.
func Register(language string, construct func() Backend) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[language] = construct
}

// For returns a fresh backend for the language tag.
func For(language string) (Backend, error) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	construct, ok := backends[language]
	if !ok {
		return nil, fmt.Errorf("unsupported language %q (supported: %v)", language, languagesLocked())
	}
	return construct(), nil
}

// Languages lists the registered language tags.
func Languages() []string {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	return languagesLocked()
}

func languagesLocked() []string {
	r := make([]string, 0, len(backends))
	for lang := range backends {
		r = append(r, lang)
	}
	sort.Strings(r)
	return r
}
