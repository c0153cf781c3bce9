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

// Package engine binds the pipeline: read the grammar text, lex,
// parse, validate, emit and hand the generated files to a sink. Each
// stage aborts the run on failure; validator warnings are collected
// and reported alongside success.
package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/golang/glog"

	"github.com/LMikhail/bnf-parser-generator/diag"
	"github.com/LMikhail/bnf-parser-generator/generator"
	_ "github.com/LMikhail/bnf-parser-generator/generator/cppgen"
	"github.com/LMikhail/bnf-parser-generator/grammar"
	"github.com/LMikhail/bnf-parser-generator/lexer"
	"github.com/LMikhail/bnf-parser-generator/parser"
	"github.com/LMikhail/bnf-parser-generator/validate"
)

// Config selects the inputs and outputs of one pipeline run.
type Config struct {
	// Input is the grammar file path.
	Input string
	// OutputDir overrides the output root; the default is
	// generated/<stem>.
	OutputDir string
	// OutputBase overrides the generated parser file name.
	OutputBase string
	// Language is the backend tag; default cpp.
	Language string
	// Name overrides the parser class name.
	Name string
	// Namespace wraps the generated code.
	Namespace string
	// Format selects the output layout subdirectories.
	Format generator.Format
	// Executable also emits a main unit.
	Executable bool
	// Debug emits diagnostic traces in the generated parser.
	Debug bool
}

// Sink receives the generated files. Paths are relative to the run's
// output root.
type Sink interface {
	WriteFile(path string, data []byte) error
}

// DirSink writes files below a root directory on the local
// filesystem, creating directories as needed.
type DirSink struct {
	Root string
}

func (s DirSink) WriteFile(path string, data []byte) error {
	full := filepath.Join(s.Root, path)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return err
	}
	return os.WriteFile(full, data, 0644)
}

// Report summarises a successful run.
type Report struct {
	// Grammar is the validated IR.
	Grammar *grammar.Grammar
	// Warnings holds the non-fatal validator findings.
	Warnings diag.List
	// Files lists the paths written through the sink, in order.
	Files []string
}

// Run reads the grammar file named by the config and executes the
// pipeline.
func Run(cfg *Config, sink Sink) (*Report, error) {
	data, err := os.ReadFile(cfg.Input)
	if err != nil {
		return nil, fmt.Errorf("cannot read grammar %q: %s", cfg.Input, err)
	}
	return RunSource(string(data), cfg, sink)
}

// RunSource executes the pipeline on grammar text already in memory.
func RunSource(source string, cfg *Config, sink Sink) (*Report, error) {
	stem := stemOf(cfg.Input)
	log.V(1).Infof("lexing %s (%d bytes)", stem, len(source))
	tokens, err := lexer.Tokenize(source)
	if err != nil {
		return nil, err
	}
	log.V(1).Infof("parsing %d tokens", len(tokens))
	g, err := parser.ParseTokens(tokens)
	if err != nil {
		return nil, err
	}
	log.V(1).Infof("validating %d rules, start symbol %q", len(g.Rules), g.StartSymbol)
	result := validate.Validate(g)
	if !result.Valid() {
		return nil, append(result.Errors, result.Warnings...)
	}
	language := cfg.Language
	if language == "" {
		language = "cpp"
	}
	backend, err := generator.For(language)
	if err != nil {
		return nil, err
	}
	opts := generator.Options{
		Stem:       stem,
		ParserName: cfg.Name,
		Namespace:  cfg.Namespace,
		Debug:      cfg.Debug,
		Executable: cfg.Executable || cfg.Format == generator.Executable || cfg.Format == generator.All,
	}
	log.V(1).Infof("generating %s with backend %s", opts.Stem, backend.Language())
	generated, err := backend.Generate(g, opts)
	if err != nil {
		return nil, fmt.Errorf("emitter: %s", err)
	}
	files := generated.Files()
	if cfg.OutputBase != "" {
		name := cfg.OutputBase
		if !strings.Contains(name, ".") {
			name += backend.FileExtension()
		}
		files[0].Name = name
	}
	report := &Report{Grammar: g, Warnings: result.Warnings}
	for _, dir := range cfg.Format.OutputDirs(cfg.Debug) {
		for _, f := range files {
			path := filepath.Join(outputRoot(cfg, stem), dir, f.Name)
			log.V(1).Infof("writing %s (%d bytes)", path, len(f.Content))
			if err := sink.WriteFile(path, []byte(f.Content)); err != nil {
				return nil, fmt.Errorf("cannot write %q: %s", path, err)
			}
			report.Files = append(report.Files, path)
		}
	}
	return report, nil
}

func outputRoot(cfg *Config, stem string) string {
	if cfg.OutputDir != "" {
		return cfg.OutputDir
	}
	return filepath.Join("generated", stem)
}

// stemOf strips the directory and extension from the grammar path.
func stemOf(path string) string {
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) {
		return "grammar"
	}
	if ext := filepath.Ext(base); ext != "" {
		base = base[:len(base)-len(ext)]
	}
	if base == "" {
		return "grammar"
	}
	return base
}
