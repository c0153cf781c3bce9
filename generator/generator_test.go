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

package generator

import "testing"

func TestSnakeCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"calc", "calc"},
		{"MyGrammar", "my_grammar"},
		{"my-grammar", "my_grammar"},
		{"my grammar", "my_grammar"},
		{"grammar2", "grammar2"},
		{"JSON", "json"},
	}
	for _, tt := range tests {
		if got := SnakeCase(tt.in); got != tt.want {
			t.Errorf("SnakeCase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPascalCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"calc", "Calc"},
		{"my-grammar", "MyGrammar"},
		{"white space", "WhiteSpace"},
		{"a2b", "A2B"},
		{"already_Pascal", "AlreadyPascal"},
	}
	for _, tt := range tests {
		if got := PascalCase(tt.in); got != tt.want {
			t.Errorf("PascalCase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"name", "name"},
		{"white space", "white_space"},
		{"my-rule", "my_rule"},
		{"2nd", "_2nd"},
		{"", "_"},
	}
	for _, tt := range tests {
		if got := SanitizeIdentifier(tt.in); got != tt.want {
			t.Errorf("SanitizeIdentifier(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDefaultNames(t *testing.T) {
	if got := DefaultParserName("calc"); got != "CalcParser" {
		t.Errorf("DefaultParserName(calc) = %q, want CalcParser", got)
	}
	if got := DefaultFileName("MyGrammar", ".cpp"); got != "my_grammar_parser.cpp" {
		t.Errorf("DefaultFileName(MyGrammar) = %q, want my_grammar_parser.cpp", got)
	}
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"source-only", "library-static", "library-shared", "executable", "all"} {
		f, err := ParseFormat(name)
		if err != nil {
			t.Errorf("ParseFormat(%q) returned error %s, want success", name, err)
			continue
		}
		if f.String() != name {
			t.Errorf("ParseFormat(%q).String() = %q", name, f.String())
		}
	}
	if _, err := ParseFormat("tarball"); err == nil {
		t.Error("ParseFormat(tarball) succeeded, want error")
	}
}

func TestOutputDirs(t *testing.T) {
	if got := SourceOnly.OutputDirs(false); len(got) != 1 || got[0] != "source" {
		t.Errorf("SourceOnly.OutputDirs = %v", got)
	}
	if got := Executable.OutputDirs(true); len(got) != 1 || got[0] != "exec/debug" {
		t.Errorf("Executable.OutputDirs(debug) = %v", got)
	}
	if got := Executable.OutputDirs(false); len(got) != 1 || got[0] != "exec/release" {
		t.Errorf("Executable.OutputDirs = %v", got)
	}
	if got := All.OutputDirs(false); len(got) != 4 {
		t.Errorf("All.OutputDirs = %v, want 4 entries", got)
	}
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{}.WithDefaults()
	if o.Stem != "grammar" {
		t.Errorf("default Stem = %q", o.Stem)
	}
	if o.ParserName != "GrammarParser" {
		t.Errorf("default ParserName = %q", o.ParserName)
	}
	if o.MaxRecursionDepth != 1000 {
		t.Errorf("default MaxRecursionDepth = %d", o.MaxRecursionDepth)
	}
	o = Options{Stem: "calc", ParserName: "Custom"}.WithDefaults()
	if o.ParserName != "Custom" {
		t.Errorf("ParserName override lost: %q", o.ParserName)
	}
}
