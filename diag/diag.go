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

// Package diag defines the positioned diagnostic record shared by the
// grammar lexer, parser, validator and the pipeline.
package diag

import (
	"fmt"
	"strings"
)

type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// Diagnostic is one positioned message. Line and Column are 1-based;
// zero values mean the message is not tied to a source position.
type Diagnostic struct {
	Severity Severity
	Line     int
	Column   int
	Message  string
}

func (d Diagnostic) Error() string {
	if d.Line == 0 {
		return d.Message
	}
	return fmt.Sprintf("line %d, column %d: %s", d.Line, d.Column, d.Message)
}

// Errorf makes an error diagnostic at the given position.
func Errorf(line, column int, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Severity: Error,
		Line:     line,
		Column:   column,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Warningf makes a warning diagnostic at the given position.
func Warningf(line, column int, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Severity: Warning,
		Line:     line,
		Column:   column,
		Message:  fmt.Sprintf(format, args...),
	}
}

// List is a batch of diagnostics collected during one pipeline stage.
type List []Diagnostic

func (l List) Error() string {
	r := make([]string, len(l))
	for i, d := range l {
		r[i] = d.Error()
	}
	return strings.Join(r, "\n")
}

// HasErrors reports whether the list contains at least one
// error-severity entry.
func (l List) HasErrors() bool {
	for _, d := range l {
		if d.Severity == Error {
			return true
		}
	}
	return false
}
