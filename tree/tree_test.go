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

package tree

import (
	"strings"
	"testing"
)

func TestParseAndString(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{`(A)`, `(A)`},
		{`(A text("x"))`, `(A text("x"))`},
		{`(A (B) (C text("y")))`, `(A (B) (C text("y")))`},
		{"(A\n  (B text(\"x\"))\n  (C))", `(A (B text("x")) (C))`},
		{`(A text("a\nb"))`, `(A text("a\nb"))`},
	}
	for _, tt := range tests {
		n, err := Parse(tt.source)
		if err != nil {
			t.Errorf("Parse(%q) returned error %s, want success", tt.source, err)
			continue
		}
		if got := n.String(); got != tt.want {
			t.Errorf("Parse(%q).String() = %q, want %q", tt.source, got, tt.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, source := range []string{``, `A`, `(A`, `(A))`, `(A text("x)`, `(A $)`} {
		if _, err := Parse(source); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", source)
		}
	}
}

func TestDiff(t *testing.T) {
	a, err := Parse(`(A text("x") (B) (C))`)
	if err != nil {
		t.Fatal(err)
	}
	same, err := Parse(`(A text("x") (B) (C))`)
	if err != nil {
		t.Fatal(err)
	}
	if d := Diff(a, same); len(d) != 0 {
		t.Errorf("Diff of equal trees = %v, want empty", d)
	}
	other, err := Parse(`(A text("y") (B))`)
	if err != nil {
		t.Fatal(err)
	}
	d := Diff(a, other)
	if len(d) == 0 {
		t.Fatal("Diff of different trees is empty, want mismatches")
	}
	joined := strings.Join(d, "\n")
	if !strings.Contains(joined, `text "y"`) {
		t.Errorf("Diff = %v, want text mismatch reported", d)
	}
	if !strings.Contains(joined, "children") {
		t.Errorf("Diff = %v, want child-count mismatch reported", d)
	}
}
