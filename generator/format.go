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

import "fmt"

// Format selects which output layouts a run produces.
type Format int

const (
	SourceOnly Format = iota
	LibraryStatic
	LibraryShared
	Executable
	All
)

var formatNames = map[string]Format{
	"source-only":    SourceOnly,
	"library-static": LibraryStatic,
	"library-shared": LibraryShared,
	"executable":     Executable,
	"all":            All,
}

// ParseFormat resolves a CLI format tag.
func ParseFormat(s string) (Format, error) {
	if f, ok := formatNames[s]; ok {
		return f, nil
	}
	return 0, fmt.Errorf("unknown format %q (expected source-only, library-static, library-shared, executable or all)", s)
}

func (f Format) String() string {
	for name, v := range formatNames {
		if v == f {
			return name
		}
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// OutputDirs lists the layout subdirectories for a format, relative
// to the run's output root. The executable layout splits by build
// flavour.
func (f Format) OutputDirs(debug bool) []string {
	exec := "exec/release"
	if debug {
		exec = "exec/debug"
	}
	switch f {
	case SourceOnly:
		return []string{"source"}
	case LibraryStatic:
		return []string{"lib-static"}
	case LibraryShared:
		return []string{"lib-shared"}
	case Executable:
		return []string{exec}
	case All:
		return []string{"source", "lib-static", "lib-shared", exec}
	}
	return nil
}
