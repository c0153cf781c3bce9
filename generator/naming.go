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

import "strings"

// SanitizeIdentifier maps an arbitrary rule or parameter name to a
// safe identifier: letters, digits and underscores, never starting
// with a digit.
func SanitizeIdentifier(name string) string {
	var b strings.Builder
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9':
			b.WriteRune(c)
		default:
			b.WriteByte('_')
		}
	}
	s := b.String()
	if s == "" {
		return "_"
	}
	if s[0] >= '0' && s[0] <= '9' {
		return "_" + s
	}
	return s
}

// SnakeCase converts a name to lower snake_case. Word boundaries are
// case changes, hyphens, underscores and spaces.
func SnakeCase(name string) string {
	var b strings.Builder
	prevLower := false
	for _, c := range name {
		switch {
		case c >= 'A' && c <= 'Z':
			if prevLower {
				b.WriteByte('_')
			}
			b.WriteRune(c - 'A' + 'a')
			prevLower = false
		case c >= 'a' && c <= 'z' || c >= '0' && c <= '9':
			b.WriteRune(c)
			prevLower = c >= 'a' && c <= 'z'
		default:
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "_") {
				b.WriteByte('_')
			}
			prevLower = false
		}
	}
	return strings.Trim(b.String(), "_")
}

// PascalCase converts a name to PascalCase. Hyphens, underscores,
// spaces and other separators are dropped and start a new word, as
// does a digit; existing capitals are kept as they are.
func PascalCase(name string) string {
	var b strings.Builder
	upperNext := true
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9':
			if upperNext && c >= 'a' && c <= 'z' {
				c = c - 'a' + 'A'
			}
			b.WriteRune(c)
			upperNext = c >= '0' && c <= '9'
		default:
			upperNext = true
		}
	}
	return b.String()
}

// DefaultParserName derives the parser class name from the grammar
// file stem.
func DefaultParserName(stem string) string {
	return PascalCase(stem) + "Parser"
}

// DefaultFileName derives the parser file name from the stem and the
// backend's extension.
func DefaultFileName(stem, extension string) string {
	return SnakeCase(stem) + "_parser" + extension
}
