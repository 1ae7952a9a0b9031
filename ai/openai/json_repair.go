// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package openai

// repairJSON fixes the formatting slips small models make in table replies:
// a key missing its opening quote (`, rows":`) and a trailing comma before
// a closing bracket (`["a", "b",]`). String contents are left untouched.
func repairJSON(s string) string {
	return dropTrailingCommas(quoteBareKeys(s))
}

// quoteBareKeys adds the missing opening quote to keys that follow { or ,.
func quoteBareKeys(s string) string {
	src := []rune(s)
	out := make([]rune, 0, len(src)+16)

	for i := 0; i < len(src); {
		ch := src[i]
		out = append(out, ch)
		i++
		if ch != '{' && ch != ',' {
			continue
		}

		for i < len(src) && isSpace(src[i]) {
			out = append(out, src[i])
			i++
		}
		if i >= len(src) || !isLetter(src[i]) {
			continue
		}

		// A bare key runs until the closing quote of ": .
		end := i
		for end < len(src) && (isLetter(src[end]) || src[end] == '_') {
			end++
		}
		if end+1 < len(src) && src[end] == '"' && src[end+1] == ':' {
			out = append(out, '"')
		}
		out = append(out, src[i:end]...)
		i = end
	}
	return string(out)
}

// dropTrailingCommas removes a comma that directly precedes ] or }.
func dropTrailingCommas(s string) string {
	src := []rune(s)
	out := make([]rune, 0, len(src))
	inString, escaped := false, false

	for i, ch := range src {
		switch {
		case escaped:
			escaped = false
		case inString && ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case !inString && ch == ',':
			j := i + 1
			for j < len(src) && isSpace(src[j]) {
				j++
			}
			if j < len(src) && (src[j] == ']' || src[j] == '}') {
				continue
			}
		}
		out = append(out, ch)
	}
	return string(out)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}
