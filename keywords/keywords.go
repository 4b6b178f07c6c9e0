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


package keywords

import (
	"strings"
	"unicode"
)

const (
	// MinLength is the exclusive lower bound on keyword length in characters.
	MinLength = 3

	// MaxKeywords caps the number of keywords returned by Extract.
	MaxKeywords = 20
)

// Stop words dropped from keyword lists
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "has": true, "he": true,
	"in": true, "is": true, "it": true, "its": true, "of": true, "on": true,
	"that": true, "the": true, "to": true, "was": true, "will": true, "with": true,
	"this": true, "but": true, "they": true, "have": true, "had": true, "what": true,
	"when": true, "where": true, "who": true, "which": true, "why": true, "how": true,
}

// IsStopWord reports whether word (already lowercased) is a stop word.
func IsStopWord(word string) bool {
	return stopWords[word]
}

// Extract derives search keywords from text.
//
// Text is lowercased and every character other than a letter, digit or
// underscore separates tokens. Tokens of more than MinLength characters that
// are not stop words are kept, deduplicated in first-occurrence order, and
// capped at MaxKeywords. Empty text yields an empty list.
func Extract(text string) []string {
	if text == "" {
		return []string{}
	}

	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isWordRune(r)
	})

	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, min(len(tokens), MaxKeywords))
	for _, token := range tokens {
		if len([]rune(token)) <= MinLength || stopWords[token] || seen[token] {
			continue
		}
		seen[token] = true
		out = append(out, token)
		if len(out) == MaxKeywords {
			break
		}
	}
	return out
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
