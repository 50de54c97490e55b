package search

import (
	"strings"
	"unicode/utf8"
)

const (
	// MaxQueryWords caps how many tokens the word pass looks up.
	MaxQueryWords = 3
	minWordLength = 3
)

// NormalizeQuery trims surrounding whitespace.
func NormalizeQuery(raw string) string {
	return strings.TrimSpace(raw)
}

// ExtractWords splits the query into lowercase whitespace-delimited tokens,
// keeps tokens longer than two characters and returns the first
// MaxQueryWords distinct ones in their original order.
func ExtractWords(query string) []string {
	var words []string
	seen := make(map[string]struct{})

	for _, part := range strings.Fields(strings.ToLower(query)) {
		if utf8.RuneCountInString(part) < minWordLength {
			continue
		}
		if _, dup := seen[part]; dup {
			continue
		}
		seen[part] = struct{}{}
		words = append(words, part)

		if len(words) == MaxQueryWords {
			break
		}
	}

	return words
}
