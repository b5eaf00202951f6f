package cache

import (
	"strings"
	"unicode"
)

// normalizeNamespace lowers a namespace into snake_case words joined by
// KeySeparator. Words made only of digits are dropped, so a namespace never
// carries a segment that reads like an id: "product_1" and "product" name
// the same key family.
func normalizeNamespace(namespace string) string {
	words := splitWords(namespace)
	kept := words[:0]
	for _, word := range words {
		if strings.TrimFunc(word, unicode.IsDigit) == "" {
			continue
		}
		kept = append(kept, strings.ToLower(word))
	}
	return strings.Join(kept, KeySeparator)
}

// splitWords breaks s on anything that is not a letter or digit and on
// camel case boundaries ("CategoryProducts", "HTTPServer"). A digit stays
// attached to the letters before it.
func splitWords(s string) []string {
	runes := []rune(s)
	var words []string
	start := -1

	flush := func(end int) {
		if start >= 0 {
			words = append(words, string(runes[start:end]))
			start = -1
		}
	}

	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush(i)
			continue
		}
		if start >= 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush(i)
			}
		}
		if start < 0 {
			start = i
		}
	}
	flush(len(runes))

	return words
}
