package listing

import (
	"strings"

	"golang.org/x/text/cases"
)

// Fold normalizes user input for keyword comparison.
func Fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// Keywords is a set of case-insensitive command words.
type Keywords map[string]struct{}

// NewKeywords folds words into a set.
func NewKeywords(words ...string) Keywords {
	k := make(Keywords, len(words))
	for _, w := range words {
		k[Fold(w)] = struct{}{}
	}
	return k
}

// Match reports whether text is one of the keywords.
func (k Keywords) Match(text string) bool {
	_, ok := k[Fold(text)]
	return ok
}

// ParseAmount parses a non-negative integer made of ASCII digits only.
func ParseAmount(text string) (int64, bool) {
	text = strings.TrimSpace(text)
	if text == "" || len(text) > 18 {
		return 0, false
	}
	var n int64
	for _, r := range text {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int64(r-'0')
	}
	return n, true
}
