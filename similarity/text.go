package similarity

import (
	"path/filepath"
	"strings"
	"unicode"
)

// Stop words dropped from query terms
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "or": true, "how": true, "what": true,
}

// IsStopWord reports whether a lowercase word is on the stop list.
func IsStopWord(word string) bool {
	return stopWords[word]
}

func isTokenRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Tokens lowercases text and splits it on every run of characters that are
// neither letters nor digits. Stop words are kept.
func Tokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isTokenRune(r)
	})
}

// Terms returns the distinct non-stop-word tokens of text in first-seen order.
func Terms(text string) []string {
	tokens := Tokens(text)
	seen := make(map[string]bool, len(tokens))
	terms := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if stopWords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		terms = append(terms, tok)
	}
	return terms
}

// TermSet returns the distinct tokens of text, stop words included.
func TermSet(text string) map[string]bool {
	tokens := Tokens(text)
	set := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		set[tok] = true
	}
	return set
}

// FilenameWords splits the base name of path, without its extension, into
// lowercase words. Separators and camelCase humps both start a new word:
// "docs/NeuralNet_overview.md" yields [neural net overview].
func FilenameWords(path string) []string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	runes := []rune(base)
	for i, r := range runes {
		if !isTokenRune(r) {
			flush()
			continue
		}
		if unicode.IsUpper(r) && len(cur) > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}
