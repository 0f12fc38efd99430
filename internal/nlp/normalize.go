package nlp

import (
	"strings"
	"unicode"

	"github.com/rivo/uniseg"
)

type Normalizer struct {
	stopWords StopWords
}

func NewNormalizer(sw StopWords) *Normalizer {
	if sw == nil {
		sw = StopWords{}
	}
	return &Normalizer{stopWords: sw}
}

// Normalize lowercases text, strips every rune outside [a-z0-9] and
// whitespace, segments the remainder into words and drops stop-words.
// The output is idempotent under Normalize.
func (n *Normalizer) Normalize(text string) string {
	cleaned := strip(strings.ToLower(text))

	tokens := make([]string, 0, len(cleaned)/6)
	state := -1
	var word string
	for len(cleaned) > 0 {
		word, cleaned, state = uniseg.FirstWordInString(cleaned, state)
		if strings.TrimSpace(word) == "" {
			continue
		}
		if n.stopWords.Contains(word) {
			continue
		}
		tokens = append(tokens, word)
	}

	return strings.Join(tokens, " ")
}

func strip(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
