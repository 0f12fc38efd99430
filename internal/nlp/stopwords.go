package nlp

import (
	"bufio"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed stopwords/*.txt
var bundled embed.FS

var ErrUnsupportedLanguage = errors.New("no bundled stop-word list for language")

// StopWords is a set of lowercased words dropped during normalization and
// keyphrase extraction.
type StopWords map[string]struct{}

func (s StopWords) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

// Add inserts words into the set, lowercased.
func (s StopWords) Add(words ...string) {
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			s[w] = struct{}{}
		}
	}
}

// LoadStopWords returns the bundled list for language. Only "english" ships
// with the binary.
func LoadStopWords(language string) (StopWords, error) {
	if language == "" {
		language = "english"
	}

	f, err := bundled.Open("stopwords/" + strings.ToLower(language) + ".txt")
	if err != nil {
		return nil, fmt.Errorf("%w: '%s'", ErrUnsupportedLanguage, language)
	}
	defer f.Close()

	return ReadStopWords(f)
}

// LoadStopWordsFile reads a custom list from disk, replacing the bundled one.
func LoadStopWordsFile(path string) (StopWords, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open stop-word file: %w", err)
	}
	defer f.Close()

	return ReadStopWords(f)
}

// ReadStopWords parses one word per line. Blank lines and lines starting
// with '#' are ignored.
func ReadStopWords(r io.Reader) (StopWords, error) {
	sw := StopWords{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sw.Add(line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stop-words: %w", err)
	}
	return sw, nil
}
