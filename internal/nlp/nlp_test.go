package nlp_test

import (
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/alan-mat/atscore/internal/nlp"
)

func newNormalizer(t *testing.T) *nlp.Normalizer {
	t.Helper()
	sw, err := nlp.LoadStopWords("english")
	if err != nil {
		t.Fatalf("expected nil error, got '%v'", err)
	}
	return nlp.NewNormalizer(sw)
}

func TestNormalize(t *testing.T) {
	n := newNormalizer(t)

	tests := []struct {
		in       string
		expected string
	}{
		{"Senior Go Developer, 5+ years of experience!", "senior go developer 5 years experience"},
		{"C++ and   Python\n\tskills", "c python skills"},
		{"The", ""},
		{"", ""},
		{"Zürich-based team", "zrichbased team"},
	}

	for _, tt := range tests {
		if got := n.Normalize(tt.in); got != tt.expected {
			t.Errorf("invalid normalization of '%s', expected '%s', got '%s'", tt.in, tt.expected, got)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	n := newNormalizer(t)

	inputs := []string{
		"Built REST APIs in Go; deployed to Kubernetes (EKS) & GCP.",
		"Experience with PostgreSQL, Redis, and Kafka is a plus.",
	}
	for _, in := range inputs {
		once := n.Normalize(in)
		if twice := n.Normalize(once); twice != once {
			t.Errorf("normalization not idempotent, '%s' became '%s'", once, twice)
		}
	}
}

func TestReadStopWords(t *testing.T) {
	sw, err := nlp.ReadStopWords(strings.NewReader("# comment\n\nFoo\n bar \n"))
	if err != nil {
		t.Fatalf("expected nil error, got '%v'", err)
	}
	if !sw.Contains("foo") || !sw.Contains("bar") || len(sw) != 2 {
		t.Errorf("invalid stop-word set, got '%v'", sw)
	}

	if _, err := nlp.LoadStopWords("klingon"); err == nil {
		t.Error("expected error for unbundled language")
	}
}

func words(n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = "w" + strconv.Itoa(i)
	}
	return strings.Join(w, " ")
}

func TestChunk(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		max      int
		overlap  int
		expected []string
	}{
		{"empty", "", 400, 50, nil},
		{"shorter than window", "a b c", 400, 50, []string{"a b c"}},
		{"overlap", "a b c d e", 3, 1, []string{"a b c", "c d e", "e"}},
		{"overlap exceeds window", "a b c d e", 2, 5, []string{"a b", "c d", "e"}},
		{"zero window", "a b c", 0, 0, nil},
	}

	for _, tt := range tests {
		got := nlp.Chunk(tt.text, tt.max, tt.overlap)
		if !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("%s: expected '%v', got '%v'", tt.name, tt.expected, got)
		}
	}
}

func TestChunkWithoutOverlapReconstructs(t *testing.T) {
	text := words(1037)
	chunks := nlp.Chunk(text, 100, 0)

	if got := strings.Join(chunks, " "); got != text {
		t.Error("chunks without overlap do not reconstruct the input")
	}
	for _, c := range chunks {
		if c == "" {
			t.Error("found empty chunk")
		}
	}
}

func TestChunkCountBound(t *testing.T) {
	for _, n := range []int{1, 399, 400, 401, 800, 2500} {
		chunks := nlp.Chunk(words(n), nlp.DefaultMaxWords, nlp.DefaultOverlap)
		step := nlp.DefaultMaxWords - nlp.DefaultOverlap
		bound := (n + step - 1) / step
		if len(chunks) > bound {
			t.Errorf("%d words: expected at most %d chunks, got %d", n, bound, len(chunks))
		}
		for _, c := range chunks {
			if len(strings.Fields(c)) > nlp.DefaultMaxWords {
				t.Errorf("%d words: chunk exceeds window", n)
			}
		}
	}
}
