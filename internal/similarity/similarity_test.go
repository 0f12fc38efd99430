package similarity_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/alan-mat/atscore/internal/api"
	"github.com/alan-mat/atscore/internal/similarity"
)

// bagEmbedder maps each text to a vector of counts over a fixed vocabulary.
type bagEmbedder struct {
	vocab []string
	err   error
	seen  []int

	// declared overrides the reported dimensions when set
	declared uint
}

func (b *bagEmbedder) EmbedDocuments(ctx context.Context, docs []*api.EmbedDocumentRequest) ([]*api.DocumentEmbedding, error) {
	if b.err != nil {
		return nil, b.err
	}
	out := make([]*api.DocumentEmbedding, 0, len(docs))
	for _, doc := range docs {
		b.seen = append(b.seen, len(doc.Chunks))
		vals := make([][]float32, 0, len(doc.Chunks))
		for _, c := range doc.Chunks {
			vals = append(vals, b.vector(c))
		}
		out = append(out, &api.DocumentEmbedding{Title: doc.Title, Chunks: doc.Chunks, Values: vals})
	}
	return out, nil
}

func (b *bagEmbedder) vector(text string) []float32 {
	v := make([]float32, len(b.vocab))
	for _, w := range strings.Fields(text) {
		for i, term := range b.vocab {
			if w == term {
				v[i]++
			}
		}
	}
	return v
}

func (b *bagEmbedder) GetDimensions() uint {
	if b.declared > 0 {
		return b.declared
	}
	return uint(len(b.vocab))
}

var vocab = []string{"go", "kubernetes", "python", "sales", "marketing"}

func TestScoreIdenticalText(t *testing.T) {
	s := similarity.NewScorer(&bagEmbedder{vocab: vocab})

	got, err := s.Score(context.Background(), "go kubernetes", "go kubernetes")
	if err != nil {
		t.Fatalf("expected nil error, got '%v'", err)
	}
	if got != 100 {
		t.Errorf("expected 100, got '%v'", got)
	}
}

func TestScoreEmptyCandidate(t *testing.T) {
	emb := &bagEmbedder{vocab: vocab}
	got, err := similarity.NewScorer(emb).Score(context.Background(), "", "go")
	if err != nil || got != 0 {
		t.Errorf("expected 0 and nil error, got '%v', '%v'", got, err)
	}
	if len(emb.seen) != 0 {
		t.Error("embedder invoked for empty candidate")
	}
}

func TestScoreTakesBestChunk(t *testing.T) {
	s := similarity.NewScorer(&bagEmbedder{vocab: vocab}, similarity.WithChunking(2, 0))

	forward, err := s.Score(context.Background(), "sales marketing go kubernetes python sales", "go kubernetes")
	if err != nil {
		t.Fatalf("expected nil error, got '%v'", err)
	}
	reversed, err := s.Score(context.Background(), "python sales go kubernetes sales marketing", "go kubernetes")
	if err != nil {
		t.Fatalf("expected nil error, got '%v'", err)
	}

	if forward != 100 || reversed != forward {
		t.Errorf("expected order independent max of 100, got '%v' and '%v'", forward, reversed)
	}
}

func TestScoreEmptyTarget(t *testing.T) {
	emb := &bagEmbedder{vocab: vocab}
	for _, target := range []string{"", "   "} {
		got, err := similarity.NewScorer(emb).Score(context.Background(), "go kubernetes", target)
		if err != nil || got != 0 {
			t.Errorf("expected 0 and nil error for target '%q', got '%v', '%v'", target, got, err)
		}
	}
	if len(emb.seen) != 0 {
		t.Error("embedder invoked for empty target")
	}
}

func TestScoreChunkOrderInvariant(t *testing.T) {
	s := similarity.NewScorer(&bagEmbedder{vocab: vocab}, similarity.WithChunking(2, 0))
	target := "go kubernetes"

	// no chunk matches the target fully, so the maximum is a partial match
	orders := []string{
		"go python sales marketing kubernetes sales",
		"sales marketing go python kubernetes sales",
		"kubernetes sales sales marketing go python",
	}

	var first float64
	for i, candidate := range orders {
		got, err := s.Score(context.Background(), candidate, target)
		if err != nil {
			t.Fatalf("expected nil error, got '%v'", err)
		}
		if i == 0 {
			first = got
			continue
		}
		if got != first {
			t.Errorf("score depends on chunk order, got '%v' and '%v'", first, got)
		}
	}
	if first != 50 {
		t.Errorf("expected best partial match 50, got '%v'", first)
	}
}

func TestCosineMatcherOrderInvariant(t *testing.T) {
	chunks := [][]float32{{1, 0, 0}, {0.6, 0.8, 0}, {0, 0, 1}, {-1, 0, 0}}
	target := []float32{0, 1, 0}

	expected, err := similarity.CosineMatcher{}.Best(context.Background(), chunks, target)
	if err != nil {
		t.Fatalf("expected nil error, got '%v'", err)
	}

	reversed := make([][]float32, len(chunks))
	for i, c := range chunks {
		reversed[len(chunks)-1-i] = c
	}
	rotated := append(append([][]float32{}, chunks[2:]...), chunks[:2]...)

	for _, perm := range [][][]float32{reversed, rotated} {
		got, err := similarity.CosineMatcher{}.Best(context.Background(), perm, target)
		if err != nil {
			t.Fatalf("expected nil error, got '%v'", err)
		}
		if got != expected {
			t.Errorf("expected '%v' for permuted chunks, got '%v'", expected, got)
		}
	}
}

func TestScoreDisjoint(t *testing.T) {
	s := similarity.NewScorer(&bagEmbedder{vocab: vocab})
	got, err := s.Score(context.Background(), "sales marketing", "go kubernetes")
	if err != nil {
		t.Fatalf("expected nil error, got '%v'", err)
	}
	if got != 0 {
		t.Errorf("expected 0 for disjoint vocabulary, got '%v'", got)
	}
}

func TestScoreMaxChunks(t *testing.T) {
	emb := &bagEmbedder{vocab: vocab}
	s := similarity.NewScorer(emb, similarity.WithChunking(1, 0), similarity.WithMaxChunks(2))

	if _, err := s.Score(context.Background(), "sales python go", "go"); err != nil {
		t.Fatalf("expected nil error, got '%v'", err)
	}
	if emb.seen[1] != 2 {
		t.Errorf("expected 2 embedded chunks, got %d", emb.seen[1])
	}
}

func TestScoreEmbeddingError(t *testing.T) {
	s := similarity.NewScorer(&bagEmbedder{err: errors.New("model unavailable")})
	_, err := s.Score(context.Background(), "go", "go")
	if !errors.Is(err, similarity.ErrEmbedding) {
		t.Errorf("expected ErrEmbedding, got '%v'", err)
	}
}

func TestScoreDimensionMismatch(t *testing.T) {
	s := similarity.NewScorer(&bagEmbedder{vocab: vocab, declared: 1024})
	_, err := s.Score(context.Background(), "go", "go")
	if !errors.Is(err, similarity.ErrEmbedding) || !errors.Is(err, similarity.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got '%v'", err)
	}
}

func TestCosineMatcherNegative(t *testing.T) {
	best, err := similarity.CosineMatcher{}.Best(context.Background(),
		[][]float32{{-1, 0}, {-1, -1}}, []float32{1, 0})
	if err != nil {
		t.Fatalf("expected nil error, got '%v'", err)
	}
	expected := -1 / math.Sqrt2
	if math.Abs(best-expected) > 1e-9 {
		t.Errorf("expected negative similarity '%v' to be kept, got '%v'", expected, best)
	}
	if got := similarity.Round(best*100, 2); got != -70.71 {
		t.Errorf("expected -70.71, got '%v'", got)
	}
}

func TestCosineDimensionMismatch(t *testing.T) {
	if _, err := similarity.Cosine([]float32{1}, []float32{1, 2}); !errors.Is(err, similarity.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got '%v'", err)
	}
}
