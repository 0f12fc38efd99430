package similarity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/alan-mat/atscore/internal/api"
	"github.com/alan-mat/atscore/internal/nlp"
	"github.com/alan-mat/atscore/internal/provider"
)

var (
	ErrEmbedding         = errors.New("failed to embed texts")
	ErrDimensionMismatch = errors.New("vectors have different dimensions")
)

// Matcher returns the highest cosine similarity between target and any of
// the chunk vectors.
type Matcher interface {
	Best(ctx context.Context, chunks [][]float32, target []float32) (float64, error)
}

type ScorerOption func(*Scorer)

func WithMatcher(m Matcher) ScorerOption {
	return func(s *Scorer) {
		s.matcher = m
	}
}

func WithChunking(maxWords, overlap int) ScorerOption {
	return func(s *Scorer) {
		s.maxWords = maxWords
		s.overlap = overlap
	}
}

// WithMaxChunks bounds the number of chunks embedded per document. Zero
// means unbounded.
func WithMaxChunks(n int) ScorerOption {
	return func(s *Scorer) {
		s.maxChunks = n
	}
}

type Scorer struct {
	embedder  provider.Embedder
	matcher   Matcher
	maxWords  int
	overlap   int
	maxChunks int
}

func NewScorer(e provider.Embedder, opts ...ScorerOption) *Scorer {
	s := &Scorer{
		embedder: e,
		matcher:  CosineMatcher{},
		maxWords: nlp.DefaultMaxWords,
		overlap:  nlp.DefaultOverlap,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score compares normalized candidate text against normalized target text
// and returns the best chunk similarity scaled to 0..100, rounded to two
// decimals. Negative similarities are returned as is. An empty candidate
// or target scores 0 without calling the embedder.
func (s *Scorer) Score(ctx context.Context, candidate, target string) (float64, error) {
	if strings.TrimSpace(target) == "" {
		return 0, nil
	}

	chunks := nlp.Chunk(candidate, s.maxWords, s.overlap)
	if len(chunks) == 0 {
		return 0, nil
	}

	if s.maxChunks > 0 && len(chunks) > s.maxChunks {
		slog.Warn("truncating candidate chunks", "chunks", len(chunks), "max", s.maxChunks)
		chunks = chunks[:s.maxChunks]
	}

	res, err := s.embedder.EmbedDocuments(ctx, []*api.EmbedDocumentRequest{
		{Title: "target", Chunks: []string{target}},
		{Title: "candidate", Chunks: chunks},
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}
	if len(res) != 2 || len(res[0].Values) != 1 || len(res[1].Values) != len(chunks) {
		return 0, fmt.Errorf("%w: unexpected embedding result shape", ErrEmbedding)
	}
	// 0 means the embedder does not know its output size
	if dims := s.embedder.GetDimensions(); dims > 0 && uint(len(res[0].Values[0])) != dims {
		return 0, fmt.Errorf("%w: %w: expected %d, got %d",
			ErrEmbedding, ErrDimensionMismatch, dims, len(res[0].Values[0]))
	}

	best, err := s.matcher.Best(ctx, res[1].Values, res[0].Values[0])
	if err != nil {
		return 0, err
	}

	slog.Debug("scored candidate", "chunks", len(chunks), "best", best)
	return Round(best*100, 2), nil
}

type CosineMatcher struct{}

func (CosineMatcher) Best(ctx context.Context, chunks [][]float32, target []float32) (float64, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	best := math.Inf(-1)
	for _, c := range chunks {
		sim, err := Cosine(c, target)
		if err != nil {
			return 0, err
		}
		best = max(best, sim)
	}
	return best, nil
}

// Cosine returns the cosine similarity of a and b. A zero vector has
// similarity 0 with everything.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d and %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return dot / math.Sqrt(na*nb), nil
}

// Round rounds v half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
