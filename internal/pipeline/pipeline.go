package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alan-mat/atscore/internal/api"
	"github.com/alan-mat/atscore/internal/extract"
	"golang.org/x/sync/errgroup"
)

var ErrExtraction = errors.New("text extraction failed")

type Scorer interface {
	Score(ctx context.Context, candidate, target string) (float64, error)
}

type GapFinder interface {
	Gap(ctx context.Context, candidate, target string) ([]string, error)
}

type Normalizer interface {
	Normalize(text string) string
}

// Pipeline scores a document against a job description and reports the
// description's keyphrases the document lacks.
type Pipeline struct {
	extractor  extract.Extractor
	normalizer Normalizer
	scorer     Scorer
	gap        GapFinder
}

func New(e extract.Extractor, n Normalizer, s Scorer, g GapFinder) *Pipeline {
	return &Pipeline{
		extractor:  e,
		normalizer: n,
		scorer:     s,
		gap:        g,
	}
}

// Run returns a zero result when the document has no extractable text.
// Extraction failures that are not about the document itself, such as a
// failed OCR call or a cancelled context, are returned as errors.
// Scoring and keyword extraction run concurrently; if either fails, no
// partial result is returned.
func (p *Pipeline) Run(ctx context.Context, path, description string) (api.ScoreResult, error) {
	start := time.Now()

	doc := p.extractor.Extract(ctx, path)
	if !doc.Ok() {
		if !doc.Empty() {
			return api.ScoreResult{}, fmt.Errorf("%w: %w", ErrExtraction, doc.Err)
		}
		slog.Info("no text extracted, skipping analysis", "path", path, "err", doc.Err)
		return api.EmptyScoreResult(), nil
	}

	var (
		score   float64
		missing []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		score, err = p.scorer.Score(gctx, p.normalizer.Normalize(doc.Text), p.normalizer.Normalize(description))
		return err
	})
	g.Go(func() error {
		var err error
		missing, err = p.gap.Gap(gctx, doc.Text, description)
		return err
	})

	if err := g.Wait(); err != nil {
		return api.ScoreResult{}, err
	}

	if missing == nil {
		missing = []string{}
	}

	slog.Info("analysis complete",
		"path", path,
		"pages", doc.Pages,
		"score", score,
		"missing", len(missing),
		"took", time.Since(start),
	)
	return api.ScoreResult{Score: score, MissingKeywords: missing}, nil
}
