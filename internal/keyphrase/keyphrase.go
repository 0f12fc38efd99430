package keyphrase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/alan-mat/atscore/internal/api"
	"github.com/alan-mat/atscore/internal/nlp"
	"github.com/alan-mat/atscore/internal/provider"
	"github.com/alan-mat/atscore/internal/similarity"
)

const (
	DefaultCandidateTopN = 50
	DefaultTargetTopN    = 20
	DefaultNgramMin      = 1
	DefaultNgramMax      = 2
)

var ErrInvalidNgramRange = errors.New("invalid n-gram range")

// a run of at least two word characters
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

type Option func(*Extractor)

func WithNgramRange(lo, hi int) Option {
	return func(e *Extractor) {
		e.ngramMin = lo
		e.ngramMax = hi
	}
}

func WithTopN(candidate, target int) Option {
	return func(e *Extractor) {
		e.candidateTopN = candidate
		e.targetTopN = target
	}
}

// Extractor ranks the n-grams of a text by embedding similarity to the
// whole text.
type Extractor struct {
	embedder      provider.Embedder
	stopWords     nlp.StopWords
	ngramMin      int
	ngramMax      int
	candidateTopN int
	targetTopN    int
}

func NewExtractor(e provider.Embedder, sw nlp.StopWords, opts ...Option) (*Extractor, error) {
	ex := &Extractor{
		embedder:      e,
		stopWords:     sw,
		ngramMin:      DefaultNgramMin,
		ngramMax:      DefaultNgramMax,
		candidateTopN: DefaultCandidateTopN,
		targetTopN:    DefaultTargetTopN,
	}
	for _, opt := range opts {
		opt(ex)
	}

	if ex.ngramMin < 1 || ex.ngramMax < ex.ngramMin {
		return nil, fmt.Errorf("%w: %d..%d", ErrInvalidNgramRange, ex.ngramMin, ex.ngramMax)
	}
	if ex.stopWords == nil {
		ex.stopWords = nlp.StopWords{}
	}
	return ex, nil
}

// Candidates returns the distinct n-grams of text in order of first
// occurrence. Stop-words are removed before n-grams are formed.
func (e *Extractor) Candidates(text string) []string {
	tokens := make([]string, 0)
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		if !e.stopWords.Contains(tok) {
			tokens = append(tokens, tok)
		}
	}

	seen := make(map[string]struct{})
	candidates := make([]string, 0, len(tokens))
	for i := range tokens {
		for n := e.ngramMin; n <= e.ngramMax && i+n <= len(tokens); n++ {
			phrase := strings.Join(tokens[i:i+n], " ")
			if _, ok := seen[phrase]; ok {
				continue
			}
			seen[phrase] = struct{}{}
			candidates = append(candidates, phrase)
		}
	}
	return candidates
}

// Extract returns at most topN keyphrases of text, most relevant first.
func (e *Extractor) Extract(ctx context.Context, text string, topN int) ([]api.Keyphrase, error) {
	candidates := e.Candidates(text)
	if len(candidates) == 0 || topN <= 0 {
		return []api.Keyphrase{}, nil
	}

	res, err := e.embedder.EmbedDocuments(ctx, []*api.EmbedDocumentRequest{
		{Title: "document", Chunks: []string{text}},
		{Title: "candidates", Chunks: candidates},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to embed keyphrase candidates: %w", err)
	}
	if len(res) != 2 || len(res[0].Values) != 1 || len(res[1].Values) != len(candidates) {
		return nil, errors.New("failed to embed keyphrase candidates: unexpected result shape")
	}

	type ranked struct {
		phrase string
		score  float64
	}

	doc := res[0].Values[0]
	scored := make([]ranked, 0, len(candidates))
	for i, c := range candidates {
		score, err := similarity.Cosine(res[1].Values[i], doc)
		if err != nil {
			return nil, err
		}
		scored = append(scored, ranked{phrase: c, score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	if len(scored) > topN {
		scored = scored[:topN]
	}

	phrases := make([]api.Keyphrase, 0, len(scored))
	for _, r := range scored {
		phrases = append(phrases, api.Keyphrase{Phrase: r.phrase, Score: similarity.Round(r.score, 4)})
	}
	return phrases, nil
}

// Gap returns the top target keyphrases that are absent from the candidate's
// keyphrase pool, in the target's ranking order. Matching is exact after
// lowercasing.
func (e *Extractor) Gap(ctx context.Context, candidate, target string) ([]string, error) {
	if strings.TrimSpace(candidate) == "" || strings.TrimSpace(target) == "" {
		return []string{}, nil
	}

	required, err := e.Extract(ctx, target, e.targetTopN)
	if err != nil {
		return nil, err
	}
	present, err := e.Extract(ctx, candidate, e.candidateTopN)
	if err != nil {
		return nil, err
	}

	have := make(map[string]struct{}, len(present))
	for _, kp := range present {
		have[strings.ToLower(kp.Phrase)] = struct{}{}
	}

	missing := make([]string, 0, len(required))
	for _, kp := range required {
		if _, ok := have[strings.ToLower(kp.Phrase)]; !ok {
			missing = append(missing, kp.Phrase)
		}
	}
	return missing, nil
}
