package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/alan-mat/atscore/internal/api"
	"github.com/alan-mat/atscore/internal/extract"
	"github.com/alan-mat/atscore/internal/keyphrase"
	"github.com/alan-mat/atscore/internal/nlp"
	"github.com/alan-mat/atscore/internal/pipeline"
	"github.com/alan-mat/atscore/internal/similarity"
)

type fixedExtractor struct {
	res   extract.Result
	calls int
}

func (f *fixedExtractor) Extract(ctx context.Context, path string) extract.Result {
	f.calls++
	return f.res
}

// wordEmbedder hashes words into buckets, so identical texts map to
// identical vectors and texts without shared words are orthogonal unless
// their buckets collide.
type wordEmbedder struct {
	calls atomic.Int32
	err   error
}

func (w *wordEmbedder) EmbedDocuments(ctx context.Context, docs []*api.EmbedDocumentRequest) ([]*api.DocumentEmbedding, error) {
	w.calls.Add(1)
	if w.err != nil {
		return nil, w.err
	}
	out := make([]*api.DocumentEmbedding, 0, len(docs))
	for _, doc := range docs {
		vals := make([][]float32, 0, len(doc.Chunks))
		for _, c := range doc.Chunks {
			v := make([]float32, 256)
			for _, word := range strings.Fields(strings.ToLower(c)) {
				h := 0
				for _, r := range word {
					h = (h*131 + int(r)) % 256
				}
				v[h]++
			}
			vals = append(vals, v)
		}
		out = append(out, &api.DocumentEmbedding{Title: doc.Title, Chunks: doc.Chunks, Values: vals})
	}
	return out, nil
}

func (w *wordEmbedder) GetDimensions() uint { return 256 }

func newPipeline(t *testing.T, ex extract.Extractor, emb *wordEmbedder) *pipeline.Pipeline {
	t.Helper()
	sw, err := nlp.LoadStopWords("english")
	if err != nil {
		t.Fatal(err)
	}
	kp, err := keyphrase.NewExtractor(emb, sw)
	if err != nil {
		t.Fatal(err)
	}
	return pipeline.New(ex, nlp.NewNormalizer(sw), similarity.NewScorer(emb), kp)
}

func TestRunNoText(t *testing.T) {
	emb := &wordEmbedder{}
	ex := &fixedExtractor{res: extract.Result{Err: extract.ErrNoText}}

	res, err := newPipeline(t, ex, emb).Run(context.Background(), "empty.pdf", "Go developer")
	if err != nil {
		t.Fatalf("expected nil error, got '%v'", err)
	}
	if res.Score != 0 || res.MissingKeywords == nil || len(res.MissingKeywords) != 0 {
		t.Errorf("expected empty result, got '%+v'", res)
	}
	if n := emb.calls.Load(); n != 0 {
		t.Errorf("expected no embedding calls, got %d", n)
	}
}

func TestRunIdenticalText(t *testing.T) {
	text := "Senior Go engineer. Kubernetes, PostgreSQL, gRPC and distributed systems."
	ex := &fixedExtractor{res: extract.Result{Text: text + "\n", Pages: 1}}

	res, err := newPipeline(t, ex, &wordEmbedder{}).Run(context.Background(), "resume.pdf", text)
	if err != nil {
		t.Fatalf("expected nil error, got '%v'", err)
	}
	if res.Score != 100 {
		t.Errorf("expected score 100, got '%v'", res.Score)
	}
	if len(res.MissingKeywords) != 0 {
		t.Errorf("expected no missing keywords, got '%v'", res.MissingKeywords)
	}
}

func TestRunDisjointText(t *testing.T) {
	emb := &wordEmbedder{}
	ex := &fixedExtractor{res: extract.Result{Text: "watercolor pottery calligraphy\n", Pages: 1}}
	description := "kubernetes postgresql"

	p := newPipeline(t, ex, emb)
	res, err := p.Run(context.Background(), "resume.pdf", description)
	if err != nil {
		t.Fatalf("expected nil error, got '%v'", err)
	}

	sw, _ := nlp.LoadStopWords("english")
	kp, _ := keyphrase.NewExtractor(emb, sw)
	required, err := kp.Extract(context.Background(), description, keyphrase.DefaultTargetTopN)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.MissingKeywords) != len(required) {
		t.Errorf("expected all %d target keyphrases missing, got '%v'", len(required), res.MissingKeywords)
	}
	if res.Score >= 100 {
		t.Errorf("expected disjoint score below identical score, got '%v'", res.Score)
	}
}

func TestRunStageError(t *testing.T) {
	ex := &fixedExtractor{res: extract.Result{Text: "go\n", Pages: 1}}
	emb := &wordEmbedder{err: errors.New("model unavailable")}

	_, err := newPipeline(t, ex, emb).Run(context.Background(), "resume.pdf", "go")
	if err == nil {
		t.Fatal("expected error")
	}
}

type failingParser struct{}

func (failingParser) Parse(ctx context.Context, base64file string) (*api.DocumentContent, error) {
	return nil, errors.New("503 service unavailable")
}

func TestRunExtractionFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.pdf")
	if err := os.WriteFile(path, []byte("%PDF"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		ex   extract.Extractor
		want error
	}{
		{"ocr failure", extract.NewOCRExtractor(failingParser{}), extract.ErrParserFailed},
		{"cancelled", &fixedExtractor{res: extract.Result{Err: context.Canceled}}, context.Canceled},
		{"deadline", &fixedExtractor{res: extract.Result{Err: fmt.Errorf("page 3: %w", context.DeadlineExceeded)}}, context.DeadlineExceeded},
	}

	for _, tt := range tests {
		emb := &wordEmbedder{}
		_, err := newPipeline(t, tt.ex, emb).Run(context.Background(), path, "Go developer")
		if !errors.Is(err, tt.want) || !errors.Is(err, pipeline.ErrExtraction) {
			t.Errorf("%s: expected '%v', got '%v'", tt.name, tt.want, err)
		}
		if n := emb.calls.Load(); n != 0 {
			t.Errorf("%s: expected no embedding calls, got %d", tt.name, n)
		}
	}
}
