package provider_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alan-mat/atscore/internal/api"
	"github.com/alan-mat/atscore/internal/provider"
)

type fakeEmbedder struct {
	calls    atomic.Int32
	texts    [][]string
	mu       sync.Mutex
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	delay    time.Duration
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, docs []*api.EmbedDocumentRequest) ([]*api.DocumentEmbedding, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	if n > f.maxSeen.Load() {
		f.maxSeen.Store(n)
	}
	time.Sleep(f.delay)

	out := make([]*api.DocumentEmbedding, 0, len(docs))
	for _, doc := range docs {
		f.mu.Lock()
		f.texts = append(f.texts, doc.Chunks)
		f.mu.Unlock()

		vals := make([][]float32, 0, len(doc.Chunks))
		for _, c := range doc.Chunks {
			vals = append(vals, []float32{float32(len(c)), 1})
		}
		out = append(out, &api.DocumentEmbedding{Title: doc.Title, Chunks: doc.Chunks, Values: vals})
	}
	return out, nil
}

func (f *fakeEmbedder) GetDimensions() uint { return 2 }

func (f *fakeEmbedder) ModelName() string { return "fake" }

type memoryCache struct {
	entries map[string][]float32
	fail    bool
}

func (m *memoryCache) Get(ctx context.Context, keys []string) ([][]float32, error) {
	if m.fail {
		return nil, errors.New("cache down")
	}
	out := make([][]float32, len(keys))
	for i, k := range keys {
		out[i] = m.entries[k]
	}
	return out, nil
}

func (m *memoryCache) Set(ctx context.Context, keys []string, values [][]float32) error {
	if m.fail {
		return errors.New("cache down")
	}
	for i, k := range keys {
		m.entries[k] = values[i]
	}
	return nil
}

func TestParseEmbedderType(t *testing.T) {
	tests := []struct {
		in       string
		expected provider.EmbedderType
		err      error
	}{
		{"ollama", provider.EmbedderTypeOllama, nil},
		{"OpenAI", provider.EmbedderTypeOpenAI, nil},
		{"gemini", provider.EmbedderTypeGemini, nil},
		{"cohere", provider.EmbedderTypeCohere, nil},
		{"jina", provider.EmbedderTypeJina, nil},
		{"sbert", 0, provider.ErrInvalidEmbedderType},
	}

	for _, tt := range tests {
		got, err := provider.ParseEmbedderType(tt.in)
		if !errors.Is(err, tt.err) {
			t.Errorf("invalid error for '%s', expected '%v', got '%v'", tt.in, tt.err, err)
			continue
		}
		if err == nil && got != tt.expected {
			t.Errorf("invalid type for '%s', expected '%d', got '%d'", tt.in, tt.expected, got)
		}
	}
}

func TestNewEmbedderInvalid(t *testing.T) {
	_, err := provider.NewEmbedder(context.Background(), provider.EmbedderConfig{Type: "word2vec"})
	if !errors.Is(err, provider.ErrInvalidEmbedderType) {
		t.Errorf("expected ErrInvalidEmbedderType, got '%v'", err)
	}
}

func TestSerialEmbedder(t *testing.T) {
	inner := &fakeEmbedder{delay: 5 * time.Millisecond}
	e := provider.NewSerialEmbedder(inner)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.EmbedDocuments(context.Background(), []*api.EmbedDocumentRequest{{Chunks: []string{"x"}}})
			if err != nil {
				t.Errorf("expected nil error, got '%v'", err)
			}
		}()
	}
	wg.Wait()

	if got := inner.maxSeen.Load(); got != 1 {
		t.Errorf("expected one inference at a time, saw %d concurrent calls", got)
	}
	if got := provider.ModelName(e); got != "fake" {
		t.Errorf("expected model name 'fake', got '%s'", got)
	}
}

func TestCachedEmbedder(t *testing.T) {
	inner := &fakeEmbedder{}
	cache := &memoryCache{entries: map[string][]float32{}}
	e := provider.NewCachedEmbedder(inner, cache)

	docs := []*api.EmbedDocumentRequest{
		{Title: "target", Chunks: []string{"go developer"}},
		{Title: "candidate", Chunks: []string{"python", "go developer"}},
	}

	first, err := e.EmbedDocuments(context.Background(), docs)
	if err != nil {
		t.Fatalf("expected nil error, got '%v'", err)
	}

	// "go developer" appears twice but is embedded with the rest of the misses
	if !reflect.DeepEqual(inner.texts, [][]string{{"go developer", "python", "go developer"}}) {
		t.Errorf("invalid texts sent to embedder, got '%v'", inner.texts)
	}

	second, err := e.EmbedDocuments(context.Background(), docs)
	if err != nil {
		t.Fatalf("expected nil error, got '%v'", err)
	}
	if inner.calls.Load() != 1 {
		t.Errorf("expected cached vectors on second call, embedder called %d times", inner.calls.Load())
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("cached result differs, expected '%v', got '%v'", first, second)
	}

	if first[1].Title != "candidate" || len(first[1].Values) != 2 || first[1].Values[0][0] != 6 {
		t.Errorf("invalid candidate embedding, got '%+v'", first[1])
	}
}

func TestCachedEmbedderCacheFailure(t *testing.T) {
	inner := &fakeEmbedder{}
	e := provider.NewCachedEmbedder(inner, &memoryCache{fail: true})

	res, err := e.EmbedDocuments(context.Background(), []*api.EmbedDocumentRequest{{Chunks: []string{"a", "bb"}}})
	if err != nil {
		t.Fatalf("expected cache failure to be ignored, got '%v'", err)
	}
	if len(res[0].Values) != 2 || res[0].Values[1][0] != 2 {
		t.Errorf("invalid embedding, got '%v'", res[0].Values)
	}
}

func TestVectorEncoding(t *testing.T) {
	v := []float32{0.25, -1.5, 3}
	got, err := provider.DecodeVector(provider.EncodeVector(v))
	if err != nil {
		t.Fatalf("expected nil error, got '%v'", err)
	}
	if !reflect.DeepEqual(got, v) {
		t.Errorf("expected '%v', got '%v'", v, got)
	}

	if _, err := provider.DecodeVector([]byte{1, 2, 3}); !errors.Is(err, provider.ErrCorruptCacheEntry) {
		t.Errorf("expected ErrCorruptCacheEntry, got '%v'", err)
	}
}
