package ollama_test

import (
	"context"
	"encoding/json"
	gohttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/alan-mat/atscore/internal/api"
	"github.com/alan-mat/atscore/internal/provider/ollama"
)

func TestEmbedDocuments(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("invalid path, expected '/api/embed', got '%s'", r.URL.Path)
		}

		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Model != "all-minilm" {
			t.Errorf("invalid model, expected 'all-minilm', got '%s'", req.Model)
		}

		embeddings := make([][]float32, 0, len(req.Input))
		for i := range req.Input {
			embeddings = append(embeddings, []float32{float32(i), 1})
		}
		json.NewEncoder(w).Encode(map[string]any{"model": req.Model, "embeddings": embeddings})
	}))
	defer srv.Close()

	p := ollama.New(srv.URL, "")
	res, err := p.EmbedDocuments(context.Background(), []*api.EmbedDocumentRequest{
		{Title: "target", Chunks: []string{"golang developer"}},
		{Title: "candidate", Chunks: []string{"go", "python", "sql"}},
	})
	if err != nil {
		t.Fatalf("expected nil error, got '%v'", err)
	}

	if len(res) != 2 {
		t.Fatalf("expected 2 document embeddings, got '%d'", len(res))
	}
	if len(res[1].Values) != 3 || res[1].Values[2][0] != 2 {
		t.Errorf("invalid candidate embeddings, got '%v'", res[1].Values)
	}
	if p.GetDimensions() != 384 {
		t.Errorf("expected 384 dimensions for default model, got '%d'", p.GetDimensions())
	}
}

func TestEmbedDocumentsCountMismatch(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		w.Write([]byte(`{"embeddings": [[0.1, 0.2]]}`))
	}))
	defer srv.Close()

	p := ollama.New(srv.URL, "nomic-embed-text")
	_, err := p.EmbedDocuments(context.Background(), []*api.EmbedDocumentRequest{
		{Title: "candidate", Chunks: []string{"a", "b"}},
	})
	if err == nil {
		t.Error("expected error for mismatched embedding count, got nil")
	}
}
