// Copyright 2025 Alan Matykiewicz
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to use,
// copy, modify, merge, publish, distribute, sublicense, and/or sell copies of the
// Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES
// OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
// NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT
// HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY,
// WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.

package ollama

import (
	"context"
	"fmt"

	"github.com/alan-mat/atscore/internal/api"
	"github.com/alan-mat/atscore/internal/http"
)

const (
	Endpoint     = "http://localhost:11434"
	DefaultModel = "all-minilm"

	embedMaxInputs = 512
)

// all-minilm is all-MiniLM-L6-v2
var knownDimensions = map[string]uint{
	"all-minilm":        384,
	"nomic-embed-text":  768,
	"mxbai-embed-large": 1024,
	"bge-m3":            1024,
}

type embedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float32 `json:"embeddings"`
}

type OllamaProvider struct {
	client       http.Client
	defaultModel string
}

func New(endpoint string, model string) *OllamaProvider {
	if endpoint == "" {
		endpoint = Endpoint
	}
	if model == "" {
		model = DefaultModel
	}

	c := http.NewClient(
		endpoint,
		http.WithMaxRetries(3),
	)
	p := &OllamaProvider{
		client:       c,
		defaultModel: model,
	}
	return p
}

func (p OllamaProvider) EmbedDocuments(ctx context.Context, docs []*api.EmbedDocumentRequest) ([]*api.DocumentEmbedding, error) {
	embeddings := make([]*api.DocumentEmbedding, 0, len(docs))

	for _, doc := range docs {
		values := make([][]float32, 0, len(doc.Chunks))

		for _, batch := range api.SplitBatches(doc.Chunks, embedMaxInputs) {
			requestData := map[string]any{
				"model": p.defaultModel,
				"input": batch,
			}

			var resp embedResponse
			err := p.client.Request(ctx, http.MethodPost, "/api/embed", requestData, &resp)
			if err != nil {
				return nil, fmt.Errorf("embed request failed for document '%s': %w", doc.Title, err)
			}

			if len(resp.Embeddings) != len(batch) {
				return nil, fmt.Errorf("embed request failed for document '%s': expected %d embeddings, received %d",
					doc.Title, len(batch), len(resp.Embeddings))
			}
			values = append(values, resp.Embeddings...)
		}

		embeddings = append(embeddings, &api.DocumentEmbedding{
			Title:  doc.Title,
			Chunks: doc.Chunks,
			Values: values,
		})
	}

	return embeddings, nil
}

// GetDimensions returns 0 for models it has no record of.
func (p OllamaProvider) GetDimensions() uint {
	return knownDimensions[p.defaultModel]
}

func (p OllamaProvider) ModelName() string {
	return p.defaultModel
}
