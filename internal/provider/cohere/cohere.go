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

package cohere

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/alan-mat/atscore/internal/api"
	coherego "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultModel  = "embed-english-v3.0"
	EmbedMaxTexts = 96

	maxConcurrentRequests = 4
)

type CohereProvider struct {
	client *cohereclient.Client
	model  string
}

func New(model string) *CohereProvider {
	if model == "" {
		model = DefaultModel
	}

	c := cohereclient.NewClient(
		cohereclient.WithToken(os.Getenv("COHERE_API_KEY")),
		cohereclient.WithHTTPClient(
			&http.Client{
				Timeout: 60 * time.Second,
			},
		),
	)
	return &CohereProvider{
		client: c,
		model:  model,
	}
}

func (p CohereProvider) EmbedDocuments(ctx context.Context, docs []*api.EmbedDocumentRequest) ([]*api.DocumentEmbedding, error) {
	docEmbeddings := make([]*api.DocumentEmbedding, 0, len(docs))

	for _, doc := range docs {
		batches := api.SplitBatches(doc.Chunks, EmbedMaxTexts)
		results := make([][][]float32, len(batches))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(maxConcurrentRequests)
		for i, batch := range batches {
			g.Go(func() error {
				vectors, err := p.embed(gctx, batch)
				if err != nil {
					return err
				}
				results[i] = vectors
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("failed to create embeddings for document '%s': %w", doc.Title, err)
		}

		values := make([][]float32, 0, len(doc.Chunks))
		for _, vectors := range results {
			values = append(values, vectors...)
		}

		docEmbeddings = append(docEmbeddings, &api.DocumentEmbedding{
			Title:  doc.Title,
			Chunks: doc.Chunks,
			Values: values,
		})
	}

	return docEmbeddings, nil
}

func (p CohereProvider) embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := p.client.V2.Embed(ctx, &coherego.V2EmbedRequest{
		Texts:          texts,
		Model:          p.model,
		InputType:      coherego.EmbedInputTypeClustering,
		EmbeddingTypes: []coherego.EmbeddingType{coherego.EmbeddingTypeFloat},
	})
	if err != nil {
		return nil, fmt.Errorf("embed request failed: %w", err)
	}

	if resp.Embeddings == nil || len(resp.Embeddings.Float) != len(texts) {
		return nil, fmt.Errorf("embed request failed: expected %d embeddings", len(texts))
	}

	vectors := make([][]float32, 0, len(resp.Embeddings.Float))
	for _, cohereVector := range resp.Embeddings.Float {
		vector := make([]float32, 0, len(cohereVector))
		for _, f64 := range cohereVector {
			vector = append(vector, float32(f64))
		}
		vectors = append(vectors, vector)
	}
	return vectors, nil
}

var knownDimensions = map[string]uint{
	"embed-english-v3.0":            1024,
	"embed-multilingual-v3.0":       1024,
	"embed-english-light-v3.0":      384,
	"embed-multilingual-light-v3.0": 384,
	"embed-v4.0":                    1536,
}

// GetDimensions returns 0 for models it has no record of.
func (p CohereProvider) GetDimensions() uint {
	return knownDimensions[p.model]
}

func (p CohereProvider) ModelName() string {
	return p.model
}
