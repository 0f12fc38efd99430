package gemini

import (
	"context"
	"fmt"
	"os"

	"github.com/alan-mat/atscore/internal/api"
	"google.golang.org/genai"
)

const (
	DefaultModel = "gemini-embedding-exp-03-07"

	// both sides of a comparison are embedded with the same task type
	taskType = "SEMANTIC_SIMILARITY"

	embedMaxContents = 100
)

type GeminiProvider struct {
	client     *genai.Client
	model      string
	vectorDims *int32
}

func New(ctx context.Context, model string, dims int) (*GeminiProvider, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  os.Getenv("GEMINI_API_KEY"),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	if model == "" {
		model = DefaultModel
	}
	if dims <= 0 {
		dims = 1536
	}

	p := &GeminiProvider{
		client:     c,
		model:      model,
		vectorDims: new(int32),
	}
	*(p.vectorDims) = int32(dims)
	return p, nil
}

func (p GeminiProvider) EmbedDocuments(ctx context.Context, docs []*api.EmbedDocumentRequest) ([]*api.DocumentEmbedding, error) {
	embeddings := make([]*api.DocumentEmbedding, 0, len(docs))

	for _, doc := range docs {
		values := make([][]float32, 0, len(doc.Chunks))

		for _, batch := range api.SplitBatches(doc.Chunks, embedMaxContents) {
			contents := make([]*genai.Content, 0, len(batch))
			for _, chunk := range batch {
				contents = append(contents, genai.NewContentFromText(chunk, genai.RoleUser))
			}

			config := &genai.EmbedContentConfig{
				TaskType:             taskType,
				OutputDimensionality: p.vectorDims,
			}

			res, err := p.client.Models.EmbedContent(ctx, p.model, contents, config)
			if err != nil {
				return nil, fmt.Errorf("failed to create embeddings for document '%s': %w", doc.Title, err)
			}

			if len(res.Embeddings) != len(batch) {
				return nil, fmt.Errorf("failed to create embeddings for document '%s': expected %d embeddings, received %d",
					doc.Title, len(batch), len(res.Embeddings))
			}

			for _, rEmbedding := range res.Embeddings {
				values = append(values, rEmbedding.Values)
			}
		}

		embeddings = append(embeddings, &api.DocumentEmbedding{
			Title:  doc.Title,
			Values: values,
			Chunks: doc.Chunks,
		})
	}

	return embeddings, nil
}

func (p GeminiProvider) GetDimensions() uint {
	return uint(*p.vectorDims)
}

func (p GeminiProvider) ModelName() string {
	return p.model
}
