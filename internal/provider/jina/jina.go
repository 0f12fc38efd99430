package jina

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/alan-mat/atscore/internal/api"
	"github.com/alan-mat/atscore/internal/http"
	"golang.org/x/sync/errgroup"
)

const (
	Endpoint            = "https://api.jina.ai"
	DefaultModel        = "jina-embeddings-v3"
	EmbedItemsMaxLength = 2048
)

type embeddingResponse struct {
	Model     string `json:"model"`
	UsageInfo struct {
		TotalTokens  int `json:"total_tokens"`
		PromptTokens int `json:"prompt_tokens"`
	} `json:"usage"`
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

type JinaAIProvider struct {
	client     http.Client
	model      string
	vectorDims uint
}

func New(endpoint string, model string) *JinaAIProvider {
	if endpoint == "" {
		endpoint = Endpoint
	}
	if model == "" {
		model = DefaultModel
	}

	c := http.NewClient(
		endpoint,
		http.WithMaxRetries(3),
		http.WithApiKey(os.Getenv("JINA_API_KEY")),
	)
	p := &JinaAIProvider{
		client:     c,
		model:      model,
		vectorDims: 1024,
	}
	return p
}

func (p JinaAIProvider) EmbedDocuments(ctx context.Context, docs []*api.EmbedDocumentRequest) ([]*api.DocumentEmbedding, error) {
	results := make([]*api.DocumentEmbedding, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	for i, doc := range docs {
		g.Go(func() error {
			values, err := p.embedChunks(gctx, doc.Chunks)
			if err != nil {
				return fmt.Errorf("failed to create embeddings for document '%s': %w", doc.Title, err)
			}

			results[i] = &api.DocumentEmbedding{
				Title:  doc.Title,
				Chunks: doc.Chunks,
				Values: values,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p JinaAIProvider) embedChunks(ctx context.Context, chunks []string) ([][]float32, error) {
	values := make([][]float32, 0, len(chunks))

	for _, batch := range api.SplitBatches(chunks, EmbedItemsMaxLength) {
		requestData := map[string]any{
			"model":      p.model,
			"task":       "text-matching",
			"dimensions": p.vectorDims,
			"input":      batch,
		}

		var resp embeddingResponse
		if err := p.client.Request(ctx, http.MethodPost, "/v1/embeddings", requestData, &resp); err != nil {
			return nil, err
		}

		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("expected %d embeddings, received %d", len(batch), len(resp.Data))
		}

		sort.SliceStable(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })
		for _, d := range resp.Data {
			values = append(values, d.Embedding)
		}
	}

	return values, nil
}

func (p JinaAIProvider) GetDimensions() uint {
	return p.vectorDims
}

func (p JinaAIProvider) ModelName() string {
	return p.model
}
