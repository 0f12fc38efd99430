package openai

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/alan-mat/atscore/internal/api"
	"github.com/sashabaranov/go-openai"
)

const (
	DefaultModel       = "text-embedding-3-small"
	embedMaxDocsLength = 2048
)

type OpenAIProvider struct {
	client     *openai.Client
	model      string
	vectorDims int
}

func New(model string, dims int) *OpenAIProvider {
	if model == "" {
		model = DefaultModel
	}
	if dims <= 0 {
		dims = 1024
	}

	c := openai.NewClient(os.Getenv("OPENAI_API_KEY"))
	return &OpenAIProvider{
		client:     c,
		model:      model,
		vectorDims: dims,
	}
}

func (p OpenAIProvider) EmbedDocuments(ctx context.Context, docs []*api.EmbedDocumentRequest) ([]*api.DocumentEmbedding, error) {
	docEmbeddings := make([]*api.DocumentEmbedding, 0, len(docs))

	for _, doc := range docs {
		vals := make([][]float32, 0, len(doc.Chunks))

		for _, batch := range api.SplitBatches(doc.Chunks, embedMaxDocsLength) {
			openaiReq := &openai.EmbeddingRequestStrings{
				Input:          batch,
				Model:          openai.EmbeddingModel(p.model),
				EncodingFormat: openai.EmbeddingEncodingFormatFloat,
				Dimensions:     p.vectorDims,
			}

			res, err := p.client.CreateEmbeddings(ctx, openaiReq)
			if err != nil {
				return nil, fmt.Errorf("failed to create embeddings for document '%s': %w", doc.Title, err)
			}

			if len(res.Data) != len(batch) {
				return nil, fmt.Errorf("failed to create embeddings for document '%s': expected %d embeddings, received %d",
					doc.Title, len(batch), len(res.Data))
			}

			data := res.Data
			sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })
			for _, e := range data {
				vals = append(vals, e.Embedding)
			}
		}

		docEmbeddings = append(docEmbeddings, &api.DocumentEmbedding{
			Title:  doc.Title,
			Chunks: doc.Chunks,
			Values: vals,
		})
	}

	return docEmbeddings, nil
}

func (p OpenAIProvider) GetDimensions() uint {
	return uint(p.vectorDims)
}

func (p OpenAIProvider) ModelName() string {
	return p.model
}
