package provider

import (
	"context"
	"sync"

	"github.com/alan-mat/atscore/internal/api"
)

// SerialEmbedder allows a single inference at a time on the wrapped
// embedder. Use it for backends that are not safe for concurrent calls.
type SerialEmbedder struct {
	mu    sync.Mutex
	inner Embedder
}

func NewSerialEmbedder(e Embedder) *SerialEmbedder {
	return &SerialEmbedder{inner: e}
}

func (s *SerialEmbedder) EmbedDocuments(ctx context.Context, docs []*api.EmbedDocumentRequest) ([]*api.DocumentEmbedding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.inner.EmbedDocuments(ctx, docs)
}

func (s *SerialEmbedder) GetDimensions() uint {
	return s.inner.GetDimensions()
}

func (s *SerialEmbedder) ModelName() string {
	return ModelName(s.inner)
}
