package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alan-mat/atscore/internal/api"
	"github.com/alan-mat/atscore/internal/provider/cohere"
	"github.com/alan-mat/atscore/internal/provider/gemini"
	"github.com/alan-mat/atscore/internal/provider/jina"
	"github.com/alan-mat/atscore/internal/provider/mistral"
	"github.com/alan-mat/atscore/internal/provider/ollama"
	"github.com/alan-mat/atscore/internal/provider/openai"
)

var (
	ErrInvalidEmbedderType  = errors.New("no embeddings provider found for given type")
	ErrInvalidDocParserType = errors.New("no document parser found for given type")
)

const (
	EmbedderTypeOllama EmbedderType = iota
	EmbedderTypeOpenAI
	EmbedderTypeGemini
	EmbedderTypeCohere
	EmbedderTypeJina
)

const (
	DocParserTypeMistral DocParserType = iota
)

var embedderTypeMap = map[string]EmbedderType{
	"ollama": EmbedderTypeOllama,
	"openai": EmbedderTypeOpenAI,
	"gemini": EmbedderTypeGemini,
	"cohere": EmbedderTypeCohere,
	"jina":   EmbedderTypeJina,
}

var docParserTypeMap = map[string]DocParserType{
	"mistral": DocParserTypeMistral,
}

type EmbedderType int
type DocParserType int

// Embedder turns chunked documents into vectors. Every document of one call
// is embedded with the same model, so vectors are directly comparable.
type Embedder interface {
	EmbedDocuments(ctx context.Context, docs []*api.EmbedDocumentRequest) ([]*api.DocumentEmbedding, error)
	GetDimensions() uint
}

type DocParser interface {
	Parse(ctx context.Context, base64file string) (*api.DocumentContent, error)
}

type EmbedderConfig struct {
	Type       string
	Model      string
	Endpoint   string
	Dimensions int
}

func ParseEmbedderType(s string) (EmbedderType, error) {
	t, ok := embedderTypeMap[strings.ToLower(s)]
	if !ok {
		return 0, fmt.Errorf("%w: '%s'", ErrInvalidEmbedderType, s)
	}
	return t, nil
}

func ParseDocParserType(s string) (DocParserType, error) {
	t, ok := docParserTypeMap[strings.ToLower(s)]
	if !ok {
		return 0, fmt.Errorf("%w: '%s'", ErrInvalidDocParserType, s)
	}
	return t, nil
}

func NewEmbedder(ctx context.Context, cfg EmbedderConfig) (Embedder, error) {
	t, err := ParseEmbedderType(cfg.Type)
	if err != nil {
		return nil, err
	}

	switch t {
	case EmbedderTypeOllama:
		return ollama.New(cfg.Endpoint, cfg.Model), nil
	case EmbedderTypeOpenAI:
		return openai.New(cfg.Model, cfg.Dimensions), nil
	case EmbedderTypeGemini:
		return gemini.New(ctx, cfg.Model, cfg.Dimensions)
	case EmbedderTypeCohere:
		return cohere.New(cfg.Model), nil
	case EmbedderTypeJina:
		return jina.New(cfg.Endpoint, cfg.Model), nil
	default:
		return nil, ErrInvalidEmbedderType
	}
}

func NewDocParser(typ string, endpoint string) (DocParser, error) {
	t, err := ParseDocParserType(typ)
	if err != nil {
		return nil, err
	}

	switch t {
	case DocParserTypeMistral:
		return mistral.New(endpoint), nil
	default:
		return nil, ErrInvalidDocParserType
	}
}

// ModelName reports the model behind e, or "unknown" when the embedder
// does not expose one.
func ModelName(e Embedder) string {
	if n, ok := e.(interface{ ModelName() string }); ok {
		return n.ModelName()
	}
	return "unknown"
}
