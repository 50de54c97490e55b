package embedding

import (
	"context"
	"fmt"
)

// Task types understood by the providers. Gemini uses them to tune the vector;
// Ollama ignores them.
const (
	TaskTypeRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskTypeRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error)
}

type EmbeddingResponseEmbedding struct {
	Values []float32 `json:"values"`
}

type EmbeddingResponse struct {
	Embedding EmbeddingResponseEmbedding `json:"embedding"`
}

// Embed calls the provider and rejects responses that are not exactly dims long,
// so callers only ever see a usable vector or an error.
func Embed(ctx context.Context, p EmbeddingProvider, text, taskType string, dims int) ([]float32, error) {
	if p == nil {
		return nil, fmt.Errorf("embedding provider not configured")
	}
	res, err := p.Generate(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("empty embedding response")
	}
	if got := len(res.Embedding.Values); got != dims {
		return nil, fmt.Errorf("embedding has %d dimensions, want %d", got, dims)
	}
	return res.Embedding.Values, nil
}
