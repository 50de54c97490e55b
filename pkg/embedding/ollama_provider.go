package embedding

import (
	"context"
	"math"
	"time"

	"growny-ai-be/pkg/llm/ollama"
)

const (
	ollamaEmbeddingsPath = "/api/embeddings"
	defaultOllamaModel   = "nomic-embed-text"
)

// OllamaProvider embeds through a local Ollama daemon (e.g. nomic-embed-text, 768 dims).
type OllamaProvider struct {
	client *ollama.Client
	Model  string
}

func NewOllamaProvider(baseURL string, model string) *OllamaProvider {
	if model == "" {
		model = defaultOllamaModel
	}
	return &OllamaProvider{
		client: ollama.NewClient(baseURL, 30*time.Second),
		Model:  model,
	}
}

type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Generate ignores taskType; nomic-embed-text has no retrieval modes.
func (p *OllamaProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	var resp ollamaEmbeddingResponse
	err := p.client.PostJSON(ctx, ollamaEmbeddingsPath, ollamaEmbeddingRequest{Model: p.Model, Prompt: text}, &resp)
	if err != nil {
		return nil, err
	}

	values := make([]float32, len(resp.Embedding))
	for i, v := range resp.Embedding {
		values[i] = float32(v)
	}

	// pgvector cosine distance assumes unit-length vectors
	return &EmbeddingResponse{
		Embedding: EmbeddingResponseEmbedding{Values: normalizeVector(values)},
	}, nil
}

func normalizeVector(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}

	norm := math.Sqrt(sum)
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}
