package factory

import (
	"context"
	"fmt"

	"growny-ai-be/pkg/llm"
	"growny-ai-be/pkg/llm/gemini"
	"growny-ai-be/pkg/llm/ollama"
)

func NewLLMProvider(ctx context.Context, providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "gemini", "":
		if modelName == "" {
			modelName = "gemini-2.0-flash"
		}
		provider, err := gemini.NewGeminiProvider(ctx, apiKey, modelName)
		if err != nil {
			return nil, err
		}
		return provider, nil
	case "ollama":
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
