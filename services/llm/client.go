package llm

import (
	"context"
	"fmt"
)

type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopK        *int     `json:"top_k"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// LLMClient defines the standard interface for any LLM backend
type LLMClient interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
}

// NewClient builds the backend named by backendType. Model may be empty; the
// backend then falls back to its own default.
func NewClient(backendType, baseURL, model string) (LLMClient, error) {
	switch backendType {
	case "ollama":
		return NewOllamaClient(baseURL, model)
	case "openai":
		return NewOpenAIClient(model)
	default:
		return nil, fmt.Errorf("unknown LLM backend type %q", backendType)
	}
}
