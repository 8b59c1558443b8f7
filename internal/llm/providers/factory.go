package providers

import (
	"context"
	"fmt"

	"arq-generator/internal/config"
)

// NewClient creates the appropriate LLM client based on configuration
func NewClient(ctx context.Context, cfg *config.Config) (LLMClient, error) {
	switch cfg.ModelProvider {
	case "ollama":
		return NewOllama(cfg), nil

	case "llama":
		return NewLlama(cfg), nil

	case "gemini":
		return NewGemini(ctx, cfg)

	default:
		return nil, fmt.Errorf("unsupported model provider: %s", cfg.ModelProvider)
	}
}
