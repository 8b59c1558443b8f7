package providers

import "context"

// LLMClient is the contract every text-generation backend implements
type LLMClient interface {
	// Name is the provider name used in logs and errors
	Name() string
	// Model is the configured model identifier
	Model() string
	// ListModels returns the models the service can serve right now
	ListModels(ctx context.Context) ([]string, error)
	// Generate returns the raw completion for prompt, capped at maxTokens
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}
