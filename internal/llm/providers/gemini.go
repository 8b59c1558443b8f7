package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"arq-generator/internal/config"
	httputil "arq-generator/internal/http"
	llmerrors "arq-generator/internal/llm/errors"
)

const geminiProvider = "gemini"

// GeminiClient wraps the official genai SDK
type GeminiClient struct {
	config *config.Config
	cli    *genai.Client
}

func NewGemini(ctx context.Context, cfg *config.Config) (LLMClient, error) {
	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.ModelUserKey,
		Backend: genai.BackendGeminiAPI,
		HTTPClient: httputil.NewHTTPClient(httputil.HTTPClientOptions{
			Timeout:       time.Duration(cfg.ModelTimeoutSeconds) * time.Second,
			SkipSSLVerify: cfg.ModelSkipSSLVerify,
		}),
	}
	if cfg.ModelAPI != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.ModelAPI}
	}

	cli, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{config: cfg, cli: cli}, nil
}

func (g *GeminiClient) Name() string  { return geminiProvider }
func (g *GeminiClient) Model() string { return g.config.ModelID }

// ListModels only confirms the configured model, since that is all the
// availability check needs
func (g *GeminiClient) ListModels(ctx context.Context) ([]string, error) {
	model, err := g.cli.Models.Get(ctx, g.config.ModelID, nil)
	if err != nil {
		return nil, g.classify(err)
	}
	return []string{strings.TrimPrefix(model.Name, "models/")}, nil
}

func (g *GeminiClient) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	cfg := g.config

	slog.Debug("Sending diagram request to LLM", "provider", geminiProvider, "model", cfg.ModelID, "prompt_chars", len(prompt))

	resp, err := g.cli.Models.GenerateContent(ctx, cfg.ModelID,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr(float32(cfg.ModelTemperature)),
			MaxOutputTokens: int32(maxTokens),
		},
	)
	if err != nil {
		return "", g.classify(err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", &llmerrors.RequestError{Provider: geminiProvider, Message: "no candidates in response"}
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			text.WriteString(part.Text)
		}
	}

	if resp.UsageMetadata != nil {
		slog.Debug("Gemini API token usage",
			"input_tokens", resp.UsageMetadata.PromptTokenCount,
			"output_tokens", resp.UsageMetadata.CandidatesTokenCount,
			"total_tokens", resp.UsageMetadata.TotalTokenCount)
	}

	return text.String(), nil
}

// classify maps SDK errors onto the generation error taxonomy
func (g *GeminiClient) classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return statusError(geminiProvider, g.config.ModelID, apiErr.Code, []byte(apiErr.Message))
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return statusError(geminiProvider, g.config.ModelID, apiErrPtr.Code, []byte(apiErrPtr.Message))
	}
	return llmerrors.FromTransport(geminiProvider, time.Duration(g.config.ModelTimeoutSeconds)*time.Second, err)
}
