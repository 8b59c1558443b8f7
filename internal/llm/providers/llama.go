package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"arq-generator/internal/config"
	httputil "arq-generator/internal/http"
	llmerrors "arq-generator/internal/llm/errors"
)

const llamaProvider = "llama"

// LlamaClient talks to any OpenAI-compatible completions endpoint
type LlamaClient struct {
	config     *config.Config
	httpClient *http.Client
}

type LlamaRequest struct {
	MaxTokens   int     `json:"max_tokens"`
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
}

type LlamaResponse struct {
	Choices []LlamaChoice `json:"choices"`
	Usage   LlamaUsage    `json:"usage"`
}

type LlamaChoice struct {
	Text string `json:"text"`
}

type LlamaUsage struct {
	CompletionTokens int `json:"completion_tokens"`
	PromptTokens     int `json:"prompt_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type LlamaModelsResponse struct {
	Data []LlamaModel `json:"data"`
}

type LlamaModel struct {
	ID string `json:"id"`
}

func NewLlama(cfg *config.Config) LLMClient {
	return &LlamaClient{
		config: cfg,
		httpClient: httputil.NewHTTPClient(httputil.HTTPClientOptions{
			Timeout:       time.Duration(cfg.ModelTimeoutSeconds) * time.Second,
			SkipSSLVerify: cfg.ModelSkipSSLVerify,
		}),
	}
}

func (l *LlamaClient) Name() string  { return llamaProvider }
func (l *LlamaClient) Model() string { return l.config.ModelID }

func (l *LlamaClient) timeout() time.Duration {
	return time.Duration(l.config.ModelTimeoutSeconds) * time.Second
}

func (l *LlamaClient) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + l.config.ModelUserKey}
}

func (l *LlamaClient) ListModels(ctx context.Context) ([]string, error) {
	url := strings.TrimRight(l.config.ModelAPI, "/") + "/v1/models"

	status, body, err := sendJSON(ctx, l.httpClient, llamaProvider, l.timeout(), http.MethodGet, url, nil, l.headers())
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &llmerrors.RequestError{Provider: llamaProvider, StatusCode: status, Message: string(body)}
	}

	var response LlamaModelsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	models := make([]string, 0, len(response.Data))
	for _, m := range response.Data {
		models = append(models, m.ID)
	}
	return models, nil
}

func (l *LlamaClient) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	cfg := l.config
	url := strings.TrimRight(cfg.ModelAPI, "/") + "/v1/completions"

	req := LlamaRequest{
		Model:       cfg.ModelID,
		Prompt:      prompt,
		MaxTokens:   maxTokens,
		Temperature: cfg.ModelTemperature,
	}

	slog.Debug("Sending diagram request to LLM", "provider", llamaProvider, "model", cfg.ModelID, "prompt_chars", len(prompt))

	status, body, err := sendJSON(ctx, l.httpClient, llamaProvider, l.timeout(), http.MethodPost, url, req, l.headers())
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", statusError(llamaProvider, cfg.ModelID, status, body)
	}

	var response LlamaResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", &llmerrors.RequestError{Provider: llamaProvider, Message: fmt.Sprintf("unmarshal response: %v", err)}
	}

	if len(response.Choices) == 0 {
		return "", &llmerrors.RequestError{Provider: llamaProvider, Message: "no choices in response"}
	}

	slog.Debug("Llama API token usage",
		"input_tokens", response.Usage.PromptTokens,
		"output_tokens", response.Usage.CompletionTokens,
		"total_tokens", response.Usage.TotalTokens)

	return response.Choices[0].Text, nil
}
