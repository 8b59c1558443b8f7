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

const ollamaProvider = "ollama"

type OllamaClient struct {
	config     *config.Config
	httpClient *http.Client
}

type OllamaGenerateRequest struct {
	Model   string        `json:"model"`
	Options OllamaOptions `json:"options"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
}

type OllamaOptions struct {
	NumPredict  int     `json:"num_predict"`
	Temperature float64 `json:"temperature"`
}

type OllamaGenerateResponse struct {
	Done            bool   `json:"done"`
	Error           string `json:"error,omitempty"`
	EvalCount       int    `json:"eval_count"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	Response        string `json:"response"`
}

type OllamaTagsResponse struct {
	Models []OllamaModel `json:"models"`
}

type OllamaModel struct {
	Model string `json:"model"`
	Name  string `json:"name"`
}

func NewOllama(cfg *config.Config) LLMClient {
	return &OllamaClient{
		config: cfg,
		httpClient: httputil.NewHTTPClient(httputil.HTTPClientOptions{
			Timeout:       time.Duration(cfg.ModelTimeoutSeconds) * time.Second,
			SkipSSLVerify: cfg.ModelSkipSSLVerify,
		}),
	}
}

func (o *OllamaClient) Name() string  { return ollamaProvider }
func (o *OllamaClient) Model() string { return o.config.ModelID }

func (o *OllamaClient) timeout() time.Duration {
	return time.Duration(o.config.ModelTimeoutSeconds) * time.Second
}

func (o *OllamaClient) ListModels(ctx context.Context) ([]string, error) {
	url := strings.TrimRight(o.config.ModelAPI, "/") + "/api/tags"

	status, body, err := sendJSON(ctx, o.httpClient, ollamaProvider, o.timeout(), http.MethodGet, url, nil, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &llmerrors.RequestError{Provider: ollamaProvider, StatusCode: status, Message: string(body)}
	}

	var tags OllamaTagsResponse
	if err := json.Unmarshal(body, &tags); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	models := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		name := m.Name
		if name == "" {
			name = m.Model
		}
		models = append(models, name)
	}
	return models, nil
}

func (o *OllamaClient) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	cfg := o.config
	url := strings.TrimRight(cfg.ModelAPI, "/") + "/api/generate"

	req := OllamaGenerateRequest{
		Model:  cfg.ModelID,
		Prompt: prompt,
		Stream: false,
		Options: OllamaOptions{
			Temperature: cfg.ModelTemperature,
			NumPredict:  maxTokens,
		},
	}

	slog.Debug("Sending diagram request to LLM", "provider", ollamaProvider, "model", cfg.ModelID, "prompt_chars", len(prompt))

	status, body, err := sendJSON(ctx, o.httpClient, ollamaProvider, o.timeout(), http.MethodPost, url, req, nil)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", statusError(ollamaProvider, cfg.ModelID, status, body)
	}

	var response OllamaGenerateResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", &llmerrors.RequestError{Provider: ollamaProvider, Message: fmt.Sprintf("unmarshal response: %v", err)}
	}
	if response.Error != "" {
		return "", &llmerrors.RequestError{Provider: ollamaProvider, Message: response.Error}
	}

	slog.Debug("Ollama token usage",
		"input_tokens", response.PromptEvalCount,
		"output_tokens", response.EvalCount,
		"total_tokens", response.PromptEvalCount+response.EvalCount)

	return response.Response, nil
}
