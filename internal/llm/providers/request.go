package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	llmerrors "arq-generator/internal/llm/errors"
)

// sendJSON performs one request and returns the status and raw body. Transport
// failures come back classified as timeout or unavailable.
func sendJSON(ctx context.Context, client *http.Client, provider string, timeout time.Duration, method, url string, payload any, headers map[string]string) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, llmerrors.FromTransport(provider, timeout, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, llmerrors.FromTransport(provider, timeout, fmt.Errorf("read response: %w", err))
	}

	return resp.StatusCode, respBody, nil
}

// statusError maps a non-200 answer to the generation error taxonomy
func statusError(provider, model string, statusCode int, body []byte) error {
	if llmerrors.IsContextWindowError(statusCode, body) {
		return &llmerrors.ContextWindowError{
			StatusCode: statusCode,
			Message:    string(body),
			Provider:   provider,
		}
	}
	if statusCode == http.StatusNotFound {
		return &llmerrors.UnavailableError{
			Provider: provider,
			Model:    model,
			Reason:   "model not found",
		}
	}
	return &llmerrors.RequestError{
		Provider:   provider,
		StatusCode: statusCode,
		Message:    string(body),
	}
}
