package providers

import (
	"context"
	"log/slog"
	"strings"
	"time"

	llmerrors "arq-generator/internal/llm/errors"
)

// EnsureModel checks, within timeout, that the service answers and serves
// the configured model. Every failure is reported as UnavailableError.
func EnsureModel(ctx context.Context, client LLMClient, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	models, err := client.ListModels(ctx)
	if err != nil {
		return &llmerrors.UnavailableError{
			Provider: client.Name(),
			Model:    client.Model(),
			Reason:   "health check failed",
			Err:      err,
		}
	}

	if !HasModel(models, client.Model()) {
		slog.Debug("Configured model not served", "provider", client.Name(), "model", client.Model(), "available", models)
		return &llmerrors.UnavailableError{
			Provider: client.Name(),
			Model:    client.Model(),
			Reason:   "model not found",
		}
	}

	return nil
}

// HasModel reports whether model is among available. A name without a tag
// matches its ":latest" variant and vice versa.
func HasModel(available []string, model string) bool {
	want := canonicalModelName(model)
	for _, name := range available {
		if canonicalModelName(name) == want {
			return true
		}
	}
	return false
}

func canonicalModelName(name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "models/")
	return strings.TrimSuffix(name, ":latest")
}
