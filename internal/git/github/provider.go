package github

import (
	"log/slog"

	"arq-generator/internal/config"
	"arq-generator/internal/git/github/graphql"
	"arq-generator/internal/git/github/rest"
	"arq-generator/internal/git/types"
)

// NewInspector creates a GitHub inspector based on configuration.
// Returns the GraphQL-based inspector if ARQ_GITHUB_USE_GRAPHQL=true and a
// token is set, otherwise REST-based.
func NewInspector(cfg *config.Config) types.Inspector {
	if cfg.GitHubUseGraphQL {
		if cfg.GitHubToken != "" {
			slog.Info("Using GitHub GraphQL API")
			return graphql.NewInspector(cfg.GitHubToken)
		}
		slog.Warn("GitHub GraphQL API requires ARQ_GITHUB_TOKEN, falling back to REST")
	}

	slog.Debug("Using GitHub REST API")
	return rest.NewInspector(cfg.GitHubToken)
}
