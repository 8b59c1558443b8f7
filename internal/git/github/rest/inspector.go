package rest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/go-github/v80/github"

	ghshared "arq-generator/internal/git/github/shared"
	"arq-generator/internal/git/types"
)

// Inspector implements types.Inspector using the GitHub REST API
type Inspector struct {
	client *github.Client
}

// NewInspector creates a new GitHub REST-based inspector
func NewInspector(token string) *Inspector {
	return newInspector(ghshared.NewRESTClient(token))
}

func newInspector(client *github.Client) *Inspector {
	return &Inspector{client: client}
}

// Name returns the platform name
func (i *Inspector) Name() string {
	return "GitHub"
}

// Matches checks if a URL is a GitHub repository URL
func (i *Inspector) Matches(url string) bool {
	return ghshared.IsRepoURL(url)
}

// Inspect fetches the repository record. GitHub reports size in KB.
func (i *Inspector) Inspect(ctx context.Context, url string) (*types.RepoInfo, error) {
	owner, name, err := ghshared.ParseRepoURL(url)
	if err != nil {
		return nil, err
	}

	slog.Debug("Fetching GitHub repository via REST", "owner", owner, "repo", name)

	repo, _, err := i.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch GitHub repository %s/%s: %w", owner, name, err)
	}

	return &types.RepoInfo{
		Platform:      i.Name(),
		Owner:         owner,
		Name:          name,
		DefaultBranch: repo.GetDefaultBranch(),
		SizeKB:        int64(repo.GetSize()),
		Archived:      repo.GetArchived(),
	}, nil
}
