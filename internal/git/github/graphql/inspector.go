package graphql

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shurcooL/githubv4"

	ghshared "arq-generator/internal/git/github/shared"
	"arq-generator/internal/git/types"
)

// Inspector implements types.Inspector using GitHub's GraphQL API.
// One query returns size, archive state and default branch.
type Inspector struct {
	client *githubv4.Client
}

// NewInspector creates a new GitHub GraphQL-based inspector. GraphQL
// requires a token.
func NewInspector(token string) *Inspector {
	return &Inspector{client: newClient(token)}
}

// Name returns the platform name
func (i *Inspector) Name() string {
	return "GitHub"
}

// Matches checks if a URL is a GitHub repository URL
func (i *Inspector) Matches(url string) bool {
	return ghshared.IsRepoURL(url)
}

type repositoryQuery struct {
	Repository struct {
		DiskUsage        int
		IsArchived       bool
		DefaultBranchRef *struct {
			Name string
		}
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// Inspect fetches the repository record. diskUsage is reported in KB.
func (i *Inspector) Inspect(ctx context.Context, url string) (*types.RepoInfo, error) {
	owner, name, err := ghshared.ParseRepoURL(url)
	if err != nil {
		return nil, err
	}

	slog.Debug("Fetching GitHub repository via GraphQL", "owner", owner, "repo", name)

	var query repositoryQuery
	variables := map[string]any{
		"owner": githubv4.String(owner),
		"name":  githubv4.String(name),
	}
	if err := i.client.Query(ctx, &query, variables); err != nil {
		return nil, fmt.Errorf("failed to query GitHub repository %s/%s: %w", owner, name, err)
	}

	info := &types.RepoInfo{
		Platform: i.Name(),
		Owner:    owner,
		Name:     name,
		SizeKB:   int64(query.Repository.DiskUsage),
		Archived: query.Repository.IsArchived,
	}
	if ref := query.Repository.DefaultBranchRef; ref != nil {
		info.DefaultBranch = ref.Name
	}
	return info, nil
}
