package types

import (
	"context"
)

// Inspector looks up repository metadata on a git hosting platform
// (GitHub, GitLab) without cloning
type Inspector interface {
	// Matches reports whether repoURL is hosted on this platform
	Matches(repoURL string) bool

	// Inspect fetches size and default branch for repoURL
	Inspect(ctx context.Context, repoURL string) (*RepoInfo, error)

	// Name returns the platform name (e.g., "GitHub", "GitLab")
	Name() string
}
