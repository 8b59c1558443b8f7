package gitlab

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	gitlabapi "gitlab.com/gitlab-org/api/client-go"

	"arq-generator/internal/config"
	"arq-generator/internal/git/types"
)

// scpURLRegex matches git@host:group/sub/repo.git
var scpURLRegex = regexp.MustCompile(`^git@([^:]+):(.+?)(?:\.git)?/?$`)

// Inspector implements types.Inspector for GitLab. It answers for gitlab.com
// and for the configured instance host.
type Inspector struct {
	client *gitlabapi.Client
	host   string
}

// NewInspector creates a new GitLab inspector for cfg.GitLabBaseURL
func NewInspector(cfg *config.Config) (*Inspector, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitLab client: %w", err)
	}
	return newInspector(client, cfg.GitLabBaseURL), nil
}

func newInspector(client *gitlabapi.Client, baseURL string) *Inspector {
	host := "gitlab.com"
	if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
		host = u.Hostname()
	}
	return &Inspector{client: client, host: strings.ToLower(host)}
}

// Name returns the platform name
func (i *Inspector) Name() string {
	return "GitLab"
}

// Matches checks if a URL points at a project on this GitLab instance
func (i *Inspector) Matches(repoURL string) bool {
	host, _, err := parseRepoURL(repoURL)
	if err != nil {
		return false
	}
	return host == i.host || host == "gitlab.com"
}

// Inspect fetches the project with statistics. GitLab reports
// repository_size in bytes.
func (i *Inspector) Inspect(ctx context.Context, repoURL string) (*types.RepoInfo, error) {
	_, projectPath, err := parseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}

	slog.Debug("Fetching GitLab project", "project", projectPath)

	project, _, err := i.client.Projects.GetProject(projectPath,
		&gitlabapi.GetProjectOptions{Statistics: gitlabapi.Ptr(true)},
		gitlabapi.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch GitLab project %s: %w", projectPath, err)
	}

	namespace, name := splitProjectPath(projectPath)
	info := &types.RepoInfo{
		Platform:      i.Name(),
		Owner:         namespace,
		Name:          name,
		DefaultBranch: project.DefaultBranch,
		Archived:      project.Archived,
	}
	if project.Statistics != nil {
		info.SizeKB = project.Statistics.RepositorySize / 1024
	}
	return info, nil
}

// parseRepoURL extracts the lowercased host and the project path
// (group/subgroup/repo) from an https, git or scp-style URL
func parseRepoURL(repoURL string) (host, projectPath string, err error) {
	if m := scpURLRegex.FindStringSubmatch(repoURL); m != nil {
		host, projectPath = m[1], m[2]
	} else {
		u, parseErr := url.Parse(repoURL)
		if parseErr != nil || u.Host == "" {
			return "", "", fmt.Errorf("invalid GitLab repository URL format: %s", repoURL)
		}
		host = u.Hostname()
		projectPath = strings.Trim(u.Path, "/")
		// drop UI paths like /-/tree/main
		if idx := strings.Index(projectPath, "/-/"); idx != -1 {
			projectPath = projectPath[:idx]
		}
		projectPath = strings.TrimSuffix(projectPath, ".git")
	}

	if !strings.Contains(projectPath, "/") {
		return "", "", fmt.Errorf("invalid GitLab repository URL format: %s", repoURL)
	}
	return strings.ToLower(host), projectPath, nil
}

func splitProjectPath(projectPath string) (namespace, name string) {
	idx := strings.LastIndex(projectPath, "/")
	return projectPath[:idx], projectPath[idx+1:]
}
