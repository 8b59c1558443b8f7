package shared

import (
	"fmt"
	"regexp"
)

// repoURLRegex matches GitHub repository URLs over https, http, git and ssh,
// with or without a .git suffix or a trailing path (tree/main, issues, ...)
var repoURLRegex = regexp.MustCompile(`^(?:https?://(?:www\.)?|git://|ssh://git@)github\.com/([^/]+)/([^/#?]+?)(?:\.git)?/?(?:[/#?].*)?$`)

// scpURLRegex matches the scp-like form git@github.com:owner/repo.git
var scpURLRegex = regexp.MustCompile(`^git@github\.com:([^/]+)/([^/]+?)(?:\.git)?/?$`)

// IsRepoURL checks if a URL points at a GitHub repository
func IsRepoURL(url string) bool {
	return repoURLRegex.MatchString(url) || scpURLRegex.MatchString(url)
}

// ParseRepoURL extracts owner and repo from a GitHub repository URL
func ParseRepoURL(url string) (owner, repo string, err error) {
	matches := repoURLRegex.FindStringSubmatch(url)
	if matches == nil {
		matches = scpURLRegex.FindStringSubmatch(url)
	}
	if len(matches) != 3 {
		return "", "", fmt.Errorf("invalid GitHub repository URL format: %s", url)
	}
	return matches[1], matches[2], nil
}
