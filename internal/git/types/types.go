package types

// RepoInfo is what a hosting platform reports about a repository before it
// is cloned
type RepoInfo struct {
	Platform      string // "GitHub", "GitLab"
	Owner         string // owner or namespace path
	Name          string
	DefaultBranch string // empty when the repository has no commits
	SizeKB        int64  // size reported by the platform, in KB
	Archived      bool
}

// SizeMB returns the reported size in megabytes
func (r *RepoInfo) SizeMB() float64 {
	return float64(r.SizeKB) / 1024
}

// FullName returns "owner/name"
func (r *RepoInfo) FullName() string {
	if r.Owner == "" {
		return r.Name
	}
	return r.Owner + "/" + r.Name
}
