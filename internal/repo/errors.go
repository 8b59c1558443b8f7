package repo

import (
	"fmt"
	"strings"
)

// InvalidURLError is returned before any I/O when a URL is not an accepted
// repository URL
type InvalidURLError struct {
	URL string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid repository URL %q: must be a GitHub, GitLab or Bitbucket URL, or end in .git", e.URL)
}

// CloneError carries the combined git output of a failed clone
type CloneError struct {
	URL    string
	Output string
	Err    error
}

func (e *CloneError) Error() string {
	msg := fmt.Sprintf("failed to clone repository %s", e.URL)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	if e.Err != nil {
		msg += fmt.Sprintf(" (%v)", e.Err)
	}
	return msg
}

func (e *CloneError) Unwrap() error { return e.Err }

// SizeLimitError is returned when a repository exceeds the size ceiling,
// either as reported by the hosting platform or as measured after cloning
type SizeLimitError struct {
	SizeMB  float64
	LimitMB int
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("repository too large (%.1fMB), maximum: %dMB", e.SizeMB, e.LimitMB)
}
