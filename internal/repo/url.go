package repo

import "strings"

var (
	validPrefixes = []string{"http://", "https://", "git@", "git://"}
	knownHosts    = []string{"github.com", "gitlab.com", "bitbucket.org"}
)

// ValidateURL accepts a URL iff it has a supported scheme prefix and either
// names a known host or ends in .git
func ValidateURL(url string) error {
	if !hasAnyPrefix(url, validPrefixes) {
		return &InvalidURLError{URL: url}
	}

	for _, host := range knownHosts {
		if strings.Contains(url, host) {
			return nil
		}
	}
	if strings.HasSuffix(url, ".git") {
		return nil
	}

	return &InvalidURLError{URL: url}
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
