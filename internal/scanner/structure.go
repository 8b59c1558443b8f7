package scanner

import "strings"

// RepositoryStructure is the bounded summary of a scanned checkout.
// It is built once by Scan and treated as read-only afterwards.
type RepositoryStructure struct {
	Tree                []string  `json:"tree"`
	TreeTruncated       bool      `json:"tree_truncated"`
	KeyFiles            []KeyFile `json:"key_files"`
	Modules             []string  `json:"modules"`
	Technologies        []string  `json:"technologies"`
	ConfigFiles         []string  `json:"config_files"`
	DependencyManifests []string  `json:"dependency_manifests"`
}

// KeyFile is a recognized manifest and the leading bytes of its content.
// Path is relative to the scanned root and uses forward slashes.
type KeyFile struct {
	Path    string `json:"path"`
	Excerpt string `json:"excerpt"`
}

// TreeText joins the tree lines the way they are shown to the generator
func (s *RepositoryStructure) TreeText() string {
	return strings.Join(s.Tree, "\n")
}

// KeyFile looks up a captured key file by relative path
func (s *RepositoryStructure) KeyFile(path string) (KeyFile, bool) {
	for _, kf := range s.KeyFiles {
		if kf.Path == path {
			return kf, true
		}
	}
	return KeyFile{}, false
}
