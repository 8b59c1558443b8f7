package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Embedded default rules
//
//go:embed rules.yaml
var defaultRulesYAML []byte

// Rules holds the budgets and term lists that bound every pipeline stage.
// They are plain values so each component can be built with its own copy.
type Rules struct {
	Scan       ScanRules       `yaml:"scan"`
	Prompt     PromptRules     `yaml:"prompt"`
	Validation ValidationRules `yaml:"validation"`
}

type ScanRules struct {
	MaxTreeLines     int            `yaml:"max_tree_lines"`
	MaxFilesPerDir   int            `yaml:"max_files_per_dir"`
	MaxKeyFileKB     int            `yaml:"max_key_file_kb"`
	ExcerptBytes     int            `yaml:"excerpt_bytes"`
	HonorGitignore   bool           `yaml:"honor_gitignore"`
	IgnoreDirs       []string       `yaml:"ignore_dirs"`
	BinaryExtensions []string       `yaml:"binary_extensions"`
	Manifests        []ManifestRule `yaml:"manifests"`
}

// ManifestRule marks a filename pattern as a key file. Technology is empty for
// files that are worth reading but imply no language (Dockerfile, Makefile).
type ManifestRule struct {
	Pattern            string `yaml:"pattern"`
	Technology         string `yaml:"technology"`
	DependencyManifest bool   `yaml:"dependency_manifest"`
}

type PromptRules struct {
	TreeChars    int `yaml:"tree_chars"`
	TreeLines    int `yaml:"tree_lines"`
	KeyFiles     int `yaml:"key_files"`
	ExcerptChars int `yaml:"excerpt_chars"`
}

type ValidationRules struct {
	MinLines       int      `yaml:"min_lines"`
	FallbackNodes  int      `yaml:"fallback_nodes"`
	ForbiddenTerms []string `yaml:"forbidden_terms"`
}

// DefaultRules returns the embedded rules. It panics if the embedded file is
// malformed, which can only happen at development time.
func DefaultRules() Rules {
	var rules Rules
	if err := yaml.Unmarshal(defaultRulesYAML, &rules); err != nil {
		panic(fmt.Sprintf("failed to parse embedded rules.yaml: %v", err))
	}
	return rules
}

// LoadRules returns the embedded defaults overlaid with the YAML file at path.
// An empty path yields the defaults.
func LoadRules(path string) (*Rules, error) {
	rules := DefaultRules()

	if path == "" {
		return &rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}

	if err := rules.validate(); err != nil {
		return nil, fmt.Errorf("invalid rules file %s: %w", path, err)
	}

	return &rules, nil
}

func (r Rules) validate() error {
	budgets := []struct {
		name  string
		value int
	}{
		{"scan.max_tree_lines", r.Scan.MaxTreeLines},
		{"scan.max_files_per_dir", r.Scan.MaxFilesPerDir},
		{"scan.max_key_file_kb", r.Scan.MaxKeyFileKB},
		{"scan.excerpt_bytes", r.Scan.ExcerptBytes},
		{"prompt.tree_chars", r.Prompt.TreeChars},
		{"prompt.tree_lines", r.Prompt.TreeLines},
		{"prompt.excerpt_chars", r.Prompt.ExcerptChars},
		{"validation.min_lines", r.Validation.MinLines},
		{"validation.fallback_nodes", r.Validation.FallbackNodes},
	}
	for _, b := range budgets {
		if b.value < 1 {
			return fmt.Errorf("%s must be at least 1, got: %d", b.name, b.value)
		}
	}

	if r.Prompt.KeyFiles < 0 {
		return fmt.Errorf("prompt.key_files must not be negative, got: %d", r.Prompt.KeyFiles)
	}

	for i, m := range r.Scan.Manifests {
		if strings.TrimSpace(m.Pattern) == "" {
			return fmt.Errorf("scan.manifests[%d].pattern must not be empty", i)
		}
	}

	return nil
}
