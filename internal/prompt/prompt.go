package prompt

import (
	"bytes"
	_ "embed"
	"fmt"
	"path"
	"slices"
	"strings"
	"text/template"

	"arq-generator/internal/config"
	"arq-generator/internal/diagram"
	"arq-generator/internal/scanner"
)

//go:embed prompt_template.md
var promptTemplateText string

var promptTemplate = template.Must(
	template.New("prompt").
		Funcs(template.FuncMap{"join": strings.Join}).
		Parse(promptTemplateText),
)

// PromptData holds the data for the prompt template
type PromptData struct {
	Tree           string
	Components     []string
	Modules        []string
	Technologies   []string
	KeyFiles       []scanner.KeyFile
	ForbiddenTerms []string
	Header         string
	Arrow          string
}

// Synthesizer renders a RepositoryStructure into a generator instruction
type Synthesizer struct {
	rules     config.PromptRules
	forbidden []string
}

func New(rules config.PromptRules, forbiddenTerms []string) *Synthesizer {
	return &Synthesizer{rules: rules, forbidden: forbiddenTerms}
}

// Build renders the prompt. Equal structures always render to equal strings.
func (s *Synthesizer) Build(structure *scanner.RepositoryStructure) (string, error) {
	tree := truncateRunes(structure.TreeText(), s.rules.TreeChars)

	technologies := slices.Clone(structure.Technologies)
	slices.Sort(technologies)

	keyFiles := structure.KeyFiles[:min(len(structure.KeyFiles), s.rules.KeyFiles)]
	excerpts := make([]scanner.KeyFile, 0, len(keyFiles))
	for _, kf := range keyFiles {
		excerpts = append(excerpts, scanner.KeyFile{
			Path:    kf.Path,
			Excerpt: strings.TrimSpace(truncateRunes(kf.Excerpt, s.rules.ExcerptChars)),
		})
	}

	data := PromptData{
		Tree:           tree,
		Components:     s.components(structure, tree),
		Modules:        structure.Modules,
		Technologies:   technologies,
		KeyFiles:       excerpts,
		ForbiddenTerms: s.forbidden,
		Header:         diagram.CanonicalHeader,
		Arrow:          diagram.CanonicalArrow,
	}

	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}

	return buf.String(), nil
}

// Components lists the names the generator may use, deduplicated
// case-insensitively in first-seen order
func (s *Synthesizer) Components(structure *scanner.RepositoryStructure) []string {
	return s.components(structure, truncateRunes(structure.TreeText(), s.rules.TreeChars))
}

func (s *Synthesizer) components(structure *scanner.RepositoryStructure, tree string) []string {
	var components []string
	seen := make(map[string]bool)

	add := func(name string) {
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			return
		}
		seen[key] = true
		components = append(components, name)
	}

	for _, module := range structure.Modules {
		add(module)
	}

	lines := strings.Split(tree, "\n")
	for _, line := range lines[:min(len(lines), s.rules.TreeLines)] {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ".") || !strings.Contains(line, "/") {
			continue
		}
		dir, _, _ := strings.Cut(line, "/")
		if dir = strings.TrimSpace(dir); len(dir) > 1 {
			add(dir)
		}
	}

	for _, kf := range structure.KeyFiles[:min(len(structure.KeyFiles), s.rules.KeyFiles)] {
		add(path.Base(kf.Path))
	}

	return components
}

// truncateRunes cuts s to at most n characters without splitting a rune
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
