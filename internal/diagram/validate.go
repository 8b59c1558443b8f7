package diagram

import (
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"strings"
	"unicode"

	"arq-generator/internal/config"
	"arq-generator/internal/scanner"
)

// knownExtensions are stripped from path segments before they become tokens
var knownExtensions = map[string]bool{
	".java": true, ".kt": true, ".scala": true, ".groovy": true, ".gradle": true,
	".py": true, ".rb": true, ".php": true, ".go": true, ".rs": true,
	".js": true, ".jsx": true, ".ts": true, ".tsx": true, ".vue": true,
	".c": true, ".h": true, ".cpp": true, ".hpp": true, ".cs": true, ".swift": true,
	".xml": true, ".json": true, ".yml": true, ".yaml": true, ".toml": true,
	".ini": true, ".cfg": true, ".conf": true, ".properties": true, ".env": true,
	".md": true, ".txt": true, ".rst": true, ".html": true, ".css": true, ".scss": true,
	".sql": true, ".sh": true, ".lock": true, ".mod": true, ".sum": true,
}

// TokenIndex is the ground truth a diagram is checked against: one key per
// distinct path segment of the scanned tree, lowercased and stripped of
// separators and known extensions. Build it once per structure.
type TokenIndex struct {
	names []string
	keys  [][]string
}

func NewTokenIndex(tree []string) *TokenIndex {
	ix := &TokenIndex{}
	seen := make(map[string]bool)

	for _, line := range tree {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "...") {
			continue
		}
		for _, segment := range strings.FieldsFunc(line, func(r rune) bool { return r == '/' || r == '\\' }) {
			segment = strings.TrimSpace(segment)
			lower := strings.ToLower(segment)
			key := normalizeKey(stripExtensions(lower))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true

			keys := []string{key}
			if full := normalizeKey(lower); full != key {
				keys = append(keys, full)
			}
			ix.names = append(ix.names, segment)
			ix.keys = append(ix.keys, keys)
		}
	}

	return ix
}

// Len is the number of distinct tokens
func (ix *TokenIndex) Len() int {
	return len(ix.names)
}

// Names returns the original path segments behind the tokens, in tree order
func (ix *TokenIndex) Names() []string {
	return ix.names
}

// Matches reports whether label and some token contain one another once both
// are lowercased and stripped of separators
func (ix *TokenIndex) Matches(label string) bool {
	norm := normalizeKey(label)
	if norm == "" {
		return false
	}
	for _, keys := range ix.keys {
		for _, key := range keys {
			if strings.Contains(key, norm) || strings.Contains(norm, key) {
				return true
			}
		}
	}
	return false
}

func normalizeKey(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, s)
}

func stripExtensions(name string) string {
	for {
		ext := path.Ext(name)
		if ext == "" || ext == name || !knownExtensions[ext] {
			return name
		}
		name = strings.TrimSuffix(name, ext)
	}
}

// Outcome is a validated diagram and the number of lines filtering removed
type Outcome struct {
	Diagram  string
	Removed  int
	FellBack bool
}

// Validator removes diagram lines that do not correspond to anything in the
// scanned repository or that use a forbidden generic term
type Validator struct {
	terms         []string
	forbidden     []*regexp.Regexp
	minLines      int
	fallbackNodes int
}

func NewValidator(rules config.ValidationRules) *Validator {
	v := &Validator{
		terms:         rules.ForbiddenTerms,
		minLines:      rules.MinLines,
		fallbackNodes: rules.FallbackNodes,
	}
	for _, term := range rules.ForbiddenTerms {
		words := strings.Fields(term)
		if len(words) == 0 {
			continue
		}
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		// whole words, plural included, with spaces in the term matching any
		// separator run
		pattern := `(?i)(?:^|[^\pL\pN])` + strings.Join(words, `[\s_.\-]*`) + `(?:s|es)?(?:$|[^\pL\pN])`
		v.forbidden = append(v.forbidden, regexp.MustCompile(pattern))
	}
	return v
}

// ContainsForbidden reports whether text uses any forbidden generic term
func (v *Validator) ContainsForbidden(text string) bool {
	for _, re := range v.forbidden {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// Validate filters a normalized diagram against the structure it was generated from
func (v *Validator) Validate(diagram string, structure *scanner.RepositoryStructure) Outcome {
	return v.ValidateWithIndex(diagram, NewTokenIndex(structure.Tree))
}

func (v *Validator) ValidateWithIndex(diagram string, index *TokenIndex) Outcome {
	raw := strings.Split(strings.ReplaceAll(diagram, "\r\n", "\n"), "\n")

	type entry struct {
		text string
		line Line
	}
	var entries []entry
	for _, r := range raw {
		if strings.TrimSpace(r) == "" {
			continue
		}
		entries = append(entries, entry{text: strings.TrimRight(r, " \t"), line: Classify(r)})
	}

	keepRef := func(ref NodeRef) bool {
		return index.Matches(ref.Label) && !v.ContainsForbidden(ref.Label)
	}

	// node lines first, so an edge to a rejected id goes even if it is
	// written before the node itself
	rejected := make(map[string]bool)
	for _, e := range entries {
		if e.line.Kind == Node {
			ref := e.line.Refs[0]
			if !keepRef(ref) || v.ContainsForbidden(e.text) {
				rejected[ref.ID] = true
			}
		}
	}

	header := ""
	var kept []string
	removed := 0

	for _, e := range entries {
		switch e.line.Kind {
		case Header:
			if header == "" {
				header = "flowchart " + e.line.Direction
				continue
			}
		case Node:
			if !rejected[e.line.Refs[0].ID] {
				kept = append(kept, e.text)
				continue
			}
		case Edge:
			if v.keepEdge(e.line, e.text, keepRef, rejected) {
				kept = append(kept, e.text)
				continue
			}
		}
		removed++
	}

	if header == "" {
		header = CanonicalHeader
	}

	if 1+len(kept) < v.minLines {
		slog.Warn("Validation removed too much of the diagram, using fallback",
			"kept", len(kept),
			"removed", removed,
			"tokens", index.Len())
		return Outcome{
			Diagram:  v.fallback(header, index),
			Removed:  removed,
			FellBack: true,
		}
	}

	return Outcome{
		Diagram: header + "\n" + strings.Join(kept, "\n"),
		Removed: removed,
	}
}

func (v *Validator) keepEdge(line Line, text string, keepRef func(NodeRef) bool, rejected map[string]bool) bool {
	if v.ContainsForbidden(text) {
		return false
	}
	for _, group := range line.Chain {
		for _, ref := range group {
			if rejected[ref.ID] || !keepRef(ref) {
				return false
			}
		}
	}
	return true
}

// fallback lists up to fallbackNodes tokens as unconnected nodes. With no
// usable tokens it is the header alone.
func (v *Validator) fallback(header string, index *TokenIndex) string {
	lines := []string{header}
	for _, name := range index.Names() {
		if len(lines)-1 >= v.fallbackNodes {
			break
		}
		if v.ContainsForbidden(name) {
			continue
		}
		lines = append(lines, fmt.Sprintf("%sN%d[%s]", Indent, len(lines), cleanLabel(name)))
	}
	return strings.Join(lines, "\n")
}
