package scanner

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"arq-generator/internal/config"
)

const (
	MinDepth = 1
	MaxDepth = 3

	TruncatedMarker = "... (truncated)"
	MoreFilesMarker = "... (more files)"

	indentUnit = "  "
)

// ErrInvalidDepth is returned when the requested depth is outside MinDepth..MaxDepth
var ErrInvalidDepth = errors.New("invalid scan depth")

// ValidateDepth checks depth against MinDepth..MaxDepth
func ValidateDepth(depth int) error {
	if depth < MinDepth || depth > MaxDepth {
		return fmt.Errorf("%w: must be between %d and %d, got: %d", ErrInvalidDepth, MinDepth, MaxDepth, depth)
	}
	return nil
}

// Scanner walks a checkout under the budgets of its rules
type Scanner struct {
	rules config.ScanRules
}

func New(rules config.ScanRules) *Scanner {
	return &Scanner{rules: rules}
}

// Scan summarizes the tree under root. Directories deeper than depth are
// neither listed nor descended into. Unreadable files and directories are
// skipped; only an unusable root is an error.
func (s *Scanner) Scan(root string, depth int) (*RepositoryStructure, error) {
	if err := ValidateDepth(depth); err != nil {
		return nil, err
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat scan root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %s is not a directory", root)
	}

	w := &walker{
		root:     root,
		maxDepth: depth,
		rules:    s.rules,
		matcher:  s.compileMatcher(root),
		out: &RepositoryStructure{
			Tree:                []string{},
			KeyFiles:            []KeyFile{},
			Modules:             []string{},
			Technologies:        []string{},
			ConfigFiles:         []string{},
			DependencyManifests: []string{},
		},
		seenTech: make(map[string]bool),
	}

	w.collectModules()
	w.walk(root, "", 0)

	slices.Sort(w.out.Technologies)

	slog.Debug("Repository scanned",
		"root", root,
		"depth", depth,
		"tree_lines", len(w.out.Tree),
		"truncated", w.out.TreeTruncated,
		"modules", len(w.out.Modules),
		"key_files", len(w.out.KeyFiles))

	return w.out, nil
}

// compileMatcher turns the ignore-dir and binary-extension lists into
// gitignore patterns, optionally extended with the checkout's own .gitignore
func (s *Scanner) compileMatcher(root string) *ignore.GitIgnore {
	patterns := make([]string, 0, len(s.rules.IgnoreDirs)+len(s.rules.BinaryExtensions))
	// a pattern containing a slash is anchored to the root unless it starts with **/
	for _, dir := range s.rules.IgnoreDirs {
		patterns = append(patterns, "**/"+strings.Trim(dir, "/")+"/")
	}
	for _, ext := range s.rules.BinaryExtensions {
		patterns = append(patterns, "*"+ext)
	}

	if s.rules.HonorGitignore {
		content, err := os.ReadFile(filepath.Join(root, ".gitignore"))
		if err == nil {
			patterns = append(patterns, strings.Split(string(content), "\n")...)
		}
	}

	return ignore.CompileIgnoreLines(patterns...)
}

type walker struct {
	root     string
	maxDepth int
	rules    config.ScanRules
	matcher  *ignore.GitIgnore
	out      *RepositoryStructure
	seenTech map[string]bool
	halted   bool
}

func (w *walker) ignored(rel string, isDir bool) bool {
	if strings.HasPrefix(path.Base(rel), ".") {
		return true
	}
	if isDir {
		rel += "/"
	}
	return w.matcher.MatchesPath(rel)
}

// emit appends a tree line while keeping one slot free for the truncation
// marker. Once the marker is written the whole walk stops.
func (w *walker) emit(indent, line string) bool {
	if w.halted {
		return false
	}
	if len(w.out.Tree) >= w.rules.MaxTreeLines-1 {
		w.out.Tree = append(w.out.Tree, indent+TruncatedMarker)
		w.out.TreeTruncated = true
		w.halted = true
		return false
	}
	w.out.Tree = append(w.out.Tree, indent+line)
	return true
}

// collectModules records every first-level directory, independently of how
// much of the tree fits in the line budget
func (w *walker) collectModules() {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() && !w.ignored(entry.Name(), true) {
			w.out.Modules = append(w.out.Modules, entry.Name())
		}
	}
}

func (w *walker) walk(dir, rel string, depth int) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Debug("Skipping unreadable directory", "path", dir, "error", err)
		return
	}

	if depth > 0 {
		if !w.emit(strings.Repeat(indentUnit, depth), path.Base(rel)+"/") {
			return
		}
	}

	fileIndent := strings.Repeat(indentUnit, depth+1)
	var subdirs []os.DirEntry
	listed := 0

	// ReadDir returns entries sorted by name
	for _, entry := range entries {
		entryRel := path.Join(rel, entry.Name())
		if entry.IsDir() {
			if !w.ignored(entryRel, true) {
				subdirs = append(subdirs, entry)
			}
			continue
		}
		if w.ignored(entryRel, false) {
			continue
		}

		if listed >= w.rules.MaxFilesPerDir {
			if !w.emit(fileIndent, MoreFilesMarker) {
				return
			}
			break
		}
		if !w.emit(fileIndent, entry.Name()) {
			return
		}
		listed++

		w.captureKeyFile(filepath.Join(dir, entry.Name()), entryRel, entry.Name())
	}

	if depth >= w.maxDepth {
		return
	}
	for _, sub := range subdirs {
		w.walk(filepath.Join(dir, sub.Name()), path.Join(rel, sub.Name()), depth+1)
		if w.halted {
			return
		}
	}
}

func (w *walker) matchManifest(name string) (config.ManifestRule, bool) {
	lower := strings.ToLower(name)
	for _, rule := range w.rules.Manifests {
		pattern := strings.ToLower(rule.Pattern)
		if strings.HasPrefix(lower, pattern) {
			return rule, true
		}
	}
	return config.ManifestRule{}, false
}

func (w *walker) captureKeyFile(fullPath, rel, name string) {
	rule, ok := w.matchManifest(name)
	if !ok {
		return
	}

	excerpt, err := readExcerpt(fullPath, int64(w.rules.MaxKeyFileKB)*1024, w.rules.ExcerptBytes)
	if err != nil {
		slog.Debug("Skipping key file", "path", rel, "error", err)
		return
	}

	w.out.KeyFiles = append(w.out.KeyFiles, KeyFile{Path: rel, Excerpt: excerpt})

	if rule.Technology != "" && !w.seenTech[rule.Technology] {
		w.seenTech[rule.Technology] = true
		w.out.Technologies = append(w.out.Technologies, rule.Technology)
	}

	if rule.DependencyManifest {
		w.out.ConfigFiles = append(w.out.ConfigFiles, rel)
		if strings.Contains(strings.ToLower(excerpt), "dependenc") {
			w.out.DependencyManifests = append(w.out.DependencyManifests, rel)
		}
	}
}

var errTooLarge = errors.New("file exceeds key file size limit")

// readExcerpt returns at most limit bytes from the start of the file, with
// any invalid UTF-8 (including a rune cut at the limit) removed
func readExcerpt(p string, maxSize int64, limit int) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	if info.Size() > maxSize {
		return "", errTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(f, int64(limit)))
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(data), ""), nil
}
