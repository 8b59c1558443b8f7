package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultRules(t *testing.T) {
	rules := DefaultRules()

	if rules.Scan.MaxTreeLines != 300 {
		t.Errorf("MaxTreeLines = %d, want 300", rules.Scan.MaxTreeLines)
	}
	if rules.Scan.MaxFilesPerDir != 20 {
		t.Errorf("MaxFilesPerDir = %d, want 20", rules.Scan.MaxFilesPerDir)
	}
	if rules.Validation.MinLines != 3 {
		t.Errorf("MinLines = %d, want 3", rules.Validation.MinLines)
	}
	if rules.Validation.FallbackNodes != 10 {
		t.Errorf("FallbackNodes = %d, want 10", rules.Validation.FallbackNodes)
	}

	var sawPom bool
	for _, m := range rules.Scan.Manifests {
		if m.Pattern == "pom.xml" {
			sawPom = true
			if m.Technology != "Java" || !m.DependencyManifest {
				t.Errorf("pom.xml rule = %+v, want Java dependency manifest", m)
			}
		}
	}
	if !sawPom {
		t.Error("expected pom.xml manifest rule")
	}

	if err := rules.validate(); err != nil {
		t.Errorf("default rules failed validation: %v", err)
	}
}

func TestLoadRules_EmptyPathReturnsDefaults(t *testing.T) {
	rules, err := LoadRules("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rules.Prompt.TreeChars != 2000 {
		t.Errorf("TreeChars = %d, want 2000", rules.Prompt.TreeChars)
	}
}

func TestLoadRules_OverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `
scan:
  max_tree_lines: 50
validation:
  forbidden_terms:
    - mainframe
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write rules file: %v", err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rules.Scan.MaxTreeLines != 50 {
		t.Errorf("MaxTreeLines = %d, want 50", rules.Scan.MaxTreeLines)
	}
	// untouched keys keep their defaults
	if rules.Scan.MaxFilesPerDir != 20 {
		t.Errorf("MaxFilesPerDir = %d, want 20", rules.Scan.MaxFilesPerDir)
	}
	if len(rules.Validation.ForbiddenTerms) != 1 || rules.Validation.ForbiddenTerms[0] != "mainframe" {
		t.Errorf("ForbiddenTerms = %v, want [mainframe]", rules.Validation.ForbiddenTerms)
	}
}

func TestLoadRules_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "malformed yaml",
			content: "scan: [unclosed",
			wantErr: "failed to parse rules file",
		},
		{
			name:    "zero budget",
			content: "scan:\n  max_tree_lines: 0\n",
			wantErr: "scan.max_tree_lines must be at least 1",
		},
		{
			name:    "empty manifest pattern",
			content: "scan:\n  manifests:\n    - technology: Go\n",
			wantErr: "scan.manifests[0].pattern must not be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "rules.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatalf("failed to write rules file: %v", err)
			}

			_, err := LoadRules(path)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want containing %q", err.Error(), tt.wantErr)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRules(filepath.Join(t.TempDir(), "absent.yaml"))
		if err == nil || !strings.Contains(err.Error(), "failed to read rules file") {
			t.Errorf("expected read error, got %v", err)
		}
	})
}
