package cli

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"arq-generator/internal/scanner"
)

// runCommand executes the root command with args and returns stdout
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var stdout, stderr bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), err
}

func writeRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"go.mod":             "module example.com/shop\n",
		"cmd/shop/main.go":   "package main",
		"orders/orders.go":   "package orders",
		"billing/billing.go": "package billing",
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return root
}

// fakeOllama serves /api/tags and /api/generate
func fakeOllama(t *testing.T, model, response string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			json.NewEncoder(w).Encode(map[string]any{"models": []map[string]string{{"name": model}}})
		case "/api/generate":
			json.NewEncoder(w).Encode(map[string]any{"done": true, "response": response})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func setOllamaEnv(t *testing.T, url string) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("ARQ_MODEL_PROVIDER", "ollama")
	t.Setenv("ARQ_OLLAMA_MODEL_API", url)
	t.Setenv("ARQ_OLLAMA_MODEL_ID", "llama3.2:3b")
}

func TestScanCommand(t *testing.T) {
	repo := writeRepo(t)

	out, err := runCommand(t, "scan", repo, "--depth", "2")
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	var structure scanner.RepositoryStructure
	if err := json.Unmarshal([]byte(out), &structure); err != nil {
		t.Fatalf("scan output is not JSON: %v\n%s", err, out)
	}

	if !slices.Contains(structure.Technologies, "Go") {
		t.Errorf("Technologies = %v, want Go", structure.Technologies)
	}
	wantModules := []string{"billing", "cmd", "orders"}
	if !slices.Equal(structure.Modules, wantModules) {
		t.Errorf("Modules = %v, want %v", structure.Modules, wantModules)
	}
	if _, ok := structure.KeyFile("go.mod"); !ok {
		t.Error("expected go.mod key file")
	}
}

func TestScanCommand_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"depth out of range", []string{"scan", t.TempDir(), "--depth", "5"}, "invalid scan depth"},
		{"missing path", []string{"scan"}, "accepts 1 arg(s)"},
		{"not a directory", []string{"scan", filepath.Join(t.TempDir(), "absent")}, "failed to stat scan root"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCommand(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestAnalyzeCommand_Arguments(t *testing.T) {
	if _, err := runCommand(t, "analyze"); err == nil {
		t.Error("analyze without a URL should fail")
	}
	if _, err := runCommand(t, "analyze", "https://github.com/a/b", "--depth", "0"); err == nil || !strings.Contains(err.Error(), "invalid scan depth") {
		t.Errorf("expected depth error, got %v", err)
	}
}

func TestAnalyzeCommand_RejectsURLBeforeCloning(t *testing.T) {
	server := fakeOllama(t, "llama3.2:3b", "")
	setOllamaEnv(t, server.URL)

	_, err := runCommand(t, "analyze", "https://example.com/not-a-repo")
	if err == nil || !strings.Contains(err.Error(), "invalid repository URL") {
		t.Errorf("expected invalid URL error, got %v", err)
	}
}

func TestDiagramCommand(t *testing.T) {
	response := "```mermaid\nflowchart LR\n    A[orders] --> B[billing]\n    B --> C[Database]\n    A --> D[cmd]\n```"
	server := fakeOllama(t, "llama3.2:3b", response)
	setOllamaEnv(t, server.URL)

	out, err := runCommand(t, "diagram", writeRepo(t))
	if err != nil {
		t.Fatalf("diagram failed: %v", err)
	}

	want := "flowchart LR\n    A[orders] --> B[billing]\n    A[orders] --> D[cmd]\n"
	if out != want {
		t.Errorf("diagram output = %q, want %q", out, want)
	}
}

func TestHealthCommand(t *testing.T) {
	t.Run("connected", func(t *testing.T) {
		server := fakeOllama(t, "llama3.2:3b", "")
		setOllamaEnv(t, server.URL)

		out, err := runCommand(t, "health")
		if err != nil {
			t.Fatalf("health failed: %v", err)
		}
		if out != "generator: connected (ollama, llama3.2:3b)\n" {
			t.Errorf("output = %q", out)
		}
	})

	t.Run("model missing", func(t *testing.T) {
		server := fakeOllama(t, "mistral:latest", "")
		setOllamaEnv(t, server.URL)

		out, err := runCommand(t, "health")
		if err == nil || !strings.Contains(err.Error(), "model not found") {
			t.Errorf("expected model not found error, got %v", err)
		}
		if !strings.Contains(out, "disconnected") {
			t.Errorf("output = %q, want disconnected", out)
		}
	})
}
